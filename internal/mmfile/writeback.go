//go:build !unix

package mmfile

import (
	"fmt"
	"os"
)

// readWriteBack emulates a shared writable mapping on platforms without one.
// The cleanup persists the buffer to path exactly once.
func readWriteBack(path string) ([]byte, func() error, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	done := false
	cleanup := func() error {
		if done {
			return nil
		}
		done = true
		if writeErr := os.WriteFile(path, data, info.Mode().Perm()); writeErr != nil {
			return fmt.Errorf("mmfile: write back %s: %w", path, writeErr)
		}
		return nil
	}
	return data, cleanup, nil
}
