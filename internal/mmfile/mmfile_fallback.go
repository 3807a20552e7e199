//go:build !unix && !windows

package mmfile

import "os"

// Map reads the entire file when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}

// MapWritable reads the entire file; cleanup writes the buffer back to path.
func MapWritable(path string) ([]byte, func() error, error) {
	return readWriteBack(path)
}
