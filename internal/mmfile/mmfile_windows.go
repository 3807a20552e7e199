//go:build windows

package mmfile

import "os"

// Map reads the file at path into memory.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}

// MapWritable reads the file at path into memory; cleanup writes the buffer back.
func MapWritable(path string) ([]byte, func() error, error) {
	return readWriteBack(path)
}
