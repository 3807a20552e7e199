package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleImage is a 96-byte ELF-looking file: a 64-byte header and 32 bytes of code.
func sampleImage() []byte {
	data := make([]byte, 96)
	copy(data, "\x7fELF\x02\x01\x01\x00")
	copy(data[64:], bytes.Repeat([]byte{0x90}, 32))
	return data
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.out")
	require.NoError(t, os.WriteFile(path, sampleImage(), 0o755))
	return path
}

// captureOutput runs fn with command output redirected to a buffer.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	defer func() { stdout = orig }()

	err := fn()
	return buf.String(), err
}

// resetFlags restores every command flag to its default.
func resetFlags() {
	verbose, quiet, jsonOut, noColor = false, false, false, true
	treeChunks, treeDepth, treeData, treeDataBytes, treeCompact = nil, 0, false, 16, false
	patchOut, patchInPlace, patchZero = "", false, false
}
