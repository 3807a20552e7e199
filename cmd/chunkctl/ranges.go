package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// span is a byte range given on the command line as "offset:size".
type span struct {
	Offset int64
	Size   int64
}

// parseSpan parses "offset:size". Both parts accept 0x, 0o and 0b prefixes.
func parseSpan(s string) (span, error) {
	off, size, ok := strings.Cut(s, ":")
	if !ok {
		return span{}, fmt.Errorf("invalid range %q: want offset:size", s)
	}
	o, err := parseOffset(off)
	if err != nil {
		return span{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	n, err := parseOffset(size)
	if err != nil {
		return span{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	return span{Offset: o, Size: n}, nil
}

func parseOffset(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return v, nil
}

// parseHex decodes a hex string, ignoring spaces and an optional 0x prefix.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, " ", ""), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return b, nil
}

// formatRange renders [start, end) in hex.
func formatRange(start, end int64) string {
	return fmt.Sprintf("[0x%x, 0x%x)", start, end)
}
