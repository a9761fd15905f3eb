package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const (
	batchSeparator = "%"
	pairSeparator  = "*"
	kvSeparator    = ">"
)

// parseStateDump reads "location>hexvalue" pairs joined by "*". Empty input is an empty state.
func parseStateDump(dump string) (map[string][]byte, error) {
	state := make(map[string][]byte)
	if strings.TrimSpace(dump) == "" {
		return state, nil
	}
	for _, pair := range strings.Split(dump, pairSeparator) {
		location, value, ok := strings.Cut(pair, kvSeparator)
		if !ok {
			return nil, fmt.Errorf("state pair %q: missing %q", pair, kvSeparator)
		}
		b, err := hex.DecodeString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("state pair %q: %w", pair, err)
		}
		state[location] = b
	}
	return state, nil
}

func readStateDump(path string) (map[string][]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return parseStateDump(string(b))
}

// splitBatch splits a "%" separated batch argument.
func splitBatch(arg string) []string {
	return strings.Split(arg, batchSeparator)
}
