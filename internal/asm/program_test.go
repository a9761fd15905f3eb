package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected Program
	}{
		{
			name:   "hex prefix stripped and trailing comment discarded",
			source: "InitBfr 0x00000001 0x00000000 ; comment",
			expected: Program{
				{Mnemonic: "InitBfr", Args: []string{"00000001", "00000000"}},
			},
		},
		{
			name:   "comment only line becomes no-op",
			source: "; header\nExit 0",
			expected: Program{
				{Mnemonic: NoOp},
				{Mnemonic: "Exit", Args: []string{"0"}},
			},
		},
		{
			name:   "blank lines are dropped",
			source: "InitBfr 0x00000002\n\n   \nExit 1\n",
			expected: Program{
				{Mnemonic: "InitBfr", Args: []string{"00000002"}},
				{Mnemonic: "Exit", Args: []string{"1"}},
			},
		},
		{
			name:   "comment glued to token",
			source: "Jmp 3 ;loop",
			expected: Program{
				{Mnemonic: "Jmp", Args: []string{"3"}},
			},
		},
		{
			name:   "crlf line endings",
			source: "Ret\r\nExit 2\r\n",
			expected: Program{
				{Mnemonic: "Ret"},
				{Mnemonic: "Exit", Args: []string{"2"}},
			},
		},
		{
			name:     "empty source",
			source:   "",
			expected: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Decode(tc.source))
		})
	}
}

func TestProgramTarget(t *testing.T) {
	program := Decode("; comment\n\nExit 1\nExit 2")
	require.Len(t, program, 3)

	pc, ok := program.Target(3)
	require.True(t, ok)
	assert.Equal(t, 2, pc)
	assert.Equal(t, "Exit 2", program[pc].String())

	// Past the end terminates the program
	for _, line := range []uint64{4, 5, 1 << 63} {
		pc, ok = program.Target(line)
		require.True(t, ok)
		assert.Equal(t, 3, pc)
	}

	_, ok = program.Target(0)
	assert.False(t, ok)
}

func TestLineArg(t *testing.T) {
	line := Line{Mnemonic: "CpyBfr", Args: []string{"a", "b"}}
	assert.Equal(t, "b", line.Arg(1))
	assert.Equal(t, "", line.Arg(2))
}
