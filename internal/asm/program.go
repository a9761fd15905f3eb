// Package asm decodes contract assembly text into the instruction sequence
// executed by the vm package.
package asm

import "strings"

// NoOp is the mnemonic emitted for a line that holds only a comment.
// It keeps line-indexed jump targets aligned with the source.
const NoOp = "NEXT"

const (
	commentPrefix = ";"
	hexPrefix     = "0x"
)

// Line is a single decoded instruction.
type Line struct {
	Mnemonic string
	Args     []string
}

// Arg returns the n-th operand or an empty string when the line has fewer operands.
func (l Line) Arg(n int) string {
	if n < 0 || n >= len(l.Args) {
		return ""
	}
	return l.Args[n]
}

func (l Line) String() string {
	if len(l.Args) == 0 {
		return l.Mnemonic
	}
	return l.Mnemonic + " " + strings.Join(l.Args, " ")
}

// Program is the ordered instruction sequence of one contract.
// Jump targets address it one-indexed.
type Program []Line

// Decode splits contract source into instructions.
//
// Blank lines are dropped and do not count towards jump targets, a line whose
// first token is a comment decodes to NoOp and does count.
func Decode(source string) Program {
	var program Program
	for _, raw := range strings.Split(source, "\n") {
		tokens := strings.Fields(raw)
		if len(tokens) == 0 {
			continue
		}
		if strings.HasPrefix(tokens[0], commentPrefix) {
			program = append(program, Line{Mnemonic: NoOp})
			continue
		}

		line := Line{Mnemonic: tokens[0]}
		for _, token := range tokens[1:] {
			if strings.HasPrefix(token, commentPrefix) {
				break
			}
			line.Args = append(line.Args, strings.TrimPrefix(token, hexPrefix))
		}
		program = append(program, line)
	}
	return program
}

// Target converts a one-indexed jump operand into a program counter.
// Targets past the last line are clamped to len(p) and end the program.
func (p Program) Target(line uint64) (int, bool) {
	if line == 0 {
		return 0, false
	}
	if line > uint64(len(p)) {
		return len(p), true
	}
	return int(line - 1), true
}
