package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNumericLength a buffer read as a number is not 8 bytes long
	ErrInvalidNumericLength = errors.New("numeric buffer must be 8 bytes")

	// ErrOutOfGas gas used exceeded the limit before the next instruction
	ErrOutOfGas = errors.New("out of gas")

	// ErrHalt regular termination through Exit or ExitBfr
	ErrHalt = errors.New("halt")
)

// FatalError is an unrecoverable condition that aborts the whole run, as
// opposed to local and global errors which are written into buffers.
type FatalError struct {
	msg  string
	args []any
}

func Fatalf(msg string, args ...any) *FatalError {
	return &FatalError{msg: msg, args: args}
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: "+e.msg, e.args...)
}
