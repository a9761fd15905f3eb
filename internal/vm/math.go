package vm

import (
	"errors"
	"fmt"
	"math/bits"
)

var ErrDivisionByZero = errors.New("division by zero")

// MathOp is one of the integer operations over numeric buffers.
type MathOp uint8

const (
	OpAdd MathOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpExp
	OpAnd
	OpOr
	OpNot
	OpLess
)

func (op MathOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	case OpExp:
		return "exp"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	case OpLess:
		return "less"
	}
	return fmt.Sprintf("MathOp(%d)", uint8(op))
}

// Arity is the number of numeric operands the operation reads.
func (op MathOp) Arity() int {
	if op == OpNot {
		return 1
	}
	return 2
}

// Apply evaluates the operation with 2^64 wraparound. Division by zero is
// reported as ErrDivisionByZero, modulo by zero is fatal.
func (op MathOp) Apply(a, b uint64) (uint64, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case OpMod:
		if b == 0 {
			return 0, Fatalf("modulo by zero")
		}
		return a % b, nil
	case OpExp:
		return wrappingPow(a, uint32(b)), nil
	case OpAnd:
		return a & b, nil
	case OpOr:
		return a | b, nil
	case OpNot:
		if a == 0 {
			return 1, nil
		}
		return 0, nil
	case OpLess:
		if a < b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, Fatalf("unknown math operation %d", uint8(op))
}

// wrappingPow raises base to a 32 bit exponent modulo 2^64.
func wrappingPow(base uint64, exp uint32) uint64 {
	result := uint64(1)
	for exp > 0 {
		if exp&1 == 1 {
			_, result = bits.Mul64(result, base)
		}
		_, base = bits.Mul64(base, base)
		exp >>= 1
	}
	return result
}

// executeMathOperation reads the operands named by a and b, stores op(a, b)
// in res and reports failures through errAddr. b is ignored for unary operations.
func executeMathOperation(buffers Buffers, op MathOp, a, b, res, errAddr string) error {
	operands := []string{a}
	if op.Arity() == 2 {
		operands = append(operands, b)
	}
	if !buffers.requireAll(errAddr, append(operands, res)...) {
		return nil
	}

	values := make([]uint64, 2)
	for n, addr := range operands {
		v, err := buffers[addr].Uint64()
		if err != nil {
			return Fatalf("%s operand %s: %v", op, addr, err)
		}
		values[n] = v
	}

	result, err := op.Apply(values[0], values[1])
	if errors.Is(err, ErrDivisionByZero) {
		buffers.ThrowLocalError(errAddr)
		return nil
	}
	if err != nil {
		return err
	}
	buffers[res] = Uint64Buffer(result)
	return nil
}
