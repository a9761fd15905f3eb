package vm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/polycash/blockvm/internal/asm"
)

// ExitCodeOutOfGas is returned when gas used exceeds the limit.
const ExitCodeOutOfGas = 2

// MaxInvokeDepth bounds nested Invoke recursion.
const MaxInvokeDepth = 256

// StateManager is the tiered persistent state seen by contracts.
type StateManager interface {
	Write(location string, value []byte)
	Get(ctx context.Context, location string) ([]byte, error)
	GetSync(ctx context.Context, location string) ([]byte, error)
	// Flush commits every cached entry and returns the resulting change log.
	Flush(ctx context.Context) (string, error)
}

// Host serves chain, oracle and contract queries.
type Host interface {
	GetBlockchainLen(ctx context.Context) (uint64, error)
	QueryOracle(ctx context.Context, queryType uint64, body []byte) ([]byte, error)
	ReadContract(ctx context.Context, location uint64) (string, error)
}

type FlushPolicy uint8

const (
	// FlushTopLevel flushes once when the top-level contract terminates.
	FlushTopLevel FlushPolicy = iota
	// FlushEveryExit additionally flushes whenever an invoked contract terminates.
	FlushEveryExit
)

func ParseFlushPolicy(s string) (FlushPolicy, error) {
	switch s {
	case "", "top-level":
		return FlushTopLevel, nil
	case "every-exit":
		return FlushEveryExit, nil
	}
	return FlushTopLevel, fmt.Errorf("unknown flush policy %q", s)
}

func (p FlushPolicy) String() string {
	if p == FlushEveryExit {
		return "every-exit"
	}
	return "top-level"
}

// Env is everything a run needs besides the program itself.
type Env struct {
	GasLimit    Gas
	Sender      []byte
	State       StateManager
	Host        Host
	FlushPolicy FlushPolicy
	// Diagnostics receives Stderr output, defaults to io.Discard.
	Diagnostics io.Writer
}

// Result is the outcome of a top-level run.
type Result struct {
	ExitCode int64
	GasUsed  Gas
	// Output is the contract output log: transactions, printed buffers and state changes.
	Output string
}

// Instance is a running contract together with everything its invocations share.
type Instance struct {
	ctx context.Context
	env Env

	program      asm.Program
	contractHash string
	pc           int
	depth        int

	buffers Buffers
	stack   Stack

	// stackBase is the number of frames owned by invoking contracts.
	stackBase int

	gasUsed  Gas
	exitCode int64
	out      strings.Builder
}

func newInstance(ctx context.Context, program asm.Program, contractHash string, env Env) *Instance {
	if env.Diagnostics == nil {
		env.Diagnostics = io.Discard
	}
	return &Instance{
		ctx:          ctx,
		env:          env,
		program:      program,
		contractHash: contractHash,
		buffers:      NewBuffers(),
	}
}

func (i *Instance) useGas(cost Gas) {
	i.gasUsed += cost
}

// advance moves to the next instruction.
func (i *Instance) advance() {
	i.pc++
}

// jump sets the program counter from a one-indexed line operand.
func (i *Instance) jump(operand string) error {
	line, err := parseLiteral(operand)
	if err != nil {
		return err
	}
	target, ok := i.program.Target(line)
	if !ok {
		return Fatalf("jump to line %d", line)
	}
	i.pc = target
	return nil
}

// Buffers exposes the live buffer store.
func (i *Instance) Buffers() Buffers {
	return i.buffers
}

func (i *Instance) GasUsed() Gas {
	return i.gasUsed
}
