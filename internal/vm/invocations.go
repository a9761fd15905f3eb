package vm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/polycash/blockvm/internal/asm"
	"github.com/polycash/blockvm/pkg/log"
)

// Run executes program as the top-level contract identified by contractHash.
//
// Termination through Exit, ExitBfr, the end of the program or gas exhaustion
// yields a Result and flushes the state manager. Any other error is fatal and
// is returned as a *FatalError together with the partial result.
func Run(ctx context.Context, program asm.Program, contractHash string, env Env) (Result, error) {
	i := newInstance(ctx, program, contractHash, env)

	err := i.runGuarded()
	switch {
	case err == nil:
		i.exitCode = 0
	case errors.Is(err, ErrHalt):
	case errors.Is(err, ErrOutOfGas):
		i.exitCode = ExitCodeOutOfGas
		i.gasUsed = env.GasLimit
	default:
		log.VM.Error().Err(err).Int("pc", i.pc).Str("contract", contractHash).Msg("run aborted")
		return i.result(), err
	}

	if err := i.flush(); err != nil {
		return i.result(), err
	}
	log.VM.Debug().Int64("exitCode", i.exitCode).Int64("gasUsed", int64(i.gasUsed)).Msg("run finished")
	return i.result(), nil
}

func (i *Instance) result() Result {
	return Result{ExitCode: i.exitCode, GasUsed: i.gasUsed, Output: i.out.String()}
}

// runGuarded converts unexpected panics inside an instruction into a FatalError.
func (i *Instance) runGuarded() (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = Fatalf("unexpected program termination at pc %d: %v", i.pc, recovered)
		}
	}()
	return i.run()
}

// run executes the current program until it ends, halts or fails.
// Gas is checked once before every instruction.
func (i *Instance) run() error {
	for i.pc < len(i.program) {
		if i.gasUsed > i.env.GasLimit {
			return ErrOutOfGas
		}
		if err := i.ctx.Err(); err != nil {
			return Fatalf("run cancelled: %v", err)
		}
		if err := i.step(i.program[i.pc]); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instance) flush() error {
	changes, err := i.env.State.Flush(i.ctx)
	if err != nil {
		return Fatalf("state flush: %v", err)
	}
	i.out.WriteString(changes)
	return nil
}

// ContractHash is the hex SHA-256 digest of a contract's source.
func ContractHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Invoke location runs another contract to completion on a fresh buffer
// store, sharing gas, call stack and state. Only ReturnValueAddress comes back.
func (i *Instance) invoke(literal string) error {
	i.useGas(InvokeCost)
	location, err := parseLiteral(literal)
	if err != nil {
		return err
	}
	if i.depth >= MaxInvokeDepth {
		return Fatalf("invoke depth exceeds %d", MaxInvokeDepth)
	}
	source, err := i.env.Host.ReadContract(i.ctx, location)
	if err != nil {
		return Fatalf("read contract %d: %v", location, err)
	}

	callerProgram, callerHash, callerBase := i.program, i.contractHash, i.stackBase
	depth := i.stack.Len()
	i.stack.Push(i.buffers, i.pc+1)
	i.stackBase = depth + 1

	i.program, i.contractHash, i.pc = asm.Decode(source), ContractHash(source), 0
	i.buffers = Buffers{}
	i.depth++
	log.VM.Debug().Uint64("location", location).Str("contract", i.contractHash).Int("depth", i.depth).Msg("invoke")

	err = i.run()
	i.depth--
	i.program, i.contractHash, i.stackBase = callerProgram, callerHash, callerBase
	if err != nil && !errors.Is(err, ErrHalt) {
		return err
	}
	if i.env.FlushPolicy == FlushEveryExit {
		if err := i.flush(); err != nil {
			return err
		}
	}

	// Frames the callee left behind by exiting inside a Call are discarded.
	i.stack.Truncate(depth + 1)
	frame, err := i.stack.Pop()
	if err != nil {
		return err
	}
	i.restore(frame)
	return nil
}
