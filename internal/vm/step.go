package vm

import "github.com/polycash/blockvm/internal/asm"

// step executes a single instruction, charges its gas and moves the program
// counter. It returns ErrHalt on Exit and ExitBfr, or a *FatalError.
func (i *Instance) step(line asm.Line) error {
	i.trace(line)

	mnemonic := Mnemonic(line.Mnemonic)
	if op, ok := mathMnemonics[mnemonic]; ok {
		if op.Arity() == 1 {
			return i.math(op, line.Arg(0), "", line.Arg(1), line.Arg(2))
		}
		return i.math(op, line.Arg(0), line.Arg(1), line.Arg(2), line.Arg(3))
	}

	switch mnemonic {
	case Next:
		i.useGas(NextCost)
		i.advance()
		return nil
	case Exit:
		return i.exit(line.Arg(0))
	case ExitBfr:
		return i.exitBfr(line.Arg(0), line.Arg(1))
	case InitBfr:
		i.initBfr(line.Arg(0))
		return nil
	case CpyBfr:
		i.cpyBfr(line.Arg(0), line.Arg(1), line.Arg(2))
		return nil
	case FreeBfr:
		return i.freeBfr(line.Arg(0))
	case BfrStat:
		i.bfrStat(line.Arg(0), line.Arg(1))
		return nil
	case BfrLen:
		i.bfrLen(line.Arg(0), line.Arg(1), line.Arg(2))
		return nil
	case Eq:
		i.eq(line.Arg(0), line.Arg(1), line.Arg(2), line.Arg(3))
		return nil
	case App:
		i.app(line.Arg(0), line.Arg(1), line.Arg(2))
		return nil
	case Slice:
		return i.slice(line.Arg(0), line.Arg(1), line.Arg(2), line.Arg(3))
	case Shiftl:
		return i.shift(line.Arg(0), line.Arg(1), line.Arg(2), true)
	case Shiftr:
		return i.shift(line.Arg(0), line.Arg(1), line.Arg(2), false)
	case Jmp:
		i.useGas(JmpCost)
		return i.jump(line.Arg(0))
	case JmpCond:
		return i.jmpCond(line.Arg(0), line.Arg(1), line.Arg(2))
	case Call:
		i.useGas(CallCost)
		i.stack.Push(i.buffers, i.pc+1)
		return i.jump(line.Arg(0))
	case Ret:
		return i.ret()
	case Stdout:
		i.stdout(line.Arg(0), line.Arg(1))
		return nil
	case PrintStr:
		i.printStr(line.Arg(0), line.Arg(1))
		return nil
	case Stderr:
		i.stderr(line.Arg(0), line.Arg(1))
		return nil
	case SetCnst:
		return i.setCnst(line.Arg(0), line.Arg(1), line.Arg(2))
	case Tx:
		i.tx(line.Arg(0), line.Arg(1), line.Arg(2), line.Arg(3))
		return nil
	case ChainLen:
		return i.chainLen(line.Arg(0), line.Arg(1))
	case UpdateState:
		return i.updateState(line.Arg(0), line.Arg(1), line.Arg(2), false)
	case UpdateStateExternal:
		return i.updateState(line.Arg(0), line.Arg(1), line.Arg(2), true)
	case GetFromState:
		return i.getFromState(line.Arg(0), line.Arg(1), line.Arg(2), false, false)
	case GetFromStateExternal:
		return i.getFromState(line.Arg(0), line.Arg(1), line.Arg(2), true, false)
	case GetFromStateSync:
		return i.getFromState(line.Arg(0), line.Arg(1), line.Arg(2), false, true)
	case GetFromStateExternalSync:
		return i.getFromState(line.Arg(0), line.Arg(1), line.Arg(2), true, true)
	case QueryOracle:
		return i.queryOracle(line.Arg(0), line.Arg(1), line.Arg(2))
	case Invoke:
		return i.invoke(line.Arg(0))
	case GetSender:
		i.getSender(line.Arg(0), line.Arg(1))
		return nil
	}

	// Unknown mnemonics are a soft failure
	i.buffers.ThrowGlobalError()
	i.useGas(UnknownCost)
	i.advance()
	return nil
}
