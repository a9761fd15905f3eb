package vm

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

func parseLiteral(operand string) (uint64, error) {
	v, err := strconv.ParseUint(operand, 10, 64)
	if err != nil {
		return 0, Fatalf("malformed literal %q", operand)
	}
	return v, nil
}

// numeric reads an initialised buffer as a number. A wrong sized buffer is fatal.
func (i *Instance) numeric(addr string) (uint64, error) {
	v, err := i.buffers[addr].Uint64()
	if err != nil {
		return 0, Fatalf("buffer %s: %v", addr, err)
	}
	return v, nil
}

// Exit code
func (i *Instance) exit(literal string) error {
	code, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return Fatalf("malformed exit code %q", literal)
	}
	i.useGas(ExitCost)
	i.exitCode = code
	return ErrHalt
}

// ExitBfr buf err
func (i *Instance) exitBfr(addr, errAddr string) error {
	i.useGas(ExitBfrCost)
	if !i.buffers.requireAll(errAddr, addr) {
		i.advance()
		return nil
	}
	code, err := i.numeric(addr)
	if err != nil {
		return err
	}
	i.exitCode = int64(code)
	return ErrHalt
}

// InitBfr addr
func (i *Instance) initBfr(addr string) {
	i.buffers[addr] = Buffer{}
	i.useGas(InitBfrCost)
	i.advance()
}

// CpyBfr src dst err
func (i *Instance) cpyBfr(src, dst, errAddr string) {
	contents := i.buffers.Contents(src, errAddr)
	if !i.buffers.Initialized(dst) {
		i.useGas(CpyBfrInitCost)
	}
	if contents == nil {
		contents = Buffer{}
	}
	i.buffers[dst] = contents
	i.useGas(CpyBfrCost + sizeCost(len(contents)))
	i.advance()
}

// FreeBfr addr
func (i *Instance) freeBfr(addr string) error {
	if !i.buffers.Initialized(addr) {
		return Fatalf("free of uninitialised buffer %s", addr)
	}
	delete(i.buffers, addr)
	i.useGas(FreeBfrCost)
	i.advance()
	return nil
}

// BfrStat src dst
func (i *Instance) bfrStat(src, dst string) {
	if i.buffers.Initialized(dst) {
		if i.buffers.Initialized(src) {
			i.buffers[dst] = Buffer{1}
		} else {
			i.buffers[dst] = Buffer{0}
		}
	} else {
		i.buffers.ThrowGlobalError()
	}
	i.useGas(BfrStatCost)
	i.advance()
}

// BfrLen src dst err
func (i *Instance) bfrLen(src, dst, errAddr string) {
	if i.buffers.requireAll(errAddr, src, dst) {
		i.buffers[dst] = Uint64Buffer(uint64(len(i.buffers[src])))
	}
	i.useGas(BfrLenCost)
	i.advance()
}

func (i *Instance) math(op MathOp, a, b, res, errAddr string) error {
	if err := executeMathOperation(i.buffers, op, a, b, res, errAddr); err != nil {
		return err
	}
	i.useGas(mathCosts[op])
	i.advance()
	return nil
}

// Eq a b res err compares raw contents, so it also works on non numeric buffers.
func (i *Instance) eq(a, b, res, errAddr string) {
	if i.buffers.requireAll(errAddr, a, b, res) {
		i.buffers[res] = boolBuffer(bytes.Equal(i.buffers[a], i.buffers[b]))
	}
	i.useGas(EqCost)
	i.advance()
}

// App dst src err
func (i *Instance) app(dst, src, errAddr string) {
	if i.buffers.requireAll(errAddr, dst, src) {
		i.buffers[dst] = append(i.buffers[dst], i.buffers[src]...)
		i.useGas(sizeCost(len(i.buffers[dst])))
	}
	i.useGas(AppCost)
	i.advance()
}

// Slice buf start end err
func (i *Instance) slice(addr, startAddr, endAddr, errAddr string) error {
	defer i.advance()
	i.useGas(SliceCost)
	if !i.buffers.requireAll(errAddr, addr, startAddr, endAddr) {
		return nil
	}
	start, err := i.numeric(startAddr)
	if err != nil {
		return err
	}
	end, err := i.numeric(endAddr)
	if err != nil {
		return err
	}
	buf := i.buffers[addr]
	if start > end || end > uint64(len(buf)) {
		i.buffers.ThrowLocalError(errAddr)
		return nil
	}
	i.buffers[addr] = append(Buffer(nil), buf[start:end]...)
	i.useGas(sizeCost(len(i.buffers[addr])))
	return nil
}

// Shiftl and Shiftr buf amount err move the contents by amount bytes and
// zero fill the vacated end. The length of buf never changes.
func (i *Instance) shift(addr, amountAddr, errAddr string, left bool) error {
	defer i.advance()
	i.useGas(ShiftCost)
	if !i.buffers.requireAll(errAddr, addr, amountAddr) {
		return nil
	}
	amount, err := i.numeric(amountAddr)
	if err != nil {
		return err
	}
	buf := i.buffers[addr]
	n := len(buf)
	if amount < uint64(n) {
		n = int(amount)
	}
	shifted := make(Buffer, len(buf))
	if left {
		copy(shifted, buf[n:])
	} else {
		copy(shifted[n:], buf[:len(buf)-n])
	}
	i.buffers[addr] = shifted
	return nil
}

// JmpCond cond target err
func (i *Instance) jmpCond(cond, target, errAddr string) error {
	i.useGas(JmpCondCost)
	if !i.buffers.requireAll(errAddr, cond) {
		i.advance()
		return nil
	}
	v, err := i.numeric(cond)
	if err != nil {
		return err
	}
	if v == 0 {
		i.advance()
		return nil
	}
	return i.jump(target)
}

// Ret restores the caller's buffers, carrying the return value slot across.
func (i *Instance) ret() error {
	if i.stack.Len() <= i.stackBase {
		return Fatalf("return with empty call stack")
	}
	frame, err := i.stack.Pop()
	if err != nil {
		return err
	}
	i.restore(frame)
	i.useGas(RetCost)
	return nil
}

// restore swaps in the buffers of frame, keeping ReturnValueAddress from the
// current store when it exists.
func (i *Instance) restore(frame Frame) {
	returnValue, ok := i.buffers[ReturnValueAddress]
	i.buffers = frame.Buffers
	if ok {
		i.buffers[ReturnValueAddress] = returnValue
	}
	i.pc = frame.Origin
}

// formatBytes renders b as a bracketed comma separated list of decimal values.
func formatBytes(b []byte) string {
	parts := make([]string, len(b))
	for n, v := range b {
		parts[n] = strconv.Itoa(int(v))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Stdout buf err
func (i *Instance) stdout(addr, errAddr string) {
	if contents := i.buffers.Contents(addr, errAddr); contents != nil {
		i.out.WriteString(formatBytes(contents) + "\n")
	}
	i.useGas(StdoutCost)
	i.advance()
}

// PrintStr buf err
func (i *Instance) printStr(addr, errAddr string) {
	if contents := i.buffers.Contents(addr, errAddr); contents != nil {
		if utf8.Valid(contents) {
			i.out.WriteString(string(contents) + "\n")
		} else {
			i.buffers.ThrowLocalError(errAddr)
		}
	}
	i.useGas(PrintStrCost)
	i.advance()
}

// Stderr buf err
func (i *Instance) stderr(addr, errAddr string) {
	if contents := i.buffers.Contents(addr, errAddr); contents != nil {
		fmt.Fprintln(i.env.Diagnostics, formatBytes(contents))
	}
	i.useGas(StderrCost)
	i.advance()
}

// SetCnst buf hexliteral err
func (i *Instance) setCnst(addr, literal, errAddr string) error {
	defer i.advance()
	i.useGas(SetCnstCost)
	if !i.buffers.requireAll(errAddr, addr) {
		return nil
	}
	value, err := hex.DecodeString(literal)
	if err != nil {
		return Fatalf("malformed hex constant %q", literal)
	}
	i.buffers[addr] = value
	i.useGas(sizeCost(len(value)))
	return nil
}

// Tx sender receiver amount err
func (i *Instance) tx(senderAddr, receiverAddr, amountAddr, errAddr string) {
	text := func(addr string) string {
		contents := i.buffers.Contents(addr, errAddr)
		if !utf8.Valid(contents) {
			i.buffers.ThrowLocalError(errAddr)
			return ""
		}
		return string(contents)
	}
	sender, receiver, amount := text(senderAddr), text(receiverAddr), text(amountAddr)
	fmt.Fprintf(&i.out, "TX %s %s %s\n", sender, receiver, amount)
	i.useGas(TxCost)
	i.advance()
}

// ChainLen dst err
func (i *Instance) chainLen(dst, errAddr string) error {
	defer i.advance()
	i.useGas(ChainLenCost)
	if !i.buffers.requireAll(errAddr, dst) {
		return nil
	}
	n, err := i.env.Host.GetBlockchainLen(i.ctx)
	if err != nil {
		return Fatalf("blockchain length: %v", err)
	}
	i.buffers[dst] = Uint64Buffer(n)
	return nil
}

// internalLocation prefixes a numeric location with the running contract's hash.
func (i *Instance) internalLocation(loc uint64) string {
	return i.contractHash + strconv.FormatUint(loc, 10)
}

// UpdateState[External] loc val err
func (i *Instance) updateState(locAddr, valAddr, errAddr string, external bool) error {
	defer i.advance()
	if !i.buffers.requireAll(errAddr, locAddr, valAddr) {
		i.useGas(UpdateCost)
		return nil
	}
	loc, err := i.numeric(locAddr)
	if err != nil {
		return err
	}
	location := i.internalLocation(loc)
	if external {
		location = strconv.FormatUint(loc, 10)
	}
	value := i.buffers.Contents(valAddr, errAddr)
	i.env.State.Write(location, value)
	i.useGas(stateWriteCost(len(value)))
	return nil
}

// GetFromState[External][Sync] loc dst err
func (i *Instance) getFromState(locAddr, dst, errAddr string, external, sync bool) error {
	defer i.advance()
	i.useGas(GetCost)
	if !i.buffers.requireAll(errAddr, locAddr, dst) {
		return nil
	}

	var location string
	if external {
		location = hex.EncodeToString(i.buffers[locAddr])
	} else {
		loc, err := i.numeric(locAddr)
		if err != nil {
			return err
		}
		location = i.internalLocation(loc)
	}

	get := i.env.State.Get
	if sync {
		get = i.env.State.GetSync
	}
	value, err := get(i.ctx, location)
	if err != nil {
		return Fatalf("state read %s: %v", location, err)
	}
	i.buffers[dst] = append(Buffer{}, value...)
	return nil
}

// QueryOracle type body err
func (i *Instance) queryOracle(typeAddr, bodyAddr, errAddr string) error {
	defer i.advance()
	i.useGas(QueryCost)
	if !i.buffers.requireAll(errAddr, typeAddr, bodyAddr) {
		return nil
	}
	queryType, err := i.numeric(typeAddr)
	if err != nil {
		return err
	}
	response, err := i.env.Host.QueryOracle(i.ctx, queryType, i.buffers.Contents(bodyAddr, errAddr))
	if err != nil {
		i.buffers.ThrowLocalError(errAddr)
		return nil
	}
	i.buffers[typeAddr] = append(Buffer{}, response...)
	return nil
}

// GetSender dst err
func (i *Instance) getSender(dst, errAddr string) {
	if i.buffers.requireAll(errAddr, dst) {
		i.buffers[dst] = append(Buffer{}, i.env.Sender...)
	}
	i.useGas(GetSenderCost)
	i.advance()
}
