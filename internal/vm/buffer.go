package vm

import "encoding/binary"

// Reserved buffer addresses.
const (
	// GlobalErrorAddress receives the error marker when an instruction names no
	// usable error buffer, and for unrecognised mnemonics.
	GlobalErrorAddress = "00000000"
	// ReturnValueAddress survives Ret and the end of an Invoke.
	ReturnValueAddress = "00000001"
)

// Width in bytes of a numeric buffer.
const NumericWidth = 8

var errorMarker = Buffer{1}

// Buffer is a single named memory cell.
type Buffer []byte

// Uint64 interprets the buffer as a big-endian unsigned integer.
// It fails unless the buffer is exactly NumericWidth bytes long.
func (b Buffer) Uint64() (uint64, error) {
	if len(b) != NumericWidth {
		return 0, ErrInvalidNumericLength
	}
	return binary.BigEndian.Uint64(b), nil
}

// Uint64Buffer encodes v as an 8 byte big-endian buffer.
func Uint64Buffer(v uint64) Buffer {
	return binary.BigEndian.AppendUint64(make(Buffer, 0, NumericWidth), v)
}

func boolBuffer(v bool) Buffer {
	if v {
		return Uint64Buffer(1)
	}
	return Uint64Buffer(0)
}

// Buffers is the complete addressable memory of a running contract.
type Buffers map[string]Buffer

// NewBuffers returns the initial store holding only the global error buffer.
func NewBuffers() Buffers {
	return Buffers{GlobalErrorAddress: Buffer{}}
}

func (b Buffers) Initialized(addr string) bool {
	_, ok := b[addr]
	return ok
}

// Contents returns a copy of the buffer at addr. When addr is not
// initialised it raises a local error at errAddr and returns nil, an
// initialised buffer never yields nil.
func (b Buffers) Contents(addr, errAddr string) Buffer {
	buf, ok := b[addr]
	if !ok {
		b.ThrowLocalError(errAddr)
		return nil
	}
	return append(Buffer{}, buf...)
}

// ThrowLocalError marks errAddr, falling back to the global error buffer if
// errAddr does not exist.
func (b Buffers) ThrowLocalError(errAddr string) {
	if !b.Initialized(errAddr) {
		b.ThrowGlobalError()
		return
	}
	b[errAddr] = append(Buffer(nil), errorMarker...)
}

// ThrowGlobalError marks GlobalErrorAddress if it exists. Nested invocations
// start without one, in which case the error is dropped.
func (b Buffers) ThrowGlobalError() {
	if b.Initialized(GlobalErrorAddress) {
		b[GlobalErrorAddress] = append(Buffer(nil), errorMarker...)
	}
}

// requireAll reports whether every address is initialised, raising one local
// error at errAddr otherwise.
func (b Buffers) requireAll(errAddr string, addrs ...string) bool {
	for _, addr := range addrs {
		if !b.Initialized(addr) {
			b.ThrowLocalError(errAddr)
			return false
		}
	}
	return true
}

// Clone deep copies the store.
func (b Buffers) Clone() Buffers {
	clone := make(Buffers, len(b))
	for addr, buf := range b {
		clone[addr] = append(Buffer(nil), buf...)
	}
	return clone
}
