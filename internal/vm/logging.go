package vm

import (
	"github.com/rs/zerolog"

	"github.com/polycash/blockvm/internal/asm"
	"github.com/polycash/blockvm/pkg/log"
)

// trace emits one debug event per executed instruction.
func (i *Instance) trace(line asm.Line) {
	if log.VM.GetLevel() > zerolog.DebugLevel {
		return
	}
	log.VM.Debug().
		Int("pc", i.pc).
		Int("depth", i.depth).
		Str("mnemonic", line.Mnemonic).
		Strs("args", line.Args).
		Int64("gas", int64(i.gasUsed)).
		Msg("step")
}
