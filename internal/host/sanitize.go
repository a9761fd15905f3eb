package host

import (
	"fmt"
	"strings"
)

// Substrings refused anywhere in a node command. Commands are separated by ';'
// on the node console, so these would smuggle in a second command.
var forbiddenInCommand = []string{";send", ";savestate", ";keygen"}

// Substrings refused in operands derived from contract data.
var forbiddenInOperand = []string{";", "send", "savestate", "keygen"}

// Sanitize rejects a command built from command and operands when it could
// reach beyond the intended query.
func Sanitize(command string, operands ...string) error {
	full := strings.Join(append([]string{command}, operands...), " ")
	for _, f := range forbiddenInCommand {
		if strings.Contains(full, f) {
			return fmt.Errorf("%w: %q contains %q", ErrForbiddenCommand, full, f)
		}
	}
	for _, op := range operands {
		for _, f := range forbiddenInOperand {
			if strings.Contains(op, f) {
				return fmt.Errorf("%w: operand %q contains %q", ErrForbiddenCommand, op, f)
			}
		}
	}
	return nil
}
