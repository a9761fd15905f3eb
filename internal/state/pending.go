package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/polycash/blockvm/pkg/log"
)

// Pending holds writes of the current, not yet committed batch.
type Pending struct {
	entries map[string][]byte
}

func NewPending(entries map[string][]byte) *Pending {
	p := &Pending{entries: make(map[string][]byte, len(entries))}
	maps.Copy(p.entries, entries)
	return p
}

func (p *Pending) Get(_ context.Context, location string) ([]byte, error) {
	v, ok := p.entries[location]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Apply records a committed write so later synchronous reads observe it.
func (p *Pending) Apply(location string, value []byte) {
	p.entries[location] = value
}

// Entries returns a copy of the overlay.
func (p *Pending) Entries() map[string][]byte {
	return maps.Clone(p.entries)
}

// DecodePending reads a msgpack map of location to value. Values may be
// encoded as msgpack str or bin.
func DecodePending(r io.Reader) (*Pending, error) {
	var raw map[string]any
	if err := msgpack.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode pending state: %w", err)
	}
	entries := make(map[string][]byte, len(raw))
	for location, value := range raw {
		switch v := value.(type) {
		case string:
			entries[location] = []byte(v)
		case []byte:
			entries[location] = v
		default:
			return nil, fmt.Errorf("decode pending state: location %q holds %T", location, value)
		}
	}
	return NewPending(entries), nil
}

// EncodePending writes entries in the format read by DecodePending.
func EncodePending(w io.Writer, entries map[string][]byte) error {
	return msgpack.NewEncoder(w).Encode(entries)
}

// LoadPending decodes the pending state file at path. A missing file yields an empty overlay.
func LoadPending(path string) (*Pending, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.State.Warn().Str("path", path).Msg("no pending state file, starting with an empty overlay")
		return NewPending(nil), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	return DecodePending(f)
}
