package guest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"
)

var ErrJournalMismatch = errors.New("journal mismatch")

// InputHash commits to the complete private input: hex BLAKE2b-256 of the
// msgpack encoding of details.
func InputHash(details RunDetails) (string, error) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(canonical(details)); err != nil {
		return "", fmt.Errorf("encode run details: %w", err)
	}
	sum := blake2b.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// canonical maps empty slices to nil so details survive an encoding round trip
// with the same hash.
func canonical(d RunDetails) RunDetails {
	if len(d.PendingState) == 0 {
		d.PendingState = nil
	} else {
		entries := make([]StateEntry, len(d.PendingState))
		for n, e := range d.PendingState {
			if len(e.Value) == 0 {
				e.Value = nil
			}
			entries[n] = e
		}
		d.PendingState = entries
	}
	if len(d.Contracts) == 0 {
		d.Contracts = nil
		return d
	}
	contracts := make([]Contract, len(d.Contracts))
	for n, c := range d.Contracts {
		if len(c.Sender) == 0 {
			c.Sender = nil
		}
		contracts[n] = c
	}
	d.Contracts = contracts
	return d
}

// Verify checks that journal was produced from details.
func Verify(journal Journal, details RunDetails) error {
	inputHash, err := InputHash(details)
	if err != nil {
		return err
	}
	if journal.InputHash != inputHash {
		return fmt.Errorf("%w: input hash %s, expected %s", ErrJournalMismatch, journal.InputHash, inputHash)
	}
	if journal.MerkleRoot != details.MerkleRoot {
		return fmt.Errorf("%w: merkle root %q, expected %q", ErrJournalMismatch, journal.MerkleRoot, details.MerkleRoot)
	}
	if len(journal.Results) != len(details.Contracts) {
		return fmt.Errorf("%w: %d results for %d contracts", ErrJournalMismatch, len(journal.Results), len(details.Contracts))
	}
	return nil
}

// Compare reports the first field in which claimed differs from an honest
// re-execution.
func Compare(claimed, honest Journal) error {
	switch {
	case !slices.Equal(claimed.Results, honest.Results):
		return fmt.Errorf("%w: results %v, expected %v", ErrJournalMismatch, claimed.Results, honest.Results)
	case claimed.Out != honest.Out:
		return fmt.Errorf("%w: output log", ErrJournalMismatch)
	case claimed.MerkleRoot != honest.MerkleRoot:
		return fmt.Errorf("%w: merkle root", ErrJournalMismatch)
	case claimed.StateTransitionRoot != honest.StateTransitionRoot:
		return fmt.Errorf("%w: state transition root", ErrJournalMismatch)
	case claimed.InputHash != honest.InputHash:
		return fmt.Errorf("%w: input hash", ErrJournalMismatch)
	}
	return nil
}

func EncodeJournal(w io.Writer, j Journal) error {
	return msgpack.NewEncoder(w).Encode(j)
}

func DecodeJournal(r io.Reader) (Journal, error) {
	var j Journal
	if err := msgpack.NewDecoder(r).Decode(&j); err != nil {
		return Journal{}, fmt.Errorf("decode journal: %w", err)
	}
	return j, nil
}

func EncodeRunDetails(w io.Writer, d RunDetails) error {
	return msgpack.NewEncoder(w).Encode(d)
}

func DecodeRunDetails(r io.Reader) (RunDetails, error) {
	var d RunDetails
	if err := msgpack.NewDecoder(r).Decode(&d); err != nil {
		return RunDetails{}, fmt.Errorf("decode run details: %w", err)
	}
	return d, nil
}
