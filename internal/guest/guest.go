// Package guest runs a batch of contracts against merkle authenticated state
// and produces the public journal a verifier checks.
package guest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/polycash/blockvm/internal/asm"
	"github.com/polycash/blockvm/internal/host"
	"github.com/polycash/blockvm/internal/merkle"
	"github.com/polycash/blockvm/internal/state"
	"github.com/polycash/blockvm/internal/vm"
	"github.com/polycash/blockvm/pkg/log"
)

var ErrContractHashMismatch = errors.New("contract hash does not match contents")

// Contract is one entry of a proving batch.
type Contract struct {
	Contents string `msgpack:"contents"`
	Hash     string `msgpack:"hash"`
	GasLimit int64  `msgpack:"gas_limit"`
	Sender   []byte `msgpack:"sender"`
}

// RunDetails is the complete private input of a proof run.
type RunDetails struct {
	Contracts     []Contract   `msgpack:"contracts"`
	BlockchainLen uint64       `msgpack:"blockchain_len"`
	MerkleRoot    string       `msgpack:"merkle_root"`
	PendingState  []StateEntry `msgpack:"pending_state"`
	FlushPolicy   string       `msgpack:"flush_policy"`
	GateExternal  bool         `msgpack:"gate_external_writes"`
}

// StateEntry is a single location of the pending overlay. RunDetails keeps
// them as a sorted list so its encoding is canonical.
type StateEntry struct {
	Location string `msgpack:"location"`
	Value    []byte `msgpack:"value"`
}

// StateEntries converts an overlay into entries sorted by location.
func StateEntries(entries map[string][]byte) []StateEntry {
	out := make([]StateEntry, 0, len(entries))
	for _, location := range slices.Sorted(maps.Keys(entries)) {
		out = append(out, StateEntry{Location: location, Value: entries[location]})
	}
	return out
}

func pendingOverlay(entries []StateEntry) *state.Pending {
	m := make(map[string][]byte, len(entries))
	for _, e := range entries {
		m[e.Location] = e.Value
	}
	return state.NewPending(m)
}

type ContractResult struct {
	ExitCode int64 `msgpack:"exit_code"`
	GasUsed  int64 `msgpack:"gas_used"`
}

// Journal is the public output of a proof run.
type Journal struct {
	Results             []ContractResult `msgpack:"results"`
	Out                 string           `msgpack:"out"`
	MerkleRoot          string           `msgpack:"merkle_root"`
	StateTransitionRoot string           `msgpack:"state_transition_root"`
	InputHash           string           `msgpack:"input_hash"`
}

// Execute runs every contract of details in order. State is read lazily
// through oracle and authenticated against details.MerkleRoot.
//
// All contracts share one pending overlay, so synchronous reads of a later
// contract observe what earlier contracts flushed. Flushed values are also
// collected in a separate transitions overlay whose root ends up in the journal.
func Execute(ctx context.Context, details RunDetails, oracle merkle.Oracle) (Journal, error) {
	inputHash, err := InputHash(details)
	if err != nil {
		return Journal{}, err
	}
	policy, err := vm.ParseFlushPolicy(details.FlushPolicy)
	if err != nil {
		return Journal{}, err
	}

	tree := merkle.NewLazyTree(oracle, details.MerkleRoot)
	if _, err := tree.Node(merkle.RootIndex); err != nil {
		return Journal{}, err
	}
	guestHost := host.NewGuest(tree, details.BlockchainLen)
	pending := pendingOverlay(details.PendingState)
	transitions := state.NewPending(nil)

	journal := Journal{
		Results:    make([]ContractResult, 0, len(details.Contracts)),
		MerkleRoot: details.MerkleRoot,
		InputHash:  inputHash,
	}
	var out strings.Builder
	for n, c := range details.Contracts {
		if vm.ContractHash(c.Contents) != c.Hash {
			return Journal{}, fmt.Errorf("contract %d: %w", n, ErrContractHashMismatch)
		}

		opts := []state.Option{state.WithPending(pending)}
		if details.GateExternal {
			opts = append(opts, state.WithExternalWriteGate())
		}
		manager := state.NewManager(state.NewProven(tree, transitions), c.Hash, opts...)

		res, err := vm.Run(ctx, asm.Decode(c.Contents), c.Hash, vm.Env{
			GasLimit:    vm.Gas(c.GasLimit),
			Sender:      c.Sender,
			State:       manager,
			Host:        guestHost,
			FlushPolicy: policy,
		})
		if err != nil {
			return Journal{}, fmt.Errorf("contract %d: %w", n, err)
		}

		log.Prover.Info().
			Int("contract", n).
			Int64("exitCode", res.ExitCode).
			Int64("gasUsed", int64(res.GasUsed)).
			Msg("contract executed")
		journal.Results = append(journal.Results, ContractResult{ExitCode: res.ExitCode, GasUsed: int64(res.GasUsed)})
		out.WriteString(res.Output)
	}

	journal.Out = out.String()
	journal.StateTransitionRoot = merkle.TransitionRoot(transitions.Entries())
	log.Prover.Debug().Int("nodesFetched", tree.Fetched()).Msg("batch finished")
	return journal, nil
}
