package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polycash/blockvm/internal/guest"
	"github.com/polycash/blockvm/internal/host"
	"github.com/polycash/blockvm/internal/merkle"
	"github.com/polycash/blockvm/internal/state"
	"github.com/polycash/blockvm/internal/store"
	"github.com/polycash/blockvm/pkg/log"
)

var errBatchShape = errors.New("batch arguments differ in length")

// buildRunDetails assembles the proof input from the "%" separated batch arguments.
func buildRunDetails(contents, hashes, gasLimits, senders string) (guest.RunDetails, error) {
	c, h, g, s := splitBatch(contents), splitBatch(hashes), splitBatch(gasLimits), splitBatch(senders)
	if len(h) != len(c) || len(g) != len(c) || len(s) != len(c) {
		return guest.RunDetails{}, fmt.Errorf("%w: %d contracts, %d hashes, %d gas limits, %d senders",
			errBatchShape, len(c), len(h), len(g), len(s))
	}

	var details guest.RunDetails
	for n := range c {
		limit, err := parseGasLimit(g[n])
		if err != nil {
			return guest.RunDetails{}, err
		}
		details.Contracts = append(details.Contracts, guest.Contract{
			Contents: c[n],
			Hash:     h[n],
			GasLimit: int64(limit),
			Sender:   []byte(s[n]),
		})
	}
	return details, nil
}

// commitState merklizes the state file and persists the tree in the configured store.
func commitState(trees *store.Trees, statePath string) (string, error) {
	dump, err := readStateDump(statePath)
	if err != nil {
		return "", err
	}
	tree := merkle.Merklize(dump)
	exists, err := trees.Exists(tree.Root())
	if err != nil {
		return "", err
	}
	if exists {
		log.Prover.Debug().Str("root", tree.Root()).Msg("state already stored")
		return tree.Root(), nil
	}
	root, err := trees.Commit(tree)
	if err != nil {
		return "", err
	}
	log.Prover.Info().Str("root", root).Int("locations", len(dump)).Msg("state merklized")
	return root, nil
}

func writeFile(path string, encode func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newProveCommand(opts *options) *cobra.Command {
	var (
		blockchainLen int64
		detailsPath   string
	)
	cmd := &cobra.Command{
		Use:   "prove <contracts_file> <hashes> <gas_limits> <senders> <state_file> <journal_file>",
		Short: "Execute a batch of contracts against merklized state and write the journal",
		Long: `Contracts in contracts_file and the hashes, gas limits and senders arguments
are separated by "%". The state file holds "location>hexvalue" pairs joined by "*".`,
		Args: cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			contents, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read contracts: %w", err)
			}
			details, err := buildRunDetails(string(contents), args[1], args[2], args[3])
			if err != nil {
				return err
			}

			if blockchainLen < 0 {
				nodePath, err := cfg.NodePath()
				if err != nil {
					return err
				}
				n, err := host.NewNode(nodePath).GetBlockchainLen(cmd.Context())
				if err != nil {
					return err
				}
				details.BlockchainLen = n
			} else {
				details.BlockchainLen = uint64(blockchainLen)
			}

			pending, err := state.LoadPending(cfg.PendingStatePath)
			if err != nil {
				return err
			}
			details.PendingState = guest.StateEntries(pending.Entries())
			details.FlushPolicy = cfg.FlushPolicy
			details.GateExternal = cfg.GateExternalWrites

			kv, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer kv.Close()
			trees := store.NewTrees(kv)

			root, err := commitState(trees, args[4])
			if err != nil {
				return err
			}
			details.MerkleRoot = root

			journal, err := guest.Execute(cmd.Context(), details, trees.Oracle(root))
			if err != nil {
				return err
			}

			if err := writeFile(args[5], func(f *os.File) error { return guest.EncodeJournal(f, journal) }); err != nil {
				return fmt.Errorf("write journal: %w", err)
			}
			if detailsPath == "" {
				detailsPath = args[5] + ".input"
			}
			if err := writeFile(detailsPath, func(f *os.File) error { return guest.EncodeRunDetails(f, details) }); err != nil {
				return fmt.Errorf("write run details: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), journal.Out)
			return nil
		},
	}
	cmd.Flags().Int64Var(&blockchainLen, "blockchain-len", -1, "chain length served to contracts, queried from the node when negative")
	cmd.Flags().StringVar(&detailsPath, "details", "", "run details output file, defaults to <journal_file>.input")
	return cmd
}

func readJournal(path string) (guest.Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return guest.Journal{}, err
	}
	defer f.Close()
	return guest.DecodeJournal(f)
}

func readRunDetails(path string) (guest.RunDetails, error) {
	f, err := os.Open(path)
	if err != nil {
		return guest.RunDetails{}, err
	}
	defer f.Close()
	return guest.DecodeRunDetails(f)
}

func newVerifyCommand(opts *options) *cobra.Command {
	var (
		statePath    string
		expectedRoot string
		reexecute    bool
	)
	cmd := &cobra.Command{
		Use:   "verify <journal_file> <details_file>",
		Short: "Check a journal against its run details",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := readJournal(args[0])
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}
			details, err := readRunDetails(args[1])
			if err != nil {
				return fmt.Errorf("read run details: %w", err)
			}
			if err := guest.Verify(journal, details); err != nil {
				return err
			}
			if expectedRoot != "" && journal.MerkleRoot != expectedRoot {
				return fmt.Errorf("%w: merkle root %q, expected %q", guest.ErrJournalMismatch, journal.MerkleRoot, expectedRoot)
			}

			var oracle merkle.Oracle
			switch {
			case statePath != "":
				dump, err := readStateDump(statePath)
				if err != nil {
					return err
				}
				tree := merkle.Merklize(dump)
				if tree.Root() != details.MerkleRoot {
					return fmt.Errorf("%w: state file root %q, details root %q", guest.ErrJournalMismatch, tree.Root(), details.MerkleRoot)
				}
				oracle = tree
			case reexecute:
				kv, err := opts.cfg.OpenStore()
				if err != nil {
					return err
				}
				defer kv.Close()
				trees := store.NewTrees(kv)
				exists, err := trees.Exists(details.MerkleRoot)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("state %q is not in the store", details.MerkleRoot)
				}
				oracle = trees.Oracle(details.MerkleRoot)
			}

			if oracle != nil {
				honest, err := guest.Execute(cmd.Context(), details, oracle)
				if err != nil {
					return err
				}
				if err := guest.Compare(journal, honest); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Verification success!")
			return nil
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "", "re-execute against this state file and compare every journal field")
	cmd.Flags().StringVar(&expectedRoot, "root", "", "merkle root the journal must commit to")
	cmd.Flags().BoolVar(&reexecute, "reexecute", false, "re-execute against the state stored under the journal's root")
	return cmd
}

func newMerklizeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "merklize <state_file>",
		Short: "Merklize a state file, store its nodes and print the root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := opts.cfg.OpenStore()
			if err != nil {
				return err
			}
			defer kv.Close()

			root, err := commitState(store.NewTrees(kv), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), root)
			return nil
		},
	}
}
