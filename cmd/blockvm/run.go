package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/polycash/blockvm/internal/asm"
	"github.com/polycash/blockvm/internal/config"
	"github.com/polycash/blockvm/internal/host"
	"github.com/polycash/blockvm/internal/state"
	"github.com/polycash/blockvm/internal/vm"
	"github.com/polycash/blockvm/pkg/log"
)

// parseGasLimit accepts integral and fractional limits, fractions are truncated.
func parseGasLimit(s string) (vm.Gas, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("gas limit %q: %w", s, err)
	}
	return vm.Gas(int64(f)), nil
}

// runContract executes a contract natively, printing its output log and gas
// usage. The process exit code is the contract exit code truncated to a byte.
func runContract(cmd *cobra.Command, cfg config.Config, args []string) error {
	contractPath, contractHash, sender := args[0], args[1], args[3]
	gasLimit, err := parseGasLimit(args[2])
	if err != nil {
		return err
	}
	source, err := os.ReadFile(contractPath)
	if err != nil {
		return fmt.Errorf("read contract: %w", err)
	}
	nodePath, err := cfg.NodePath()
	if err != nil {
		return err
	}
	policy, err := cfg.Flush()
	if err != nil {
		return err
	}
	pending, err := state.LoadPending(cfg.PendingStatePath)
	if err != nil {
		return err
	}

	node := host.NewNode(nodePath)
	opts := []state.Option{state.WithPending(pending)}
	if cfg.GateExternalWrites {
		opts = append(opts, state.WithExternalWriteGate())
	}

	res, err := vm.Run(cmd.Context(), asm.Decode(string(source)), contractHash, vm.Env{
		GasLimit:    gasLimit,
		Sender:      []byte(sender),
		State:       state.NewManager(state.NewOnchain(node), contractHash, opts...),
		Host:        node,
		FlushPolicy: policy,
		Diagnostics: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, res.Output)
	fmt.Fprintf(out, "Gas used: %d.0\n", res.GasUsed)
	log.Root.Info().Str("contract", contractHash).Int64("exitCode", res.ExitCode).Msg("contract finished")

	if code := uint8(res.ExitCode); code != 0 {
		return &exitError{code: int(code)}
	}
	return nil
}
