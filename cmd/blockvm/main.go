// Command blockvm runs contracts natively against a node, and proves or
// verifies batches of contracts against merklized state.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polycash/blockvm/internal/config"
	"github.com/polycash/blockvm/pkg/log"
)

// exitError carries a contract exit code out of cobra.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

type options struct {
	configPath string
	cfg        config.Config

	logLevel     string
	logFormat    string
	nodePath     string
	pendingPath  string
	storeBackend string
	storePath    string
	flushPolicy  string
	gateExternal bool
}

// load reads the config file and applies explicitly set flags on top.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if flags.Changed("node") {
		cfg.NodeExecutablePath = o.nodePath
	}
	if flags.Changed("pending-state") {
		cfg.PendingStatePath = o.pendingPath
	}
	if flags.Changed("store-backend") {
		cfg.Store.Backend = o.storeBackend
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = o.storePath
	}
	if flags.Changed("flush-policy") {
		cfg.FlushPolicy = o.flushPolicy
	}
	if flags.Changed("gate-external-writes") {
		cfg.GateExternalWrites = o.gateExternal
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.InitLogging(); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "blockvm <contract_path> <contract_hash> <gas_limit> <sender>",
		Short: "Deterministic gas metered contract VM",
		Args:  cobra.ExactArgs(4),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContract(cmd, opts.cfg, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "console", "log format (console, json)")
	flags.StringVar(&opts.nodePath, "node", "", "node executable, defaults to the contents of "+config.DefaultNodeExecutablePathFile)
	flags.StringVar(&opts.pendingPath, "pending-state", config.DefaultPendingStatePath, "msgpack pending state file")
	flags.StringVar(&opts.storeBackend, "store-backend", config.BackendMemory, "merkle node store (pebble, leveldb, memory)")
	flags.StringVar(&opts.storePath, "store-path", "", "merkle node store directory")
	flags.StringVar(&opts.flushPolicy, "flush-policy", "top-level", "when state is flushed (top-level, every-exit)")
	flags.BoolVar(&opts.gateExternal, "gate-external-writes", false, "only commit external writes to writeable locations")

	root.AddCommand(
		newProveCommand(opts),
		newVerifyCommand(opts),
		newMerklizeCommand(opts),
		newQueryCommand(opts),
	)
	return root
}

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	log.Root.Error().Err(err).Msg("blockvm failed")
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
