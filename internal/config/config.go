// Package config loads runtime settings for the blockvm command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/polycash/blockvm/internal/host"
	"github.com/polycash/blockvm/internal/vm"
	"github.com/polycash/blockvm/pkg/db"
	"github.com/polycash/blockvm/pkg/db/leveldb"
	"github.com/polycash/blockvm/pkg/db/pebble"
	"github.com/polycash/blockvm/pkg/log"
)

const (
	DefaultNodeExecutablePathFile = "node_executable_path.txt"
	DefaultPendingStatePath       = "pending_state.msgpack"
)

// Store backends.
const (
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

var ErrUnknownBackend = errors.New("unknown store backend")

type Store struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type Config struct {
	// NodeExecutablePath is the node binary answering host queries. When
	// empty it is read from DefaultNodeExecutablePathFile.
	NodeExecutablePath string `yaml:"node_executable_path"`
	PendingStatePath   string `yaml:"pending_state_path"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
	Store              Store  `yaml:"store"`
	GateExternalWrites bool   `yaml:"gate_external_writes"`
	FlushPolicy        string `yaml:"flush_policy"`
}

func Default() Config {
	return Config{
		PendingStatePath: DefaultPendingStatePath,
		LogLevel:         "info",
		LogFormat:        "console",
		Store:            Store{Backend: BackendMemory},
		FlushPolicy:      vm.FlushTopLevel.String(),
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := log.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := log.ParseLoggerType(c.LogFormat); err != nil {
		return fmt.Errorf("log_format: %w", err)
	}
	if _, err := vm.ParseFlushPolicy(c.FlushPolicy); err != nil {
		return fmt.Errorf("flush_policy: %w", err)
	}
	switch strings.ToLower(c.Store.Backend) {
	case BackendPebble, BackendLevelDB, BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}
	return nil
}

// InitLogging configures the component loggers.
func (c Config) InitLogging() error {
	level, err := log.ParseLogLevel(c.LogLevel)
	if err != nil {
		return err
	}
	typ, err := log.ParseLoggerType(c.LogFormat)
	if err != nil {
		return err
	}
	log.Init(log.Options{LogLevel: level, Type: typ})
	return nil
}

func (c Config) Flush() (vm.FlushPolicy, error) {
	return vm.ParseFlushPolicy(c.FlushPolicy)
}

// NodePath resolves the node executable.
func (c Config) NodePath() (string, error) {
	if c.NodeExecutablePath != "" {
		return c.NodeExecutablePath, nil
	}
	return host.ReadExecutablePath(DefaultNodeExecutablePathFile)
}

// OpenStore opens the configured key-value store. The memory backend is an
// in-memory pebble instance.
func (c Config) OpenStore() (db.KVStore, error) {
	var (
		store db.KVStore
		err   error
	)
	switch strings.ToLower(c.Store.Backend) {
	case BackendMemory:
		store, err = pebble.NewKVStore("")
	case BackendPebble:
		store, err = pebble.NewKVStore(c.Store.Path)
	case BackendLevelDB:
		store, err = leveldb.NewKVStore(c.Store.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.Store.Backend, err)
	}
	return store, nil
}
