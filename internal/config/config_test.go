package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polycash/blockvm/internal/vm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blockvm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
node_executable_path: /opt/polycash/node
log_level: debug
log_format: json
store:
  backend: leveldb
  path: /var/lib/blockvm
gate_external_writes: true
flush_policy: every-exit
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/polycash/node", cfg.NodeExecutablePath)
	assert.Equal(t, DefaultPendingStatePath, cfg.PendingStatePath, "unset keys keep their default")
	assert.Equal(t, Store{Backend: BackendLevelDB, Path: "/var/lib/blockvm"}, cfg.Store)
	assert.True(t, cfg.GateExternalWrites)

	policy, err := cfg.Flush()
	require.NoError(t, err)
	assert.Equal(t, vm.FlushEveryExit, policy)

	nodePath, err := cfg.NodePath()
	require.NoError(t, err)
	assert.Equal(t, "/opt/polycash/node", nodePath)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "backend", content: "store:\n  backend: redis\n"},
		{name: "log level", content: "log_level: loud\n"},
		{name: "flush policy", content: "flush_policy: never\n"},
		{name: "yaml", content: "store: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenStore(t *testing.T) {
	for _, backend := range []string{BackendMemory, BackendPebble, BackendLevelDB} {
		t.Run(backend, func(t *testing.T) {
			cfg := Default()
			cfg.Store = Store{Backend: backend, Path: filepath.Join(t.TempDir(), "db")}
			store, err := cfg.OpenStore()
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.Put([]byte("k"), []byte("v")))
			v, err := store.Get([]byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), v)
		})
	}

	cfg := Default()
	cfg.Store.Backend = "redis"
	_, err := cfg.OpenStore()
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
