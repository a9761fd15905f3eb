package leveldb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polycash/blockvm/pkg/db"
	"github.com/polycash/blockvm/pkg/db/dbtest"
)

func TestKVStore(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) db.KVStore {
		store, err := NewKVStore("")
		require.NoError(t, err)
		return store
	})
}

func TestKVStoreOnDisk(t *testing.T) {
	path := t.TempDir()

	store, err := NewKVStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	require.NoError(t, store.Close())

	reopened, err := NewKVStore(path)
	require.NoError(t, err)
	defer reopened.Close() //nolint:errcheck

	v, err := reopened.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
}
