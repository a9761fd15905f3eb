// Package db is the key-value storage used to persist merklized state.
// Backends live in the pebble and leveldb subpackages and report failures
// with the errors declared here.
package db

// KVStore is an ordered byte-keyed store.
type KVStore interface {
	Reader
	Writer
	Delete(key []byte) error
	NewBatch() Batch
	// NewIterator walks keys in [start, end).
	NewIterator(start, end []byte) (Iterator, error)
	Close() error
}

type Reader interface {
	// Get returns a copy of the value at key or ErrNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch groups writes that become visible together on Commit.
// Close discards an uncommitted batch.
type Batch interface {
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// Iterator must be closed after use. Key and Value return copies.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}
