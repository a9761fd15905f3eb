// Package state implements the three tier state seen by contracts: a pending
// overlay for synchronous reads, a write-back cache and a committed tier that is
// served by the host natively or by merkle proofs inside the prover.
package state

import (
	"context"
	"errors"
	"maps"
	"slices"
)

var (
	// ErrNotFound is returned by overlay tiers for locations they do not hold.
	ErrNotFound = errors.New("location not found")
)

// ExternalStateWriteableValue is the committed value that opens an external
// location for writes when gating is enabled.
var ExternalStateWriteableValue = []byte("ExternalStateWriteableValue")

// Reader is a readable tier.
type Reader interface {
	Get(ctx context.Context, location string) ([]byte, error)
}

// Committed is the durable tier behind the cache. Commit is only called while flushing.
type Committed interface {
	Reader
	Commit(ctx context.Context, location string, value []byte) error
}

// Cache is the read-through, write-back tier.
type Cache struct {
	entries map[string][]byte
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

func (c *Cache) Get(location string) ([]byte, bool) {
	v, ok := c.entries[location]
	return v, ok
}

func (c *Cache) Put(location string, value []byte) {
	c.entries[location] = value
}

// Locations returns every cached location in ascending order.
func (c *Cache) Locations() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

func (c *Cache) Len() int {
	return len(c.entries)
}
