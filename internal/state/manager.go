package state

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/polycash/blockvm/pkg/log"
)

// Manager layers the pending overlay and the cache over a committed tier.
type Manager struct {
	cache     *Cache
	pending   *Pending
	committed Committed
	// prefix marks internal locations, normally the top-level contract hash
	prefix       string
	gateExternal bool
}

type Option func(*Manager)

// WithPending sets the overlay served to synchronous reads.
func WithPending(p *Pending) Option {
	return func(m *Manager) {
		m.pending = p
	}
}

// WithExternalWriteGate only commits external writes to locations currently
// holding ExternalStateWriteableValue.
func WithExternalWriteGate() Option {
	return func(m *Manager) {
		m.gateExternal = true
	}
}

func NewManager(committed Committed, prefix string, opts ...Option) *Manager {
	m := &Manager{
		cache:     NewCache(),
		committed: committed,
		prefix:    prefix,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.pending == nil {
		m.pending = NewPending(nil)
	}
	return m
}

// Write stores value in the cache. Nothing reaches the committed tier before Flush.
func (m *Manager) Write(location string, value []byte) {
	m.cache.Put(location, bytes.Clone(value))
}

// Get reads through the cache, back-filling it from the committed tier on a miss.
func (m *Manager) Get(ctx context.Context, location string) ([]byte, error) {
	if v, ok := m.cache.Get(location); ok {
		return v, nil
	}
	v, err := m.committed.Get(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("committed state %s: %w", location, err)
	}
	m.cache.Put(location, v)
	return v, nil
}

// GetSync prefers the pending overlay and falls back to Get.
func (m *Manager) GetSync(ctx context.Context, location string) ([]byte, error) {
	v, err := m.pending.Get(ctx, location)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return m.Get(ctx, location)
}

// Internal reports whether location belongs to the contract namespace of this manager.
func (m *Manager) Internal(location string) bool {
	return strings.HasPrefix(location, m.prefix)
}

// Flush commits every cached entry in ascending location order and returns
// one change line per committed entry. The cache is kept, so calling Flush
// again yields the same log.
func (m *Manager) Flush(ctx context.Context) (string, error) {
	var out strings.Builder
	for _, location := range m.cache.Locations() {
		value, _ := m.cache.Get(location)
		internal := m.Internal(location)

		m.pending.Apply(location, value)
		if !internal && m.gateExternal {
			writeable, err := m.externalWriteable(ctx, location)
			if err != nil {
				return "", err
			}
			if !writeable {
				log.State.Warn().Str("location", location).Msg("dropping write to non-writeable external location")
				continue
			}
		}

		if err := m.committed.Commit(ctx, location, value); err != nil {
			return "", fmt.Errorf("commit %s: %w", location, err)
		}
		if internal {
			fmt.Fprintf(&out, "State change: %s|%s\n", location, hex.EncodeToString(value))
		} else {
			fmt.Fprintf(&out, "External state change: %s|%s\n", location, hex.EncodeToString(value))
		}
	}
	log.State.Debug().Int("entries", m.cache.Len()).Msg("flushed state")
	return out.String(), nil
}

func (m *Manager) externalWriteable(ctx context.Context, location string) (bool, error) {
	current, err := m.committed.Get(ctx, location)
	if err != nil {
		return false, fmt.Errorf("committed state %s: %w", location, err)
	}
	return bytes.Equal(current, ExternalStateWriteableValue), nil
}

// Pending exposes the overlay, including entries applied by Flush.
func (m *Manager) Pending() *Pending {
	return m.pending
}
