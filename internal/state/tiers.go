package state

import (
	"context"
	"errors"

	"github.com/polycash/blockvm/internal/merkle"
)

// Querier answers committed state queries natively.
type Querier interface {
	GetFromState(ctx context.Context, location string) ([]byte, error)
}

// Onchain is the committed tier of a native run. The node applies writes from
// the change log, so Commit has nothing to do.
type Onchain struct {
	host Querier
}

func NewOnchain(host Querier) *Onchain {
	return &Onchain{host: host}
}

func (o *Onchain) Get(ctx context.Context, location string) ([]byte, error) {
	return o.host.GetFromState(ctx, location)
}

func (o *Onchain) Commit(context.Context, string, []byte) error {
	return nil
}

// Proven is the committed tier of a proof run. Reads are authenticated against
// the merkle root, commits land in the transitions overlay and never touch the tree.
type Proven struct {
	tree        merkle.Container
	transitions *Pending
}

func NewProven(tree merkle.Container, transitions *Pending) *Proven {
	return &Proven{tree: tree, transitions: transitions}
}

// Get returns the proven value at location. A location proven absent reads as empty.
func (p *Proven) Get(_ context.Context, location string) ([]byte, error) {
	value, err := merkle.Get(p.tree, location)
	if errors.Is(err, merkle.ErrUnknownLocation) {
		return []byte{}, nil
	}
	return value, err
}

func (p *Proven) Commit(_ context.Context, location string, value []byte) error {
	p.transitions.Apply(location, value)
	return nil
}
