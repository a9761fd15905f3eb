package host

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/polycash/blockvm/internal/merkle"
)

// ContractLocationPrefix prefixes the state location holding a deployed contract's source.
const ContractLocationPrefix = "contract"

// Guest serves queries inside the prover from a merkle authenticated dataset.
// Nothing outside the committed state and the run details is reachable.
type Guest struct {
	tree          merkle.Container
	blockchainLen uint64
}

func NewGuest(tree merkle.Container, blockchainLen uint64) *Guest {
	return &Guest{tree: tree, blockchainLen: blockchainLen}
}

func (g *Guest) GetBlockchainLen(context.Context) (uint64, error) {
	return g.blockchainLen, nil
}

// GetFromState returns the proven value, or an empty value for a location proven absent.
func (g *Guest) GetFromState(_ context.Context, location string) ([]byte, error) {
	v, err := merkle.Get(g.tree, location)
	if errors.Is(err, merkle.ErrUnknownLocation) {
		return []byte{}, nil
	}
	return v, err
}

func (g *Guest) QueryOracle(context.Context, uint64, []byte) ([]byte, error) {
	return nil, fmt.Errorf("oracle query: %w", ErrUnavailableInProof)
}

func (g *Guest) ReadContract(_ context.Context, location uint64) (string, error) {
	source, err := merkle.Get(g.tree, ContractLocation(location))
	if err != nil {
		return "", fmt.Errorf("contract %d: %w", location, err)
	}
	return string(source), nil
}

// ContractLocation is the state location of the contract deployed at location.
func ContractLocation(location uint64) string {
	return ContractLocationPrefix + strconv.FormatUint(location, 10)
}
