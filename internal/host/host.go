// Package host connects the interpreter to the outside world: a node process
// in native runs, a proven dataset inside the prover.
package host

import (
	"context"
	"errors"
)

var (
	ErrForbiddenCommand  = errors.New("forbidden command")
	ErrMalformedResponse = errors.New("malformed host response")

	// ErrUnavailableInProof is returned for queries that would make a proof depend on outside data.
	ErrUnavailableInProof = errors.New("not available in proof mode")
)

// Interface is everything the interpreter and the committed state tier ask of a host.
type Interface interface {
	GetBlockchainLen(ctx context.Context) (uint64, error)
	GetFromState(ctx context.Context, location string) ([]byte, error)
	QueryOracle(ctx context.Context, queryType uint64, body []byte) ([]byte, error)
	ReadContract(ctx context.Context, location uint64) (string, error)
}
