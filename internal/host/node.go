package host

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/polycash/blockvm/pkg/log"
)

// ResponsePrefixLength is the width of the label in front of hex payloads, as in "Data: ".
const ResponsePrefixLength = 6

// Node command names.
const (
	cmdGetNthBlock       = "sync;getNthBlock"
	cmdGetNthTransaction = "sync;getNthTransaction"
	cmdGetFromState      = "sync;getFromState"
	cmdGetBlockchainLen  = "sync;getBlockchainLen"
	cmdQueryOracle       = "queryOracle"
	cmdReadSmartContract = "readSmartContract"
)

// Runner executes the node binary and returns its standard output.
type Runner interface {
	Run(ctx context.Context, path string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, path string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Node talks to a node executable, one process per query.
type Node struct {
	path   string
	runner Runner
}

type NodeOption func(*Node)

func WithRunner(r Runner) NodeOption {
	return func(n *Node) {
		n.runner = r
	}
}

func NewNode(path string, opts ...NodeOption) *Node {
	n := &Node{path: path, runner: execRunner{}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ReadExecutablePath reads the node executable path from file, trimming surrounding whitespace.
func ReadExecutablePath(file string) (string, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read node executable path: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// query runs "<node> --command <command operands...>" and returns the last
// line of output. Earlier lines are node diagnostics.
func (n *Node) query(ctx context.Context, command string, operands ...string) (string, error) {
	if err := Sanitize(command, operands...); err != nil {
		log.Host.Warn().Err(err).Msg("refused node command")
		return "", err
	}
	full := strings.Join(append([]string{command}, operands...), " ")
	log.Host.Debug().Str("command", full).Msg("node query")

	out, err := n.runner.Run(ctx, n.path, "--command", full)
	if err != nil {
		return "", fmt.Errorf("node command %q: %w", full, err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

// payload strips the response label and hex decodes the remainder. An empty
// payload may arrive with the label's trailing space trimmed.
func payload(response string) ([]byte, error) {
	if len(response) < ResponsePrefixLength-1 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedResponse, response)
	}
	if len(response) <= ResponsePrefixLength {
		return []byte{}, nil
	}
	b, err := hex.DecodeString(strings.TrimSpace(response[ResponsePrefixLength:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return b, nil
}

func (n *Node) GetBlockchainLen(ctx context.Context) (uint64, error) {
	response, err := n.query(ctx, cmdGetBlockchainLen)
	if err != nil {
		return 0, err
	}
	length, err := strconv.ParseUint(response, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: blockchain length %q", ErrMalformedResponse, response)
	}
	return length, nil
}

func (n *Node) GetFromState(ctx context.Context, location string) ([]byte, error) {
	response, err := n.query(ctx, cmdGetFromState, location)
	if err != nil {
		return nil, err
	}
	return payload(response)
}

func (n *Node) QueryOracle(ctx context.Context, queryType uint64, body []byte) ([]byte, error) {
	response, err := n.query(ctx, cmdQueryOracle, strconv.FormatUint(queryType, 10), hex.EncodeToString(body))
	if err != nil {
		return nil, err
	}
	return payload(response)
}

// ReadContract fetches the source of the contract deployed at location.
func (n *Node) ReadContract(ctx context.Context, location uint64) (string, error) {
	response, err := n.query(ctx, cmdReadSmartContract, strconv.FormatUint(location, 10))
	if err != nil {
		return "", err
	}
	source, err := payload(response)
	if err != nil {
		return "", err
	}
	return string(source), nil
}

// GetNthBlockProperty returns a property of the n-th block.
func (n *Node) GetNthBlockProperty(ctx context.Context, block int64, property string) (string, error) {
	return n.query(ctx, cmdGetNthBlock, strconv.FormatInt(block, 10), property)
}

// GetNthTransactionProperty returns a property of a transaction inside a block.
func (n *Node) GetNthTransactionProperty(ctx context.Context, block, tx int64, property string) (string, error) {
	return n.query(ctx, cmdGetNthTransaction, strconv.FormatInt(block, 10), strconv.FormatInt(tx, 10), property)
}
