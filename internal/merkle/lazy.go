package merkle

import "fmt"

// Oracle supplies tree nodes by index from outside the executing environment.
// Its answers are untrusted.
type Oracle interface {
	FetchNode(index uint64) (Node, error)
}

// FetchNode lets a materialised tree act as an oracle.
func (t Tree) FetchNode(index uint64) (Node, error) {
	return t.Node(index)
}

// LazyTree fetches nodes on demand and caches them for the rest of the run.
// The root node must carry the trusted root hash.
type LazyTree struct {
	oracle Oracle
	root   string
	nodes  map[uint64]Node
}

func NewLazyTree(oracle Oracle, root string) *LazyTree {
	return &LazyTree{oracle: oracle, root: root, nodes: make(map[uint64]Node)}
}

// Node implements Container.
func (l *LazyTree) Node(index uint64) (Node, error) {
	if n, ok := l.nodes[index]; ok {
		return n, nil
	}
	n, err := l.oracle.FetchNode(index)
	if err != nil {
		return Node{}, fmt.Errorf("fetch node %d: %w", index, err)
	}
	if index == RootIndex && n.Hash != l.root {
		return Node{}, fmt.Errorf("%w: root %q, trusted %q", ErrHashMismatch, n.Hash, l.root)
	}
	l.nodes[index] = n
	return n, nil
}

// Fetched is the number of nodes pulled from the oracle so far.
func (l *LazyTree) Fetched() int {
	return len(l.nodes)
}
