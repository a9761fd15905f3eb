package merkle

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrNodeNotFound    = errors.New("node not found")
)

// Tree is a fully materialised trie, the root at RootIndex.
type Tree []Node

// Merklize builds the trie for state and hashes it bottom-up. Locations are
// inserted in sorted order so node indices are reproducible. A tree holding
// no state consists of the root alone and has the empty root hash.
func Merklize(state map[string][]byte) Tree {
	tree := Tree{newNode(RootIndex)}
	for _, location := range slices.Sorted(maps.Keys(state)) {
		value := state[location]
		active := RootIndex
		for _, c := range []byte(location) {
			if child, ok := tree[active].Children[c]; ok {
				active = child
				continue
			}
			tree = append(tree, newNode(active))
			child := uint64(len(tree) - 1)
			tree[active].Children[c] = child
			active = child
		}
		tree[active].Value = append([]byte{}, value...)
	}

	if len(tree) == 1 {
		return tree
	}
	tree.hash(RootIndex)
	return tree
}

func newNode(parent uint64) Node {
	return Node{Value: []byte{}, Children: make(map[byte]uint64), Parent: parent}
}

// hash fills the hashes of the subtree at index, children first.
func (t Tree) hash(index uint64) {
	for _, key := range t[index].ChildKeys() {
		t.hash(t[index].Children[key])
	}
	// Every child is hashed already and lookups in a Tree cannot fail
	t[index].Hash, _ = hashNode(t, t[index])
}

// Node implements Container.
func (t Tree) Node(index uint64) (Node, error) {
	if index >= uint64(len(t)) {
		return Node{}, fmt.Errorf("%w: index %d", ErrNodeNotFound, index)
	}
	return t[index], nil
}

// Root is the hash committing to the whole tree.
func (t Tree) Root() string {
	if len(t) == 0 {
		return ""
	}
	return t[RootIndex].Hash
}

// TransitionRoot commits to a set of state writes the same way a Tree
// commits to state.
func TransitionRoot(transitions map[string][]byte) string {
	return Merklize(transitions).Root()
}
