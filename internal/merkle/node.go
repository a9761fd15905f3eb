// Package merkle implements the character trie that commits to the full
// state: every location is the path of its node, every node is hashed over its
// value and its children's hashes, so a single root authenticates any read.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"slices"
)

// RootIndex is the index of the root node in every tree.
const RootIndex uint64 = 0

// Node is one trie node. Children maps the next location byte to a node index.
type Node struct {
	Hash     string          `msgpack:"hash"`
	Value    []byte          `msgpack:"value"`
	Children map[byte]uint64 `msgpack:"children"`
	Parent   uint64          `msgpack:"parent"`
}

// ChildKeys returns the child bytes in hashing order.
func (n Node) ChildKeys() []byte {
	return slices.Sorted(maps.Keys(n.Children))
}

// Container gives indexed access to the nodes of a tree.
type Container interface {
	Node(index uint64) (Node, error)
}

// hashNode computes SHA-256 over the node value followed by the hex hashes of
// its children in ascending child byte order. The child bytes are not part of
// the digest.
func hashNode(c Container, n Node) (string, error) {
	h := sha256.New()
	h.Write(n.Value)
	for _, key := range n.ChildKeys() {
		child, err := c.Node(n.Children[key])
		if err != nil {
			return "", err
		}
		h.Write([]byte(child.Hash))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
