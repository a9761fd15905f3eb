package merkle

import (
	"errors"
	"fmt"
)

var ErrHashMismatch = errors.New("node hash mismatch")

// Get walks the trie from the root along location and returns the value of
// the node it ends at, after verifying that node and all its ancestors.
//
// When location is not in the tree the deepest node reached is verified
// instead, and ErrUnknownLocation is returned.
//
// Only hashes are committed, not the path characters: an oracle may relabel
// a child byte as long as the sorted child order is unchanged and Get will
// still accept the node.
func Get(c Container, location string) ([]byte, error) {
	root, err := c.Node(RootIndex)
	if err != nil {
		return nil, err
	}
	// The root of an empty tree has no digest to verify
	if len(root.Children) == 0 && root.Hash == "" {
		return nil, fmt.Errorf("%w: %q in empty tree", ErrUnknownLocation, location)
	}

	active, node := RootIndex, root
	for n, ch := range []byte(location) {
		child, ok := node.Children[ch]
		if !ok {
			if err := Verify(c, active); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %q diverges at byte %d", ErrUnknownLocation, location, n)
		}
		next, err := c.Node(child)
		if err != nil {
			return nil, err
		}
		if next.Parent != active {
			return nil, fmt.Errorf("%w: node %d does not point back to %d", ErrHashMismatch, child, active)
		}
		active, node = child, next
	}

	if err := Verify(c, active); err != nil {
		return nil, err
	}
	return node.Value, nil
}

// Verify recomputes the hash of the node at index and of every ancestor up to
// the root, comparing each against the stored hash. Child bytes are not
// checked, see Get.
func Verify(c Container, index uint64) error {
	for {
		node, err := c.Node(index)
		if err != nil {
			return err
		}
		computed, err := hashNode(c, node)
		if err != nil {
			return err
		}
		if computed != node.Hash {
			return fmt.Errorf("%w: node %d", ErrHashMismatch, index)
		}
		if index == RootIndex {
			return nil
		}
		index = node.Parent
	}
}
