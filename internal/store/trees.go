package store

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/polycash/blockvm/internal/merkle"
	"github.com/polycash/blockvm/pkg/db"
)

// rootIDLength is the byte length of a decoded root hash.
const rootIDLength = 32

// Trees persists merklized state node by node, keyed by root hash and node
// index, so a prover can serve single nodes without loading the whole tree.
type Trees struct {
	db.KVStore
}

func NewTrees(store db.KVStore) *Trees {
	return &Trees{KVStore: store}
}

// rootID maps a root hash to its fixed width key part. The empty tree maps to all zeroes.
func rootID(root string) ([]byte, error) {
	if root == "" {
		return make([]byte, rootIDLength), nil
	}
	id, err := hex.DecodeString(root)
	if err != nil || len(id) != rootIDLength {
		return nil, fmt.Errorf("invalid root hash %q", root)
	}
	return id, nil
}

func indexKey(index uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, index)
}

// Commit writes every node of tree in a single batch and returns its root.
func (t *Trees) Commit(tree merkle.Tree) (string, error) {
	root := tree.Root()
	id, err := rootID(root)
	if err != nil {
		return "", err
	}

	batch := t.NewBatch()
	for index, node := range tree {
		data, err := msgpack.Marshal(node)
		if err != nil {
			return "", errors.Join(fmt.Errorf("encode node %d: %w", index, err), batch.Close())
		}
		if err := batch.Put(makeKey(prefixTreeNode, id, indexKey(uint64(index))), data); err != nil {
			return "", errors.Join(err, batch.Close())
		}
	}
	if err := batch.Put(makeKey(prefixTreeSize, id), indexKey(uint64(len(tree)))); err != nil {
		return "", errors.Join(err, batch.Close())
	}

	if err := batch.Commit(); err != nil {
		closeErr := batch.Close()
		if closeErr != nil {
			return "", fmt.Errorf("commit error: %v, close error: %v", err, closeErr)
		}
		return "", fmt.Errorf(ErrFailedBatchCommit, err)
	}
	if err := batch.Close(); err != nil {
		return "", fmt.Errorf(ErrFailedBatchCommit, err)
	}
	return root, nil
}

// Node retrieves a single node of the tree with the given root.
func (t *Trees) Node(root string, index uint64) (merkle.Node, error) {
	id, err := rootID(root)
	if err != nil {
		return merkle.Node{}, err
	}
	data, err := t.Get(makeKey(prefixTreeNode, id, indexKey(index)))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return merkle.Node{}, fmt.Errorf("%w: root %q index %d", merkle.ErrNodeNotFound, root, index)
		}
		return merkle.Node{}, fmt.Errorf("failed to get node %d of %q: %v", index, root, err)
	}
	return decodeNode(data)
}

func decodeNode(data []byte) (merkle.Node, error) {
	var node merkle.Node
	if err := msgpack.Unmarshal(data, &node); err != nil {
		return merkle.Node{}, fmt.Errorf("decode node: %w", err)
	}
	if node.Value == nil {
		node.Value = []byte{}
	}
	if node.Children == nil {
		node.Children = map[byte]uint64{}
	}
	return node, nil
}

// Size returns the number of nodes of a committed tree.
func (t *Trees) Size(root string) (uint64, error) {
	id, err := rootID(root)
	if err != nil {
		return 0, err
	}
	data, err := t.Get(makeKey(prefixTreeSize, id))
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

// Exists reports whether a tree with the given root was committed.
func (t *Trees) Exists(root string) (bool, error) {
	id, err := rootID(root)
	if err != nil {
		return false, err
	}
	return t.Has(makeKey(prefixTreeSize, id))
}

// Load reads a whole committed tree back in index order.
func (t *Trees) Load(root string) (merkle.Tree, error) {
	id, err := rootID(root)
	if err != nil {
		return nil, err
	}
	size, err := t.Size(root)
	if err != nil {
		return nil, fmt.Errorf("tree %q: %w", root, err)
	}

	iter, err := t.NewIterator(makeKey(prefixTreeNode, id, indexKey(0)), makeKey(prefixTreeNode, id, indexKey(size)))
	if err != nil {
		return nil, err
	}
	defer iter.Close() //nolint:errcheck

	tree := make(merkle.Tree, 0, size)
	for iter.Next() {
		data, err := iter.Value()
		if err != nil {
			return nil, err
		}
		node, err := decodeNode(data)
		if err != nil {
			return nil, err
		}
		tree = append(tree, node)
	}
	if uint64(len(tree)) != size {
		return nil, fmt.Errorf("tree %q: loaded %d of %d nodes", root, len(tree), size)
	}
	return tree, nil
}

// Delete removes a committed tree.
func (t *Trees) Delete(root string) error {
	id, err := rootID(root)
	if err != nil {
		return err
	}
	size, err := t.Size(root)
	if err != nil {
		return err
	}

	batch := t.NewBatch()
	defer batch.Close() //nolint:errcheck
	for index := range size {
		if err := batch.Delete(makeKey(prefixTreeNode, id, indexKey(index))); err != nil {
			return err
		}
	}
	if err := batch.Delete(makeKey(prefixTreeSize, id)); err != nil {
		return err
	}
	return batch.Commit()
}

// Oracle serves the nodes of one committed tree.
func (t *Trees) Oracle(root string) merkle.Oracle {
	return &treeOracle{trees: t, root: root}
}

type treeOracle struct {
	trees *Trees
	root  string
}

func (o *treeOracle) FetchNode(index uint64) (merkle.Node, error) {
	return o.trees.Node(o.root, index)
}
