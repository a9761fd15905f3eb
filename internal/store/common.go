package store

const (
	ErrFailedBatchCommit = "failed to commit batch: %v"
)

// Prefix constants for all store types
const (
	prefixTreeNode byte = iota + 1
	prefixTreeSize
)

// PrefixToString converts a prefix byte to a string
func PrefixToString(p byte) string {
	switch p {
	case prefixTreeNode:
		return "treeNode"
	case prefixTreeSize:
		return "treeSize"
	default:
		return "unknown"
	}
}

// makeKey creates a key from a prefix and the key parts
func makeKey(prefix byte, parts ...[]byte) []byte {
	size := 1
	for _, p := range parts {
		size += len(p)
	}
	key := make([]byte, 1, size)
	key[0] = prefix
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}
