package modulo

import "hashring/internal/ring"

// Mapper assigns keys to nodes by hashing the key and taking the remainder
// by the node count. Node order matters: position i owns every key whose
// hash leaves remainder i.
type Mapper struct {
	hash  ring.Hash
	nodes []ring.Node
}

// New creates a mapper over the given nodes, kept in argument order.
// A nil hash falls back to ring.DefaultHash.
func New(fn ring.Hash, nodes ...ring.Node) *Mapper {
	if fn == nil {
		fn = ring.DefaultHash
	}
	m := &Mapper{hash: fn}
	m.nodes = append(m.nodes, nodes...)
	return m
}

// AddNode appends a node, changing the divisor for every key. Duplicates
// are kept.
func (m *Mapper) AddNode(node ring.Node) {
	m.nodes = append(m.nodes, node)
}

// GetNode returns the node at position hash(key) mod node count.
// Returns (Node{}, false) when the mapper has no nodes.
func (m *Mapper) GetNode(key string) (ring.Node, bool) {
	if len(m.nodes) == 0 {
		return ring.Node{}, false
	}
	idx := m.hash([]byte(key)) % uint64(len(m.nodes))
	return m.nodes[idx], true
}

// Len returns the number of nodes.
func (m *Mapper) Len() int {
	return len(m.nodes)
}
