package ring

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
)

// DefaultReplicas is the number of virtual nodes placed per physical node
// when the caller does not pick a count.
const DefaultReplicas = 100

// Hash maps a virtual-node label or a lookup key to a point on the ring.
type Hash func(data []byte) uint64

// DefaultHash returns the leading 8 bytes of the SHA-256 digest as a
// big-endian integer. Comparing these prefixes orders full digests the
// same way, so the narrower points preserve ring positions.
func DefaultHash(data []byte) uint64 {
	sum := sha256.Sum256(data)
	return binary.BigEndian.Uint64(sum[:8])
}

// Node represents a physical node in the cluster. Nodes compare by value:
// equal name and address means the same node.
type Node struct {
	Name string
	Addr string
}

func (n Node) String() string {
	return n.Name + "@" + n.Addr
}

// entry is one virtual node: a point on the ring and the physical node
// that owns it.
type entry struct {
	point uint64
	node  Node
}

// ChangeOp identifies the kind of membership change reported to an observer.
type ChangeOp int

const (
	NodeAdded ChangeOp = iota
	NodeRemoved
)

func (op ChangeOp) String() string {
	switch op {
	case NodeAdded:
		return "added"
	case NodeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// ChangeFunc is called after a membership change commits. It runs outside
// the ring lock, so callbacks may call back into the ring.
type ChangeFunc func(op ChangeOp, node Node, members, entries int)

// Ring implements consistent hashing with virtual nodes. A Ring is safe
// for concurrent use: lookups share a read lock, and membership changes
// briefly block them so readers only ever observe a fully applied change.
type Ring struct {
	mu       sync.RWMutex
	replicas int
	hash     Hash
	entries  []entry // sorted by point
	members  map[Node]struct{}
	onChange ChangeFunc
}

// New creates a ring with the given number of virtual nodes per physical
// node and hash function. A non-positive replica count falls back to
// DefaultReplicas, a nil hash to DefaultHash. Any initial nodes are added
// through the same path as a later AddNode.
func New(replicas int, fn Hash, nodes ...Node) *Ring {
	if replicas <= 0 {
		replicas = DefaultReplicas
	}
	if fn == nil {
		fn = DefaultHash
	}
	r := &Ring{
		replicas: replicas,
		hash:     fn,
		entries:  make([]entry, 0),
		members:  make(map[Node]struct{}),
	}
	for _, node := range nodes {
		r.AddNode(node)
	}
	return r
}

// SetOnChange registers an observer for membership changes. Passing nil
// clears it.
func (r *Ring) SetOnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// AddNode adds a node and its virtual nodes to the ring. Adding a node
// that is already a member is a no-op.
func (r *Ring) AddNode(node Node) {
	r.mu.Lock()
	if _, exists := r.members[node]; exists {
		r.mu.Unlock()
		return // already a member
	}

	r.members[node] = struct{}{}
	for i := 0; i < r.replicas; i++ {
		label := fmt.Sprintf("%s:%d", node.Name, i)
		e := entry{point: r.hash([]byte(label)), node: node}
		// Insert in sorted order
		idx := lowerBound(r.entries, e.point)
		r.entries = append(r.entries[:idx], append([]entry{e}, r.entries[idx:]...)...)
	}
	fn, members, entries := r.onChange, len(r.members), len(r.entries)
	r.mu.Unlock()

	if fn != nil {
		fn(NodeAdded, node, members, entries)
	}
}

// RemoveNode removes a node and all its virtual nodes from the ring.
// Removing a node that is not a member is a no-op.
func (r *Ring) RemoveNode(node Node) {
	r.mu.Lock()
	if _, exists := r.members[node]; !exists {
		r.mu.Unlock()
		return // not a member
	}

	delete(r.members, node)
	kept := make([]entry, 0, len(r.entries)-r.replicas)
	for _, e := range r.entries {
		if e.node != node {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	fn, members, entries := r.onChange, len(r.members), len(r.entries)
	r.mu.Unlock()

	if fn != nil {
		fn(NodeRemoved, node, members, entries)
	}
}

// GetNode returns the node responsible for the given key.
// Returns (Node{}, false) when the ring is empty.
func (r *Ring) GetNode(key string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 {
		return Node{}, false
	}

	idx := lowerBound(r.entries, r.hash([]byte(key)))
	// Wrap around when the key hashes past the highest point
	if idx == len(r.entries) {
		idx = 0
	}
	return r.entries[idx].node, true
}

// PreferenceList returns up to k distinct nodes for the key, starting at
// the responsible node and walking the ring clockwise. It never returns
// more nodes than the ring has members.
func (r *Ring) PreferenceList(key string, k int) []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 || k <= 0 {
		return []Node{}
	}

	idx := lowerBound(r.entries, r.hash([]byte(key)))
	if idx == len(r.entries) {
		idx = 0
	}

	seen := make(map[Node]struct{}, k)
	result := make([]Node, 0, k)
	for i := 0; i < len(r.entries) && len(result) < k; i++ {
		node := r.entries[(idx+i)%len(r.entries)].node
		if _, ok := seen[node]; ok {
			continue
		}
		seen[node] = struct{}{}
		result = append(result, node)
	}
	return result
}

// GetNodes returns all member nodes sorted by name, then address.
func (r *Ring) GetNodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]Node, 0, len(r.members))
	for node := range r.members {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].Addr < nodes[j].Addr
	})
	return nodes
}

// Size returns the number of virtual nodes currently on the ring.
func (r *Ring) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Replicas returns the number of virtual nodes placed per physical node.
func (r *Ring) Replicas() int {
	return r.replicas
}

// lowerBound returns the index of the first entry whose point is >= target,
// or len(entries) when every point is smaller.
func lowerBound(entries []entry, target uint64) int {
	return sort.Search(len(entries), func(i int) bool {
		return entries[i].point >= target
	})
}
