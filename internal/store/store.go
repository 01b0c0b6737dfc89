package store

import (
	"errors"
	"sync"

	"hashring/internal/ring"
)

// ErrNoNodes is returned when the ring has no members to route to.
var ErrNoNodes = errors.New("store: no nodes on the ring")

// Store is an in-memory key-value store sharded by ring ownership.
// It's thread-safe; routing goes through the ring it was built with.
type Store struct {
	ring    *ring.Ring
	mu      sync.RWMutex
	buckets map[ring.Node]map[string][]byte
}

// New creates an empty store routed by r.
func New(r *ring.Ring) *Store {
	return &Store{
		ring:    r,
		buckets: make(map[ring.Node]map[string][]byte),
	}
}

// Put routes the key through the ring and writes the value into the owning
// node's bucket. Returns the owner, or ErrNoNodes when the ring is empty.
func (s *Store) Put(key string, value []byte) (ring.Node, error) {
	node, ok := s.ring.GetNode(key)
	if !ok {
		return ring.Node{}, ErrNoNodes
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, exists := s.buckets[node]
	if !exists {
		bucket = make(map[string][]byte)
		s.buckets[node] = bucket
	}
	// Keep our own copy to avoid external modifications
	bucket[key] = append([]byte(nil), value...)
	return node, nil
}

// Get routes the key and looks only in the current owner's bucket. A key
// written before a membership change may now route to a node that never
// stored it; such lookups miss until Rebalance runs.
func (s *Store) Get(key string) ([]byte, bool) {
	node, ok := s.ring.GetNode(key)
	if !ok {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.buckets[node][key]
	if !exists {
		return nil, false
	}
	// Return a copy to avoid external modifications
	return append([]byte(nil), value...), true
}

// Delete removes the key from its current owner's bucket. Reports whether a
// value was removed.
func (s *Store) Delete(key string) bool {
	node, ok := s.ring.GetNode(key)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, exists := s.buckets[node]
	if !exists {
		return false
	}
	if _, exists := bucket[key]; !exists {
		return false
	}
	delete(bucket, key)
	return true
}

// Rebalance re-routes every stored key and moves the misplaced ones into
// their current owner's bucket. Returns how many keys moved. Keys with no
// owner (empty ring) stay where they are. A key rewritten after a membership
// change already sits in its owner's bucket; the stale copy left in the old
// owner's bucket is dropped, not moved, and not counted.
func (s *Store) Rebalance() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	type move struct {
		key      string
		value    []byte
		from, to ring.Node
	}
	var moves []move
	for node, bucket := range s.buckets {
		for key, value := range bucket {
			owner, ok := s.ring.GetNode(key)
			if ok && owner != node {
				moves = append(moves, move{key, value, node, owner})
			}
		}
	}

	moved := 0
	for _, m := range moves {
		target, exists := s.buckets[m.to]
		if !exists {
			target = make(map[string][]byte)
			s.buckets[m.to] = target
		}
		if _, rewritten := target[m.key]; rewritten {
			// The owner's bucket already holds a later write for this key;
			// keep it and drop the stale copy
			delete(s.buckets[m.from], m.key)
			continue
		}
		target[m.key] = m.value
		delete(s.buckets[m.from], m.key)
		moved++
	}
	return moved
}

// Len returns the total number of stored keys across all buckets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, bucket := range s.buckets {
		total += len(bucket)
	}
	return total
}

// BucketLen returns how many keys sit in the given node's bucket.
func (s *Store) BucketLen(node ring.Node) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets[node])
}
