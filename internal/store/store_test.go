package store

import (
	"errors"
	"fmt"
	"testing"

	"hashring/internal/ring"
)

func newTestRing(names ...string) *ring.Ring {
	nodes := make([]ring.Node, len(names))
	for i, name := range names {
		nodes[i] = ring.Node{Name: name, Addr: fmt.Sprintf("10.0.0.%d", i+1)}
	}
	return ring.New(100, nil, nodes...)
}

func TestStore_PutGet(t *testing.T) {
	r := newTestRing("node-1", "node-2", "node-3")
	st := New(r)

	owner, err := st.Put("key1", []byte("value1"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if owner == (ring.Node{}) {
		t.Fatal("Expected a non-zero owner")
	}

	value, found := st.Get("key1")
	if !found {
		t.Fatal("Expected to find key1")
	}
	if string(value) != "value1" {
		t.Errorf("Expected 'value1', got '%s'", string(value))
	}
	if st.Len() != 1 {
		t.Errorf("Expected length 1, got %d", st.Len())
	}
}

func TestStore_GetNotFound(t *testing.T) {
	st := New(newTestRing("node-1"))
	if _, found := st.Get("nonexistent"); found {
		t.Error("Expected miss for non-existent key")
	}
}

func TestStore_EmptyRing(t *testing.T) {
	st := New(ring.New(100, nil))

	if _, err := st.Put("key1", []byte("v")); !errors.Is(err, ErrNoNodes) {
		t.Errorf("Expected ErrNoNodes, got %v", err)
	}
	if _, found := st.Get("key1"); found {
		t.Error("Expected miss on empty ring")
	}
	if st.Delete("key1") {
		t.Error("Expected delete to report false on empty ring")
	}
}

func TestStore_Delete(t *testing.T) {
	st := New(newTestRing("node-1", "node-2"))

	st.Put("key1", []byte("value1"))
	if !st.Delete("key1") {
		t.Error("Expected delete to report true")
	}
	if _, found := st.Get("key1"); found {
		t.Error("Expected miss after delete")
	}
	if st.Delete("key1") {
		t.Error("Expected second delete to report false")
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	st := New(newTestRing("node-1"))
	st.Put("key1", []byte("value1"))

	v1, _ := st.Get("key1")
	v1[0] = 'X'

	v2, _ := st.Get("key1")
	if string(v2) != "value1" {
		t.Errorf("Get should return independent copies, got '%s'", string(v2))
	}
}

func TestStore_MissAfterJoinThenRebalance(t *testing.T) {
	r := newTestRing("node-1", "node-2", "node-3")
	st := New(r)
	added := ring.Node{Name: "node-4", Addr: "10.0.0.4"}

	keys := make([]string, 100)
	owners := make(map[string]ring.Node, len(keys))
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i+1)
		owner, err := st.Put(keys[i], []byte("v"))
		if err != nil {
			t.Fatalf("Put %s failed: %v", keys[i], err)
		}
		owners[keys[i]] = owner
	}

	r.AddNode(added)

	// Keys whose owner changed now route to a bucket that never stored them
	misses := 0
	for _, key := range keys {
		owner, _ := r.GetNode(key)
		_, found := st.Get(key)
		if owner != owners[key] {
			misses++
			if found {
				t.Errorf("Key %s moved to %s but still resolves", key, owner)
			}
			if owner != added {
				t.Errorf("Key %s moved to %s instead of the new node", key, owner)
			}
		} else if !found {
			t.Errorf("Key %s never moved but misses", key)
		}
	}
	if misses == 0 {
		t.Fatal("Expected the new node to take over some keys")
	}

	moved := st.Rebalance()
	if moved != misses {
		t.Errorf("Expected rebalance to move %d keys, moved %d", misses, moved)
	}
	for _, key := range keys {
		if _, found := st.Get(key); !found {
			t.Errorf("Key %s still missing after rebalance", key)
		}
	}
	if got := st.BucketLen(added); got != moved {
		t.Errorf("Expected %d keys in the new node's bucket, got %d", moved, got)
	}
	if st.Len() != len(keys) {
		t.Errorf("Expected %d keys total after rebalance, got %d", len(keys), st.Len())
	}
}

func TestStore_RebalanceKeepsLatestWrite(t *testing.T) {
	r := newTestRing("node-1", "node-2", "node-3")
	st := New(r)
	added := ring.Node{Name: "node-4", Addr: "10.0.0.4"}

	keys := make([]string, 100)
	owners := make(map[string]ring.Node, len(keys))
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i+1)
		owner, err := st.Put(keys[i], []byte("v1"))
		if err != nil {
			t.Fatalf("Put %s failed: %v", keys[i], err)
		}
		owners[keys[i]] = owner
	}

	r.AddNode(added)

	// Rewrite one of the keys the new node took over; the fresh value lands
	// in the new owner's bucket while the stale copy stays in the old one
	changed := 0
	var rewritten string
	for _, key := range keys {
		if owner, _ := r.GetNode(key); owner != owners[key] {
			changed++
			if rewritten == "" {
				rewritten = key
			}
		}
	}
	if rewritten == "" {
		t.Fatal("Expected the new node to take over some keys")
	}
	if _, err := st.Put(rewritten, []byte("v2")); err != nil {
		t.Fatalf("Put %s failed: %v", rewritten, err)
	}
	if value, found := st.Get(rewritten); !found || string(value) != "v2" {
		t.Fatalf("Expected v2 before rebalance, got %q (found=%v)", value, found)
	}

	moved := st.Rebalance()

	if value, found := st.Get(rewritten); !found || string(value) != "v2" {
		t.Errorf("Expected v2 after rebalance, got %q (found=%v)", value, found)
	}
	// The rewritten key's stale copy is dropped, not moved
	if want := changed - 1; moved != want {
		t.Errorf("Expected %d moves, got %d", want, moved)
	}
	if st.Len() != len(keys) {
		t.Errorf("Expected %d keys after rebalance, got %d", len(keys), st.Len())
	}
	for _, key := range keys {
		if _, found := st.Get(key); !found {
			t.Errorf("Key %s missing after rebalance", key)
		}
	}
}

func TestStore_RebalanceNoChanges(t *testing.T) {
	st := New(newTestRing("node-1", "node-2"))
	for i := 0; i < 20; i++ {
		st.Put(fmt.Sprintf("key-%d", i), []byte("v"))
	}
	if moved := st.Rebalance(); moved != 0 {
		t.Errorf("Expected no moves on an unchanged ring, got %d", moved)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	st := New(newTestRing("node-1", "node-2", "node-3"))

	done := make(chan bool, 20)
	for i := 0; i < 10; i++ {
		go func(i int) {
			st.Put(fmt.Sprintf("key-%d", i), []byte("value"))
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		go func(i int) {
			st.Get(fmt.Sprintf("key-%d", i))
			done <- true
		}(i)
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	if st.Len() != 10 {
		t.Errorf("Expected 10 keys after concurrent writes, got %d", st.Len())
	}
}
