package modulo

import (
	"fmt"
	"testing"

	"hashring/internal/ring"
)

func TestMapper_GetNode(t *testing.T) {
	m := New(nil,
		ring.Node{Name: "a", Addr: "10.0.0.1"},
		ring.Node{Name: "b", Addr: "10.0.0.2"},
	)

	// Same key always maps to the same node for a fixed node count
	first, found := m.GetNode("some-key")
	if !found {
		t.Fatal("Expected to find a node")
	}
	for i := 0; i < 10; i++ {
		node, _ := m.GetNode("some-key")
		if node != first {
			t.Fatalf("Determinism failed: %s vs %s", first, node)
		}
	}
}

func TestMapper_Empty(t *testing.T) {
	m := New(nil)
	node, found := m.GetNode("any-key")
	if found {
		t.Error("Expected no node from an empty mapper")
	}
	if node != (ring.Node{}) {
		t.Errorf("Expected zero node from an empty mapper, got %s", node)
	}
	if m.Len() != 0 {
		t.Errorf("Expected length 0, got %d", m.Len())
	}
}

func TestMapper_AddNode(t *testing.T) {
	m := New(nil, ring.Node{Name: "a", Addr: "10.0.0.1"})
	m.AddNode(ring.Node{Name: "b", Addr: "10.0.0.2"})
	m.AddNode(ring.Node{Name: "b", Addr: "10.0.0.2"}) // duplicates are kept

	if m.Len() != 3 {
		t.Errorf("Expected length 3 (duplicates kept), got %d", m.Len())
	}
}

func TestMapper_RemapsMostKeysOnGrowth(t *testing.T) {
	a := ring.Node{Name: "a", Addr: "10.0.0.1"}
	b := ring.Node{Name: "b", Addr: "10.0.0.2"}
	c := ring.Node{Name: "c", Addr: "10.0.0.3"}

	m := New(nil, a, b)

	keys := make([]string, 200)
	before := make(map[string]ring.Node, len(keys))
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i+1)
		before[keys[i]], _ = m.GetNode(keys[i])
	}

	m.AddNode(c)

	moved := 0
	for _, key := range keys {
		after, _ := m.GetNode(key)
		if after != before[key] {
			moved++
		}
	}
	// Changing the divisor renumbers most keys; that is the baseline's cost
	if moved <= len(keys)/2 {
		t.Errorf("Expected more than half the keys to move, got %d of %d", moved, len(keys))
	}
}
