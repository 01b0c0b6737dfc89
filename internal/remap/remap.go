package remap

import (
	"fmt"
	"sort"

	"hashring/internal/ring"
)

// Router is any key-to-node mapping strategy. Both the consistent hashing
// ring and the modulo baseline satisfy it.
type Router interface {
	GetNode(key string) (ring.Node, bool)
}

// Assignments records which node owned each key when a snapshot was taken.
type Assignments map[string]ring.Node

// Snapshot asks the router for every key's owner. Keys without an owner are
// left out, so a snapshot of an empty router is empty.
func Snapshot(r Router, keys []string) Assignments {
	a := make(Assignments, len(keys))
	for _, key := range keys {
		if node, ok := r.GetNode(key); ok {
			a[key] = node
		}
	}
	return a
}

// Changes describes the difference between two assignment snapshots.
type Changes struct {
	Moved []string // keys whose owner changed or disappeared, sorted
	Total int      // keys in the before snapshot
}

// Diff compares two snapshots taken over the same key set. A key counts as
// moved when its owner changed or it no longer has one.
func Diff(before, after Assignments) Changes {
	c := Changes{Total: len(before)}
	for key, node := range before {
		if now, ok := after[key]; !ok || now != node {
			c.Moved = append(c.Moved, key)
		}
	}
	sort.Strings(c.Moved)
	return c
}

// Count returns the number of moved keys.
func (c Changes) Count() int {
	return len(c.Moved)
}

// Fraction returns moved keys over total keys, or 0 for an empty snapshot.
func (c Changes) Fraction() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(len(c.Moved)) / float64(c.Total)
}

// Keys generates the numbered key set the demo uses: prefix1 through prefixN.
func Keys(prefix string, n int) []string {
	keys := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		keys = append(keys, fmt.Sprintf("%s%d", prefix, i))
	}
	return keys
}
