// Package remap measures how key-to-node assignments shift when membership
// changes. It snapshots any routing strategy over a key set and diffs the
// snapshots, which is how the demo quantifies the ring's advantage over the
// modulo baseline.
package remap
