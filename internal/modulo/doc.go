// Package modulo implements the naive hash-mod-N placement strategy. It is
// a baseline for the consistent hashing ring: deterministic for a fixed
// node count, but almost every key moves when the count changes.
package modulo
