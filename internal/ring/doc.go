// Package ring implements a consistent hashing ring with virtual nodes.
// It maps keys to physical nodes while minimizing key movement when
// membership changes, keeps its entries sorted for binary-search lookups,
// and reports membership changes to an optional observer. Rings are safe
// for concurrent use.
package ring
