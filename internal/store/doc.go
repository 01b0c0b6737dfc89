// Package store implements an in-memory key-value store sharded across the
// members of a consistent hashing ring. Each node gets its own bucket and a
// key lives in the bucket of the node that owned it at write time, so a
// membership change makes previously written keys miss until Rebalance
// moves them to their new owners.
package store
