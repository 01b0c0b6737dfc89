package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"hashring/internal/config"
	"hashring/internal/modulo"
	"hashring/internal/remap"
	"hashring/internal/ring"
	"hashring/internal/store"
)

func main() {
	var (
		nodesFlag = flag.String("nodes", "A=192.168.0.1,B=192.168.0.2,C=192.168.0.3", "initial nodes (name=addr, comma separated)")
		joinFlag  = flag.String("join", "D=192.168.0.4", "nodes to add mid-run (name=addr, comma separated)")
		replicas  = flag.Int("replicas", 100, "virtual nodes per physical node")
		keyCount  = flag.Int("keys", 7, "number of generated keys")
		keyPrefix = flag.String("key-prefix", "user_", "generated key prefix")
		hashName  = flag.String("hash", "sha256", "hash function: sha256 or xxhash")
	)
	flag.Parse()

	cfg, err := loadConfig(*nodesFlag, *joinFlag, *replicas, *keyCount, *keyPrefix, *hashName)
	if err != nil {
		log.Fatalf("[ringdemo] %v", err)
	}

	fn, err := cfg.HashFunc()
	if err != nil {
		log.Fatalf("[ringdemo] %v", err)
	}
	keys := remap.Keys(cfg.KeyPrefix, cfg.KeyCount)

	runModulo(cfg, fn, keys)
	runRing(cfg, fn, keys)
	runStore(cfg, fn, keys)
}

func loadConfig(nodesStr, joinStr string, replicas, keyCount int, keyPrefix, hashName string) (*config.Config, error) {
	nodes, err := config.ParseNodes(nodesStr)
	if err != nil {
		return nil, fmt.Errorf("parsing -nodes: %w", err)
	}
	join, err := config.ParseNodes(joinStr)
	if err != nil {
		return nil, fmt.Errorf("parsing -join: %w", err)
	}

	cfg := &config.Config{
		Nodes:     nodes,
		Join:      join,
		Replicas:  replicas,
		KeyCount:  keyCount,
		KeyPrefix: keyPrefix,
		HashName:  hashName,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runModulo shows the baseline: changing the node count renumbers most keys.
func runModulo(cfg *config.Config, fn ring.Hash, keys []string) {
	fmt.Println("========== Modulo Hashing ==========")

	m := modulo.New(fn, cfg.Nodes...)
	before := remap.Snapshot(m, keys)
	printAssignments("Initial mappings", keys, before)

	for _, node := range cfg.Join {
		m.AddNode(node)
		log.Printf("[ringdemo] modulo: added node %s (%d nodes total)", node, m.Len())
	}

	after := remap.Snapshot(m, keys)
	printAssignments("Final mappings", keys, after)

	changes := remap.Diff(before, after)
	fmt.Printf("Modulo hashing re-mapped keys: %d / %d\n\n", changes.Count(), changes.Total)
}

// runRing shows the same membership change on the consistent hashing ring.
func runRing(cfg *config.Config, fn ring.Hash, keys []string) {
	fmt.Println("========== Consistent Hashing ==========")

	r := ring.New(cfg.Replicas, fn, cfg.Nodes...)
	r.SetOnChange(func(op ring.ChangeOp, node ring.Node, members, entries int) {
		log.Printf("[ringdemo] ring: %s %s (%d members, %d entries)", op, node, members, entries)
	})

	before := remap.Snapshot(r, keys)
	printAssignments("Initial mappings", keys, before)

	for _, node := range cfg.Join {
		r.AddNode(node)
	}

	after := remap.Snapshot(r, keys)
	printAssignments("Final mappings", keys, after)

	changes := remap.Diff(before, after)
	fmt.Printf("Consistent hashing re-mapped keys: %d / %d\n", changes.Count(), changes.Total)
	if changes.Count() > 0 {
		fmt.Printf("Moved: %s\n", strings.Join(changes.Moved, ", "))
	}
	fmt.Println()
}

// runStore makes the re-mapping cost concrete: keys written before the join
// miss afterwards until the store rebalances.
func runStore(cfg *config.Config, fn ring.Hash, keys []string) {
	fmt.Println("========== Sharded Store ==========")

	r := ring.New(cfg.Replicas, fn, cfg.Nodes...)
	st := store.New(r)
	for _, key := range keys {
		if _, err := st.Put(key, []byte("value-for-"+key)); err != nil {
			log.Fatalf("[ringdemo] storing %s: %v", key, err)
		}
	}
	fmt.Printf("Loaded %d keys across %d nodes\n", st.Len(), len(r.GetNodes()))

	for _, node := range cfg.Join {
		r.AddNode(node)
	}

	hits, misses := countHits(st, keys)
	fmt.Printf("After join: %d hits, %d misses\n", hits, misses)

	moved := st.Rebalance()
	fmt.Printf("Rebalance migrated %d keys\n", moved)

	hits, misses = countHits(st, keys)
	fmt.Printf("After rebalance: %d hits, %d misses\n", hits, misses)
}

func countHits(st *store.Store, keys []string) (hits, misses int) {
	for _, key := range keys {
		if _, ok := st.Get(key); ok {
			hits++
		} else {
			misses++
		}
	}
	return hits, misses
}

func printAssignments(title string, keys []string, a remap.Assignments) {
	fmt.Printf("%s:\n", title)
	for _, key := range keys {
		if node, ok := a[key]; ok {
			fmt.Printf("  %-10s -> %s\n", key, node.Name)
		} else {
			fmt.Printf("  %-10s -> (no node)\n", key)
		}
	}
}
