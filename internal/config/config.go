package config

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"hashring/internal/ring"
)

// Config holds the scenario settings shared by the demo and the routing
// daemon.
type Config struct {
	Nodes     []ring.Node // initial members
	Join      []ring.Node // members added mid-run
	Replicas  int
	KeyCount  int
	KeyPrefix string
	HashName  string
}

// ParseNodes parses a comma-separated list of nodes in the format:
// "name1=addr1,name2=addr2,name3=addr3"
func ParseNodes(nodesStr string) ([]ring.Node, error) {
	if nodesStr == "" {
		return []ring.Node{}, nil
	}

	parts := strings.Split(nodesStr, ",")
	nodes := make([]ring.Node, 0, len(parts))
	seen := make(map[ring.Node]struct{}, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid node format: %s (expected name=addr)", part)
		}

		name := strings.TrimSpace(kv[0])
		addr := strings.TrimSpace(kv[1])

		if name == "" || addr == "" {
			return nil, fmt.Errorf("node name and address cannot be empty: %s", part)
		}

		node := ring.Node{Name: name, Addr: addr}
		if _, dup := seen[node]; dup {
			return nil, fmt.Errorf("duplicate node: %s", node)
		}
		seen[node] = struct{}{}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

// HashByName resolves a hash selector from the command line. An empty name
// selects the default.
func HashByName(name string) (ring.Hash, error) {
	switch name {
	case "", "sha256":
		return ring.DefaultHash, nil
	case "xxhash":
		return xxhash.Sum64, nil
	default:
		return nil, fmt.Errorf("unknown hash %q (expected sha256 or xxhash)", name)
	}
}

// Validate checks the scenario settings for the demo: at least one initial
// node, positive replica and key counts, and a known hash name.
func (c *Config) Validate() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("at least one initial node is required")
	}
	if c.Replicas < 1 {
		return fmt.Errorf("replicas must be at least 1, got %d", c.Replicas)
	}
	if c.KeyCount < 1 {
		return fmt.Errorf("key count must be at least 1, got %d", c.KeyCount)
	}
	if _, err := c.HashFunc(); err != nil {
		return err
	}
	return nil
}

// HashFunc resolves the configured hash name.
func (c *Config) HashFunc() (ring.Hash, error) {
	return HashByName(c.HashName)
}
