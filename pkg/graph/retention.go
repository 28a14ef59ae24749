package graph

import (
	"sort"
	"strings"
)

// DefaultMaxNodes caps how many concepts render at once.
const DefaultMaxNodes = 75

// Node is one concept vertex as the simulation delivers it. Weight is the
// concept's reuse count and doubles as its importance rank.
type Node struct {
	Key        string  `json:"key"`
	Weight     float64 `json:"weight"`
	Activation float64 `json:"activation"`
	Recent     bool    `json:"recent"`
}

// Edge connects two concepts by key. Endpoints arrive either as raw key
// strings or as embedded node objects upstream; by the time an Edge exists
// both are plain keys (the channel codec normalizes representation), and
// retention normalizes the string itself.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Retained is the importance-capped subset that actually renders.
type Retained struct {
	Nodes []Node
	Edges []Edge
	keys  map[string]struct{}
}

// Contains reports whether the retained set holds the (normalized) key.
func (r Retained) Contains(key string) bool {
	_, ok := r.keys[NormalizeKey(key)]
	return ok
}

// NormalizeKey canonicalizes a node identity for comparison. Every endpoint
// check goes through here so that an edge naming a key with stray
// whitespace still matches its node.
func NormalizeKey(key string) string {
	return strings.TrimSpace(key)
}

// Retain selects the top-k nodes by descending weight (key ascending on
// ties, so selection is deterministic) and keeps only edges whose source
// AND target both survive. Edges referencing anything outside the retained
// set are dropped silently, never an error. k <= 0 falls back to
// DefaultMaxNodes.
func Retain(nodes []Node, edges []Edge, k int) Retained {
	if k <= 0 {
		k = DefaultMaxNodes
	}

	// Normalize and deduplicate: a key repeated in one snapshot keeps its
	// highest-weight occurrence.
	byKey := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		n.Key = NormalizeKey(n.Key)
		if n.Key == "" {
			continue
		}
		if prev, ok := byKey[n.Key]; !ok || n.Weight > prev.Weight {
			byKey[n.Key] = n
		}
	}

	ranked := make([]Node, 0, len(byKey))
	for _, n := range byKey {
		ranked = append(ranked, n)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].Key < ranked[j].Key
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	keys := make(map[string]struct{}, len(ranked))
	for _, n := range ranked {
		keys[n.Key] = struct{}{}
	}

	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		e.Source = NormalizeKey(e.Source)
		e.Target = NormalizeKey(e.Target)
		if _, ok := keys[e.Source]; !ok {
			continue
		}
		if _, ok := keys[e.Target]; !ok {
			continue
		}
		kept = append(kept, e)
	}

	return Retained{Nodes: ranked, Edges: kept, keys: keys}
}
