package graph

import (
	"fmt"
	"testing"
)

func TestRetainCapsAtHighestWeights(t *testing.T) {
	nodes := make([]Node, 0, 200)
	for i := 0; i < 200; i++ {
		nodes = append(nodes, Node{Key: fmt.Sprintf("n%d", i), Weight: float64(i)})
	}
	// Edge between the lowest- and highest-weight nodes: one endpoint will
	// not survive retention, so the edge must be dropped.
	edges := []Edge{{Source: "n0", Target: "n199", Weight: 1}}

	retained := Retain(nodes, edges, 75)

	if len(retained.Nodes) != 75 {
		t.Fatalf("retained %d nodes, want 75", len(retained.Nodes))
	}
	for _, n := range retained.Nodes {
		if n.Weight < 125 {
			t.Errorf("node %q weight %.0f retained, expected only weights >= 125", n.Key, n.Weight)
		}
	}
	if len(retained.Edges) != 0 {
		t.Errorf("retained %d edges, want 0: an edge may only survive when both endpoints do", len(retained.Edges))
	}
}

func TestRetainEdgeNeedsBothEndpoints(t *testing.T) {
	nodes := []Node{
		{Key: "a", Weight: 10},
		{Key: "b", Weight: 9},
		{Key: "c", Weight: 1},
	}
	edges := []Edge{
		{Source: "a", Target: "b", Weight: 2}, // both retained
		{Source: "a", Target: "c", Weight: 2}, // c dropped
		{Source: "c", Target: "b", Weight: 2}, // c dropped
		{Source: "x", Target: "a", Weight: 2}, // x never existed
	}

	retained := Retain(nodes, edges, 2)

	if len(retained.Edges) != 1 {
		t.Fatalf("retained %d edges, want 1", len(retained.Edges))
	}
	if retained.Edges[0].Source != "a" || retained.Edges[0].Target != "b" {
		t.Errorf("retained edge %s->%s, want a->b", retained.Edges[0].Source, retained.Edges[0].Target)
	}
}

func TestRetainNormalizesKeys(t *testing.T) {
	nodes := []Node{
		{Key: "  proto-cell ", Weight: 5},
		{Key: "bond", Weight: 3},
	}
	edges := []Edge{{Source: "proto-cell", Target: " bond  ", Weight: 1}}

	retained := Retain(nodes, edges, 10)

	if !retained.Contains("proto-cell") {
		t.Error("whitespace-padded node key not normalized into retained set")
	}
	if len(retained.Edges) != 1 {
		t.Errorf("edge with padded endpoint keys dropped, want it matched after normalization")
	}
}

func TestRetainDeduplicatesByKey(t *testing.T) {
	nodes := []Node{
		{Key: "a", Weight: 2},
		{Key: " a", Weight: 7}, // same node after normalization, higher weight wins
		{Key: "b", Weight: 4},
		{Key: ""},
		{Key: "   "},
	}

	retained := Retain(nodes, nil, 10)

	if len(retained.Nodes) != 2 {
		t.Fatalf("retained %d nodes, want 2 (duplicates and empty keys collapse)", len(retained.Nodes))
	}
	if retained.Nodes[0].Key != "a" || retained.Nodes[0].Weight != 7 {
		t.Errorf("top node = %q weight %.0f, want a with max weight 7", retained.Nodes[0].Key, retained.Nodes[0].Weight)
	}
}

func TestRetainStableOrderOnTies(t *testing.T) {
	nodes := []Node{
		{Key: "z", Weight: 1},
		{Key: "a", Weight: 1},
		{Key: "m", Weight: 1},
	}

	retained := Retain(nodes, nil, 2)

	if len(retained.Nodes) != 2 {
		t.Fatalf("retained %d nodes, want 2", len(retained.Nodes))
	}
	if retained.Nodes[0].Key != "a" || retained.Nodes[1].Key != "m" {
		t.Errorf("tie-break order = %q,%q, want a,m (key ascending)", retained.Nodes[0].Key, retained.Nodes[1].Key)
	}
}
