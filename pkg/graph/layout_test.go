package graph

import (
	"math"
	"testing"
)

func testRetained(keys ...string) Retained {
	nodes := make([]Node, 0, len(keys))
	for i, k := range keys {
		nodes = append(nodes, Node{Key: k, Weight: float64(i + 1)})
	}
	return Retain(nodes, nil, len(keys))
}

func bodyByKey(t *testing.T, e *Engine, key string) Body {
	t.Helper()
	for _, b := range e.Bodies() {
		if b.Key == key {
			return b
		}
	}
	t.Fatalf("body %q not found", key)
	return Body{}
}

func TestLayoutPinHoldsThenReleaseMoves(t *testing.T) {
	e := NewEngine(DefaultOptions(800, 600))
	e.SetGraph(testRetained("a", "b", "c"))

	if !e.Pin("a", 100, 100) {
		t.Fatal("Pin returned false for a present node")
	}
	for i := 0; i < 5; i++ {
		e.Step()
	}
	pinned := bodyByKey(t, e, "a")
	if pinned.X != 100 || pinned.Y != 100 {
		t.Fatalf("pinned node moved to (%.2f, %.2f), want it locked at (100, 100)", pinned.X, pinned.Y)
	}

	if !e.Release("a") {
		t.Fatal("Release returned false for a present node")
	}
	e.Step()
	released := bodyByKey(t, e, "a")
	if released.X == 100 && released.Y == 100 {
		t.Error("released node did not rejoin the simulation on the next step")
	}
}

func TestLayoutReleaseReheatsCooledEngine(t *testing.T) {
	opts := DefaultOptions(800, 600)
	opts.AlphaDecay = 0.5 // cool fast so the test does not grind through 250 steps
	e := NewEngine(opts)
	e.SetGraph(testRetained("a", "b"))

	cooled := false
	for i := 0; i < 30; i++ {
		if !e.Step() {
			cooled = true
			break
		}
	}
	if !cooled {
		t.Fatal("engine never cooled below the alpha floor")
	}

	e.Pin("a", 50, 50)
	e.Release("a")
	if !e.Step() {
		t.Error("Release did not reheat the simulation")
	}
}

func TestLayoutRadiusScalesAndCaps(t *testing.T) {
	e := NewEngine(DefaultOptions(800, 600))
	e.SetGraph(Retain([]Node{
		{Key: "light", Weight: 0},
		{Key: "mid", Weight: 4},
		{Key: "heavy", Weight: 1000},
	}, nil, 3))

	light := bodyByKey(t, e, "light")
	if light.Radius != 6 {
		t.Errorf("zero-weight radius = %.2f, want floor 6", light.Radius)
	}
	mid := bodyByKey(t, e, "mid")
	if math.Abs(mid.Radius-11) > 1e-9 {
		t.Errorf("weight-4 radius = %.2f, want 6 + sqrt(4)*2.5 = 11", mid.Radius)
	}
	heavy := bodyByKey(t, e, "heavy")
	if heavy.Radius != 26 {
		t.Errorf("heavy radius = %.2f, want cap 26", heavy.Radius)
	}
}

func TestLayoutBodiesStayInBounds(t *testing.T) {
	opts := DefaultOptions(120, 120)
	opts.RepulsionBase = 50000 // shove hard so clamping actually has work to do
	e := NewEngine(opts)
	e.SetGraph(testRetained("a", "b", "c", "d", "e", "f"))

	for i := 0; i < 60; i++ {
		e.Step()
	}
	for _, b := range e.Bodies() {
		if b.X < b.Radius || b.X > 120-b.Radius || b.Y < b.Radius || b.Y > 120-b.Radius {
			t.Errorf("body %q escaped canvas: (%.2f, %.2f) radius %.2f", b.Key, b.X, b.Y, b.Radius)
		}
	}
}

func TestLayoutSetGraphKeepsSurvivorPositions(t *testing.T) {
	e := NewEngine(DefaultOptions(800, 600))
	e.SetGraph(testRetained("a", "b"))
	for i := 0; i < 10; i++ {
		e.Step()
	}
	before := bodyByKey(t, e, "a")

	e.SetGraph(testRetained("a", "c"))

	after := bodyByKey(t, e, "a")
	if after.X != before.X || after.Y != before.Y {
		t.Errorf("survivor moved on swap: (%.2f, %.2f) -> (%.2f, %.2f)", before.X, before.Y, after.X, after.Y)
	}
	if e.Size() != 2 {
		t.Errorf("engine holds %d bodies after swap, want 2", e.Size())
	}
}

func TestLayoutSeedingIsDeterministic(t *testing.T) {
	a := NewEngine(DefaultOptions(800, 600))
	b := NewEngine(DefaultOptions(800, 600))
	a.SetGraph(testRetained("x", "y", "z"))
	b.SetGraph(testRetained("x", "y", "z"))

	ba, bb := a.Bodies(), b.Bodies()
	for i := range ba {
		if ba[i].X != bb[i].X || ba[i].Y != bb[i].Y {
			t.Errorf("node %q seeded at (%.2f, %.2f) vs (%.2f, %.2f), want identical placement",
				ba[i].Key, ba[i].X, ba[i].Y, bb[i].X, bb[i].Y)
		}
	}
}

func TestLayoutEmptyEngineDoesNotStep(t *testing.T) {
	e := NewEngine(DefaultOptions(800, 600))
	if e.Step() {
		t.Error("Step on an empty engine reported progress")
	}
	if e.Pin("ghost", 1, 1) {
		t.Error("Pin on an unknown key reported success")
	}
}
