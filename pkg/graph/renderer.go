package graph

import (
	"sync"
	"time"

	"emergence-monitor-be/pkg/sched"
)

// FramePublisher receives rendered frames for delivery to dashboards. The
// websocket fanout implements this; tests substitute a recorder.
type FramePublisher interface {
	PublishFrame(frame *Frame)
}

// Frame is one rendered layout snapshot.
type Frame struct {
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
	At    time.Time  `json:"at"`
}

// NodeView is a positioned node ready to draw.
type NodeView struct {
	Key        string  `json:"key"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	Activation float64 `json:"activation"`
	Recent     bool    `json:"recent"`
	Labeled    bool    `json:"labeled"`
}

// EdgeView is a retained edge ready to draw.
type EdgeView struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// RendererConfig tunes retention, pacing and labeling.
type RendererConfig struct {
	MaxNodes           int           // retained-set cap (K)
	TickInterval       time.Duration // simulation step cadence
	FrameInterval      time.Duration // minimum spacing between published frames
	LabelMinWeight     float64       // label nodes at or above this weight...
	LabelMinActivation float64       // ...or at or above this activation
	Layout             Options
}

// DefaultRendererConfig paces the simulation at 60 ticks/s and caps
// publishing at 20 frames/s.
func DefaultRendererConfig(width, height float64) RendererConfig {
	return RendererConfig{
		MaxNodes:           DefaultMaxNodes,
		TickInterval:       16 * time.Millisecond,
		FrameInterval:      50 * time.Millisecond,
		LabelMinWeight:     5,
		LabelMinActivation: 0.6,
		Layout:             DefaultOptions(width, height),
	}
}

// Renderer owns the retained concept subset and its layout. Snapshots
// replace the node set wholesale; the renderer re-selects the top-K, keeps
// surviving positions, and publishes frames from a scheduled task that is
// canceled at teardown.
type Renderer struct {
	mu        sync.Mutex
	cfg       RendererConfig
	engine    *Engine
	retained  Retained
	pub       FramePublisher
	task      *sched.Task
	lastPub   time.Time
	lastFrame *Frame
}

// NewRenderer builds a stopped renderer. Call Start to begin ticking.
func NewRenderer(cfg RendererConfig, pub FramePublisher) *Renderer {
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = DefaultMaxNodes
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 16 * time.Millisecond
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 50 * time.Millisecond
	}
	return &Renderer{
		cfg:    cfg,
		engine: NewEngine(cfg.Layout),
		pub:    pub,
	}
}

// Start schedules the tick loop. Calling Start on a running renderer is a
// no-op.
func (r *Renderer) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.task != nil {
		return
	}
	r.task = sched.Every(r.cfg.TickInterval, r.tick)
}

// Stop cancels the tick loop and waits for it to exit. The retained set and
// last frame survive a Stop; use Clear for disconnect teardown.
func (r *Renderer) Stop() {
	r.mu.Lock()
	task := r.task
	r.task = nil
	r.mu.Unlock()

	if task != nil {
		task.Stop()
	}
}

// SetGraph replaces the node/edge set, re-selects the retained top-K and
// feeds the layout incrementally. An empty node set is ignored outright:
// the previous retained set, layout and published output stay as they are,
// so a server that repeats an empty graph cannot blank the view. Returns
// the retained node count.
func (r *Renderer) SetGraph(nodes []Node, edges []Edge) int {
	if len(nodes) == 0 {
		return 0
	}

	retained := Retain(nodes, edges, r.cfg.MaxNodes)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.retained = retained
	r.engine.SetGraph(retained)
	return len(retained.Nodes)
}

// Pin fixes a node at the given canvas position (drag-in-progress).
func (r *Renderer) Pin(key string, x, y float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Pin(key, x, y)
}

// Release hands a dragged node back to the simulation.
func (r *Renderer) Release(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Release(key)
}

// Frame returns the most recently published frame, or nil before the first
// publication.
func (r *Renderer) Frame() *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFrame
}

// RetainedSize reports how many nodes are currently retained.
func (r *Renderer) RetainedSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.retained.Nodes)
}

// Clear drops all rendering state. Used when the state channel disconnects:
// monitored entities do not survive the connection.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retained = Retained{}
	r.engine.Clear()
	r.lastFrame = nil
	r.lastPub = time.Time{}
}

// tick advances the simulation once and publishes at most one frame per
// FrameInterval, regardless of how fast ticks arrive.
func (r *Renderer) tick(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.engine.Step() {
		return
	}
	if now.Sub(r.lastPub) < r.cfg.FrameInterval {
		return
	}

	frame := r.buildFrame(now)
	r.lastFrame = frame
	r.lastPub = now

	if r.pub != nil {
		r.pub.PublishFrame(frame)
	}
}

// buildFrame snapshots simulated positions. Labeling is bounded: when the
// retained set is below the cap every node gets a label, otherwise only
// important or strongly activated ones.
func (r *Renderer) buildFrame(now time.Time) *Frame {
	labelAll := len(r.retained.Nodes) < r.cfg.MaxNodes

	bodies := r.engine.Bodies()
	nodes := make([]NodeView, len(bodies))
	for i, b := range bodies {
		nodes[i] = NodeView{
			Key:        b.Key,
			X:          b.X,
			Y:          b.Y,
			Radius:     b.Radius,
			Activation: b.Activation,
			Recent:     b.Recent,
			Labeled:    labelAll || b.Weight >= r.cfg.LabelMinWeight || b.Activation >= r.cfg.LabelMinActivation,
		}
	}

	edges := make([]EdgeView, len(r.retained.Edges))
	for i, e := range r.retained.Edges {
		edges[i] = EdgeView{Source: e.Source, Target: e.Target, Weight: e.Weight}
	}

	return &Frame{Nodes: nodes, Edges: edges, At: now}
}
