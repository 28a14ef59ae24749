package graph

import (
	"hash/fnv"
	"math"
)

// Options tunes the force simulation. Zero values are replaced by
// DefaultOptions at engine construction.
type Options struct {
	Width  float64
	Height float64

	RepulsionBase    float64 // pairwise push, damped by 1/log2(n+2)
	AttractionBase   float64 // spring stiffness toward the target distance
	LinkDistanceBase float64 // resting edge length before count scaling
	CenterStrength   float64
	CollisionPadding float64

	MinRadius   float64
	MaxRadius   float64
	RadiusScale float64 // radius growth per sqrt(weight)

	Friction   float64 // velocity retained per tick
	MaxSpeed   float64
	AlphaDecay float64
	AlphaMin   float64

	ReheatAlpha float64 // energy restored on graph change or pin release
}

// DefaultOptions returns the tuning used by the dashboards.
func DefaultOptions(width, height float64) Options {
	return Options{
		Width:            width,
		Height:           height,
		RepulsionBase:    1200,
		AttractionBase:   0.05,
		LinkDistanceBase: 90,
		CenterStrength:   0.02,
		CollisionPadding: 4,
		MinRadius:        6,
		MaxRadius:        26,
		RadiusScale:      2.5,
		Friction:         0.85,
		MaxSpeed:         18,
		AlphaDecay:       0.0228,
		AlphaMin:         0.003,
		ReheatAlpha:      0.4,
	}
}

// Body is one simulated node. While Pinned the position is caller-owned and
// the integrator skips it entirely.
type Body struct {
	Key        string
	X, Y       float64
	VX, VY     float64
	Radius     float64
	Weight     float64
	Activation float64
	Recent     bool
	Pinned     bool
}

type spring struct {
	a, b   int
	weight float64
}

// Engine runs the incremental force-directed layout over the retained set.
// It is not safe for concurrent use; the Renderer serializes access.
type Engine struct {
	opts    Options
	bodies  []*Body
	index   map[string]*Body
	springs []spring
	alpha   float64
}

// NewEngine builds an empty engine. Missing option fields take defaults.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions(opts.Width, opts.Height)
	if opts.Width <= 0 {
		def.Width = 800
	}
	if opts.Height <= 0 {
		def.Height = 600
	}
	if opts.RepulsionBase > 0 {
		def.RepulsionBase = opts.RepulsionBase
	}
	if opts.AttractionBase > 0 {
		def.AttractionBase = opts.AttractionBase
	}
	if opts.LinkDistanceBase > 0 {
		def.LinkDistanceBase = opts.LinkDistanceBase
	}
	if opts.CenterStrength > 0 {
		def.CenterStrength = opts.CenterStrength
	}
	if opts.CollisionPadding > 0 {
		def.CollisionPadding = opts.CollisionPadding
	}
	if opts.MinRadius > 0 {
		def.MinRadius = opts.MinRadius
	}
	if opts.MaxRadius > 0 {
		def.MaxRadius = opts.MaxRadius
	}
	if opts.RadiusScale > 0 {
		def.RadiusScale = opts.RadiusScale
	}
	if opts.Friction > 0 {
		def.Friction = opts.Friction
	}
	if opts.MaxSpeed > 0 {
		def.MaxSpeed = opts.MaxSpeed
	}
	if opts.AlphaDecay > 0 {
		def.AlphaDecay = opts.AlphaDecay
	}
	if opts.AlphaMin > 0 {
		def.AlphaMin = opts.AlphaMin
	}
	if opts.ReheatAlpha > 0 {
		def.ReheatAlpha = opts.ReheatAlpha
	}

	return &Engine{
		opts:  def,
		index: make(map[string]*Body),
	}
}

// SetGraph swaps in a new retained set incrementally: bodies for surviving
// keys keep their position and velocity, new keys are seeded near the
// center, vanished keys are dropped. The simulation is reheated so the new
// arrangement can settle.
func (e *Engine) SetGraph(r Retained) {
	next := make([]*Body, 0, len(r.Nodes))
	nextIndex := make(map[string]*Body, len(r.Nodes))

	for _, n := range r.Nodes {
		b, ok := e.index[n.Key]
		if !ok {
			x, y := e.seedPosition(n.Key)
			b = &Body{Key: n.Key, X: x, Y: y}
		}
		b.Radius = e.radiusFor(n.Weight)
		b.Weight = n.Weight
		b.Activation = n.Activation
		b.Recent = n.Recent
		next = append(next, b)
		nextIndex[n.Key] = b
	}

	springs := make([]spring, 0, len(r.Edges))
	position := make(map[string]int, len(next))
	for i, b := range next {
		position[b.Key] = i
	}
	for _, edge := range r.Edges {
		a, okA := position[edge.Source]
		b, okB := position[edge.Target]
		if !okA || !okB || a == b {
			continue
		}
		springs = append(springs, spring{a: a, b: b, weight: edge.Weight})
	}

	e.bodies = next
	e.index = nextIndex
	e.springs = springs
	e.alpha = 1
}

// seedPosition places a new body deterministically around the center so
// repeated runs lay out identically.
func (e *Engine) seedPosition(key string) (float64, float64) {
	h := fnv.New32a()
	h.Write([]byte(key))
	sum := h.Sum32()

	angle := float64(sum%3600) / 3600 * 2 * math.Pi
	dist := 30 + float64((sum>>16)%40)

	cx, cy := e.opts.Width/2, e.opts.Height/2
	return cx + math.Cos(angle)*dist, cy + math.Sin(angle)*dist
}

func (e *Engine) radiusFor(weight float64) float64 {
	r := e.opts.MinRadius + math.Sqrt(math.Max(weight, 0))*e.opts.RadiusScale
	return math.Min(r, e.opts.MaxRadius)
}

// Step advances the simulation one tick. It reports false when the layout
// is at equilibrium (alpha exhausted or nothing to simulate), in which case
// no positions changed.
func (e *Engine) Step() bool {
	n := len(e.bodies)
	if n == 0 || e.alpha < e.opts.AlphaMin {
		return false
	}

	// Larger graphs push softer so the layout cannot explode.
	damping := 1 / math.Log2(float64(n)+2)
	repulsion := e.opts.RepulsionBase * damping
	linkDistance := e.opts.LinkDistanceBase * (1 + math.Log1p(float64(n))/10)
	cx, cy := e.opts.Width/2, e.opts.Height/2

	// Pairwise repulsion.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := e.bodies[i], e.bodies[j]
			dx, dy := b.X-a.X, b.Y-a.Y
			distSq := dx*dx + dy*dy
			if distSq < 0.01 {
				distSq = 0.01
				dx, dy = 0.1, 0.1
			}
			force := repulsion / distSq * e.alpha
			dist := math.Sqrt(distSq)
			fx, fy := dx/dist*force, dy/dist*force
			a.VX -= fx
			a.VY -= fy
			b.VX += fx
			b.VY += fy
		}
	}

	// Spring attraction along retained edges.
	for _, s := range e.springs {
		a, b := e.bodies[s.a], e.bodies[s.b]
		dx, dy := b.X-a.X, b.Y-a.Y
		dist := math.Hypot(dx, dy)
		if dist < 0.1 {
			dist = 0.1
		}
		stretch := (dist - linkDistance) / dist * e.opts.AttractionBase * e.alpha
		fx, fy := dx*stretch, dy*stretch
		a.VX += fx
		a.VY += fy
		b.VX -= fx
		b.VY -= fy
	}

	// Centering pull.
	for _, b := range e.bodies {
		b.VX += (cx - b.X) * e.opts.CenterStrength * e.alpha
		b.VY += (cy - b.Y) * e.opts.CenterStrength * e.alpha
	}

	// Collision separation by visual radius.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := e.bodies[i], e.bodies[j]
			dx, dy := b.X-a.X, b.Y-a.Y
			dist := math.Hypot(dx, dy)
			minDist := a.Radius + b.Radius + e.opts.CollisionPadding
			if dist >= minDist || dist == 0 {
				continue
			}
			overlap := (minDist - dist) / 2
			ux, uy := dx/dist, dy/dist
			if !a.Pinned {
				a.X -= ux * overlap
				a.Y -= uy * overlap
			}
			if !b.Pinned {
				b.X += ux * overlap
				b.Y += uy * overlap
			}
		}
	}

	// Integrate.
	for _, b := range e.bodies {
		if b.Pinned {
			b.VX, b.VY = 0, 0
			continue
		}
		b.VX *= e.opts.Friction
		b.VY *= e.opts.Friction

		speed := math.Hypot(b.VX, b.VY)
		if speed > e.opts.MaxSpeed {
			scale := e.opts.MaxSpeed / speed
			b.VX *= scale
			b.VY *= scale
		}

		b.X += b.VX
		b.Y += b.VY

		// Keep bodies on the canvas.
		b.X = math.Max(b.Radius, math.Min(e.opts.Width-b.Radius, b.X))
		b.Y = math.Max(b.Radius, math.Min(e.opts.Height-b.Radius, b.Y))
	}

	e.alpha *= 1 - e.opts.AlphaDecay
	return true
}

// Bodies returns a copy of the current simulation state.
func (e *Engine) Bodies() []Body {
	out := make([]Body, len(e.bodies))
	for i, b := range e.bodies {
		out[i] = *b
	}
	return out
}

// Size reports the number of simulated bodies.
func (e *Engine) Size() int {
	return len(e.bodies)
}

// Pin fixes a body at the given position until Release. Dragging happens as
// a stream of Pin calls. Unknown keys report false.
func (e *Engine) Pin(key string, x, y float64) bool {
	b, ok := e.index[NormalizeKey(key)]
	if !ok {
		return false
	}
	b.Pinned = true
	b.X = x
	b.Y = y
	b.VX, b.VY = 0, 0
	return true
}

// Release returns a pinned body to simulation control and reheats the
// engine so the body moves on the next tick unless the layout happens to be
// at equilibrium around it.
func (e *Engine) Release(key string) bool {
	b, ok := e.index[NormalizeKey(key)]
	if !ok || !b.Pinned {
		return false
	}
	b.Pinned = false
	e.alpha = math.Max(e.alpha, e.opts.ReheatAlpha)
	return true
}

// Clear drops every body. The next SetGraph starts from fresh seeds.
func (e *Engine) Clear() {
	e.bodies = nil
	e.springs = nil
	e.index = make(map[string]*Body)
	e.alpha = 0
}
