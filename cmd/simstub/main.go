package main

// Stand-in simulation for local dashboard work. Serves the websocket the
// monitor dials and plays out a plausible emergence run: drifting raw
// metrics, a slowly growing concept graph, and command handling that mirrors
// the real control protocol closely enough to exercise every monitor path.

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// Simplified wire types for the stub
type envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

type graphNode struct {
	ID         string  `json:"id"`
	Weight     float64 `json:"weight"`
	Activation float64 `json:"activation,omitempty"`
	Recent     bool    `json:"recent,omitempty"`
}

type graphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// world is one connection's run. Every monitor that dials in gets its own.
type world struct {
	mu   sync.Mutex // guards the run state
	wmu  sync.Mutex // serializes conn writes (tick loop vs command replies)
	conn *websocket.Conn

	complexity  float64
	structures  float64
	adaptations float64
	stability   float64

	learning bool
	paused   bool
	step     int
	total    int

	nodeCount int
	ticks     int
}

func newWorld(conn *websocket.Conn) *world {
	return &world{
		conn:       conn,
		complexity: 4 + rand.Float64()*2,
		structures: 2,
		stability:  6 + rand.Float64()*2,
		nodeCount:  8,
	}
}

func (w *world) send(kind string, data interface{}) {
	frame := envelope{Type: kind, Data: data, Timestamp: time.Now().UnixMilli()}
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if err := w.conn.WriteJSON(frame); err != nil {
		log.Printf("[WARN] write %s: %v", kind, err)
	}
}

func (w *world) run(done <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

// tick advances the run and pushes a state_update. The pace is fixed at two
// ticks a second regardless of the requested step delay; the stub trades
// fidelity for predictability.
func (w *world) tick() {
	w.mu.Lock()

	// Learning accelerates growth; idle runs just breathe.
	growth := 0.2
	if w.learning && !w.paused {
		growth = 1.5
	}
	w.complexity += growth * (0.5 + rand.Float64())
	w.structures += growth * rand.Float64() * 0.6
	w.adaptations += growth * rand.Float64() * 0.3
	w.stability += (rand.Float64() - 0.45) * 0.4
	if w.stability < 0 {
		w.stability = 0
	}

	// Rare spike to exercise the alert path downstream.
	spiked := rand.Float64() < 0.02
	if spiked {
		w.complexity *= 1.8
	}

	w.ticks++
	state := map[string]interface{}{
		"metrics": map[string]float64{
			"complexity":  w.complexity,
			"structures":  w.structures,
			"adaptations": w.adaptations,
			"stability":   w.stability,
		},
	}
	if w.ticks%2 == 0 {
		state["emotionalState"] = map[string]float64{
			"curiosity":  0.4 + 0.4*rand.Float64(),
			"confidence": clamp01(w.stability / 10),
			"agitation":  clamp01(w.complexity / 200),
		}
	}
	if w.ticks%4 == 0 {
		if w.nodeCount < 120 {
			w.nodeCount += rand.Intn(3)
		}
		state["conceptGraph"] = w.snapshotGraph()
	}

	var cycle map[string]int
	var modeUpd map[string]bool
	if w.learning && !w.paused {
		w.step++
		cycle = map[string]int{"step": w.step, "totalSteps": w.total}
		if w.step >= w.total {
			w.learning = false
			modeUpd = map[string]bool{"active": false, "paused": false}
		}
	}
	w.mu.Unlock()

	w.send("state_update", state)
	if spiked {
		w.send("threshold_crossed", map[string]string{
			"metricName":  "negentropy",
			"description": "order formation rate spiked",
			"severity":    "warning",
		})
	}
	if cycle != nil {
		w.send("cycle_complete", cycle)
	}
	if modeUpd != nil {
		log.Printf("[INFO] Learning session finished at step %d", w.total)
		w.send("mode_update", modeUpd)
	}
}

func (w *world) snapshotGraph() map[string]interface{} {
	nodes := make([]graphNode, 0, w.nodeCount)
	for i := 0; i < w.nodeCount; i++ {
		nodes = append(nodes, graphNode{
			ID:         fmt.Sprintf("concept-%d", i),
			Weight:     1 + rand.Float64()*float64(1+i%12),
			Activation: rand.Float64(),
			Recent:     i >= w.nodeCount-2,
		})
	}
	edges := make([]graphEdge, 0, w.nodeCount*2)
	for i := 1; i < w.nodeCount; i++ {
		edges = append(edges, graphEdge{
			Source: fmt.Sprintf("concept-%d", rand.Intn(i)),
			Target: fmt.Sprintf("concept-%d", i),
			Weight: rand.Float64() * 3,
		})
	}
	return map[string]interface{}{"nodes": nodes, "edges": edges}
}

func (w *world) handleCommand(raw []byte) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("[WARN] unparseable command: %v", err)
		return
	}

	switch env.Type {
	case "start_learning":
		var cmd struct {
			Steps   int `json:"steps"`
			DelayMs int `json:"delayMs"`
		}
		json.Unmarshal(env.Data, &cmd)
		w.mu.Lock()
		w.learning = true
		w.paused = false
		w.step = 0
		w.total = cmd.Steps
		w.mu.Unlock()
		log.Printf("[INFO] Learning session started: %d steps (delay %dms ignored)", cmd.Steps, cmd.DelayMs)
		w.send("mode_update", map[string]bool{"active": true, "paused": false})

	case "stop_learning":
		w.mu.Lock()
		w.learning = false
		w.paused = false
		w.mu.Unlock()
		log.Printf("[INFO] Learning session stopped")
		w.send("mode_update", map[string]bool{"active": false, "paused": false})

	case "pause_learning":
		var cmd struct {
			Pause bool `json:"pause"`
		}
		json.Unmarshal(env.Data, &cmd)
		w.mu.Lock()
		active := w.learning
		w.paused = cmd.Pause
		w.mu.Unlock()
		w.send("mode_update", map[string]bool{"active": active, "paused": cmd.Pause})

	case "send_prompt":
		var cmd struct {
			Text string `json:"text"`
		}
		json.Unmarshal(env.Data, &cmd)
		w.mu.Lock()
		w.adaptations += 1
		w.mu.Unlock()
		w.send("response", map[string]interface{}{
			"prompt":        cmd.Text,
			"response":      fmt.Sprintf("considered %q and formed %d associations", cmd.Text, 1+rand.Intn(5)),
			"userGenerated": true,
		})

	case "adjust_parameter":
		var cmd struct {
			Category string  `json:"category"`
			Name     string  `json:"name"`
			Value    float64 `json:"value"`
		}
		json.Unmarshal(env.Data, &cmd)
		log.Printf("[INFO] Parameter adjusted: %s.%s = %v", cmd.Category, cmd.Name, cmd.Value)

	case "save_state":
		log.Printf("[INFO] Save requested (stub discards it)")

	case "load_state":
		var cmd struct {
			SessionID string `json:"sessionId"`
		}
		json.Unmarshal(env.Data, &cmd)
		log.Printf("[INFO] Load requested for %q: resetting run", cmd.SessionID)
		w.mu.Lock()
		w.complexity = 25
		w.structures = 12
		w.adaptations = 4
		w.stability = 7
		w.nodeCount = 30
		w.mu.Unlock()

	default:
		log.Printf("[WARN] Unknown command type %q", env.Type)
		w.send("error", map[string]string{
			"message": fmt.Sprintf("unknown command: %s", env.Type),
		})
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func handleWs(wr http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(wr, req, nil)
	if err != nil {
		log.Printf("[WARN] upgrade failed: %v", err)
		return
	}
	log.Printf("[INFO] Monitor connected from %s", conn.RemoteAddr())

	w := newWorld(conn)
	done := make(chan struct{})
	go w.run(done)

	defer func() {
		close(done)
		conn.Close()
		log.Printf("[INFO] Monitor disconnected")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		w.handleCommand(raw)
	}
}

func main() {
	addr := os.Getenv("SIMSTUB_ADDR")
	if addr == "" {
		addr = ":8765"
	}

	fmt.Println("=== Emergence Simulation Stub ===")
	fmt.Printf("Serving ws://localhost%s/ws\n", addr)

	http.HandleFunc("/ws", handleWs)
	log.Fatal(http.ListenAndServe(addr, nil))
}
