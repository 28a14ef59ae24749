package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"emergence-monitor-be/internal/constant"
	"emergence-monitor-be/internal/dto"
	"emergence-monitor-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis channel used to mirror dashboard traffic across monitor instances.
const clusterChannel = "monitor_events"

type Hub struct {
	// Registered dashboard connections keyed by connection ID.
	clients map[uuid.UUID]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance mirroring
	rdb *redis.Client

	// Identifies this process on the mirror channel so a message is not
	// delivered twice on the instance that produced it.
	instanceID string

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Dashboard connected", map[string]interface{}{"viewer_id": client.ID})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				h.logger.Info("Hub", "Dashboard disconnected", map[string]interface{}{"viewer_id": client.ID})
			}
			h.mu.Unlock()
		}
	}
}

// Count reports how many dashboards are currently connected to this instance.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Envelope serializes one message in the standard dashboard envelope. Welcome
// replays use it to stage state for a single connection without broadcasting.
func Envelope(kind string, payload interface{}) []byte {
	data, _ := json.Marshal(dto.DashboardEnvelope{
		Type:      kind,
		Data:      payload,
		Timestamp: time.Now().UnixMilli(),
	})
	return data
}

// BroadcastEnvelope wraps the payload in a dashboard envelope and fans it out
// to every connected dashboard. Everything except render frames is also
// mirrored over Redis to dashboards on other instances: frames stay local
// because layout positions are seeded per instance, so a mirrored frame would
// interleave two different layouts.
func (h *Hub) BroadcastEnvelope(kind string, payload interface{}) {
	// 1. Serialize
	data := Envelope(kind, payload)

	// 2. Send to all local dashboards
	h.deliverLocal(data)

	// 3. Publish to Redis for other instances
	if h.rdb != nil && kind != constant.KindFrame {
		jsonPayload, _ := json.Marshal(map[string]interface{}{
			"origin":  h.instanceID,
			"message": data,
		})
		h.rdb.Publish(context.Background(), clusterChannel, jsonPayload)
	}
}

// deliverLocal pushes an already-serialized message to every local client.
// A client whose send buffer is full gets dropped; the unregister path owns
// closing its channel, so it is queued after the read lock is released.
func (h *Hub) deliverLocal(data []byte) {
	var stale []*Client

	h.mu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.logger.Warn("Hub", "Dashboard send buffer full, dropping connection", map[string]interface{}{"viewer_id": client.ID})
		h.unregister <- client
	}
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the same mirror channel. Messages carry
	// the origin instance ID; we deliver only what other instances produced,
	// since our own copies already went out locally.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			Origin  string          `json:"origin"`
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		if payload.Origin == h.instanceID {
			continue
		}

		h.deliverLocal(payload.Message)
	}
}
