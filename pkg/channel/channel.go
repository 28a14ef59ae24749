// Package channel maintains the duplex websocket link to the simulation
// process. It pushes decoded events to subscribers in arrival order and
// accepts validated control commands for the other direction. Reconnection
// policy lives with the caller: when the link drops the channel tears itself
// down, notifies subscribers once, and waits for the next Connect.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"emergence-monitor-be/internal/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Snapshots carry full concept graphs, so the limit is generous.
	maxMessageSize = 4 << 20

	sendQueueSize = 64
)

var (
	ErrAlreadyConnected = errors.New("channel: already connected")
	ErrNotConnected     = errors.New("channel: not connected")
	ErrQueueFull        = errors.New("channel: outbound queue full")
)

// Handler receives decoded events. Handlers run on the read loop goroutine,
// so arrival order is preserved; they must not block.
type Handler func(Event)

// Subscription is a cancelable registration for one event kind.
type Subscription struct {
	ch   *Channel
	kind string
	id   uint64
}

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.ch == nil {
		return
	}
	s.ch.unsubscribe(s.kind, s.id)
}

// Status is a point-in-time snapshot of the link.
type Status struct {
	Connected   bool      `json:"connected"`
	URL         string    `json:"url"`
	ConnectedAt time.Time `json:"connected_at,omitempty"`
	LastEventAt time.Time `json:"last_event_at,omitempty"`
	Received    uint64    `json:"received"`
	Sent        uint64    `json:"sent"`
	Dropped     uint64    `json:"dropped"`
	Malformed   uint64    `json:"malformed"`
}

// Channel is the client side of the state link. All methods are safe for
// concurrent use.
type Channel struct {
	url    string
	log    logger.ILogger
	dialer *websocket.Dialer

	mu        sync.RWMutex
	conn      *websocket.Conn
	send      chan []byte
	connected bool

	subs    map[string]map[uint64]Handler
	nextSub uint64

	connectedAt time.Time
	lastEventAt time.Time
	received    uint64
	sent        uint64
	dropped     uint64
	malformed   uint64
}

func NewChannel(url string, log logger.ILogger) *Channel {
	return &Channel{
		url:    url,
		log:    log,
		dialer: websocket.DefaultDialer,
		subs:   make(map[string]map[uint64]Handler),
	}
}

// Connect dials the simulation and starts the read and write pumps. One
// connection at a time; reconnect by calling Connect again after the
// disconnected event.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.connected {
		// Lost the race to a concurrent Connect.
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyConnected
	}
	c.conn = conn
	c.send = make(chan []byte, sendQueueSize)
	c.connected = true
	c.connectedAt = time.Now()
	send := c.send
	c.mu.Unlock()

	c.log.Info("channel", "connected to simulation", map[string]interface{}{"url": c.url})

	go c.writePump(conn, send)
	go c.readPump(conn)
	return nil
}

// Subscribe registers a handler for one event kind. Every registration is
// also handed the synthetic disconnected event at teardown, whatever kind it
// watches, so handlers must tolerate a *Disconnected payload.
func (c *Channel) Subscribe(kind string, fn Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	if c.subs[kind] == nil {
		c.subs[kind] = make(map[uint64]Handler)
	}
	c.subs[kind][id] = fn
	return &Subscription{ch: c, kind: kind, id: id}
}

func (c *Channel) unsubscribe(kind string, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if handlers, ok := c.subs[kind]; ok {
		delete(handlers, id)
	}
}

// Send validates a command and queues it for transmission. Invalid commands
// never reach the wire; a full queue or a dropped link is reported to the
// caller instead of blocking.
func (c *Channel) Send(cmd Command) error {
	if err := ValidateCommand(cmd); err != nil {
		return err
	}
	frame, err := encodeCommand(cmd, time.Now())
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		c.dropped++
		return ErrNotConnected
	}
	select {
	case c.send <- frame:
		c.sent++
		return nil
	default:
		c.dropped++
		return ErrQueueFull
	}
}

// Status reports the current link state and counters.
func (c *Channel) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		Connected:   c.connected,
		URL:         c.url,
		ConnectedAt: c.connectedAt,
		LastEventAt: c.lastEventAt,
		Received:    c.received,
		Sent:        c.sent,
		Dropped:     c.dropped,
		Malformed:   c.malformed,
	}
}

// Connected reports whether the link is up.
func (c *Channel) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close shuts the link down deliberately. Subscribers still receive the
// disconnected event via the read pump teardown.
func (c *Channel) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}

// readPump pumps messages from the simulation to subscribers. It owns all
// reads and performs teardown when the connection dies.
func (c *Channel) readPump(conn *websocket.Conn) {
	defer c.teardown(conn)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("channel", "read failed", map[string]interface{}{"error": err.Error()})
			}
			return
		}

		now := time.Now()
		ev, err := decodeEvent(raw, now)
		if err != nil {
			// A malformed message is discarded; it never kills the session.
			c.mu.Lock()
			c.malformed++
			c.mu.Unlock()
			c.log.Warn("channel", "discarding malformed message", map[string]interface{}{"error": err.Error()})
			continue
		}

		c.mu.Lock()
		c.received++
		c.lastEventAt = now
		c.mu.Unlock()

		c.dispatch(ev)
	}
}

// writePump owns all writes on one connection: queued commands plus the
// keepalive pings.
func (c *Channel) writePump(conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown runs once per connection: it flips the status, stops the write
// pump, and tells subscribers the link is gone. Queued unsent commands are
// discarded with the connection.
func (c *Channel) teardown(conn *websocket.Conn) {
	conn.Close()

	c.mu.Lock()
	if !c.connected || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.conn = nil
	close(c.send)
	c.send = nil
	c.mu.Unlock()

	c.log.Warn("channel", "simulation link closed", map[string]interface{}{"url": c.url})
	c.broadcast(Event{
		Kind:    EventDisconnected,
		At:      time.Now(),
		Payload: &Disconnected{Reason: "connection closed"},
	})
}

// dispatch delivers one event to its subscribers. It is only ever called
// from the read pump goroutine, which is what gives subscribers arrival
// order.
func (c *Channel) dispatch(ev Event) {
	c.mu.RLock()
	handlers := make([]Handler, 0, len(c.subs[ev.Kind]))
	for _, fn := range c.subs[ev.Kind] {
		handlers = append(handlers, fn)
	}
	c.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// broadcast delivers one event to every live subscription, whatever kind it
// registered for. Only the disconnected event travels this way: anything
// holding state derived from the link must hear that the link is gone, not
// just the handlers watching for disconnects.
func (c *Channel) broadcast(ev Event) {
	c.mu.RLock()
	var handlers []Handler
	for _, kind := range c.subs {
		for _, fn := range kind {
			handlers = append(handlers, fn)
		}
	}
	c.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
