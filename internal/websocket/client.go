package websocket

import (
	"encoding/json"
	"log"
	"time"

	"emergence-monitor-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// ActionSink receives interactions sent by dashboard viewers.
type ActionSink interface {
	HandleAction(action dto.DashboardAction)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// ID of this dashboard connection
	ID uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	// Receiver for inbound viewer actions (may be nil).
	Actions ActionSink
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		log.Printf("readPump exiting for dashboard %s", c.ID)
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	log.Printf("readPump started for dashboard %s", c.ID)
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("readPump error for dashboard %s: %v", c.ID, err)
			}
			break
		}

		if c.Actions == nil {
			continue
		}

		// Dashboards only ever send node drag interactions; anything that
		// does not parse as one is ignored rather than closing the socket.
		var action dto.DashboardAction
		if err := json.Unmarshal(message, &action); err != nil {
			log.Printf("[WARN] dashboard %s sent unparseable action: %v", c.ID, err)
			continue
		}
		if action.Action == "" || action.Key == "" {
			continue
		}
		c.Actions.HandleAction(action)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		log.Printf("writePump exiting for dashboard %s", c.ID)
		ticker.Stop()
		c.Conn.Close()
	}()

	log.Printf("writePump started for dashboard %s", c.ID)
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain whatever queued up behind this write; each message is a
			// complete envelope so they go out as separate frames.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("writePump Ping error for dashboard %s: %v", c.ID, err)
				return
			}
		}
	}
}
