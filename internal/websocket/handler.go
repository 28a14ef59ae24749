package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs registers a dashboard connection and blocks until it closes.
// Welcome messages land in the send buffer before the hub ever sees the
// client, so live broadcasts cannot jump ahead of them.
func ServeWs(hub *Hub, c *websocket.Conn, actions ActionSink, welcome ...[]byte) {
	client := &Client{Hub: hub, Conn: c, ID: uuid.New(), Send: make(chan []byte, 256), Actions: actions}
	for _, msg := range welcome {
		client.Send <- msg
	}
	client.Hub.register <- client

	go client.writePump()

	// readPump stays on this goroutine: returning from it ends the fiber
	// websocket handler, which is what tears the connection down.
	client.readPump()
}
