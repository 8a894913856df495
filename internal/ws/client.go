package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/medbridge/portal-api/pkg/auth"
	"github.com/medbridge/portal-api/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

func newClient(principal *auth.Principal) *Client {
	return &Client{
		Principal: principal,
		Send:      make(chan []byte, sendBufferSize),
		rooms:     make(map[string]struct{}),
	}
}

// readPump reads tagged messages off the connection and hands them to
// the hub until the peer disconnects.
func readPump(hub *Hub, client *Client, conn *websocket.Conn, log *logger.Logger) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("realtime read error", "error", err.Error())
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			hub.sendError(client, "malformed message")
			continue
		}
		hub.HandleMessage(client, msg)
	}
}

// writePump drains the client's send buffer onto the connection and
// keeps the peer alive with periodic pings.
func writePump(client *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
