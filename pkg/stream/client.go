package stream

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/NVIDIA/fleet-telemetry/pkg/defaults"
)

const (
	maxMessageSize = 512
	sendBuffer     = 256
)

// Client is one WebSocket connection.
type Client struct {
	ID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient wraps conn; the caller registers it and starts the pumps.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New().String(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.send(c.hub.unregister, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(defaults.StreamPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(defaults.StreamPongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("stream client disconnected", "id", c.ID, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Debug("invalid stream message", "id", c.ID, "error", err)
			continue
		}
		if msg.Channel == "" {
			continue
		}

		switch msg.Type {
		case MessageSubscribe:
			c.hub.sendSub(c.hub.subscribe, &Subscription{client: c, channel: msg.Channel})
		case MessageUnsubscribe:
			c.hub.sendSub(c.hub.unsubscribe, &Subscription{client: c, channel: msg.Channel})
		default:
			slog.Debug("unknown stream message type", "id", c.ID, "type", msg.Type)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(defaults.StreamPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(defaults.StreamWriteWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(message); err != nil {
				w.Close()
				return
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(defaults.StreamWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
