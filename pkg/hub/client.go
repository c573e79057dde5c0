package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
)

// Client is one WebSocket connection. groups is guarded by the hub's mutex.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	groups map[string]struct{}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("client read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.reply(Frame{Type: "error", Error: "malformed frame"})
			continue
		}
		c.handle(frame)
	}
}

func (c *Client) handle(frame Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	switch frame.Type {
	case "ping":
		c.reply(Frame{Type: "pong"})
	case "join":
		if err := c.hub.join(ctx, c, frame.Group); err != nil {
			c.reply(Frame{Type: "error", Group: frame.Group, Error: err.Error()})
			return
		}
		c.reply(Frame{Type: "joined", Group: frame.Group})
	case "leave":
		c.hub.leave(c, frame.Group)
		c.reply(Frame{Type: "left", Group: frame.Group})
	case "send":
		if err := c.hub.send(ctx, c, frame.Group, frame.Content); err != nil {
			c.reply(Frame{Type: "error", Group: frame.Group, Error: err.Error()})
		}
	default:
		c.reply(Frame{Type: "error", Error: "unknown frame type"})
	}
}

// reply queues a frame for this client only.
func (c *Client) reply(frame Frame) {
	msg, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
