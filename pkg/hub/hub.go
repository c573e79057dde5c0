// Package hub is the real-time push endpoint for chat, transaction and
// notification events. Clients connect over WebSocket, join groups and
// receive events broadcast to those groups. Delivery is best-effort and
// at-most-once: a client whose buffer is full misses the event.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tidyup-backend/pkg/metrics"
)

var ErrForbidden = errors.New("not allowed to join group")

// Authorizer decides whether userID may join group.
type Authorizer func(ctx context.Context, userID, group string) error

// SendHandler handles a "send" frame from a client.
type SendHandler func(ctx context.Context, userID, group, content string) error

// Frame is the JSON envelope exchanged with clients.
type Frame struct {
	Type    string      `json:"type"`
	Group   string      `json:"group,omitempty"`
	Event   string      `json:"event,omitempty"`
	Content string      `json:"content,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func UserGroup(userID string) string      { return "user:" + userID }
func ChatGroup(chatID string) string      { return "chat:" + chatID }
func TransactionGroup(txID string) string { return "transaction:" + txID }

type Hub struct {
	mu      sync.RWMutex
	groups  map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	authorize Authorizer
	onSend    SendHandler
	upgrader  websocket.Upgrader
	log       *zap.Logger
}

func New(authorize Authorizer, onSend SendHandler, log *zap.Logger) *Hub {
	return &Hub{
		groups:    make(map[string]map[*Client]struct{}),
		clients:   make(map[*Client]struct{}),
		authorize: authorize,
		onSend:    onSend,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// SetSendHandler wires the chat usecase after construction; the chat
// usecase itself depends on the hub for broadcasting.
func (h *Hub) SetSendHandler(fn SendHandler) {
	h.mu.Lock()
	h.onSend = fn
	h.mu.Unlock()
}

// ServeWS upgrades the request and runs the client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Client{
		id:     uuid.NewString(),
		userID: userID,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		groups: make(map[string]struct{}),
	}
	h.register(c)
	h.log.Debug("client connected", zap.String("client", c.id), zap.String("user_id", userID))

	go c.writePump()
	c.readPump()
}

// Broadcast pushes an event to every member of group. It never blocks.
func (h *Hub) Broadcast(group, event string, data interface{}) {
	msg, err := json.Marshal(Frame{Type: "event", Group: group, Event: event, Data: data})
	if err != nil {
		h.log.Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.groups[group] {
		select {
		case c.send <- msg:
		default:
			metrics.HubDropped()
			h.log.Debug("dropped event for slow client", zap.String("client", c.id), zap.String("group", group))
		}
	}
}

// Members returns the number of clients in group.
func (h *Hub) Members(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) register(c *Client) {
	group := UserGroup(c.userID)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.addLocked(c, group)
	h.mu.Unlock()

	metrics.HubConnected()
	c.reply(Frame{Type: "joined", Group: group})
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for group := range c.groups {
		h.removeLocked(c, group)
	}
	close(c.send)
	h.mu.Unlock()

	metrics.HubDisconnected()
}

func (h *Hub) join(ctx context.Context, c *Client, group string) error {
	if err := h.canJoin(ctx, c.userID, group); err != nil {
		return err
	}
	h.mu.Lock()
	h.addLocked(c, group)
	h.mu.Unlock()
	return nil
}

func (h *Hub) leave(c *Client, group string) {
	h.mu.Lock()
	h.removeLocked(c, group)
	h.mu.Unlock()
}

func (h *Hub) canJoin(ctx context.Context, userID, group string) error {
	if strings.HasPrefix(group, "user:") {
		if group != UserGroup(userID) {
			return ErrForbidden
		}
		return nil
	}
	if h.authorize == nil {
		return ErrForbidden
	}
	return h.authorize(ctx, userID, group)
}

func (h *Hub) send(ctx context.Context, c *Client, group, content string) error {
	h.mu.RLock()
	_, member := c.groups[group]
	onSend := h.onSend
	h.mu.RUnlock()

	if !member {
		return errors.New("join the group before sending")
	}
	if onSend == nil {
		return errors.New("sending is not supported")
	}
	return onSend(ctx, c.userID, group, content)
}

func (h *Hub) addLocked(c *Client, group string) {
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[group] = members
	}
	members[c] = struct{}{}
	c.groups[group] = struct{}{}
}

func (h *Hub) removeLocked(c *Client, group string) {
	delete(c.groups, group)
	if members, ok := h.groups[group]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}
