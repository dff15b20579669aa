package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/anufa/anufa-backend/internal/app/service"
	"github.com/anufa/anufa-backend/pkg/logger"
)

// ClientMessage is the only thing clients may send: a keepalive.
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Client is one websocket session. A user may hold several (multiple devices).
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte

	rateMu        sync.Mutex
	messageCount  int
	lastResetTime time.Time
}

type userMessage struct {
	userID uint
	data   []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub fans order events out to the sessions of the order's owner.
type Hub struct {
	clients map[uint][]*Client

	unregister chan *Client
	broadcast  chan userMessage
	direct     chan directMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan userMessage, 1024),
		direct:     make(chan directMessage, 256),
	}
}

// Run processes registrations and deliveries until ctx is cancelled, then
// closes every open session. Send channels are only closed from here.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			sessions := append([]*Client(nil), h.clients[msg.userID]...)
			h.mu.RUnlock()

			for _, client := range sessions {
				select {
				case client.Send <- msg.data:
				default:
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"user_id": msg.userID,
					})
					h.remove(client)
				}
			}

		case msg := <-h.direct:
			if !h.isRegistered(msg.client) {
				continue
			}
			select {
			case msg.client.Send <- msg.data:
			default:
			}
		}
	}
}

func (h *Hub) isRegistered(client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients[client.UserID] {
		if c == client {
			return true
		}
	}
	return false
}

// remove drops client and closes its send channel exactly once.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
}

// PublishOrderEvent implements service.OrderEventPublisher. Delivery is best
// effort: a full broadcast queue drops the event.
func (h *Hub) PublishOrderEvent(event service.OrderEvent) {
	if !h.IsUserOnline(event.UserID) {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal order event", err, map[string]interface{}{
			"order_id": event.OrderID,
		})
		return
	}

	select {
	case h.broadcast <- userMessage{userID: event.UserID, data: data}:
	default:
		logger.Warn("Broadcast queue full, order event dropped", map[string]interface{}{
			"order_id": event.OrderID,
			"type":     event.Type,
		})
	}
}

// Register adds the session synchronously so an unregister can never
// overtake it.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.UserID] = append(h.clients[client.UserID], client)
	sessions := len(h.clients[client.UserID])
	h.mu.Unlock()

	logger.Info("WebSocket client registered", map[string]interface{}{
		"user_id":        client.UserID,
		"total_sessions": sessions,
	})
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// HandleClientMessage answers pings; anything else is ignored.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	if !client.allow(time.Now()) {
		logger.Warn("WebSocket rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Debug("Ignoring malformed client message", map[string]interface{}{
			"user_id": client.UserID,
		})
		return
	}
	if msg.Type != "ping" {
		return
	}

	select {
	case h.direct <- directMessage{client: client, data: []byte(`{"type":"pong"}`)}:
	default:
	}
}

func (c *Client) allow(now time.Time) bool {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	if now.Sub(c.lastResetTime) >= time.Second {
		c.messageCount = 0
		c.lastResetTime = now
	}
	c.messageCount++
	return c.messageCount <= maxMessagesPerSecond
}
