package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/service"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

// dialAs connects a websocket session for userID through a test server.
func dialAs(t *testing.T, hub *Hub, userID uint) *gorilla.Conn {
	t.Helper()
	before := sessions(hub, userID)
	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, hub.Serve(&upgrader, w, r, userID))
	}))
	t.Cleanup(srv.Close)

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return sessions(hub, userID) == before+1 }, time.Second, 5*time.Millisecond)
	return conn
}

func sessions(hub *Hub, userID uint) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients[userID])
}

func readEvent(t *testing.T, conn *gorilla.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHub_DeliversOnlyToOwner(t *testing.T) {
	hub := startHub(t)
	alice := dialAs(t, hub, 1)
	bob := dialAs(t, hub, 2)

	hub.PublishOrderEvent(service.OrderEvent{
		Type:        service.OrderEventPaid,
		OrderID:     10,
		UserID:      1,
		Status:      model.OrderStatusCompleted,
		TotalAmount: decimal.RequireFromString("25.50"),
	})

	got := readEvent(t, alice)
	assert.Equal(t, "order.paid", got["type"])
	assert.EqualValues(t, 25.5, got["total_amount"])
	assert.EqualValues(t, 10, got["order_id"])

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err)
}

func TestHub_MultipleSessions(t *testing.T) {
	hub := startHub(t)
	phone := dialAs(t, hub, 5)
	laptop := dialAs(t, hub, 5)

	hub.PublishOrderEvent(service.OrderEvent{Type: service.OrderEventCreated, OrderID: 3, UserID: 5})

	assert.Equal(t, "order.created", readEvent(t, phone)["type"])
	assert.Equal(t, "order.created", readEvent(t, laptop)["type"])
}

func TestHub_PingPong(t *testing.T) {
	hub := startHub(t)
	conn := dialAs(t, hub, 9)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", readEvent(t, conn)["type"])
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub := startHub(t)
	conn := dialAs(t, hub, 4)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return !hub.IsUserOnline(4) }, 2*time.Second, 10*time.Millisecond)

	// no session left; must not block or panic
	hub.PublishOrderEvent(service.OrderEvent{Type: service.OrderEventPaid, UserID: 4})
}

func TestClient_RateLimit(t *testing.T) {
	c := &Client{}
	now := time.Now()
	for i := 0; i < maxMessagesPerSecond; i++ {
		assert.True(t, c.allow(now))
	}
	assert.False(t, c.allow(now))
	assert.True(t, c.allow(now.Add(time.Second)))
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	up := NewUpgrader([]string{"https://shop.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "https://shop.example.com")
	assert.True(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, up.CheckOrigin(req))
}
