// internal/ws/hub_test.go
package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe-api/internal/common/logger"
)

func dialTestHub(t *testing.T, hub *Hub, username string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(username, conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Wait for the server side to register.
	require.Eventually(t, func() bool {
		return hub.Connections(username) > 0
	}, time.Second, 10*time.Millisecond)

	return conn
}

func TestHubSendToUser(t *testing.T) {
	hub := NewHub(logger.NewTestLogger(t))
	conn := dialTestHub(t, hub, "alice@example.org")

	hub.SendToUser("alice@example.org", []byte(`{"status":"transcribing"}`))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"transcribing"}`, string(payload))
}

func TestHubSendToUnknownUserIsNoOp(t *testing.T) {
	hub := NewHub(logger.NewTestLogger(t))

	hub.SendToUser("nobody@example.org", []byte("ignored"))
}

func TestHubIsolatesRooms(t *testing.T) {
	hub := NewHub(logger.NewTestLogger(t))
	alice := dialTestHub(t, hub, "alice@example.org")
	dialTestHub(t, hub, "bob@example.org")

	hub.SendToUser("bob@example.org", []byte("for bob only"))

	alice.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := alice.ReadMessage()
	assert.Error(t, err)
}

// Status updates race when several jobs finish at once; every one of
// them must land on the wire without tripping the connection's single
// writer rule.
func TestHubConcurrentSends(t *testing.T) {
	hub := NewHub(logger.NewTestLogger(t))
	conn := dialTestHub(t, hub, "alice@example.org")

	const senders = 8
	const perSender = 25

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				hub.SendToUser("alice@example.org", []byte(`{"status":"pending"}`))
			}
		}()
	}
	wg.Wait()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < senders*perSender; i++ {
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"pending"}`, string(payload))
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(logger.NewTestLogger(t))
	dialTestHub(t, hub, "alice@example.org")

	require.Equal(t, 1, hub.Connections("alice@example.org"))

	hub.mu.RLock()
	var conn *websocket.Conn
	for c := range hub.rooms["alice@example.org"] {
		conn = c
	}
	hub.mu.RUnlock()

	hub.Unregister("alice@example.org", conn)
	assert.Zero(t, hub.Connections("alice@example.org"))

	// Unregistering again is harmless.
	hub.Unregister("alice@example.org", conn)
}
