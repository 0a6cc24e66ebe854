// internal/ws/relay_test.go
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe-api/internal/common/logger"
)

func TestValidateTask(t *testing.T) {
	assert.NoError(t, ValidateTask(TaskSummarize))
	assert.NoError(t, ValidateTask(TaskKeyPoints))
	assert.NoError(t, ValidateTask(TaskActionItems))
	assert.Error(t, ValidateTask("translate"))
	assert.Error(t, ValidateTask(""))
}

// echoUpstream plays the inference backend: it answers every message with
// a result echoing the message it received.
func echoUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for {
			var req upstreamRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			resp, _ := json.Marshal(map[string]string{"result": req.Message})
			if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
				return
			}
		}
	}))
}

func relaySession(t *testing.T, relay *Relay) *websocket.Conn {
	t.Helper()

	front := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		go relay.Run(context.Background(), conn)
	}))
	t.Cleanup(front.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(front.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRelayForwardsMessage(t *testing.T) {
	upstream := echoUpstream(t)
	defer upstream.Close()

	relay := NewRelay("ws"+strings.TrimPrefix(upstream.URL, "http"), time.Minute, logger.NewTestLogger(t))
	client := relaySession(t, relay)

	message := "Summarize this meeting.\n\nlong transcript"
	require.NoError(t, client.WriteJSON(TaskRequest{Message: message}))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp map[string]string
	require.NoError(t, client.ReadJSON(&resp))
	assert.Equal(t, message, resp["result"])
}

func TestRelayForwardsTask(t *testing.T) {
	upstream := echoUpstream(t)
	defer upstream.Close()

	relay := NewRelay("ws"+strings.TrimPrefix(upstream.URL, "http"), time.Minute, logger.NewTestLogger(t))
	client := relaySession(t, relay)

	require.NoError(t, client.WriteJSON(TaskRequest{Task: TaskSummarize, Text: "long transcript"}))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp map[string]string
	require.NoError(t, client.ReadJSON(&resp))
	assert.Equal(t, "Summarize the following transcript.\n\nlong transcript", resp["result"])
}

func TestRelayRejectsUnknownTask(t *testing.T) {
	upstream := echoUpstream(t)
	defer upstream.Close()

	relay := NewRelay("ws"+strings.TrimPrefix(upstream.URL, "http"), time.Minute, logger.NewTestLogger(t))
	client := relaySession(t, relay)

	require.NoError(t, client.WriteJSON(TaskRequest{Task: "translate", Text: "x"}))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp map[string]interface{}
	require.NoError(t, client.ReadJSON(&resp))
	assert.Contains(t, resp, "error")
}

func TestRelayUpstreamUnreachable(t *testing.T) {
	relay := NewRelay("ws://127.0.0.1:1/inference", time.Second, logger.NewTestLogger(t))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		assert.Error(t, relay.Run(context.Background(), conn))
	}))
	defer server.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	client.Close()
}
