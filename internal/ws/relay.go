// internal/ws/relay.go
package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/logger"
	"scribe-api/internal/common/metrics"
)

// Inference task types accepted over the relay.
const (
	TaskSummarize   = "summarize"
	TaskKeyPoints   = "key_points"
	TaskActionItems = "action_items"
)

var taskPrompts = map[string]string{
	TaskSummarize:   "Summarize the following transcript.",
	TaskKeyPoints:   "List the key points of the following transcript.",
	TaskActionItems: "List the action items from the following transcript.",
}

// TaskRequest is what the browser sends over the inference socket.
// Clients either send a ready-made message (prompt plus transcript) or
// name a canned task and the raw text; the relay composes the message in
// the latter case.
type TaskRequest struct {
	Message string `json:"message,omitempty"`
	Task    string `json:"task,omitempty"`
	Text    string `json:"text,omitempty"`
}

// upstreamRequest is the shape forwarded to the inference backend, which
// answers each message with a result object.
type upstreamRequest struct {
	Message string `json:"message"`
}

// ValidateTask checks that a task type is one the relay knows.
func ValidateTask(task string) error {
	if _, ok := taskPrompts[task]; !ok {
		return apperrors.NewValidationError("unknown inference task", task)
	}
	return nil
}

// Relay bridges browser websockets to the inference backend. Each session
// gets one upstream connection and a fixed time budget; when the budget
// runs out both sides are closed.
type Relay struct {
	upstreamURL string
	budget      time.Duration
	dialer      *websocket.Dialer
	logger      logger.Logger
}

// NewRelay returns a relay for the given upstream websocket URL.
func NewRelay(upstreamURL string, budget time.Duration, log logger.Logger) *Relay {
	if budget <= 0 {
		budget = 600 * time.Second
	}
	return &Relay{
		upstreamURL: upstreamURL,
		budget:      budget,
		dialer:      websocket.DefaultDialer,
		logger:      log.WithFields(map[string]interface{}{"component": "inference"}),
	}
}

// Run pumps messages between a client connection and the inference
// backend until either side closes or the session budget expires.
// Messages are forwarded as-is; canned task requests are composed into a
// message first.
func (r *Relay) Run(ctx context.Context, client *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, r.budget)
	defer cancel()

	upstream, _, err := r.dialer.DialContext(ctx, r.upstreamURL, nil)
	if err != nil {
		return apperrors.NewUpstreamError("failed to reach inference backend", err)
	}
	defer upstream.Close()

	metrics.WebsocketSessions.WithLabelValues("inference").Inc()
	defer metrics.WebsocketSessions.WithLabelValues("inference").Dec()

	deadline := time.Now().Add(r.budget)
	client.SetReadDeadline(deadline)
	upstream.SetReadDeadline(deadline)

	errs := make(chan error, 2)

	go func() { errs <- r.pumpToUpstream(client, upstream) }()
	go func() { errs <- pumpToClient(upstream, client) }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return apperrors.NewUpstreamError("inference session budget exceeded", ctx.Err())
	}
}

func (r *Relay) pumpToUpstream(client, upstream *websocket.Conn) error {
	for {
		_, payload, err := client.ReadMessage()
		if err != nil {
			return nil
		}

		var req TaskRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			r.writeError(client, apperrors.NewValidationError("malformed inference request", ""))
			continue
		}
		message := req.Message
		if message == "" {
			if err := ValidateTask(req.Task); err != nil {
				r.writeError(client, err)
				continue
			}
			message = taskPrompts[req.Task] + "\n\n" + req.Text
		}

		forward, err := json.Marshal(upstreamRequest{Message: message})
		if err != nil {
			return apperrors.NewInternalError("failed to encode inference request", err)
		}
		if err := upstream.WriteMessage(websocket.TextMessage, forward); err != nil {
			return apperrors.NewUpstreamError("failed to forward inference request", err)
		}
	}
}

func pumpToClient(upstream, client *websocket.Conn) error {
	for {
		msgType, payload, err := upstream.ReadMessage()
		if err != nil {
			return nil
		}
		if err := client.WriteMessage(msgType, payload); err != nil {
			return nil
		}
	}
}

func (r *Relay) writeError(client *websocket.Conn, err error) {
	payload, marshalErr := json.Marshal(map[string]interface{}{"error": err.Error()})
	if marshalErr != nil {
		return
	}
	if writeErr := client.WriteMessage(websocket.TextMessage, payload); writeErr != nil {
		r.logger.WithError(writeErr).Debug("failed to report relay error", nil)
	}
}
