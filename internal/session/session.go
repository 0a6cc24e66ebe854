// internal/session/session.go
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxAge is the idle lifetime of a session. Every request that
// touches the session pushes the expiry forward.
const DefaultMaxAge = 3600 * time.Second

// Session holds the server side state of a logged in browser. The tokens
// never leave the server; the client only carries the signed session ID.
type Session struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	Token              string    `json:"token"`
	RefreshToken       string    `json:"refresh_token"`
	EncryptionPassword string    `json:"encryption_password,omitempty"`
	Timezone           string    `json:"timezone,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	LastSeenAt         time.Time `json:"last_seen_at"`
}

// New returns a fresh session for the given user with a random ID.
func New(username string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         uuid.NewString(),
		Username:   username,
		CreatedAt:  now,
		LastSeenAt: now,
	}
}

// Store persists sessions. Get refuses sessions that have been idle
// longer than the store's max age; Touch pushes the expiry forward.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
