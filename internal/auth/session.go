package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionTTL is the principal session lifetime, independent of the
	// token expiry.
	SessionTTL    = 24 * time.Hour
	SessionCookie = "session_id"
	// TokenCookie carries the signed session token for browser clients.
	TokenCookie = "jwt"
)

// SessionStore wraps Redis for principal session management. The
// principal is the username; the session is a separate credential channel
// from the token and has its own sign-out path.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Create stores a new session mapping sessionID -> username.
func (s *SessionStore) Create(ctx context.Context, username string) (string, error) {
	sid := uuid.New().String()
	err := s.rdb.Set(ctx, "session:"+sid, username, SessionTTL).Err()
	return sid, err
}

// Get returns the username for a session, or "" if not found / expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := s.rdb.Get(ctx, "session:"+sessionID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, "session:"+sessionID).Err()
}
