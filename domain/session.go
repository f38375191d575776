package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a login stored in Redis. Tokens carry its ID, so deleting the
// session revokes every token issued for it.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func NewSession(userID string, ttl time.Duration, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Refresh pushes the expiry to now+ttl.
func (s *Session) Refresh(ttl time.Duration, now time.Time) {
	s.ExpiresAt = now.Add(ttl)
}
