package repository

import (
	"context"
	"time"

	"github.com/planit/backend/domain"
)

type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttlSeconds int) error
}

// CheckinGuard serializes daily check-ins per user and calendar day.
type CheckinGuard interface {
	Acquire(ctx context.Context, userID, day string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, userID, day string) error
}

// ConversationRepository keeps per-user assistant state between messages.
type ConversationRepository interface {
	SavePending(ctx context.Context, userID string, pending *domain.PendingSelection) error
	GetPending(ctx context.Context, userID string) (*domain.PendingSelection, error)
	ClearPending(ctx context.Context, userID string) error
	SaveLastList(ctx context.Context, userID string, tasks []domain.TaskSummary) error
	GetLastList(ctx context.Context, userID string) ([]domain.TaskSummary, error)
}
