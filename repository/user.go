package repository

import (
	"context"
	"time"

	"github.com/planit/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Upsert(ctx context.Context, user *domain.User) error

	// IncrementPoints adds amount to the balance in a single statement and
	// returns the new balance. A non-nil checkinAt is stamped as the last
	// daily check-in in the same statement.
	IncrementPoints(ctx context.Context, userID string, amount int, checkinAt *time.Time) (int, error)
	// ClampPoints resets a negative balance to zero and returns the result.
	ClampPoints(ctx context.Context, userID string) (int, error)
}
