package repository

import (
	"context"

	"github.com/planit/backend/domain"
)

// PointActivityRepository is the append-only points ledger.
type PointActivityRepository interface {
	Append(ctx context.Context, activity *domain.PointActivity) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.PointActivity, error)
}
