package postgres

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/repository"
)

type pointActivityRepository struct {
	db Querier
}

// NewPointActivityRepository returns the Postgres points ledger.
func NewPointActivityRepository(db Querier) repository.PointActivityRepository {
	return &pointActivityRepository{db: db}
}

func (r *pointActivityRepository) Append(ctx context.Context, activity *domain.PointActivity) error {
	if activity == nil || activity.UserID == "" || !activity.Type.Valid() {
		return domain.ErrInvalidPayload
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO point_activities (id, user_id, type, amount, description)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query,
		activity.ID,
		activity.UserID,
		string(activity.Type),
		activity.Amount,
		activity.Description,
	).Scan(&activity.CreatedAt); err != nil {
		return fmt.Errorf("append point activity: %w", err)
	}
	return nil
}

func (r *pointActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.PointActivity, error) {
	const query = `
	SELECT id, user_id, type, amount, description, created_at
	FROM point_activities
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`
	activities := make([]domain.PointActivity, 0)
	if err := pgxscan.Select(ctx, r.db, &activities, query, userID, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("list point activities: %w", err)
	}
	return activities, nil
}
