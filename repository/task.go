package repository

import (
	"context"
	"time"

	"github.com/planit/backend/domain"
)

// TaskFilter narrows List results. Zero values mean "any".
type TaskFilter struct {
	UserID    string
	Status    string
	Priority  string
	Search    string
	DueBefore *time.Time
	Limit     int
	Offset    int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error

	// ListOverdue returns unfinished tasks whose due day ended before now and
	// which have not been charged the missed-deadline penalty yet.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Task, error)
	// ActivityByDay counts completed tasks per completion day since the given time.
	ActivityByDay(ctx context.Context, userID string, since time.Time) (domain.ActivityMap, error)
	CountByStatus(ctx context.Context, userID string) (map[string]int, error)
}
