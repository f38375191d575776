// Package analytics serves completion streaks and the task overview.
package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/repository"
)

// Overview aggregates everything the analytics view renders.
type Overview struct {
	Stats          domain.ActivityStats `json:"stats"`
	StatusCounts   map[string]int       `json:"status_counts"`
	TotalTasks     int                  `json:"total_tasks"`
	CompletionRate float64              `json:"completion_rate"`
	Activity       domain.ActivityMap   `json:"activity"`
	Points         int                  `json:"points"`
}

type UseCase struct {
	tasks  repository.TaskRepository
	users  repository.UserRepository
	now    func() time.Time
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		users:  users,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source. Intended for tests.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

func (uc *UseCase) Stats(ctx context.Context, userID string) (domain.ActivityStats, error) {
	activity, err := uc.tasks.ActivityByDay(ctx, userID, time.Time{})
	if err != nil {
		return domain.ActivityStats{}, err
	}
	return ComputeStats(activity, uc.now()), nil
}

func (uc *UseCase) Overview(ctx context.Context, userID string) (*Overview, error) {
	var (
		activity domain.ActivityMap
		counts   map[string]int
		user     *domain.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		activity, err = uc.tasks.ActivityByDay(gctx, userID, time.Time{})
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = uc.tasks.CountByStatus(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = uc.users.GetByID(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.logger.Warn("analytics overview failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	rate := 0.0
	if total > 0 {
		rate = float64(counts[domain.StatusCompleted]) / float64(total)
	}

	return &Overview{
		Stats:          ComputeStats(activity, uc.now()),
		StatusCounts:   counts,
		TotalTasks:     total,
		CompletionRate: rate,
		Activity:       activity,
		Points:         user.Points,
	}, nil
}
