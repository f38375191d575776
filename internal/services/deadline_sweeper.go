package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/repository"
)

// Penalizer charges the missed-deadline penalty.
type Penalizer interface {
	PenalizeMissedDeadline(ctx context.Context, task *domain.Task) (int, error)
}

type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

// DeadlineSweeper periodically charges overdue, unfinished tasks once.
type DeadlineSweeper struct {
	tasks   repository.TaskRepository
	points  Penalizer
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     SweeperConfig
	now     func() time.Time
}

func NewDeadlineSweeper(
	tasks repository.TaskRepository,
	points Penalizer,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg SweeperConfig,
) *DeadlineSweeper {
	if cfg.Interval < time.Minute {
		cfg.Interval = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &DeadlineSweeper{
		tasks:   tasks,
		points:  points,
		monitor: monitor,
		logger:  logger.Named("deadlines"),
		cron:    cron.New(),
		cfg:     cfg,
		now:     time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		s.logger.Error("invalid sweep schedule", zap.String("schedule", schedule), zap.Error(err))
	}
	return s
}

// WithClock replaces the time source. Intended for tests.
func (s *DeadlineSweeper) WithClock(now func() time.Time) *DeadlineSweeper {
	s.now = now
	return s
}

func (s *DeadlineSweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("deadline sweeper started", zap.Duration("interval", s.cfg.Interval))
}

func (s *DeadlineSweeper) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("deadline sweeper stopped")
}

func (s *DeadlineSweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
	defer cancel()
	n, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("deadline sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("missed deadlines penalized", zap.Int("count", n))
	}
}

// Sweep processes one batch and returns how many tasks were penalized. A task
// is marked before it is charged, so a failed write can never charge twice.
func (s *DeadlineSweeper) Sweep(ctx context.Context) (int, error) {
	if s.monitor != nil && !s.monitor.IsOnline() {
		s.logger.Debug("skipping deadline sweep (offline)")
		return 0, nil
	}

	now := s.now()
	overdue, err := s.tasks.ListOverdue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list overdue tasks: %w", err)
	}

	penalized := 0
	for i := range overdue {
		if ctx.Err() != nil {
			return penalized, ctx.Err()
		}
		task := &overdue[i]
		if err := s.mark(ctx, task, now.UTC().Format(time.RFC3339)); err != nil {
			s.logger.Warn("mark overdue task", zap.String("task_id", task.ID), zap.Error(err))
			continue
		}

		_, err := s.points.PenalizeMissedDeadline(ctx, task)
		switch {
		case err == nil:
			penalized++
		case errors.Is(err, domain.ErrUserNotFound):
			s.logger.Warn("overdue task owner missing", zap.String("task_id", task.ID), zap.String("user_id", task.UserID))
		default:
			s.logger.Error("missed deadline penalty failed", zap.String("task_id", task.ID), zap.Error(err))
			if err := s.mark(ctx, task, ""); err != nil {
				s.logger.Error("unmark overdue task", zap.String("task_id", task.ID), zap.Error(err))
			}
		}
	}
	return penalized, nil
}

func (s *DeadlineSweeper) mark(ctx context.Context, task *domain.Task, value string) error {
	if task.Metadata == nil {
		task.Metadata = make(map[string]string)
	}
	if value == "" {
		delete(task.Metadata, domain.MetaDeadlinePenalized)
	} else {
		task.Metadata[domain.MetaDeadlinePenalized] = value
	}
	return s.tasks.Update(ctx, task)
}
