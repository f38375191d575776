package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/internal/infrastructure/buffer"
	"github.com/planit/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// BufferProcessor replays buffered writes against Postgres once it is reachable.
type BufferProcessor struct {
	store      *buffer.Store
	monitor    ConnectionHealth
	users      repository.UserRepository
	tasks      repository.TaskRepository
	activities repository.PointActivityRepository
	logger     *zap.Logger
	cron       *cron.Cron
	cfg        ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	users repository.UserRepository,
	tasks repository.TaskRepository,
	activities repository.PointActivityRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:      store,
		monitor:    monitor,
		users:      users,
		tasks:      tasks,
		activities: activities,
		logger:     logger.Named("buffer"),
		cfg:        cfg,
		cron:       cron.New(),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := bp.cron.AddFunc(schedule, bp.tick); err != nil {
		bp.logger.Error("invalid drain schedule", zap.String("schedule", schedule), zap.Error(err))
	}

	return bp
}

func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop waits for a running drain to finish or ctx to expire.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

func (bp *BufferProcessor) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), bp.cfg.Interval)
	defer cancel()
	if err := bp.Drain(ctx); err != nil {
		bp.logger.Error("buffer drain failed", zap.Error(err))
	}
	if bp.cfg.Retention > 0 {
		if n, err := bp.store.Purge(time.Now().Add(-bp.cfg.Retention)); err != nil {
			bp.logger.Warn("buffer purge failed", zap.Error(err))
		} else if n > 0 {
			bp.logger.Warn("expired buffered writes dropped", zap.Int("count", n))
		}
	}
}

// Drain replays one batch synchronously. Items that keep failing are dropped
// after MaxRetries attempts.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := bp.store.Peek(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := bp.apply(ctx, item)
		switch {
		case err == nil, isSettled(err):
			if err != nil {
				bp.logger.Info("buffered write no longer applicable", zap.String("item_id", item.ID), zap.Error(err))
			}
			if err := bp.store.Ack(item); err != nil {
				bp.logger.Warn("failed to ack buffer item", zap.String("item_id", item.ID), zap.Error(err))
			}
		case item.Retries+1 >= bp.cfg.MaxRetries:
			bp.logger.Error("dropping buffer item (max retries reached)",
				zap.String("item_id", item.ID),
				zap.String("entity", item.Entity),
				zap.Error(err))
			_ = bp.store.Ack(item)
		default:
			bp.logger.Warn("buffer item replay failed",
				zap.String("item_id", item.ID),
				zap.String("entity", item.Entity),
				zap.Int("retries", item.Retries),
				zap.Error(err))
			if err := bp.store.Retry(item); err != nil {
				bp.logger.Error("failed to requeue buffer item", zap.Error(err))
			}
		}
	}
	return nil
}

// BufferOperation attempts the write immediately and falls back to persisting it.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return errors.New("buffer processor not configured")
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		err := bp.apply(ctx, item)
		if err == nil {
			return nil
		}
		bp.logger.Warn("immediate processing failed, buffering", zap.String("entity", item.Entity), zap.Error(err))
	}
	return bp.store.Enqueue(item)
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Len()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) apply(ctx context.Context, item buffer.Item) error {
	switch item.Entity {
	case buffer.EntityProfile:
		var user domain.User
		if err := json.Unmarshal(item.Data, &user); err != nil {
			return err
		}
		return bp.users.Upsert(ctx, &user)

	case buffer.EntityTask:
		var task domain.Task
		if err := json.Unmarshal(item.Data, &task); err != nil {
			return err
		}
		switch item.Operation {
		case buffer.OperationCreate:
			_, err := bp.tasks.Create(ctx, &task)
			return err
		case buffer.OperationUpdate:
			return bp.tasks.Update(ctx, &task)
		case buffer.OperationDelete:
			return bp.tasks.Delete(ctx, task.ID)
		default:
			return fmt.Errorf("unsupported operation %s", item.Operation)
		}

	case buffer.EntityPointActivity:
		var activity domain.PointActivity
		if err := json.Unmarshal(item.Data, &activity); err != nil {
			return err
		}
		return bp.activities.Append(ctx, &activity)

	default:
		return fmt.Errorf("unsupported entity %s", item.Entity)
	}
}

// isSettled reports replay errors that retrying cannot fix.
func isSettled(err error) bool {
	return errors.Is(err, domain.ErrTaskNotFound) || errors.Is(err, domain.ErrInvalidPayload)
}
