package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/repository"
	"github.com/planit/backend/usecase"
)

// PointsAwarder credits on-time completions.
type PointsAwarder interface {
	AwardTaskCompletedOnTime(ctx context.Context, task *domain.Task) (int, error)
}

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
	StartTime    *string
	EndTime      *string
}

// Empty reports whether the update would change nothing.
func (c Changes) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Status == nil && c.Priority == nil &&
		c.DueDate == nil && !c.ClearDueDate && c.StartTime == nil && c.EndTime == nil
}

type UseCase struct {
	tasks  repository.TaskRepository
	buffer usecase.OperationBuffer
	points PointsAwarder
	now    func() time.Time
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, buffer usecase.OperationBuffer, points PointsAwarder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		buffer: buffer,
		points: points,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source. Intended for tests.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	filter.Status = strings.ToLower(filter.Status)
	filter.Priority = strings.ToLower(filter.Priority)
	return uc.tasks.List(ctx, filter)
}

// GetTask returns the task only when it belongs to userID.
func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, domain.ErrTitleRequired
	}
	if err := normalize(task); err != nil {
		return nil, err
	}
	delete(task.Metadata, domain.MetaDeadlinePenalized)
	delete(task.Metadata, domain.MetaOnTimeAwarded)
	if task.IsCompleted() && task.CompletedAt == nil {
		now := uc.now()
		task.CompletedAt = &now
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, task, err) {
			return task, nil
		}
		return nil, err
	}
	return created, nil
}

// UpdateTask applies changes to a task owned by userID. A transition into
// completed stamps CompletedAt and reopening clears it. The on-time credit is
// paid at most once per task, however often it is reopened.
func (uc *UseCase) UpdateTask(ctx context.Context, userID, id string, changes Changes) (*domain.Task, error) {
	task, err := uc.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	wasCompleted := task.IsCompleted()

	if err := apply(task, changes); err != nil {
		return nil, err
	}

	now := uc.now()
	completedNow := !wasCompleted && task.IsCompleted()
	switch {
	case completedNow:
		task.CompletedAt = &now
	case !task.IsCompleted():
		task.CompletedAt = nil
	}

	award := completedNow && uc.points != nil && CompletedOnTime(task, now) &&
		task.Metadata[domain.MetaOnTimeAwarded] == ""
	if award {
		markOnTime(task, now.UTC().Format(time.RFC3339))
	}

	if err := uc.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) || !uc.shouldBuffer(ctx, usecase.OperationUpdate, task, err) {
			return nil, err
		}
	}

	if award {
		uc.awardOnTime(ctx, task)
	}
	return task, nil
}

// CompleteTask marks the task completed. Completing an already completed task
// is a no-op.
func (uc *UseCase) CompleteTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	status := domain.StatusCompleted
	return uc.UpdateTask(ctx, userID, id, Changes{Status: &status})
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	task, err := uc.GetTask(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}
		if uc.shouldBuffer(ctx, usecase.OperationDelete, task, err) {
			return nil
		}
		return err
	}
	return nil
}

// CompletedOnTime reports whether a completion at now meets the due day.
// Tasks without a due date always count as on time.
func CompletedOnTime(task *domain.Task, now time.Time) bool {
	if task.DueDate == nil {
		return true
	}
	return !domain.DayOf(*task.DueDate).Before(domain.DayOf(now))
}

// awardOnTime credits a task already marked as awarded. A failed credit
// removes the marker again so a later completion can retry.
func (uc *UseCase) awardOnTime(ctx context.Context, task *domain.Task) {
	if _, err := uc.points.AwardTaskCompletedOnTime(ctx, task); err != nil {
		uc.logger.Warn("on-time award failed",
			zap.String("task_id", task.ID),
			zap.String("user_id", task.UserID),
			zap.Error(err))
		markOnTime(task, "")
		if err := uc.tasks.Update(ctx, task); err != nil {
			uc.logger.Error("unmark on-time award", zap.String("task_id", task.ID), zap.Error(err))
		}
	}
}

func markOnTime(task *domain.Task, value string) {
	if value == "" {
		delete(task.Metadata, domain.MetaOnTimeAwarded)
		return
	}
	if task.Metadata == nil {
		task.Metadata = make(map[string]string)
	}
	task.Metadata[domain.MetaOnTimeAwarded] = value
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task, cause error) bool {
	if uc.buffer == nil {
		return false
	}
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		uc.logger.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("task operation buffered",
		zap.String("operation", operation),
		zap.String("task_id", task.ID),
		zap.Error(cause))
	return true
}

func normalize(task *domain.Task) error {
	task.Status = strings.ToLower(strings.TrimSpace(task.Status))
	task.Priority = strings.ToLower(strings.TrimSpace(task.Priority))
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if !domain.ValidStatus(task.Status) || !domain.ValidPriority(task.Priority) {
		return domain.ErrInvalidPayload
	}
	return nil
}

func apply(task *domain.Task, c Changes) error {
	if c.Title != nil {
		title := strings.TrimSpace(*c.Title)
		if title == "" {
			return domain.ErrTitleRequired
		}
		task.Title = title
	}
	if c.Description != nil {
		task.Description = *c.Description
	}
	if c.Status != nil {
		task.Status = *c.Status
	}
	if c.Priority != nil {
		task.Priority = *c.Priority
	}
	if c.ClearDueDate {
		task.DueDate = nil
	}
	if c.DueDate != nil {
		due := domain.DayOf(*c.DueDate)
		task.DueDate = &due
	}
	if c.StartTime != nil {
		task.StartTime = *c.StartTime
	}
	if c.EndTime != nil {
		task.EndTime = *c.EndTime
	}
	return normalize(task)
}
