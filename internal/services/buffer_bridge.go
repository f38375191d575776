package services

import (
	"context"
	"encoding/json"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/internal/infrastructure/buffer"
	"github.com/planit/backend/usecase"
)

// BufferBridge adapts BufferProcessor to the usecase.OperationBuffer port.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferProfile(ctx context.Context, operation string, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	return b.submit(ctx, buffer.Item{UserID: user.ID, Entity: buffer.EntityProfile, Operation: operation}, user)
}

func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	return b.submit(ctx, buffer.Item{UserID: task.UserID, Entity: buffer.EntityTask, Operation: operation}, task)
}

func (b *BufferBridge) BufferPointActivity(ctx context.Context, activity *domain.PointActivity) error {
	if activity == nil {
		return domain.ErrInvalidPayload
	}
	item := buffer.Item{UserID: activity.UserID, Entity: buffer.EntityPointActivity, Operation: usecase.OperationCreate}
	return b.submit(ctx, item, activity)
}

func (b *BufferBridge) submit(ctx context.Context, item buffer.Item, v any) error {
	if b == nil || b.processor == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	item.Data = payload
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
