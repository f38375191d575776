package usecase

import (
	"context"

	"github.com/planit/backend/domain"
)

// Operation names carried by buffered writes.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferProfile(ctx context.Context, operation string, user *domain.User) error
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
	BufferPointActivity(ctx context.Context, activity *domain.PointActivity) error
}
