package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/repository"
)

type conversationRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewConversationRepository stores assistant state per user with a sliding TTL.
func NewConversationRepository(client *redislib.Client, ttl time.Duration) repository.ConversationRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &conversationRepository{
		client: client,
		prefix: "assistant:",
		ttl:    ttl,
	}
}

func (r *conversationRepository) SavePending(ctx context.Context, userID string, pending *domain.PendingSelection) error {
	if pending == nil || len(pending.Candidates) == 0 {
		return domain.ErrInvalidPayload
	}
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = time.Now()
	}
	return r.set(ctx, r.key(userID, "pending"), pending)
}

func (r *conversationRepository) GetPending(ctx context.Context, userID string) (*domain.PendingSelection, error) {
	var pending domain.PendingSelection
	if err := r.get(ctx, r.key(userID, "pending"), &pending); err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrNoPendingSelection
		}
		return nil, err
	}
	return &pending, nil
}

func (r *conversationRepository) ClearPending(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.key(userID, "pending")).Err()
}

func (r *conversationRepository) SaveLastList(ctx context.Context, userID string, tasks []domain.TaskSummary) error {
	if tasks == nil {
		tasks = []domain.TaskSummary{}
	}
	return r.set(ctx, r.key(userID, "last_list"), tasks)
}

// GetLastList returns nil without error when nothing was listed recently.
func (r *conversationRepository) GetLastList(ctx context.Context, userID string) ([]domain.TaskSummary, error) {
	var tasks []domain.TaskSummary
	if err := r.get(ctx, r.key(userID, "last_list"), &tasks); err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return tasks, nil
}

func (r *conversationRepository) set(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, payload, r.ttl).Err()
}

func (r *conversationRepository) get(ctx context.Context, key string, v any) error {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (r *conversationRepository) key(userID, name string) string {
	return fmt.Sprintf("%s%s:%s", r.prefix, userID, name)
}
