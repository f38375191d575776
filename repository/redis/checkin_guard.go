package redis

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/planit/backend/repository"
)

type checkinGuard struct {
	client *redislib.Client
	prefix string
}

// NewCheckinGuard returns a SETNX-based lock keyed by user and calendar day.
func NewCheckinGuard(client *redislib.Client) repository.CheckinGuard {
	return &checkinGuard{client: client, prefix: "checkin:"}
}

func (g *checkinGuard) Acquire(ctx context.Context, userID, day string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	ok, err := g.client.SetNX(ctx, g.key(userID, day), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire checkin lock: %w", err)
	}
	return ok, nil
}

func (g *checkinGuard) Release(ctx context.Context, userID, day string) error {
	return g.client.Del(ctx, g.key(userID, day)).Err()
}

func (g *checkinGuard) key(userID, day string) string {
	return fmt.Sprintf("%s%s:%s", g.prefix, userID, day)
}
