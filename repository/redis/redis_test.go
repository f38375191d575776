package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planit/backend/domain"
)

func newClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	client, srv := newClient(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	session := &domain.Session{ID: "s1", UserID: "u1"}
	require.NoError(t, repo.Save(ctx, session))
	assert.False(t, session.ExpiresAt.IsZero())
	assert.Greater(t, srv.TTL("session:s1"), 59*time.Minute)

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, repo.Extend(ctx, "s1", 7200))
	assert.Greater(t, srv.TTL("session:s1"), time.Hour)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Extend(ctx, "s1", 60), domain.ErrSessionNotFound)
}

func TestSessionRepository_RejectsAnonymous(t *testing.T) {
	client, _ := newClient(t)
	err := NewSessionRepository(client, 0).Save(context.Background(), &domain.Session{ID: "s1"})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestCheckinGuard_SingleWinnerPerDay(t *testing.T) {
	client, _ := newClient(t)
	guard := NewCheckinGuard(client)
	ctx := context.Background()

	ok, err := guard.Acquire(ctx, "u1", "2024-03-15", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Acquire(ctx, "u1", "2024-03-15", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = guard.Acquire(ctx, "u1", "2024-03-16", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, guard.Release(ctx, "u1", "2024-03-15"))
	ok, err = guard.Acquire(ctx, "u1", "2024-03-15", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConversationRepository(t *testing.T) {
	client, srv := newClient(t)
	repo := NewConversationRepository(client, 5*time.Minute)
	ctx := context.Background()

	_, err := repo.GetPending(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNoPendingSelection)

	last, err := repo.GetLastList(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, last)

	pending := &domain.PendingSelection{
		Action:     "delete_task",
		Entities:   []byte(`{"title":"milk"}`),
		Candidates: []domain.TaskSummary{{ID: "t1", Title: "Buy milk"}, {ID: "t2", Title: "Buy milk and eggs"}},
	}
	require.NoError(t, repo.SavePending(ctx, "u1", pending))

	got, err := repo.GetPending(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "delete_task", got.Action)
	assert.JSONEq(t, `{"title":"milk"}`, string(got.Entities))
	assert.Len(t, got.Candidates, 2)

	require.NoError(t, repo.SaveLastList(ctx, "u1", []domain.TaskSummary{{ID: "t1", Title: "Buy milk"}}))
	last, err = repo.GetLastList(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "t1", last[0].ID)

	require.NoError(t, repo.ClearPending(ctx, "u1"))
	_, err = repo.GetPending(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNoPendingSelection)

	srv.FastForward(6 * time.Minute)
	last, err = repo.GetLastList(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, last)

	assert.ErrorIs(t, repo.SavePending(ctx, "u1", &domain.PendingSelection{}), domain.ErrInvalidPayload)
}
