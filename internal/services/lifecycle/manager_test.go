package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestManager_ShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, zaptest.NewLogger(t))
	var order []string
	boom := errors.New("boom")

	m.Register("postgres", func(context.Context) error { order = append(order, "postgres"); return nil })
	m.Register("redis", func(context.Context) error { order = append(order, "redis"); return boom })
	m.Register("nil", nil)
	m.Register("http", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		order = append(order, "http")
		return nil
	})

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"http", "redis", "postgres"}, order)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}

func TestManager_GoCancelsOnFailure(t *testing.T) {
	m := New(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	crash := errors.New("listen failed")
	m.Go("http", func() error { return crash }, cancel)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
	assert.ErrorIs(t, m.Err(), crash)
}

func TestManager_NotifyContextFollowsParent(t *testing.T) {
	m := New(time.Second, nil)
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := m.NotifyContext(parent)
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
}
