package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher[string, int]()
	d.Register("len", func(_ context.Context, s string) (int, error) { return len(s), nil })
	d.Register("words", func(_ context.Context, s string) (int, error) { return len(strings.Fields(s)), nil })

	out, err := d.Execute(context.Background(), "len", "four")
	require.NoError(t, err)
	assert.Equal(t, 4, out)

	out, err = d.Execute(context.Background(), "words", "buy milk today")
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	assert.True(t, d.Has("len"))
	assert.Equal(t, []string{"len", "words"}, d.Names())

	_, err = d.Execute(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.ErrorContains(t, err, "missing")
}

func TestDispatcher_ReplacesHandler(t *testing.T) {
	d := NewDispatcher[int, int]()
	d.Register("op", func(_ context.Context, n int) (int, error) { return n + 1, nil })
	d.Register("op", func(_ context.Context, n int) (int, error) { return n * 2, nil })

	out, err := d.Execute(context.Background(), "op", 5)
	require.NoError(t, err)
	assert.Equal(t, 10, out)
}
