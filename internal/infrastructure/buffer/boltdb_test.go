package buffer

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, maxSize int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "buffer.db"), maxSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_ReplayOrder(t *testing.T) {
	store := openStore(t, 0)
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Enqueue(Item{ID: "profile", Entity: EntityProfile, Operation: OperationUpdate, Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{ID: "task-late", Entity: EntityTask, Operation: OperationCreate, Timestamp: base.Add(time.Minute)}))
	require.NoError(t, store.Enqueue(Item{ID: "task-early", Entity: EntityTask, Operation: OperationCreate, Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{ID: "ledger", Entity: EntityPointActivity, Operation: OperationCreate, Timestamp: base.Add(time.Hour)}))

	items, err := store.Peek(10)
	require.NoError(t, err)

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"ledger", "task-early", "task-late", "profile"}, ids)
}

func TestStore_AckAndRetry(t *testing.T) {
	store := openStore(t, 0)
	data, _ := json.Marshal(map[string]string{"title": "Buy milk"})
	require.NoError(t, store.Enqueue(Item{Entity: EntityTask, Operation: OperationCreate, UserID: "u1", Data: data}))

	items, err := store.Peek(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ID)
	assert.JSONEq(t, `{"title":"Buy milk"}`, string(items[0].Data))

	require.NoError(t, store.Retry(items[0]))
	items, err = store.Peek(5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Retries)

	require.NoError(t, store.Ack(items[0]))
	n, err := store.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_MaxSize(t *testing.T) {
	store := openStore(t, 2)
	require.NoError(t, store.Enqueue(Item{Entity: EntityTask}))
	require.NoError(t, store.Enqueue(Item{Entity: EntityTask}))
	assert.ErrorIs(t, store.Enqueue(Item{Entity: EntityTask}), ErrFull)
}

func TestStore_Purge(t *testing.T) {
	store := openStore(t, 0)
	now := time.Now()
	require.NoError(t, store.Enqueue(Item{ID: "old", Entity: EntityTask, Timestamp: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{ID: "older", Entity: EntityProfile, Timestamp: now.Add(-72 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{ID: "fresh", Entity: EntityTask, Timestamp: now}))

	removed, err := store.Purge(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	items, err := store.Peek(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].ID)
}

func TestStore_NilSafe(t *testing.T) {
	var store *Store
	assert.Error(t, store.Enqueue(Item{}))
	assert.NoError(t, store.Close())
	_, err := store.Len()
	assert.Error(t, err)
}
