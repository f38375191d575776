package buffer

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	EntityProfile       = "profile"
	EntityTask          = "task"
	EntityPointActivity = "point_activity"

	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// ErrFull is returned by Enqueue once the store holds its configured maximum.
var ErrFull = errors.New("buffer: store is full")

// Item is a write that could not reach primary storage and waits for replay.
type Item struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	key []byte
}

// rank orders replay: ledger entries first since balances were already
// changed, then tasks, then profile edits.
func (i Item) rank() int {
	switch i.Entity {
	case EntityPointActivity:
		return 1
	case EntityTask:
		return 2
	default:
		return 3
	}
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
