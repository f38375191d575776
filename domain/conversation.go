package domain

import (
	"encoding/json"
	"time"
)

// PendingSelection holds a disambiguation prompt waiting for the user to pick
// one of the listed candidates.
type PendingSelection struct {
	Action     string          `json:"action"`
	Entities   json.RawMessage `json:"entities,omitempty"`
	Candidates []TaskSummary   `json:"candidates"`
	CreatedAt  time.Time       `json:"created_at"`
}
