package domain

import (
	"strings"
	"time"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// MetaDeadlinePenalized marks tasks already charged the missed-deadline penalty.
const MetaDeadlinePenalized = "deadline_penalized"

// MetaOnTimeAwarded marks tasks already credited for an on-time completion.
const MetaOnTimeAwarded = "on_time_awarded"

// Task represents a user-owned to-do item.
type Task struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      string            `json:"status"`
	Priority    string            `json:"priority"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	StartTime   string            `json:"start_time,omitempty"`
	EndTime     string            `json:"end_time,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TaskSummary is the trimmed view of a task handed to chat clients.
type TaskSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	DueDate  string `json:"due_date,omitempty"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// IsOverdue reports whether the due day ended before the reference day.
func (t *Task) IsOverdue(now time.Time) bool {
	if t == nil || t.DueDate == nil || t.IsCompleted() {
		return false
	}
	return DayOf(*t.DueDate).Before(DayOf(now))
}

func (t *Task) Summary() TaskSummary {
	s := TaskSummary{
		ID:       t.ID,
		Title:    t.Title,
		Status:   t.Status,
		Priority: t.Priority,
	}
	if t.DueDate != nil {
		s.DueDate = t.DueDate.Format(DateLayout)
	}
	return s
}

func ValidPriority(p string) bool {
	switch strings.ToLower(p) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	switch strings.ToLower(s) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}
