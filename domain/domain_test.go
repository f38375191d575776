package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) *time.Time {
	d, _ := time.Parse(DateLayout, s)
	return &d
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)
	tests := []struct {
		name string
		task *Task
		want bool
	}{
		{"due yesterday", &Task{DueDate: date("2024-03-14")}, true},
		{"due today", &Task{DueDate: date("2024-03-15")}, false},
		{"no due date", &Task{}, false},
		{"completed", &Task{Status: StatusCompleted, DueDate: date("2024-03-01")}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.IsOverdue(now))
		})
	}
}

func TestTask_Summary(t *testing.T) {
	task := &Task{ID: "t1", Title: "Pay rent", Status: StatusPending, Priority: PriorityHigh, DueDate: date("2024-04-01")}
	assert.Equal(t, TaskSummary{ID: "t1", Title: "Pay rent", Status: "pending", Priority: "high", DueDate: "2024-04-01"}, task.Summary())
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidPriority("HIGH"))
	assert.False(t, ValidPriority("urgent"))
	assert.True(t, ValidStatus(StatusInProgress))
	assert.False(t, ValidStatus("done"))
	assert.True(t, ActivityMissedDeadline.Valid())
	assert.False(t, ActivityType("bonus").Valid())
}

func TestSession(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	s := NewSession("u1", time.Hour, now)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.IsExpired(now.Add(59*time.Minute)))
	assert.True(t, s.IsExpired(now.Add(time.Hour)))

	s.Refresh(time.Hour, now.Add(time.Hour))
	assert.False(t, s.IsExpired(now.Add(90*time.Minute)))

	var missing *Session
	assert.True(t, missing.IsExpired(now))
}

func TestErrors(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", ErrTaskNotFound)
	assert.True(t, IsDomainError(wrapped, ErrCodeNotFound))
	assert.False(t, IsDomainError(wrapped, ErrCodeInvalid))
	assert.False(t, IsDomainError(nil, ErrCodeNotFound))

	err := WrapError(ErrCodeInvalid, "bad date", fmt.Errorf("parse"))
	assert.Equal(t, "bad date: parse", err.Error())
	assert.Equal(t, "parse", err.Unwrap().Error())
}

func TestDayOf(t *testing.T) {
	in := time.Date(2024, 3, 15, 23, 30, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), DayOf(in))
}
