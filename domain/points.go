package domain

import "time"

// ActivityType classifies a point award or penalty.
type ActivityType string

const (
	ActivitySignupBonus         ActivityType = "signup_bonus"
	ActivityDailyCheckin        ActivityType = "daily_checkin"
	ActivityTaskCompletedOnTime ActivityType = "task_completed_on_time"
	ActivityMissedDeadline      ActivityType = "missed_deadline"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivitySignupBonus, ActivityDailyCheckin, ActivityTaskCompletedOnTime, ActivityMissedDeadline:
		return true
	}
	return false
}

// PointActivity is an append-only ledger entry. Amount is the requested delta,
// not the clamped change applied to the balance.
type PointActivity struct {
	ID          string       `json:"id" db:"id"`
	UserID      string       `json:"user_id" db:"user_id"`
	Type        ActivityType `json:"type" db:"type"`
	Amount      int          `json:"amount" db:"amount"`
	Description string       `json:"description" db:"description"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// PointsSummary is the payload served to the points view.
type PointsSummary struct {
	Points     int             `json:"points"`
	Activities []PointActivity `json:"activities"`
}
