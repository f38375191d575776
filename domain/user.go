package domain

import "time"

// User represents an authenticated identity and its points balance.
type User struct {
	ID                 string            `json:"id"`
	Email              string            `json:"email,omitempty"`
	Name               string            `json:"name,omitempty"`
	PasswordHash       string            `json:"-"`
	Role               string            `json:"role"`
	Status             string            `json:"status"`
	Points             int               `json:"points"`
	LastDailyCheckinAt *time.Time        `json:"last_daily_checkin_at,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == "active"
}
