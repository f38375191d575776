package domain

import "time"

// DateLayout is the canonical calendar-day format used across the API.
const DateLayout = "2006-01-02"

// ActivityMap maps an ISO date to the number of tasks completed that day.
// Missing days mean no activity.
type ActivityMap map[string]int

// ActivityStats summarizes an ActivityMap.
type ActivityStats struct {
	TotalDays     int `json:"totalDays"`
	MaxStreak     int `json:"maxStreak"`
	CurrentStreak int `json:"currentStreak"`
}

// DayOf truncates t to midnight UTC of its own calendar day.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
