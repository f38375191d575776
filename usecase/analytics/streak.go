package analytics

import (
	"slices"
	"time"

	"github.com/planit/backend/domain"
)

// maxWalkDays bounds the backward walk of the current streak.
const maxWalkDays = 365

// ComputeStats derives day totals and streaks from per-day completion counts.
// Keys that are not ISO dates are ignored, and non-positive counts are not
// active days.
func ComputeStats(activity domain.ActivityMap, now time.Time) domain.ActivityStats {
	return domain.ActivityStats{
		TotalDays:     totalDays(activity),
		MaxStreak:     maxStreak(activity),
		CurrentStreak: currentStreak(activity, now),
	}
}

func totalDays(activity domain.ActivityMap) int {
	n := 0
	for key, count := range activity {
		if count <= 0 {
			continue
		}
		if _, err := time.Parse(domain.DateLayout, key); err == nil {
			n++
		}
	}
	return n
}

// currentStreak walks back from today. A missing today does not break the
// streak, it is just not counted yet.
func currentStreak(activity domain.ActivityMap, now time.Time) int {
	day := domain.DayOf(now)
	streak := 0
	for i := range maxWalkDays {
		if activity[day.Format(domain.DateLayout)] > 0 {
			streak++
		} else if i > 0 {
			break
		}
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func maxStreak(activity domain.ActivityMap) int {
	days := make([]time.Time, 0, len(activity))
	counts := make(map[time.Time]int, len(activity))
	for key, count := range activity {
		day, err := time.Parse(domain.DateLayout, key)
		if err != nil {
			continue
		}
		days = append(days, day)
		counts[day] = count
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })

	best, run := 0, 0
	var prev time.Time
	for i, day := range days {
		switch {
		case counts[day] <= 0:
			run = 0
		case i > 0 && prev.AddDate(0, 0, 1).Equal(day):
			run++
		default:
			run = 1
		}
		best = max(best, run)
		prev = day
	}
	return best
}
