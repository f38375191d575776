package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/internal/testutil"
)

var now = time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name     string
		activity domain.ActivityMap
		want     domain.ActivityStats
	}{
		{
			name: "empty",
			want: domain.ActivityStats{},
		},
		{
			name:     "today missing keeps streak",
			activity: domain.ActivityMap{"2024-03-14": 2, "2024-03-13": 1, "2024-03-12": 3},
			want:     domain.ActivityStats{TotalDays: 3, MaxStreak: 3, CurrentStreak: 3},
		},
		{
			name:     "today counted",
			activity: domain.ActivityMap{"2024-03-15": 1, "2024-03-14": 1},
			want:     domain.ActivityStats{TotalDays: 2, MaxStreak: 2, CurrentStreak: 2},
		},
		{
			name:     "yesterday missing breaks streak",
			activity: domain.ActivityMap{"2024-03-13": 1, "2024-03-12": 1},
			want:     domain.ActivityStats{TotalDays: 2, MaxStreak: 2, CurrentStreak: 0},
		},
		{
			name:     "zero counts are not days",
			activity: domain.ActivityMap{"2024-03-15": 0, "2024-03-14": 1, "2024-03-13": 0, "2024-03-12": 1},
			want:     domain.ActivityStats{TotalDays: 2, MaxStreak: 1, CurrentStreak: 1},
		},
		{
			name: "max streak across a gap",
			activity: domain.ActivityMap{
				"2024-02-01": 1, "2024-02-02": 1, "2024-02-03": 1, "2024-02-04": 1,
				"2024-02-10": 1, "2024-02-11": 1,
				"2024-03-15": 1,
			},
			want: domain.ActivityStats{TotalDays: 7, MaxStreak: 4, CurrentStreak: 1},
		},
		{
			name:     "month boundary",
			activity: domain.ActivityMap{"2024-02-28": 1, "2024-02-29": 1, "2024-03-01": 1},
			want:     domain.ActivityStats{TotalDays: 3, MaxStreak: 3, CurrentStreak: 0},
		},
		{
			name:     "negative counts are not days",
			activity: domain.ActivityMap{"2024-03-15": -3, "2024-03-14": 2, "2024-03-13": -1, "2024-03-12": 4},
			want:     domain.ActivityStats{TotalDays: 2, MaxStreak: 1, CurrentStreak: 1},
		},
		{
			name:     "invalid keys ignored",
			activity: domain.ActivityMap{"garbage": 4, "2024-3-13": 2, "2024-03-14": 1},
			want:     domain.ActivityStats{TotalDays: 1, MaxStreak: 1, CurrentStreak: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStats(tt.activity, now))
		})
	}
}

func TestComputeStats_WalkIsCapped(t *testing.T) {
	activity := make(domain.ActivityMap)
	day := domain.DayOf(now)
	for range 400 {
		activity[day.Format(domain.DateLayout)] = 1
		day = day.AddDate(0, 0, -1)
	}

	stats := ComputeStats(activity, now)
	assert.Equal(t, 365, stats.CurrentStreak)
	assert.Equal(t, 400, stats.MaxStreak)
	assert.Equal(t, 400, stats.TotalDays)
}

func completedAt(ts time.Time) *time.Time { return &ts }

func TestUseCase_Overview(t *testing.T) {
	tasks := testutil.NewTasks(
		domain.Task{ID: "t1", UserID: "u1", Status: domain.StatusCompleted, CompletedAt: completedAt(now.Add(-time.Hour))},
		domain.Task{ID: "t2", UserID: "u1", Status: domain.StatusCompleted, CompletedAt: completedAt(now.Add(-24 * time.Hour))},
		domain.Task{ID: "t3", UserID: "u1", Status: domain.StatusPending},
		domain.Task{ID: "t4", UserID: "u1", Status: domain.StatusInProgress},
		domain.Task{ID: "t5", UserID: "u2", Status: domain.StatusCompleted, CompletedAt: completedAt(now)},
	)
	users := testutil.NewUsers(domain.User{ID: "u1", Points: 42})
	uc := New(tasks, users, nil).WithClock(func() time.Time { return now })

	overview, err := uc.Overview(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, domain.ActivityStats{TotalDays: 2, MaxStreak: 2, CurrentStreak: 2}, overview.Stats)
	assert.Equal(t, 4, overview.TotalTasks)
	assert.InDelta(t, 0.5, overview.CompletionRate, 1e-9)
	assert.Equal(t, 1, overview.StatusCounts[domain.StatusPending])
	assert.Equal(t, 42, overview.Points)
	assert.Equal(t, domain.ActivityMap{"2024-03-15": 1, "2024-03-14": 1}, overview.Activity)
}

func TestUseCase_OverviewPropagatesErrors(t *testing.T) {
	tasks := testutil.NewTasks()
	tasks.Fail = true
	uc := New(tasks, testutil.NewUsers(domain.User{ID: "u1"}), nil)

	_, err := uc.Overview(context.Background(), "u1")
	assert.ErrorIs(t, err, testutil.ErrUnavailable)

	_, err = New(testutil.NewTasks(), testutil.NewUsers(), nil).Overview(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUseCase_Stats(t *testing.T) {
	tasks := testutil.NewTasks(
		domain.Task{ID: "t1", UserID: "u1", Status: domain.StatusCompleted, CompletedAt: completedAt(now)},
	)
	uc := New(tasks, testutil.NewUsers(), nil).WithClock(func() time.Time { return now })

	stats, err := uc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityStats{TotalDays: 1, MaxStreak: 1, CurrentStreak: 1}, stats)
}
