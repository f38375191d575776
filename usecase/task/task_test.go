package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/internal/testutil"
	"github.com/planit/backend/repository"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type awarder struct {
	mu      sync.Mutex
	awarded []string
	fail    bool
}

func (a *awarder) AwardTaskCompletedOnTime(_ context.Context, task *domain.Task) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return 0, errors.New("points store down")
	}
	a.awarded = append(a.awarded, task.ID)
	return 20, nil
}

func day(s string) *time.Time {
	t, _ := time.Parse(domain.DateLayout, s)
	return &t
}

func ptr[T any](v T) *T { return &v }

func newUseCase(tasks *testutil.Tasks) (*UseCase, *awarder, *testutil.Buffer) {
	points := &awarder{}
	buf := &testutil.Buffer{}
	uc := New(tasks, buf, points, nil).WithClock(func() time.Time { return now })
	return uc, points, buf
}

func TestCreateTask_Defaults(t *testing.T) {
	uc, _, _ := newUseCase(testutil.NewTasks())

	created, err := uc.CreateTask(context.Background(), &domain.Task{UserID: "u1", Title: "  Buy milk ", Priority: "HIGH"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, domain.PriorityHigh, created.Priority)
	assert.Nil(t, created.CompletedAt)
}

func TestCreateTask_Validation(t *testing.T) {
	uc, _, _ := newUseCase(testutil.NewTasks())
	ctx := context.Background()

	_, err := uc.CreateTask(ctx, &domain.Task{UserID: "u1", Title: "   "})
	assert.ErrorIs(t, err, domain.ErrTitleRequired)

	_, err = uc.CreateTask(ctx, &domain.Task{UserID: "u1", Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = uc.CreateTask(ctx, &domain.Task{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestCreateTask_BuffersOnOutage(t *testing.T) {
	tasks := testutil.NewTasks()
	tasks.Fail = true
	uc, _, buf := newUseCase(tasks)

	created, err := uc.CreateTask(context.Background(), &domain.Task{UserID: "u1", Title: "Offline"})
	require.NoError(t, err)
	require.Len(t, buf.Tasks, 1)
	assert.Equal(t, "create:"+created.ID, buf.Tasks[0])
}

func TestGetTask_OwnershipIsNotFound(t *testing.T) {
	uc, _, _ := newUseCase(testutil.NewTasks(domain.Task{ID: "t1", UserID: "owner", Title: "Secret"}))

	_, err := uc.GetTask(context.Background(), "intruder", "t1")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	assert.ErrorIs(t, uc.DeleteTask(context.Background(), "intruder", "t1"), domain.ErrTaskNotFound)
}

func TestCompleteTask_AwardsOnTime(t *testing.T) {
	tests := []struct {
		name  string
		due   *time.Time
		award bool
	}{
		{name: "no due date", award: true},
		{name: "due today", due: day("2024-03-15"), award: true},
		{name: "due later", due: day("2024-03-20"), award: true},
		{name: "overdue", due: day("2024-03-14"), award: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := testutil.NewTasks(domain.Task{
				ID: "t1", UserID: "u1", Title: "Report", Status: domain.StatusPending,
				Priority: domain.PriorityLow, DueDate: tt.due,
			})
			uc, points, _ := newUseCase(tasks)

			done, err := uc.CompleteTask(context.Background(), "u1", "t1")
			require.NoError(t, err)
			require.NotNil(t, done.CompletedAt)
			assert.True(t, done.CompletedAt.Equal(now))

			if tt.award {
				assert.Equal(t, []string{"t1"}, points.awarded)
			} else {
				assert.Empty(t, points.awarded)
			}
		})
	}
}

func TestCompleteTask_AlreadyCompletedNoAward(t *testing.T) {
	done := now.Add(-time.Hour)
	tasks := testutil.NewTasks(domain.Task{
		ID: "t1", UserID: "u1", Title: "Report", Status: domain.StatusCompleted,
		Priority: domain.PriorityLow, CompletedAt: &done,
	})
	uc, points, _ := newUseCase(tasks)

	task, err := uc.CompleteTask(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.True(t, task.CompletedAt.Equal(done))
	assert.Empty(t, points.awarded)
}

func TestCompleteTask_OnTimeAwardPaidOnce(t *testing.T) {
	tasks := testutil.NewTasks(domain.Task{
		ID: "t1", UserID: "u1", Title: "Report", Status: domain.StatusPending, Priority: domain.PriorityLow,
	})
	uc, points, _ := newUseCase(tasks)
	ctx := context.Background()

	for range 5 {
		_, err := uc.CompleteTask(ctx, "u1", "t1")
		require.NoError(t, err)
		_, err = uc.UpdateTask(ctx, "u1", "t1", Changes{Status: ptr(domain.StatusPending)})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"t1"}, points.awarded)

	stored, err := tasks.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Metadata[domain.MetaOnTimeAwarded])
}

func TestCompleteTask_FailedAwardCanRetry(t *testing.T) {
	tasks := testutil.NewTasks(domain.Task{
		ID: "t1", UserID: "u1", Title: "Report", Status: domain.StatusPending, Priority: domain.PriorityLow,
	})
	uc, points, _ := newUseCase(tasks)
	ctx := context.Background()

	points.fail = true
	_, err := uc.CompleteTask(ctx, "u1", "t1")
	require.NoError(t, err)
	stored, err := tasks.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, stored.Metadata[domain.MetaOnTimeAwarded])

	points.fail = false
	_, err = uc.UpdateTask(ctx, "u1", "t1", Changes{Status: ptr(domain.StatusPending)})
	require.NoError(t, err)
	_, err = uc.CompleteTask(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, points.awarded)
}

func TestCreateTask_DropsReservedMetadata(t *testing.T) {
	uc, _, _ := newUseCase(testutil.NewTasks())

	created, err := uc.CreateTask(context.Background(), &domain.Task{
		UserID: "u1", Title: "Sneaky",
		Metadata: map[string]string{
			domain.MetaDeadlinePenalized: "x",
			domain.MetaOnTimeAwarded:     "x",
			"color":                      "red",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"color": "red"}, created.Metadata)
}

func TestUpdateTask_ReopenClearsCompletion(t *testing.T) {
	done := now.Add(-time.Hour)
	tasks := testutil.NewTasks(domain.Task{
		ID: "t1", UserID: "u1", Title: "Report", Status: domain.StatusCompleted,
		Priority: domain.PriorityLow, CompletedAt: &done,
	})
	uc, _, _ := newUseCase(tasks)

	task, err := uc.UpdateTask(context.Background(), "u1", "t1", Changes{Status: ptr(domain.StatusInProgress)})
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)

	stored, err := tasks.GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, stored.Status)
	assert.Nil(t, stored.CompletedAt)
}

func TestUpdateTask_AppliesChanges(t *testing.T) {
	tasks := testutil.NewTasks(domain.Task{
		ID: "t1", UserID: "u1", Title: "Report", Status: domain.StatusPending, Priority: domain.PriorityLow,
		DueDate: day("2024-03-20"),
	})
	uc, _, _ := newUseCase(tasks)
	ctx := context.Background()

	task, err := uc.UpdateTask(ctx, "u1", "t1", Changes{
		Title:     ptr("Quarterly report"),
		Priority:  ptr("High"),
		StartTime: ptr("09:00"),
		EndTime:   ptr("10:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Quarterly report", task.Title)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.Equal(t, "09:00", task.StartTime)
	assert.Equal(t, "2024-03-20", task.DueDate.Format(domain.DateLayout))

	task, err = uc.UpdateTask(ctx, "u1", "t1", Changes{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, task.DueDate)

	_, err = uc.UpdateTask(ctx, "u1", "t1", Changes{Status: ptr("done")})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = uc.UpdateTask(ctx, "u1", "t1", Changes{Title: ptr(" ")})
	assert.ErrorIs(t, err, domain.ErrTitleRequired)
}

func TestChanges_Empty(t *testing.T) {
	assert.True(t, Changes{}.Empty())
	assert.False(t, Changes{ClearDueDate: true}.Empty())
	assert.False(t, Changes{Priority: ptr("low")}.Empty())
}

func TestDeleteTask(t *testing.T) {
	tasks := testutil.NewTasks(domain.Task{ID: "t1", UserID: "u1", Title: "Report"})
	uc, _, _ := newUseCase(tasks)

	require.NoError(t, uc.DeleteTask(context.Background(), "u1", "t1"))
	assert.Empty(t, tasks.All())
	assert.ErrorIs(t, uc.DeleteTask(context.Background(), "u1", "t1"), domain.ErrTaskNotFound)
}

func TestListTasks_RequiresUser(t *testing.T) {
	tasks := testutil.NewTasks(
		domain.Task{ID: "t1", UserID: "u1", Title: "A", Status: domain.StatusPending},
		domain.Task{ID: "t2", UserID: "u2", Title: "B", Status: domain.StatusPending},
	)
	uc, _, _ := newUseCase(tasks)

	_, err := uc.ListTasks(context.Background(), repository.TaskFilter{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	list, err := uc.ListTasks(context.Background(), repository.TaskFilter{UserID: "u1", Status: "PENDING"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "t1", list[0].ID)
}
