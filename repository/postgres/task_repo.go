package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/repository"
)

var taskColumns = []string{
	"id", "user_id", "title", "description", "status", "priority", "due_date",
	"start_time", "end_time", "completed_at", "metadata", "created_at", "updated_at",
}

var selectTask = "SELECT " + strings.Join(taskColumns, ", ") + " FROM tasks"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type taskRepository struct {
	db Querier
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(db Querier) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, selectTask+` WHERE id = $1`, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	q := psql.Select(taskColumns...).
		From("tasks").
		OrderBy("created_at DESC").
		Limit(uint64(clampLimit(filter.Limit))).
		Offset(uint64(max(filter.Offset, 0)))

	if filter.UserID != "" {
		q = q.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": strings.ToLower(filter.Status)})
	}
	if filter.Priority != "" {
		q = q.Where(squirrel.Eq{"priority": strings.ToLower(filter.Priority)})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(squirrel.ILike{"title": "%" + likeEscaper.Replace(s) + "%"})
	}
	if filter.DueBefore != nil {
		q = q.Where(squirrel.LtOrEq{"due_date": *filter.DueBefore})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task list query: %w", err)
	}
	return r.queryTasks(ctx, query, args...)
}

func (r *taskRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Task, error) {
	query := selectTask + `
	WHERE status <> $1
	  AND due_date IS NOT NULL
	  AND due_date < $2
	  AND (metadata IS NULL OR metadata->>'` + domain.MetaDeadlinePenalized + `' IS NULL)
	ORDER BY due_date ASC
	LIMIT $3
	`
	return r.queryTasks(ctx, query, domain.StatusCompleted, domain.DayOf(now), clampLimit(limit))
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, description, status, priority, due_date, start_time, end_time, completed_at, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING created_at, updated_at
	`

	if err := r.db.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		nullTimePtr(task.DueDate),
		task.StartTime,
		task.EndTime,
		nullTimePtr(task.CompletedAt),
		marshalMap(task.Metadata),
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		status = $4,
		priority = $5,
		due_date = $6,
		start_time = $7,
		end_time = $8,
		completed_at = $9,
		metadata = $10,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.db.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		nullTimePtr(task.DueDate),
		task.StartTime,
		task.EndTime,
		nullTimePtr(task.CompletedAt),
		marshalMap(task.Metadata),
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) ActivityByDay(ctx context.Context, userID string, since time.Time) (domain.ActivityMap, error) {
	const query = `
	SELECT to_char(date_trunc('day', completed_at), 'YYYY-MM-DD') AS day, COUNT(*) AS completed
	FROM tasks
	WHERE user_id = $1
	  AND status = $2
	  AND completed_at IS NOT NULL
	  AND completed_at >= $3
	GROUP BY day
	ORDER BY day
	`
	rows, err := r.db.Query(ctx, query, userID, domain.StatusCompleted, since)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	activity := make(domain.ActivityMap)
	for rows.Next() {
		var (
			day   string
			count int
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		activity[day] = count
	}
	return activity, rows.Err()
}

func (r *taskRepository) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	const query = `SELECT status, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{
		domain.StatusPending:    0,
		domain.StatusInProgress: 0,
		domain.StatusCompleted:  0,
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var metadata []byte

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.StartTime,
		&task.EndTime,
		&task.CompletedAt,
		&metadata,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Metadata = unmarshalMap(metadata)
	return &task, nil
}
