package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planit/backend/domain"
)

func TestUserRepository_GetByEmail(t *testing.T) {
	now := time.Now()
	checkin := now.Add(-time.Hour)
	mock := newMock(t)

	cols := []string{"id", "email", "name", "password_hash", "role", "status", "points", "last_daily_checkin_at", "metadata", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("u1", "ada@example.com", "Ada", "hash", "user", "active", 120, &checkin, nil, now, now))

	user, err := NewUserRepository(mock).GetByEmail(context.Background(), "  Ada@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, 120, user.Points)
	require.NotNil(t, user.LastDailyCheckinAt)
	assert.Equal(t, checkin, *user.LastDailyCheckinAt)
	assert.Nil(t, user.Metadata)
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)

	_, err := NewUserRepository(mock).GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	args := anyArgs(8)
	args[1] = "ada@example.com"
	mock.ExpectQuery(`INSERT INTO users`).WithArgs(args...).WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := NewUserRepository(mock).Create(context.Background(), &domain.User{Email: " Ada@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_IncrementPoints(t *testing.T) {
	stamp := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		amount    int
		checkinAt *time.Time
		setup     func(mock pgxmock.PgxPoolIface)
		want      int
		wantErr   error
	}{
		{
			name:   "award",
			amount: 20,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SET points = GREATEST\(points \+ \$2, 0\)`).
					WithArgs("u1", 20, nil).
					WillReturnRows(pgxmock.NewRows([]string{"points"}).AddRow(30))
			},
			want: 30,
		},
		{
			name:      "check-in stamps date",
			amount:    10,
			checkinAt: &stamp,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`last_daily_checkin_at = COALESCE\(\$3`).
					WithArgs("u1", 10, stamp).
					WillReturnRows(pgxmock.NewRows([]string{"points"}).AddRow(10))
			},
			want: 10,
		},
		{
			name:   "unknown user",
			amount: 5,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).WithArgs("u1", 5, nil).WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)

			got, err := NewUserRepository(mock).IncrementPoints(context.Background(), "u1", tt.amount, tt.checkinAt)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_ClampPoints(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SET points = GREATEST\(points, 0\)`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"points"}).AddRow(0))

	got, err := NewUserRepository(mock).ClampPoints(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, got)
}
