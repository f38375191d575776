// Package points implements the points ledger: awards, penalties and the
// once-per-calendar-day check-in.
package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/repository"
	"github.com/planit/backend/usecase"
)

// Amounts configures award sizes. MissedDeadline is positive and applied as a
// deduction.
type Amounts struct {
	SignupBonus    int
	DailyCheckin   int
	TaskOnTime     int
	MissedDeadline int
}

// ErrLedgerWrite marks an award whose balance change was applied but whose
// ledger entry could not be stored or buffered.
var ErrLedgerWrite = errors.New("point activity not recorded")

// DefaultAmounts mirrors the shipped configuration defaults.
var DefaultAmounts = Amounts{SignupBonus: 100, DailyCheckin: 10, TaskOnTime: 20, MissedDeadline: 10}

type Engine struct {
	users      repository.UserRepository
	activities repository.PointActivityRepository
	guard      repository.CheckinGuard
	buffer     usecase.OperationBuffer
	amounts    Amounts
	now        func() time.Time
	logger     *zap.Logger
}

func NewEngine(
	users repository.UserRepository,
	activities repository.PointActivityRepository,
	guard repository.CheckinGuard,
	buffer usecase.OperationBuffer,
	amounts Amounts,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		users:      users,
		activities: activities,
		guard:      guard,
		buffer:     buffer,
		amounts:    amounts,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock replaces the time source. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Amounts() Amounts {
	return e.amounts
}

// AwardPoints applies amount to the user's balance and records the ledger
// entry. The balance is floored at zero; the ledger keeps the requested
// amount. A missing user aborts before anything is written.
func (e *Engine) AwardPoints(ctx context.Context, userID string, kind domain.ActivityType, amount int, description string) (int, error) {
	if !kind.Valid() {
		return 0, domain.ErrInvalidActivityType
	}
	if userID == "" {
		return 0, domain.ErrUserNotFound
	}

	var checkinAt *time.Time
	if kind == domain.ActivityDailyCheckin {
		now := e.now()
		checkinAt = &now
	}

	balance, err := e.users.IncrementPoints(ctx, userID, amount, checkinAt)
	if err != nil {
		return 0, err
	}
	if balance < 0 {
		if balance, err = e.users.ClampPoints(ctx, userID); err != nil {
			e.logger.Error("clamp negative balance", zap.String("user_id", userID), zap.Error(err))
			balance = 0
		}
	}

	activity := &domain.PointActivity{
		UserID:      userID,
		Type:        kind,
		Amount:      amount,
		Description: description,
	}
	if err := e.activities.Append(ctx, activity); err != nil {
		if e.buffer == nil {
			return balance, fmt.Errorf("%w: %w", ErrLedgerWrite, err)
		}
		if bufErr := e.buffer.BufferPointActivity(ctx, activity); bufErr != nil {
			e.logger.Error("point activity lost",
				zap.String("user_id", userID),
				zap.String("type", string(kind)),
				zap.Int("amount", amount),
				zap.Error(errors.Join(err, bufErr)))
			return balance, fmt.Errorf("%w: %w", ErrLedgerWrite, err)
		}
		e.logger.Warn("point activity buffered", zap.String("user_id", userID), zap.String("type", string(kind)))
	}

	e.logger.Debug("points awarded",
		zap.String("user_id", userID),
		zap.String("type", string(kind)),
		zap.Int("amount", amount),
		zap.Int("balance", balance))
	return balance, nil
}

// HasClaimedDailyCheckinToday reports whether last falls on the same calendar
// day as now, evaluated in now's location.
func HasClaimedDailyCheckinToday(last *time.Time, now time.Time) bool {
	if last == nil || last.IsZero() {
		return false
	}
	l := last.In(now.Location())
	return l.Year() == now.Year() && l.Month() == now.Month() && l.Day() == now.Day()
}

// ClaimDailyCheckin awards the check-in bonus once per calendar day.
func (e *Engine) ClaimDailyCheckin(ctx context.Context, userID string) (int, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := e.now()
	if HasClaimedDailyCheckinToday(user.LastDailyCheckinAt, now) {
		return user.Points, domain.ErrCheckinAlreadyClaimed
	}

	day := now.Format(domain.DateLayout)
	locked := false
	if e.guard != nil {
		ok, err := e.guard.Acquire(ctx, userID, day, untilMidnight(now))
		switch {
		case err != nil:
			e.logger.Warn("checkin guard unavailable", zap.String("user_id", userID), zap.Error(err))
		case !ok:
			return user.Points, domain.ErrCheckinAlreadyClaimed
		default:
			locked = true
		}
	}

	balance, err := e.AwardPoints(ctx, userID, domain.ActivityDailyCheckin, e.amounts.DailyCheckin, "Daily check-in")
	if err != nil && locked && !errors.Is(err, ErrLedgerWrite) {
		if relErr := e.guard.Release(ctx, userID, day); relErr != nil {
			e.logger.Warn("release checkin guard", zap.String("user_id", userID), zap.Error(relErr))
		}
	}
	return balance, err
}

func (e *Engine) AwardSignupBonus(ctx context.Context, userID string) (int, error) {
	return e.AwardPoints(ctx, userID, domain.ActivitySignupBonus, e.amounts.SignupBonus, "Welcome bonus")
}

func (e *Engine) AwardTaskCompletedOnTime(ctx context.Context, task *domain.Task) (int, error) {
	if task == nil {
		return 0, domain.ErrInvalidPayload
	}
	return e.AwardPoints(ctx, task.UserID, domain.ActivityTaskCompletedOnTime, e.amounts.TaskOnTime,
		"Completed on time: "+task.Title)
}

func (e *Engine) PenalizeMissedDeadline(ctx context.Context, task *domain.Task) (int, error) {
	if task == nil {
		return 0, domain.ErrInvalidPayload
	}
	return e.AwardPoints(ctx, task.UserID, domain.ActivityMissedDeadline, -e.amounts.MissedDeadline,
		"Missed deadline: "+task.Title)
}

// Summary returns the balance with the most recent ledger entries.
func (e *Engine) Summary(ctx context.Context, userID string, limit int) (*domain.PointsSummary, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	activities, err := e.activities.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return &domain.PointsSummary{Points: user.Points, Activities: activities}, nil
}

func untilMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()).Sub(now)
}
