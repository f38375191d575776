package profile

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/repository"
	"github.com/planit/backend/usecase"
)

// Update holds the editable profile fields. Nil fields are kept.
type Update struct {
	Name  *string
	Email *string
}

type UseCase struct {
	users  repository.UserRepository
	buffer usecase.OperationBuffer
	logger *zap.Logger
}

func New(users repository.UserRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		buffer: buffer,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile edits name and email. Points and credentials are never
// touched here.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, upd Update) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid email", err)
		}
		user.Email = email
	}

	if err := uc.users.Upsert(ctx, user); err != nil {
		if uc.buffer != nil {
			if bufErr := uc.buffer.BufferProfile(ctx, usecase.OperationUpdate, user); bufErr != nil {
				uc.logger.Error("failed to buffer profile update", zap.Error(bufErr))
				return nil, err
			}
			uc.logger.Warn("profile update buffered due to repository error", zap.String("user_id", userID), zap.Error(err))
			return user, nil
		}
		return nil, err
	}
	return user, nil
}
