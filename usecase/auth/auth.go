package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/repository"
)

const minPasswordLength = 8

// SignupAwarder credits the welcome bonus after registration.
type SignupAwarder interface {
	AwardSignupBonus(ctx context.Context, userID string) (int, error)
}

type Config struct {
	Secret     string
	Issuer     string
	TokenTTL   time.Duration
	SessionTTL time.Duration
	// PasswordCost is the bcrypt cost; zero uses bcrypt.DefaultCost.
	PasswordCost int
}

// Claims is the JWT payload. SessionID ties the token to a Redis session so
// logout revokes it.
type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Result is returned by every call that issues a token.
type Result struct {
	User      *domain.User    `json:"user,omitempty"`
	Session   *domain.Session `json:"session,omitempty"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	points   SignupAwarder
	cfg      Config
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, points SignupAwarder, cfg Config, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = bcrypt.DefaultCost
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		points:   points,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register creates the account, credits the signup bonus and logs the user in.
func (uc *UseCase) Register(ctx context.Context, email, name, password string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid email", err)
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cfg.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         "user",
		Status:       "active",
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Info("user registered", zap.String("user_id", user.ID))

	if uc.points != nil {
		balance, err := uc.points.AwardSignupBonus(ctx, user.ID)
		if err != nil {
			uc.logger.Warn("signup bonus failed", zap.String("user_id", user.ID), zap.Error(err))
		} else {
			user.Points = balance
		}
	}

	return uc.issue(ctx, user)
}

func (uc *UseCase) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, domain.ErrUnauthorized
	}
	return uc.issue(ctx, user)
}

// Refresh extends a live session and signs a fresh token for it.
func (uc *UseCase) Refresh(ctx context.Context, sessionID string) (*Result, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(uc.cfg.SessionTTL.Seconds())); err != nil {
		return nil, err
	}
	session.Refresh(uc.cfg.SessionTTL, time.Now())

	token, expires, err := uc.sign(session)
	if err != nil {
		return nil, err
	}
	return &Result{Session: session, Token: token, ExpiresAt: expires}, nil
}

func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}
	if claims.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func (uc *UseCase) issue(ctx context.Context, user *domain.User) (*Result, error) {
	session := domain.NewSession(user.ID, uc.cfg.SessionTTL, time.Now())
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	token, expires, err := uc.sign(session)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Session: session, Token: token, ExpiresAt: expires}, nil
}

func (uc *UseCase) sign(session *domain.Session) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(uc.cfg.TokenTTL)
	if session.ExpiresAt.Before(expires) {
		expires = session.ExpiresAt
	}
	claims := Claims{
		UserID:    session.UserID,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    uc.cfg.Issuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires, nil
}
