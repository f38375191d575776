package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/planit/backend/api/transport"
	"github.com/planit/backend/domain"
	"github.com/planit/backend/pkg/httpcontext"
	authUC "github.com/planit/backend/usecase/auth"
)

// SessionChecker confirms the session behind a token has not been revoked.
type SessionChecker interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

const sessionCheckTimeout = 2 * time.Second

// JWTAuth verifies the bearer token and exposes the caller through the
// X-User-ID and X-Session-ID headers. Client-supplied values for those
// headers are always discarded. A nil sessions skips the revocation check.
func JWTAuth(secret string, sessions SessionChecker, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			ctx.Request.Header.Del(httpcontext.HeaderUserID)
			ctx.Request.Header.Del(httpcontext.HeaderSessionID)

			raw := extractToken(ctx)
			if raw == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			claims, err := authUC.ParseToken(secret, raw)
			if err != nil {
				logger.Warn("invalid jwt token",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.Error(err),
				)
				unauthorized(ctx, "invalid token")
				return
			}

			if sessions != nil && claims.SessionID != "" {
				checkCtx, cancel := context.WithTimeout(context.Background(), sessionCheckTimeout)
				session, err := sessions.GetSession(checkCtx, claims.SessionID)
				cancel()
				switch {
				case domain.IsDomainError(err, domain.ErrCodeNotFound):
					unauthorized(ctx, "session expired")
					return
				case err != nil:
					// Redis outage: the signature is still trusted.
					logger.Warn("session lookup failed", zap.String("session_id", claims.SessionID), zap.Error(err))
				case session.UserID != claims.UserID:
					unauthorized(ctx, "session mismatch")
					return
				}
			}

			ctx.Request.Header.Set(httpcontext.HeaderUserID, claims.UserID)
			if claims.SessionID != "" {
				ctx.Request.Header.Set(httpcontext.HeaderSessionID, claims.SessionID)
			}
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
