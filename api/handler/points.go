package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/planit/backend/pkg/httpcontext"
	"github.com/planit/backend/usecase/points"
)

type PointsHandler struct {
	baseHandler
	engine *points.Engine
}

func NewPointsHandler(engine *points.Engine, adapter *httpcontext.Adapter, logger *zap.Logger) *PointsHandler {
	return &PointsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
	}
}

// @Summary Points balance and recent activity
// @Tags points
// @Param limit query int false "activities to return (default 20)"
// @Router /api/v1/points [get]
func (h *PointsHandler) Summary(ctx *fasthttp.RequestCtx) {
	limit := queryInt(ctx, "limit", 20)
	h.serve(ctx, http.StatusOK, func(c context.Context, userID string) (any, error) {
		return h.engine.Summary(c, userID, limit)
	})
}

// @Summary Claim the daily check-in bonus
// @Tags points
// @Failure 409 {object} transport.Envelope "already claimed today"
// @Router /api/v1/points/checkin [post]
func (h *PointsHandler) Checkin(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, http.StatusOK, func(c context.Context, userID string) (any, error) {
		balance, err := h.engine.ClaimDailyCheckin(c, userID)
		if err != nil {
			return nil, err
		}
		return map[string]int{"points": balance, "awarded": h.engine.Amounts().DailyCheckin}, nil
	})
}
