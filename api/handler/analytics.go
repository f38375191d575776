package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/planit/backend/pkg/httpcontext"
	analyticsUC "github.com/planit/backend/usecase/analytics"
)

type AnalyticsHandler struct {
	baseHandler
	uc *analyticsUC.UseCase
}

func NewAnalyticsHandler(uc *analyticsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Completion streaks
// @Tags analytics
// @Router /api/v1/analytics/stats [get]
func (h *AnalyticsHandler) Stats(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, http.StatusOK, func(c context.Context, userID string) (any, error) {
		return h.uc.Stats(c, userID)
	})
}

// @Summary Dashboard overview
// @Tags analytics
// @Router /api/v1/analytics/overview [get]
func (h *AnalyticsHandler) Overview(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, http.StatusOK, func(c context.Context, userID string) (any, error) {
		return h.uc.Overview(c, userID)
	})
}
