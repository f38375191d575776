package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/planit/backend/api/transport"
	"github.com/planit/backend/pkg/httpcontext"
	profileUC "github.com/planit/backend/usecase/profile"
)

type ProfileHandler struct {
	baseHandler
	uc *profileUC.UseCase
}

func NewProfileHandler(uc *profileUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get profile with the current points balance
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, http.StatusOK, func(c context.Context, userID string) (any, error) {
		return h.uc.GetProfile(c, userID)
	})
}

// @Summary Update name or email
// @Tags profile
// @Accept json
// @Produce json
// @Router /api/v1/profile [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	var req transport.ProfileUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.serve(ctx, http.StatusOK, func(c context.Context, userID string) (any, error) {
		return h.uc.UpdateProfile(c, userID, profileUC.Update{Name: req.Name, Email: req.Email})
	})
}
