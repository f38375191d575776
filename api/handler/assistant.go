package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/planit/backend/api/transport"
	"github.com/planit/backend/pkg/httpcontext"
	"github.com/planit/backend/usecase/chat"
)

// AssistantHandler serves the conversational assistant and the direct
// command path. The two assistants differ only in parser policy.
type AssistantHandler struct {
	baseHandler
	chat    *chat.Assistant
	command *chat.Assistant
}

func NewAssistantHandler(chatAssistant, commandAssistant *chat.Assistant, adapter *httpcontext.Adapter, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		baseHandler: newBaseHandler(adapter, logger),
		chat:        chatAssistant,
		command:     commandAssistant,
	}
}

// @Summary Talk to the task assistant
// @Tags assistant
// @Router /api/v1/assistant/chat [post]
func (h *AssistantHandler) Chat(ctx *fasthttp.RequestCtx) {
	h.handle(ctx, h.chat)
}

// @Summary Execute a one-shot task command
// @Tags assistant
// @Router /api/v1/assistant/command [post]
func (h *AssistantHandler) Command(ctx *fasthttp.RequestCtx) {
	h.handle(ctx, h.command)
}

// @Summary Parse a command without executing it
// @Tags assistant
// @Router /api/v1/assistant/parse [post]
func (h *AssistantHandler) Parse(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}
	var req transport.AssistantRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.command.Interpret(req.Message))
}

func (h *AssistantHandler) handle(ctx *fasthttp.RequestCtx, assistant *chat.Assistant) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	var req transport.AssistantRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	resp := assistant.Handle(stdCtx, userID, req.Message)
	h.logFor(stdCtx).Debug("assistant reply",
		zap.String("intent", string(resp.Intent)),
		zap.Bool("tasks_modified", resp.TasksModified),
	)
	h.respondSuccess(ctx, http.StatusOK, resp)
}
