package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"ats-agent-go/internal/assistant"
	"ats-agent-go/internal/storage"
)

// ChatHandler serves the conversational assistant.
type ChatHandler struct {
	storage   *storage.Storage
	assistant *assistant.Assistant
}

func NewChatHandler(st *storage.Storage, as *assistant.Assistant) *ChatHandler {
	return &ChatHandler{storage: st, assistant: as}
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Chat handles POST /chat. A missing session ID starts a new session; the
// ID is echoed back so the client can continue it.
func (h *ChatHandler) Chat(ctx context.Context, c *app.RequestContext) {
	var req chatRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid chat payload"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "message is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	snapshot, err := h.storage.MySQL.Snapshot(ctx)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	reply, err := h.assistant.Chat(ctx, req.SessionID, req.Message, snapshot)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	c.JSON(consts.StatusOK, utils.H{
		"sessionId": req.SessionID,
		"reply":     reply,
	})
}
