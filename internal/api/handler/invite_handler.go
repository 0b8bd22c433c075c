package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"ats-agent-go/internal/email"
)

// InviteHandler serves teammate invitations.
type InviteHandler struct {
	sender *email.Sender
}

func NewInviteHandler(sender *email.Sender) *InviteHandler {
	return &InviteHandler{sender: sender}
}

type inviteRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	InviterName string `json:"inviterName"`
}

// Send handles POST /invites.
func (h *InviteHandler) Send(ctx context.Context, c *app.RequestContext) {
	var req inviteRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid invite payload"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "a valid email is required"})
		return
	}
	if req.Name == "" {
		req.Name = "there"
	}
	if req.Role == "" {
		req.Role = "Recruiter"
	}
	if req.InviterName == "" {
		req.InviterName = "A teammate"
	}

	messageID, err := h.sender.SendInvite(ctx, email.Invite{
		Email:       req.Email,
		Name:        req.Name,
		Role:        req.Role,
		InviterName: req.InviterName,
	})
	if errors.Is(err, email.ErrNotConfigured) {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(consts.StatusBadGateway, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"messageId": messageID})
}
