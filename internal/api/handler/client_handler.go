package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/storage"
	"ats-agent-go/internal/types"
)

// ClientHandler serves client company CRUD.
type ClientHandler struct {
	storage *storage.Storage
}

func NewClientHandler(st *storage.Storage) *ClientHandler {
	return &ClientHandler{storage: st}
}

func (h *ClientHandler) Create(ctx context.Context, c *app.RequestContext) {
	var client types.Client
	if err := c.BindJSON(&client); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid client payload"})
		return
	}
	if client.CompanyName == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "companyName is required"})
		return
	}
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	if client.Status == "" {
		client.Status = constants.ClientStatusProspect
	}

	if err := h.storage.MySQL.CreateClient(ctx, &client); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	h.publishChange(ctx, "created", client.ID)
	c.JSON(consts.StatusCreated, client)
}

func (h *ClientHandler) List(ctx context.Context, c *app.RequestContext) {
	clients, err := h.storage.MySQL.ListClients(ctx)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, clients)
}

func (h *ClientHandler) Get(ctx context.Context, c *app.RequestContext) {
	client, err := h.storage.MySQL.GetClient(ctx, c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, client)
}

func (h *ClientHandler) Update(ctx context.Context, c *app.RequestContext) {
	var client types.Client
	if err := c.BindJSON(&client); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid client payload"})
		return
	}
	client.ID = c.Param("id")

	if err := h.storage.MySQL.UpdateClient(ctx, &client); err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	h.publishChange(ctx, "updated", client.ID)
	c.JSON(consts.StatusOK, client)
}

func (h *ClientHandler) Delete(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if err := h.storage.MySQL.DeleteClient(ctx, id); err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	h.publishChange(ctx, "deleted", id)
	c.JSON(consts.StatusOK, utils.H{"deleted": id})
}

func (h *ClientHandler) publishChange(ctx context.Context, op, id string) {
	if h.storage.Redis != nil {
		h.storage.Redis.PublishChange(ctx, constants.CollectionClients, op, id)
	}
}
