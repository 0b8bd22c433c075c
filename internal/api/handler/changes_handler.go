package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/storage"
)

var validCollections = map[string]bool{
	constants.CollectionApplicants: true,
	constants.CollectionJobOrders:  true,
	constants.CollectionClients:    true,
}

// ChangesHandler streams collection change events to connected UIs.
type ChangesHandler struct {
	storage *storage.Storage
}

func NewChangesHandler(st *storage.Storage) *ChangesHandler {
	return &ChangesHandler{storage: st}
}

// Stream handles GET /changes/:collection as server-sent events. The stream
// stays open until the client disconnects or the feed is lost.
func (h *ChangesHandler) Stream(ctx context.Context, c *app.RequestContext) {
	collection := c.Param("collection")
	if !validCollections[collection] {
		c.JSON(consts.StatusBadRequest, utils.H{"error": fmt.Sprintf("unknown collection %q", collection)})
		return
	}
	if h.storage.Redis == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "change feed is not available"})
		return
	}

	events, err := h.storage.Redis.SubscribeChanges(ctx, collection)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	c.SetStatusCode(consts.StatusOK)
	c.Response.Header.Set("Content-Type", "text/event-stream")
	c.Response.Header.Set("Cache-Control", "no-cache")

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		for event := range events {
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Warn().Err(err).Msg("could not serialize change event for stream")
				continue
			}
			if _, err := fmt.Fprintf(pw, "data: %s\n\n", payload); err != nil {
				return
			}
		}
	}()
	c.SetBodyStream(pr, -1)
}
