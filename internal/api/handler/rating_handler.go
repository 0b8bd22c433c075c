package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"ats-agent-go/internal/rating"
)

// RatingHandler triggers bulk rating sweeps.
type RatingHandler struct {
	worker *rating.Worker
}

func NewRatingHandler(w *rating.Worker) *RatingHandler {
	return &RatingHandler{worker: w}
}

// Generate handles POST /ratings/generate: rates every currently unrated
// applicant and reports the sweep's outcome. The sweep is paced by the
// model's quota, so large backlogs take a while; the request context keeps
// the sweep cancelable.
func (h *RatingHandler) Generate(ctx context.Context, c *app.RequestContext) {
	result, err := h.worker.RateBacklog(ctx)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"considered": result.Considered,
		"rated":      result.Rated,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
		"elapsedMs":  result.Elapsed.Milliseconds(),
	})
}
