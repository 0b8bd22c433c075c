package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/storage"
	"ats-agent-go/internal/types"
)

// JobHandler serves job order CRUD.
type JobHandler struct {
	storage *storage.Storage
}

func NewJobHandler(st *storage.Storage) *JobHandler {
	return &JobHandler{storage: st}
}

func (h *JobHandler) Create(ctx context.Context, c *app.RequestContext) {
	var job types.JobOrder
	if err := c.BindJSON(&job); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid job order payload"})
		return
	}
	if job.JobTitle == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "jobTitle is required"})
		return
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = constants.JobStatusOpen
	}
	if job.DateOpened == "" {
		job.DateOpened = time.Now().Format("2006-01-02")
	}

	if err := h.storage.MySQL.CreateJobOrder(ctx, &job); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	h.publishChange(ctx, "created", job.ID)
	c.JSON(consts.StatusCreated, job)
}

func (h *JobHandler) List(ctx context.Context, c *app.RequestContext) {
	jobs, err := h.storage.MySQL.ListJobOrders(ctx)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, jobs)
}

func (h *JobHandler) Get(ctx context.Context, c *app.RequestContext) {
	job, err := h.storage.MySQL.GetJobOrder(ctx, c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, job)
}

func (h *JobHandler) Update(ctx context.Context, c *app.RequestContext) {
	var job types.JobOrder
	if err := c.BindJSON(&job); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid job order payload"})
		return
	}
	job.ID = c.Param("id")

	if err := h.storage.MySQL.UpdateJobOrder(ctx, &job); err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	h.publishChange(ctx, "updated", job.ID)
	c.JSON(consts.StatusOK, job)
}

func (h *JobHandler) Delete(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if err := h.storage.MySQL.DeleteJobOrder(ctx, id); err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	h.publishChange(ctx, "deleted", id)
	c.JSON(consts.StatusOK, utils.H{"deleted": id})
}

func (h *JobHandler) publishChange(ctx context.Context, op, id string) {
	if h.storage.Redis != nil {
		h.storage.Redis.PublishChange(ctx, constants.CollectionJobOrders, op, id)
	}
}
