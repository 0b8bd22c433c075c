// Package handler holds the HTTP handlers for the ATS API.
package handler

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ats-agent-go/internal/analyzer"
	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/extract"
	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/parser"
	"ats-agent-go/internal/storage"
	"ats-agent-go/internal/tracing"
	"ats-agent-go/internal/types"
)

// ApplicantHandler serves applicant CRUD, resume parsing and analysis.
type ApplicantHandler struct {
	storage   *storage.Storage
	extractor *parser.ResumeExtractor
	analyzer  *analyzer.Analyzer
}

func NewApplicantHandler(st *storage.Storage, extractor *parser.ResumeExtractor, an *analyzer.Analyzer) *ApplicantHandler {
	return &ApplicantHandler{storage: st, extractor: extractor, analyzer: an}
}

// statusForError maps contract failures onto HTTP statuses.
func statusForError(err error) int {
	switch extract.KindOf(err) {
	case extract.FailInvalidInput:
		return consts.StatusBadRequest
	case extract.FailRateLimit:
		return consts.StatusTooManyRequests
	case extract.FailUnreadable:
		return consts.StatusUnprocessableEntity
	case extract.FailTransport:
		return consts.StatusBadGateway
	}
	if errors.Is(err, storage.ErrNotFound) {
		return consts.StatusNotFound
	}
	return consts.StatusInternalServerError
}

// ParseResume handles POST /resume/parse: multipart upload in, parsed
// profile out. The document is stored in the object store; its key rides
// along so a subsequent applicant create can reference it.
func (h *ApplicantHandler) ParseResume(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "file field is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "could not open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "could not read uploaded file"})
		return
	}

	mediaType := fileHeader.Header.Get("Content-Type")
	if err := extract.ValidateMediaType(mediaType); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}

	parsed, err := h.extractor.Parse(ctx, data, mediaType)
	if err != nil {
		tracing.RecordError(trace.SpanFromContext(ctx), err, tracing.ErrorTypeGeneration)
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}

	resumeKey := ""
	if h.storage.MinIO != nil {
		resumeKey, err = h.storage.MinIO.StoreResume(ctx, fileHeader.Filename, data, mediaType)
		if err != nil {
			// The parse succeeded; losing the stored copy is reported but
			// does not void the result.
			logger.Error().Err(err).Msg("could not store parsed resume")
			resumeKey = ""
		}
	}

	c.JSON(consts.StatusOK, utils.H{
		"profile":   parsed.Profile,
		"warnings":  parsed.Warnings,
		"resumeKey": resumeKey,
	})
}

// Create handles POST /applicants. On success it publishes the change event
// and the applicant-created event that triggers asynchronous rating.
func (h *ApplicantHandler) Create(ctx context.Context, c *app.RequestContext) {
	var applicant types.Applicant
	if err := c.BindJSON(&applicant); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid applicant payload"})
		return
	}
	if applicant.FullName == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "fullName is required"})
		return
	}
	if applicant.ID == "" {
		applicant.ID = uuid.NewString()
	}
	if applicant.Status == "" {
		applicant.Status = constants.ApplicantStatusNew
	}
	if applicant.DateApplied == "" {
		applicant.DateApplied = time.Now().Format("2006-01-02")
	}

	if err := h.storage.MySQL.CreateApplicant(ctx, &applicant); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	h.publishChange(ctx, "created", applicant.ID)

	if h.storage.RabbitMQ != nil {
		if err := h.storage.RabbitMQ.PublishApplicantCreated(ctx, applicant.ID); err != nil {
			logger.Error().Str("applicant_id", applicant.ID).Err(err).Msg("could not publish applicant created event")
		}
	}

	c.JSON(consts.StatusCreated, applicant)
}

func (h *ApplicantHandler) List(ctx context.Context, c *app.RequestContext) {
	applicants, err := h.storage.MySQL.ListApplicants(ctx)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, applicants)
}

func (h *ApplicantHandler) Get(ctx context.Context, c *app.RequestContext) {
	applicant, err := h.storage.MySQL.GetApplicant(ctx, c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, applicant)
}

func (h *ApplicantHandler) Update(ctx context.Context, c *app.RequestContext) {
	var applicant types.Applicant
	if err := c.BindJSON(&applicant); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid applicant payload"})
		return
	}
	applicant.ID = c.Param("id")

	if err := h.storage.MySQL.UpdateApplicant(ctx, &applicant); err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	h.publishChange(ctx, "updated", applicant.ID)
	c.JSON(consts.StatusOK, applicant)
}

func (h *ApplicantHandler) Delete(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")

	applicant, err := h.storage.MySQL.GetApplicant(ctx, id)
	if err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	if err := h.storage.MySQL.DeleteApplicant(ctx, id); err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	if applicant.ResumeKey != "" && h.storage.MinIO != nil {
		if err := h.storage.MinIO.DeleteResume(ctx, applicant.ResumeKey); err != nil {
			logger.Warn().Str("resume_key", applicant.ResumeKey).Err(err).Msg("orphaned resume document")
		}
	}
	h.publishChange(ctx, "deleted", id)
	c.JSON(consts.StatusOK, utils.H{"deleted": id})
}

// UploadResume handles POST /applicants/:id/resume: attaches a resume
// document to an existing applicant, replacing any previous one.
func (h *ApplicantHandler) UploadResume(ctx context.Context, c *app.RequestContext) {
	if h.storage.MinIO == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "resume storage is not available"})
		return
	}
	applicant, err := h.storage.MySQL.GetApplicant(ctx, c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "file field is required"})
		return
	}
	mediaType := fileHeader.Header.Get("Content-Type")
	if err := extract.ValidateMediaType(mediaType); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "could not open uploaded file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "could not read uploaded file"})
		return
	}

	key, err := h.storage.MinIO.StoreResume(ctx, fileHeader.Filename, data, mediaType)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	previous := applicant.ResumeKey
	applicant.ResumeKey = key
	if err := h.storage.MySQL.UpdateApplicant(ctx, applicant); err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	if previous != "" && previous != key {
		if err := h.storage.MinIO.DeleteResume(ctx, previous); err != nil {
			logger.Warn().Str("resume_key", previous).Err(err).Msg("orphaned resume document")
		}
	}
	h.publishChange(ctx, "updated", applicant.ID)
	c.JSON(consts.StatusOK, utils.H{"resumeKey": key})
}

// ResumeURL handles GET /applicants/:id/resume-url: a presigned download
// link for the stored resume document.
func (h *ApplicantHandler) ResumeURL(ctx context.Context, c *app.RequestContext) {
	applicant, err := h.storage.MySQL.GetApplicant(ctx, c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	if applicant.ResumeKey == "" || h.storage.MinIO == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "no resume on file"})
		return
	}
	url, err := h.storage.MinIO.PresignResume(ctx, applicant.ResumeKey)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"url": url})
}

// Analyze handles POST /applicants/:id/analyze.
func (h *ApplicantHandler) Analyze(ctx context.Context, c *app.RequestContext) {
	applicant, err := h.storage.MySQL.GetApplicant(ctx, c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	snapshot, err := h.storage.MySQL.Snapshot(ctx)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	analysis, err := h.analyzer.Analyze(ctx, *applicant, snapshot)
	if err != nil {
		tracing.RecordErrorWithInfo(trace.SpanFromContext(ctx), err, tracing.ErrorTypeGeneration,
			attribute.String("applicant.id", applicant.ID))
		c.JSON(statusForError(err), utils.H{"error": err.Error()})
		return
	}
	// The fast path rates nobody; only a real rating is persisted.
	if analysis.OverallRating > 0 {
		if err := h.storage.MySQL.SetApplicantRating(ctx, applicant.ID, analysis.OverallRating); err != nil {
			logger.Error().Str("applicant_id", applicant.ID).Err(err).Msg("could not persist rating")
		} else {
			h.publishChange(ctx, "updated", applicant.ID)
		}
	}
	c.JSON(consts.StatusOK, analysis)
}

func (h *ApplicantHandler) publishChange(ctx context.Context, op, id string) {
	if h.storage.Redis != nil {
		h.storage.Redis.PublishChange(ctx, constants.CollectionApplicants, op, id)
	}
}
