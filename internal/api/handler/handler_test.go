package handler

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/email"
	"ats-agent-go/internal/extract"
	"ats-agent-go/internal/storage"
)

func newTestEngine() *route.Engine {
	return route.NewEngine(hertzconfig.NewOptions([]hertzconfig.Option{}))
}

func postJSON(t *testing.T, engine *route.Engine, path, body string) *ut.ResponseRecorder {
	t.Helper()
	return ut.PerformRequest(engine, "POST", path,
		&ut.Body{Body: bytes.NewBufferString(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&extract.Failure{Kind: extract.FailInvalidInput, Reason: "bad"}, consts.StatusBadRequest},
		{&extract.Failure{Kind: extract.FailRateLimit, Reason: "quota"}, consts.StatusTooManyRequests},
		{&extract.Failure{Kind: extract.FailUnreadable, Reason: "garbled"}, consts.StatusUnprocessableEntity},
		{&extract.Failure{Kind: extract.FailTransport, Reason: "down"}, consts.StatusBadGateway},
		{fmt.Errorf("applicant x: %w", storage.ErrNotFound), consts.StatusNotFound},
		{errors.New("anything else"), consts.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusForError(tc.err), tc.err.Error())
	}
}

func TestInviteValidation(t *testing.T) {
	h := NewInviteHandler(email.NewSender(&config.ResendConfig{APIKey: "re_key"}))
	engine := newTestEngine()
	engine.POST("/invites", h.Send)

	for _, body := range []string{
		`{"inviterName": "Alex"}`,
		`{"email": "not-an-email"}`,
		`not json`,
	} {
		w := postJSON(t, engine, "/invites", body)
		assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode(), body)
	}
}

func TestInviteWithoutConfiguredSender(t *testing.T) {
	h := NewInviteHandler(email.NewSender(&config.ResendConfig{}))
	engine := newTestEngine()
	engine.POST("/invites", h.Send)

	w := postJSON(t, engine, "/invites", `{"email": "new.hire@example.com", "inviterName": "Alex"}`)
	resp := w.Result()
	require.Equal(t, consts.StatusServiceUnavailable, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "not configured")
}

func TestChatRequiresMessage(t *testing.T) {
	h := NewChatHandler(nil, nil)
	engine := newTestEngine()
	engine.POST("/chat", h.Chat)

	w := postJSON(t, engine, "/chat", `{"sessionId": "s-1", "message": "   "}`)
	assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
}

func TestUploadResumeWithoutObjectStore(t *testing.T) {
	h := NewApplicantHandler(&storage.Storage{}, nil, nil)
	engine := newTestEngine()
	engine.POST("/applicants/:id/resume", h.UploadResume)

	w := ut.PerformRequest(engine, "POST", "/applicants/a-1/resume", nil)
	assert.Equal(t, consts.StatusServiceUnavailable, w.Result().StatusCode())
}

func TestChangesRejectsUnknownCollection(t *testing.T) {
	h := NewChangesHandler(&storage.Storage{})
	engine := newTestEngine()
	engine.GET("/changes/:collection", h.Stream)

	w := ut.PerformRequest(engine, "GET", "/changes/payroll", nil)
	resp := w.Result()
	require.Equal(t, consts.StatusBadRequest, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "unknown collection")
}

func TestChangesWithoutFeedBackend(t *testing.T) {
	h := NewChangesHandler(&storage.Storage{})
	engine := newTestEngine()
	engine.GET("/changes/:collection", h.Stream)

	w := ut.PerformRequest(engine, "GET", "/changes/applicants", nil)
	assert.Equal(t, consts.StatusServiceUnavailable, w.Result().StatusCode())
}
