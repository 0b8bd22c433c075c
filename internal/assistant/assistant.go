// Package assistant implements the recruiting chat assistant: a stateless
// generation call per message, grounded in a snapshot of the three
// collections and a bounded per-session transcript.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/extract"
	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/types"
)

// ResumeSource fetches stored resume documents by object key.
type ResumeSource interface {
	FetchResume(ctx context.Context, key string) (data []byte, mediaType string, err error)
}

const systemPromptFmt = `You are the AI assistant of a recruitment agency's applicant tracking system. Answer questions about the agency's applicants, job orders and clients using only the data below. Be concise and factual; when asked for lists, use the records' exact names and titles. If the data cannot answer the question, say so.

FORMATTING RULES:
- Plain text only. Do not use markdown or any markup syntax such as **bold**, *italic* or # headers.
- For lists, use plain dashes (-) or simple indentation.
- Separate sections with line breaks; label them with a word and a colon (e.g. "Candidates:").
- Refer to people by full name only, never by record ID.

APPLICANTS (%d):
%s

JOB ORDERS (%d):
%s

CLIENTS (%d):
%s`

const (
	apologyGeneric = "I'm sorry, I ran into a problem answering that. Please try again in a moment."
	apologyBusy    = "I'm handling a lot of requests right now. Please try again shortly."
)

// resumeCues gate resume attachment: only messages that actually talk about
// resumes pay the cost of pulling documents from object storage. "cv" is
// matched as a whole word separately to avoid firing inside other words.
var resumeCues = []string{"resume", "résumé", "curriculum vitae", "work history"}

// Assistant answers recruiter questions over live ATS data.
type Assistant struct {
	gen            extract.Generator
	memory         ChatMemory
	resumes        ResumeSource
	model          string
	temperature    float64
	maxTokens      int
	historyTurns   int
	maxResumeFiles int
}

func New(gen extract.Generator, memory ChatMemory, resumes ResumeSource, cfg *config.Config) *Assistant {
	return &Assistant{
		gen:            gen,
		memory:         memory,
		resumes:        resumes,
		model:          cfg.GetModelForTask(constants.TaskChatAssistant),
		temperature:    cfg.Assistant.Temperature,
		maxTokens:      cfg.Assistant.MaxTokens,
		historyTurns:   cfg.Assistant.HistoryTurns,
		maxResumeFiles: cfg.Assistant.MaxResumeFiles,
	}
}

// Chat answers one user message. The reply and the user message are both
// recorded in the session transcript. Generation failures degrade to an
// apology reply rather than an error; only transcript storage problems are
// returned as errors.
func (a *Assistant) Chat(ctx context.Context, sessionID, message string, snap types.Snapshot) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("empty message")
	}

	history, err := a.memory.History(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if max := a.historyTurns * 2; max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}

	system, err := buildSystemPrompt(snap)
	if err != nil {
		return "", err
	}

	var attachments []extract.Attachment
	if WantsResumeContext(message) {
		attachments = a.resumeAttachments(ctx, message, snap.Applicants)
	}

	start := time.Now()
	reply, genErr := a.gen.GenerateText(ctx, extract.Request{
		Model:       a.model,
		System:      system,
		Instruction: message,
		History:     history,
		Attachments: attachments,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if genErr != nil {
		logger.Error().Str("session_id", sessionID).Err(genErr).Msg("assistant generation failed")
		if extract.KindOf(genErr) == extract.FailRateLimit {
			reply = apologyBusy
		} else {
			reply = apologyGeneric
		}
	} else {
		logger.Info().
			Str("session_id", sessionID).
			Int("history_messages", len(history)).
			Int("resume_attachments", len(attachments)).
			Dur("elapsed", time.Since(start)).
			Msg("assistant replied")
	}

	if err := a.memory.Append(ctx, sessionID,
		types.ChatMessage{Role: types.RoleUser, Content: message},
		types.ChatMessage{Role: types.RoleAssistant, Content: reply},
	); err != nil {
		return "", err
	}
	return reply, nil
}

// WantsResumeContext reports whether the message asks about resume content.
func WantsResumeContext(message string) bool {
	m := strings.ToLower(message)
	for _, cue := range resumeCues {
		if strings.Contains(m, cue) {
			return true
		}
	}
	for _, word := range strings.FieldsFunc(m, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if word == "cv" {
			return true
		}
	}
	return false
}

// resumeAttachments pulls stored resumes for the chat call, up to the
// configured cap: the resumes of applicants named in the message, or, when
// no name matches, the first applicants that have one on file. A fetch
// failure skips that document; the chat still proceeds on structured data.
func (a *Assistant) resumeAttachments(ctx context.Context, message string, applicants []types.Applicant) []extract.Attachment {
	if a.resumes == nil {
		return nil
	}
	lower := strings.ToLower(message)

	var named, withResume []types.Applicant
	for _, app := range applicants {
		if app.ResumeKey == "" {
			continue
		}
		withResume = append(withResume, app)
		if app.FullName != "" && strings.Contains(lower, strings.ToLower(app.FullName)) {
			named = append(named, app)
		}
	}
	candidates := named
	if len(candidates) == 0 {
		candidates = withResume
	}

	var attachments []extract.Attachment
	for _, app := range candidates {
		if len(attachments) >= a.maxResumeFiles {
			break
		}
		data, mediaType, err := a.resumes.FetchResume(ctx, app.ResumeKey)
		if err != nil {
			logger.Warn().Str("applicant_id", app.ID).Str("resume_key", app.ResumeKey).Err(err).Msg("could not fetch resume for chat context")
			continue
		}
		if extract.ValidateMediaType(mediaType) != nil {
			continue
		}
		attachments = append(attachments, extract.Attachment{Data: data, MediaType: mediaType})
	}
	return attachments
}

func buildSystemPrompt(snap types.Snapshot) (string, error) {
	applicants, err := json.Marshal(snap.Applicants)
	if err != nil {
		return "", fmt.Errorf("serialize applicants: %w", err)
	}
	jobs, err := json.Marshal(snap.JobOrders)
	if err != nil {
		return "", fmt.Errorf("serialize job orders: %w", err)
	}
	clients, err := json.Marshal(snap.Clients)
	if err != nil {
		return "", fmt.Errorf("serialize clients: %w", err)
	}
	return fmt.Sprintf(systemPromptFmt,
		len(snap.Applicants), applicants,
		len(snap.JobOrders), jobs,
		len(snap.Clients), clients,
	), nil
}
