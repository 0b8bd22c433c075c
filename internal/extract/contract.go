// Package extract implements the schema-validated extraction contract shared
// by every call site that talks to the external generation endpoint. Callers
// hand it an instruction, at most one binary attachment and a target shape;
// they get back either a validated JSON payload or a typed failure. Nothing
// in this package persists or caches results.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ats-agent-go/internal/types"
)

// FailureKind classifies contract failures so callers can choose a retry
// policy and a user-facing message without string matching.
type FailureKind string

const (
	// FailTransport covers network and endpoint availability problems,
	// including per-call timeout expiry. Retryable.
	FailTransport FailureKind = "transport"

	// FailRateLimit is a quota or rate-limit rejection by the endpoint.
	// Retryable after a pause; surfaced as "try again shortly".
	FailRateLimit FailureKind = "rate_limit"

	// FailUnreadable means the model output could not be validated against
	// the declared shape at all. Not retryable.
	FailUnreadable FailureKind = "unreadable"

	// FailInvalidInput means the request itself was malformed, e.g. an
	// unrecognized attachment media type. Not retryable.
	FailInvalidInput FailureKind = "invalid_input"
)

// Failure is the typed error crossing the contract boundary. Partial
// extraction is never a Failure; it is a success carrying warnings.
type Failure struct {
	Kind   FailureKind
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("extraction %s: %s: %v", f.Kind, f.Reason, f.Err)
	}
	return fmt.Sprintf("extraction %s: %s", f.Kind, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Retryable reports whether err is a contract failure worth retrying.
func Retryable(err error) bool {
	var f *Failure
	if !errors.As(err, &f) {
		return false
	}
	return f.Kind == FailTransport || f.Kind == FailRateLimit
}

// KindOf returns the failure kind of err, or "" for non-contract errors.
func KindOf(err error) FailureKind {
	var f *Failure
	if !errors.As(err, &f) {
		return ""
	}
	return f.Kind
}

// Attachment is a binary document sent alongside the instruction.
type Attachment struct {
	Data      []byte
	MediaType string
}

// Request is one invocation of the generation endpoint.
type Request struct {
	Model       string
	System      string
	Instruction string
	Attachments []Attachment
	Shape       *Shape // nil for free-text generation
	History     []types.ChatMessage
	Temperature float64
	MaxTokens   int
}

// Generator is the outbound boundary to the generation endpoint. The real
// implementation is Gemini-backed; tests use the deterministic stub.
type Generator interface {
	// GenerateStructured performs schema-constrained generation and returns
	// the raw JSON after shape validation. The request must carry a Shape
	// and at most one attachment.
	GenerateStructured(ctx context.Context, req Request) (json.RawMessage, error)

	// GenerateText performs unconstrained text generation, optionally with
	// a transcript and attachments.
	GenerateText(ctx context.Context, req Request) (string, error)
}

// Accepted attachment media types. Anything else fails closed: the source
// system silently assumed PDF for unknown types, which hid real upload bugs.
var allowedMediaTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// ValidateMediaType rejects attachment types the endpoint cannot ingest.
func ValidateMediaType(mediaType string) error {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if !allowedMediaTypes[mt] {
		return &Failure{
			Kind:   FailInvalidInput,
			Reason: fmt.Sprintf("unsupported attachment media type %q (accepted: pdf, doc, docx, txt)", mediaType),
		}
	}
	return nil
}

func validateRequest(req Request, structured bool) error {
	if structured {
		if req.Shape == nil {
			return &Failure{Kind: FailInvalidInput, Reason: "structured generation requires a shape descriptor"}
		}
		if len(req.Attachments) > 1 {
			return &Failure{Kind: FailInvalidInput, Reason: "at most one attachment per structured extraction"}
		}
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return &Failure{Kind: FailInvalidInput, Reason: "instruction must not be empty"}
	}
	for _, att := range req.Attachments {
		if len(att.Data) == 0 {
			return &Failure{Kind: FailInvalidInput, Reason: "attachment data is empty"}
		}
		if err := ValidateMediaType(att.MediaType); err != nil {
			return err
		}
	}
	return nil
}

// extractJSON pulls the first balanced JSON object out of text. The schema-
// constrained endpoint normally returns bare JSON, but some models still wrap
// it in markdown fences or prose.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inStr:
			escaped = true
		case c == '"':
			inStr = !inStr
		case !inStr && c == '{':
			level++
		case !inStr && c == '}':
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
