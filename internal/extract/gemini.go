package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/types"
)

// GeminiGenerator is the production Generator backed by the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	callTimeout time.Duration
}

// NewGeminiGenerator dials the Gemini API. callTimeout bounds every
// individual generation call; zero means no per-call bound beyond the
// caller's context.
func NewGeminiGenerator(ctx context.Context, apiKey string, callTimeout time.Duration) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, callTimeout: callTimeout}, nil
}

func (g *GeminiGenerator) GenerateStructured(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := validateRequest(req, true); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Shape.Response,
	}
	applyTuning(cfg, req)

	text, err := g.call(ctx, req, cfg)
	if err != nil {
		return nil, err
	}

	raw := extractJSON(text)
	if raw == "" {
		return nil, &Failure{Kind: FailUnreadable, Reason: fmt.Sprintf("%s: no JSON object in model output", req.Shape.Name)}
	}
	if err := req.Shape.Validate([]byte(raw)); err != nil {
		logger.Warn().Str("shape", req.Shape.Name).Err(err).Msg("model output failed shape validation")
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(req, false); err != nil {
		return "", err
	}
	cfg := &genai.GenerateContentConfig{}
	applyTuning(cfg, req)

	text, err := g.call(ctx, req, cfg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (g *GeminiGenerator) call(ctx context.Context, req Request, cfg *genai.GenerateContentConfig) (string, error) {
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	contents := historyContents(req.History)

	parts := []*genai.Part{genai.NewPartFromText(req.Instruction)}
	for _, att := range req.Attachments {
		parts = append(parts, genai.NewPartFromBytes(att.Data, att.MediaType))
	}
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", classify(err)
	}
	text := resp.Text()
	logger.Debug().
		Str("model", req.Model).
		Dur("elapsed", time.Since(start)).
		Int("output_chars", len(text)).
		Msg("generation call completed")
	if text == "" {
		return "", &Failure{Kind: FailUnreadable, Reason: "model returned an empty response"}
	}
	return text, nil
}

func applyTuning(cfg *genai.GenerateContentConfig, req Request) {
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
}

func historyContents(history []types.ChatMessage) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range history {
		var role genai.Role = genai.RoleUser
		if msg.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

// classify maps endpoint errors onto the contract's failure taxonomy. Rate
// limiting is kept distinct from generic transport failure so the rating
// worker can pause instead of burning retries.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Failure{Kind: FailTransport, Reason: "generation call timed out", Err: err}
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return &Failure{Kind: FailRateLimit, Reason: "generation endpoint rate limited", Err: err}
		case apiErr.Code >= 500:
			return &Failure{Kind: FailTransport, Reason: "generation endpoint unavailable", Err: err}
		default:
			return &Failure{Kind: FailInvalidInput, Reason: fmt.Sprintf("generation endpoint rejected request (%d)", apiErr.Code), Err: err}
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "rate limit"), strings.Contains(msg, "quota"):
		return &Failure{Kind: FailRateLimit, Reason: "generation endpoint rate limited", Err: err}
	default:
		return &Failure{Kind: FailTransport, Reason: "generation call failed", Err: err}
	}
}
