package extract

import (
	"context"
	"encoding/json"
	"sync"
)

// StubGenerator is a deterministic Generator for tests. It replays canned
// responses in order and records every request it saw.
type StubGenerator struct {
	mu sync.Mutex

	// Responses are consumed one per call; when exhausted the last one
	// repeats. Err, when set, is returned instead.
	Responses []string
	Err       error

	// SkipValidation bypasses shape validation, for tests that exercise
	// downstream handling of raw payloads.
	SkipValidation bool

	CallCount int
	Requests  []Request
}

func (s *StubGenerator) record(req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	s.CallCount++
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Responses) == 0 {
		return "", &Failure{Kind: FailUnreadable, Reason: "stub has no responses configured"}
	}
	i := s.CallCount - 1
	if i >= len(s.Responses) {
		i = len(s.Responses) - 1
	}
	return s.Responses[i], nil
}

func (s *StubGenerator) GenerateStructured(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := validateRequest(req, true); err != nil {
		return nil, err
	}
	text, err := s.record(req)
	if err != nil {
		return nil, err
	}
	raw := extractJSON(text)
	if raw == "" {
		return nil, &Failure{Kind: FailUnreadable, Reason: "stub response has no JSON object"}
	}
	if !s.SkipValidation {
		if err := req.Shape.Validate([]byte(raw)); err != nil {
			return nil, err
		}
	}
	return json.RawMessage(raw), nil
}

func (s *StubGenerator) GenerateText(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(req, false); err != nil {
		return "", err
	}
	return s.record(req)
}
