package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

// Shape describes the target structure of one extraction. Response constrains
// the endpoint's decoding; Document is the JSON Schema used to re-validate
// whatever actually came back. Constraining generation does not guarantee a
// conforming payload, so both sides are always checked.
type Shape struct {
	Name     string
	Response *genai.Schema
	Document string

	// Shapes are package-level singletons validated from concurrent
	// requests; compilation must happen exactly once.
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
}

// Validate checks raw against the shape's JSON Schema document. A violation
// is an unreadable-output failure: retrying a shape violation on the same
// input rarely helps, and callers must not guess at missing structure.
func (s *Shape) Validate(raw []byte) error {
	if !json.Valid(raw) {
		return &Failure{Kind: FailUnreadable, Reason: fmt.Sprintf("%s: output is not valid JSON", s.Name)}
	}
	if s.Document == "" {
		return nil
	}
	s.compileOnce.Do(func() {
		s.compiled, s.compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(s.Document))
	})
	if s.compileErr != nil {
		return &Failure{Kind: FailUnreadable, Reason: fmt.Sprintf("%s: bad schema document", s.Name), Err: s.compileErr}
	}
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &Failure{Kind: FailUnreadable, Reason: fmt.Sprintf("%s: schema validation error", s.Name), Err: err}
	}
	if !result.Valid() {
		var problems []string
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}
		return &Failure{
			Kind:   FailUnreadable,
			Reason: fmt.Sprintf("%s: output violates shape: %s", s.Name, strings.Join(problems, "; ")),
		}
	}
	return nil
}

// ClampInt narrows v to [lo, hi] and reports whether it had to move.
func ClampInt(v, lo, hi int) (int, bool) {
	switch {
	case v < lo:
		return lo, true
	case v > hi:
		return hi, true
	default:
		return v, false
	}
}

// ClampFloat narrows v to [lo, hi] and reports whether it had to move.
func ClampFloat(v, lo, hi float64) (float64, bool) {
	switch {
	case v < lo:
		return lo, true
	case v > hi:
		return hi, true
	default:
		return v, false
	}
}

// Truncate drops elements past max. Over-long lists are recoverable noise,
// not a reason to discard an otherwise usable extraction.
func Truncate[T any](list []T, max int) ([]T, bool) {
	if max <= 0 || len(list) <= max {
		return list, false
	}
	return list[:max], true
}
