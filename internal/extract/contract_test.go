package extract

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"ats-agent-go/internal/types"
)

var personShape = &Shape{
	Name: "person",
	Response: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name": {Type: genai.TypeString},
			"age":  {Type: genai.TypeInteger},
		},
		Required: []string{"name"},
	},
	Document: `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age":  {"type": "integer"}
		},
		"required": ["name"]
	}`,
}

func TestValidateMediaType(t *testing.T) {
	accepted := []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
		"Application/PDF",
		"text/plain; charset=utf-8",
	}
	for _, mt := range accepted {
		assert.NoError(t, ValidateMediaType(mt), mt)
	}

	rejected := []string{"image/png", "application/octet-stream", "", "text/html"}
	for _, mt := range rejected {
		err := ValidateMediaType(mt)
		require.Error(t, err, mt)
		assert.Equal(t, FailInvalidInput, KindOf(err))
		assert.False(t, Retryable(err))
	}
}

func TestShapeValidate(t *testing.T) {
	require.NoError(t, personShape.Validate([]byte(`{"name":"Ada","age":36}`)))

	err := personShape.Validate([]byte(`{"age":36}`))
	require.Error(t, err)
	assert.Equal(t, FailUnreadable, KindOf(err))

	err = personShape.Validate([]byte(`not json`))
	require.Error(t, err)
	assert.Equal(t, FailUnreadable, KindOf(err))
}

func TestShapeValidateConcurrentFirstUse(t *testing.T) {
	shape := &Shape{Name: "person", Document: personShape.Document}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, shape.Validate([]byte(`{"name":"Ada"}`)))
		}()
	}
	wg.Wait()
}

func TestGenerateStructuredValidatesOutput(t *testing.T) {
	stub := &StubGenerator{Responses: []string{"```json\n{\"name\":\"Ada\",\"age\":36}\n```"}}

	raw, err := stub.GenerateStructured(context.Background(), Request{
		Model:       "test-model",
		Instruction: "extract the person",
		Shape:       personShape,
	})
	require.NoError(t, err)

	var got struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, 36, got.Age)
	assert.Equal(t, 1, stub.CallCount)
}

func TestGenerateStructuredRejectsShapeViolation(t *testing.T) {
	stub := &StubGenerator{Responses: []string{`{"age": 36}`}}

	_, err := stub.GenerateStructured(context.Background(), Request{
		Model:       "test-model",
		Instruction: "extract the person",
		Shape:       personShape,
	})
	require.Error(t, err)
	assert.Equal(t, FailUnreadable, KindOf(err))
	assert.False(t, Retryable(err))
}

func TestGenerateStructuredRejectsBadRequests(t *testing.T) {
	stub := &StubGenerator{Responses: []string{`{"name":"Ada"}`}}
	ctx := context.Background()

	_, err := stub.GenerateStructured(ctx, Request{Model: "m", Instruction: "x"})
	assert.Equal(t, FailInvalidInput, KindOf(err))

	_, err = stub.GenerateStructured(ctx, Request{Model: "m", Instruction: "", Shape: personShape})
	assert.Equal(t, FailInvalidInput, KindOf(err))

	_, err = stub.GenerateStructured(ctx, Request{
		Model:       "m",
		Instruction: "x",
		Shape:       personShape,
		Attachments: []Attachment{{Data: []byte("a"), MediaType: "image/png"}},
	})
	assert.Equal(t, FailInvalidInput, KindOf(err))

	// Validation failures must not reach the endpoint.
	assert.Equal(t, 0, stub.CallCount)
}

func TestHistoryContentsRoleMapping(t *testing.T) {
	contents := historyContents([]types.ChatMessage{
		{Role: types.RoleUser, Content: "who is available?"},
		{Role: types.RoleAssistant, Content: "Two applicants are in screening."},
	})
	require.Len(t, contents, 2)
	assert.EqualValues(t, genai.RoleUser, contents[0].Role)
	assert.EqualValues(t, genai.RoleModel, contents[1].Role)
}

func TestFailureTaxonomy(t *testing.T) {
	transport := &Failure{Kind: FailTransport, Reason: "dial"}
	rate := &Failure{Kind: FailRateLimit, Reason: "quota"}
	unreadable := &Failure{Kind: FailUnreadable, Reason: "garbled"}

	assert.True(t, Retryable(transport))
	assert.True(t, Retryable(rate))
	assert.False(t, Retryable(unreadable))
	assert.False(t, Retryable(errors.New("plain")))
	assert.Equal(t, FailureKind(""), KindOf(errors.New("plain")))

	wrapped := &Failure{Kind: FailTransport, Reason: "outer", Err: errors.New("inner")}
	assert.ErrorContains(t, wrapped, "inner")
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                              `{"a":1}`,
		"```json\n{\"a\":1}\n```":              `{"a":1}`,
		`prefix {"a":{"b":"}"}} suffix`:        `{"a":{"b":"}"}}`,
		`the answer is {"a":"quoted \" brace"}`: `{"a":"quoted \" brace"}`,
		`no json here`:                         "",
		`{"unterminated":`:                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, extractJSON(in), in)
	}
}

func TestClampAndTruncate(t *testing.T) {
	v, moved := ClampInt(12, 1, 10)
	assert.Equal(t, 10, v)
	assert.True(t, moved)

	v, moved = ClampInt(5, 1, 10)
	assert.Equal(t, 5, v)
	assert.False(t, moved)

	f, moved := ClampFloat(-0.5, 0, 50)
	assert.Equal(t, 0.0, f)
	assert.True(t, moved)

	list, cut := Truncate([]string{"a", "b", "c"}, 2)
	assert.Equal(t, []string{"a", "b"}, list)
	assert.True(t, cut)

	list, cut = Truncate([]string{"a"}, 2)
	assert.Equal(t, []string{"a"}, list)
	assert.False(t, cut)
}
