package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/extract"
	"ats-agent-go/internal/types"
)

type fakeResumeSource struct {
	docs    map[string][]byte
	fetched []string
	err     error
}

func (f *fakeResumeSource) FetchResume(ctx context.Context, key string) ([]byte, string, error) {
	f.fetched = append(f.fetched, key)
	if f.err != nil {
		return nil, "", f.err
	}
	data, ok := f.docs[key]
	if !ok {
		return nil, "", errors.New("no such object")
	}
	return data, "application/pdf", nil
}

func testSnapshot() types.Snapshot {
	return types.Snapshot{
		Applicants: []types.Applicant{
			{ID: "app-1", FullName: "Jane Doe", ResumeKey: "resumes/jane.pdf", Status: "New"},
			{ID: "app-2", FullName: "Sam Lee", ResumeKey: "resumes/sam.pdf", Status: "Screening"},
			{ID: "app-3", FullName: "No Resume", Status: "New"},
		},
		JobOrders: []types.JobOrder{{ID: "job-1", JobTitle: "Paralegal", Status: "Open"}},
		Clients:   []types.Client{{ID: "cli-1", CompanyName: "Smith & Associates", Status: "Active Client"}},
	}
}

func newTestAssistant(stub *extract.StubGenerator, resumes ResumeSource) *Assistant {
	return New(stub, NewInMemoryChatMemory(20), resumes, config.DefaultConfig())
}

func TestChatGroundsPromptInSnapshot(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{"There are 3 applicants."}}
	a := newTestAssistant(stub, &fakeResumeSource{})

	reply, err := a.Chat(context.Background(), "sess-1", "How many applicants do we have?", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "There are 3 applicants.", reply)

	require.Equal(t, 1, stub.CallCount)
	system := stub.Requests[0].System
	assert.Contains(t, system, "Jane Doe")
	assert.Contains(t, system, "Paralegal")
	assert.Contains(t, system, "Smith & Associates")
	assert.Empty(t, stub.Requests[0].Attachments, "no resume cue, no attachments")
}

func TestChatTranscriptRoundTrip(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{"first", "second"}}
	a := newTestAssistant(stub, &fakeResumeSource{})
	ctx := context.Background()

	_, err := a.Chat(ctx, "sess-1", "hello", testSnapshot())
	require.NoError(t, err)
	_, err = a.Chat(ctx, "sess-1", "and again", testSnapshot())
	require.NoError(t, err)

	// The second call must have seen the first exchange as history.
	require.Equal(t, 2, stub.CallCount)
	history := stub.Requests[1].History
	require.Len(t, history, 2)
	assert.Equal(t, types.ChatMessage{Role: types.RoleUser, Content: "hello"}, history[0])
	assert.Equal(t, types.ChatMessage{Role: types.RoleAssistant, Content: "first"}, history[1])
}

func TestChatHistoryIsBounded(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{"ok"}}
	a := newTestAssistant(stub, &fakeResumeSource{})
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := a.Chat(ctx, "sess-1", fmt.Sprintf("message %d", i), testSnapshot())
		require.NoError(t, err)
	}

	last := stub.Requests[len(stub.Requests)-1]
	assert.LessOrEqual(t, len(last.History), 20, "at most 10 turns of history")
}

func TestChatAttachesNamedResumes(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{"summarized"}}
	resumes := &fakeResumeSource{docs: map[string][]byte{
		"resumes/jane.pdf": []byte("%PDF jane"),
		"resumes/sam.pdf":  []byte("%PDF sam"),
	}}
	a := newTestAssistant(stub, resumes)

	_, err := a.Chat(context.Background(), "sess-1", "Summarize Jane Doe's resume", testSnapshot())
	require.NoError(t, err)

	require.Equal(t, 1, stub.CallCount)
	require.Len(t, stub.Requests[0].Attachments, 1)
	assert.Equal(t, []byte("%PDF jane"), stub.Requests[0].Attachments[0].Data)
	assert.Equal(t, []string{"resumes/jane.pdf"}, resumes.fetched)
}

func TestChatSystemPromptCarriesFormattingRules(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{"ok"}}
	a := newTestAssistant(stub, &fakeResumeSource{})

	_, err := a.Chat(context.Background(), "sess-1", "list our clients", testSnapshot())
	require.NoError(t, err)

	system := stub.Requests[0].System
	assert.Contains(t, system, "Do not use markdown")
	assert.Contains(t, system, "plain dashes (-)")
	assert.Contains(t, system, "full name only")
}

func TestChatGenericResumeQuestionAttachesAvailableResumes(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{"summarized"}}
	resumes := &fakeResumeSource{docs: map[string][]byte{
		"resumes/jane.pdf": []byte("%PDF jane"),
		"resumes/sam.pdf":  []byte("%PDF sam"),
	}}
	a := newTestAssistant(stub, resumes)

	_, err := a.Chat(context.Background(), "sess-1", "summarize the resumes we have on file", testSnapshot())
	require.NoError(t, err)

	// No applicant is named, so the applicants that have a resume ride along.
	require.Len(t, stub.Requests[0].Attachments, 2)
	assert.Equal(t, []string{"resumes/jane.pdf", "resumes/sam.pdf"}, resumes.fetched)
}

func TestChatResumeCueDetection(t *testing.T) {
	positives := []string{
		"show me Jane Doe's resume",
		"what does her CV say",
		"curriculum vitae for Sam Lee",
		"walk me through his work history",
	}
	for _, msg := range positives {
		assert.True(t, WantsResumeContext(msg), msg)
	}

	negatives := []string{
		"how many open jobs do we have",
		"is the Acme invoice paid",
		"convert this to csv format",
	}
	for _, msg := range negatives {
		assert.False(t, WantsResumeContext(msg), msg)
	}
}

func TestChatResumeFetchFailureDegrades(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{"answered from records"}}
	resumes := &fakeResumeSource{err: errors.New("object store down")}
	a := newTestAssistant(stub, resumes)

	reply, err := a.Chat(context.Background(), "sess-1", "Summarize Jane Doe's resume", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "answered from records", reply)
	assert.Empty(t, stub.Requests[0].Attachments)
}

func TestChatGenerationFailureYieldsApology(t *testing.T) {
	stub := &extract.StubGenerator{Err: &extract.Failure{Kind: extract.FailRateLimit, Reason: "quota"}}
	memory := NewInMemoryChatMemory(20)
	a := New(stub, memory, &fakeResumeSource{}, config.DefaultConfig())

	reply, err := a.Chat(context.Background(), "sess-1", "hello", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, apologyBusy, reply)

	// The failed exchange is still on the transcript.
	history, err := memory.History(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, apologyBusy, history[1].Content)
}

func TestInMemoryChatMemoryBound(t *testing.T) {
	m := NewInMemoryChatMemory(4)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		require.NoError(t, m.Append(ctx, "s", types.ChatMessage{Role: types.RoleUser, Content: fmt.Sprintf("m%d", i)}))
	}
	history, err := m.History(ctx, "s")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "m2", history[0].Content)
	require.NoError(t, m.Clear(ctx, "s"))
	history, err = m.History(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, history)
}
