package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/extract"
	"ats-agent-go/internal/types"
)

var testApplicant = types.Applicant{
	ID:              "app-1",
	FullName:        "Jane Doe",
	CurrentJobTitle: "Litigation Paralegal",
	PrimarySkill:    "Litigation Support",
	SecondarySkills: []string{"eDiscovery", "Westlaw"},
	TotalYOE:        8,
	Status:          "New",
}

func snapshotWith(jobs ...types.JobOrder) types.Snapshot {
	return types.Snapshot{JobOrders: jobs}
}

func TestAnalyzeNoOpenJobsSkipsEndpoint(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{`{}`}}
	a := New(stub, nil, config.DefaultConfig())

	snap := snapshotWith(
		types.JobOrder{ID: "job-1", JobTitle: "Paralegal", Status: constants.JobStatusPlaced},
		types.JobOrder{ID: "job-2", JobTitle: "Clerk", Status: constants.JobStatusOnHold},
	)
	analysis, err := a.Analyze(context.Background(), testApplicant, snap)
	require.NoError(t, err)
	assert.Equal(t, 0, stub.CallCount, "fast path must not hit the endpoint")
	assert.Equal(t, constants.NoOpenPositionsSummary, analysis.Summary)
	assert.Empty(t, analysis.JobMatches)
	assert.Zero(t, analysis.OverallRating)
	assert.Equal(t, []string{"No open job orders available for matching"}, analysis.DiscussionPoints)
}

func TestAnalyzeOnlyOpenJobsReachThePrompt(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{`{
		"overallRating": 8,
		"pros": ["Strong litigation background", "Current tooling", "Stable tenure"],
		"potentialDiscussionPoints": ["What is your salary expectation?", "Are you open to hybrid work?"],
		"summary": "A well-qualified litigation paralegal. Ready to submit.",
		"jobMatches": [
			{"jobId": "job-open", "jobTitle": "Litigation Paralegal", "matchScore": 88, "matchReason": "Direct experience match.", "concerns": ""}
		]
	}`}}
	a := New(stub, nil, config.DefaultConfig())

	snap := snapshotWith(
		types.JobOrder{ID: "job-open", JobTitle: "Litigation Paralegal", Status: constants.JobStatusOpen},
		types.JobOrder{ID: "job-interviewing", JobTitle: "Legal Secretary", Status: constants.JobStatusInterviewing},
		types.JobOrder{ID: "job-closed", JobTitle: "Office Manager", Status: constants.JobStatusCanceled},
	)
	analysis, err := a.Analyze(context.Background(), testApplicant, snap)
	require.NoError(t, err)
	require.Equal(t, 1, stub.CallCount)

	prompt := stub.Requests[0].Instruction
	assert.Contains(t, prompt, "job-open")
	assert.Contains(t, prompt, "job-interviewing")
	assert.NotContains(t, prompt, "job-closed", "closed requisitions must not be offered for matching")
	assert.Contains(t, prompt, "Stage 1 (eligibility)", "semantic eligibility gate must precede scoring")
	assert.Contains(t, prompt, "jurisdiction-appropriate experience above raw years")
	assert.Contains(t, prompt, "mitigates recent short stints")

	assert.Equal(t, 8, analysis.OverallRating)
	require.Len(t, analysis.JobMatches, 1)
	assert.Equal(t, "job-open", analysis.JobMatches[0].JobID)
}

func TestValidateDropsAndClamps(t *testing.T) {
	open := []types.JobOrder{
		{ID: "job-1", JobTitle: "Litigation Paralegal", Status: constants.JobStatusOpen},
		{ID: "job-2", JobTitle: "Corporate Paralegal", Status: constants.JobStatusOpen},
	}
	analysis := &types.CandidateAnalysis{
		OverallRating:    14,
		Pros:             []string{"a", "b", "c", "d", "e", "f", "g"},
		DiscussionPoints: []string{"q1?", "q2?", "q3?", "q4?", "q5?"},
		Summary:          "fine",
		JobMatches: []types.JobMatch{
			{JobID: "job-1", JobTitle: "Wrong Title", MatchScore: 120, Reason: "great"},
			{JobID: "job-2", MatchScore: 64, Reason: "close but under threshold"},
			{JobID: "job-hallucinated", MatchScore: 99, Reason: "made up"},
		},
	}

	validate(analysis, open)

	assert.Equal(t, constants.MaxOverallRating, analysis.OverallRating)
	assert.Len(t, analysis.Pros, constants.MaxPros)
	assert.Len(t, analysis.DiscussionPoints, constants.MaxDiscussionPoints)
	require.Len(t, analysis.JobMatches, 1)
	assert.Equal(t, "job-1", analysis.JobMatches[0].JobID)
	assert.Equal(t, 100, analysis.JobMatches[0].MatchScore)
	assert.Equal(t, "Litigation Paralegal", analysis.JobMatches[0].JobTitle, "requisition list is authoritative for titles")
	assert.NotEmpty(t, analysis.Warnings)
}

type fakeResumeSource struct {
	data      []byte
	mediaType string
	err       error
}

func (f *fakeResumeSource) FetchResume(ctx context.Context, key string) ([]byte, string, error) {
	return f.data, f.mediaType, f.err
}

const minimalAnalysisResponse = `{
	"overallRating": 6,
	"pros": ["Solid background", "Available now", "Local"],
	"potentialDiscussionPoints": ["When can you start?", "What is your rate?"],
	"summary": "Usable profile.",
	"jobMatches": []
}`

func TestAnalyzeAttachesStoredResume(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{minimalAnalysisResponse}}
	resumes := &fakeResumeSource{data: []byte("%PDF-1.4 jane"), mediaType: "application/pdf"}
	a := New(stub, resumes, config.DefaultConfig())

	applicant := testApplicant
	applicant.ResumeKey = "resumes/jane.pdf"
	snap := snapshotWith(types.JobOrder{ID: "job-1", JobTitle: "Paralegal", Status: constants.JobStatusOpen})

	analysis, err := a.Analyze(context.Background(), applicant, snap)
	require.NoError(t, err)
	require.Len(t, stub.Requests[0].Attachments, 1)
	assert.Equal(t, "application/pdf", stub.Requests[0].Attachments[0].MediaType)
	assert.Empty(t, analysis.Warnings)
}

func TestAnalyzeDegradesWhenResumeFetchFails(t *testing.T) {
	stub := &extract.StubGenerator{Responses: []string{minimalAnalysisResponse}}
	resumes := &fakeResumeSource{err: context.DeadlineExceeded}
	a := New(stub, resumes, config.DefaultConfig())

	applicant := testApplicant
	applicant.ResumeKey = "resumes/jane.pdf"
	snap := snapshotWith(types.JobOrder{ID: "job-1", JobTitle: "Paralegal", Status: constants.JobStatusOpen})

	analysis, err := a.Analyze(context.Background(), applicant, snap)
	require.NoError(t, err, "a lost document must not block the assessment")
	require.Equal(t, 1, stub.CallCount)
	assert.Empty(t, stub.Requests[0].Attachments)
	assert.Contains(t, analysis.Warnings, "resume document could not be fetched; analysis used structured data only")
}

func TestAnalyzePropagatesFailures(t *testing.T) {
	stub := &extract.StubGenerator{Err: &extract.Failure{Kind: extract.FailTransport, Reason: "down"}}
	a := New(stub, nil, config.DefaultConfig())

	snap := snapshotWith(types.JobOrder{ID: "job-1", JobTitle: "Paralegal", Status: constants.JobStatusOpen})
	_, err := a.Analyze(context.Background(), testApplicant, snap)
	require.Error(t, err)
	assert.Equal(t, extract.FailTransport, extract.KindOf(err))
}
