// Package analyzer produces a hiring assessment for one applicant against
// the currently open requisitions.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/extract"
	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/types"
)

var analysisShape = &extract.Shape{
	Name: "candidate_analysis",
	Response: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overallRating": {Type: genai.TypeInteger},
			"pros":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"potentialDiscussionPoints": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"summary": {Type: genai.TypeString},
			"jobMatches": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"jobId":       {Type: genai.TypeString},
						"jobTitle":    {Type: genai.TypeString},
						"matchScore":  {Type: genai.TypeInteger},
						"matchReason": {Type: genai.TypeString},
						"concerns":    {Type: genai.TypeString},
					},
					Required: []string{"jobId", "matchScore", "matchReason"},
				},
			},
		},
		Required: []string{"overallRating", "pros", "potentialDiscussionPoints", "summary", "jobMatches"},
	},
	Document: `{
		"type": "object",
		"properties": {
			"overallRating": {"type": "integer"},
			"pros": {"type": "array", "items": {"type": "string"}},
			"potentialDiscussionPoints": {"type": "array", "items": {"type": "string"}},
			"summary": {"type": "string"},
			"jobMatches": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"jobId":       {"type": "string"},
						"jobTitle":    {"type": "string"},
						"matchScore":  {"type": "integer"},
						"matchReason": {"type": "string"},
						"concerns":    {"type": "string"}
					},
					"required": ["jobId", "matchScore", "matchReason"]
				}
			}
		},
		"required": ["overallRating", "pros", "potentialDiscussionPoints", "summary", "jobMatches"]
	}`,
}

const analysisInstructionFmt = `You are an experienced recruitment consultant assessing a candidate for a staffing agency.

CANDIDATE:
%s

OPEN REQUISITIONS:
%s

Produce a JSON assessment with exactly these fields:

1. "overallRating": integer 1-10, the candidate's general marketability across the agency's business. Weigh relevant, jurisdiction-appropriate experience above raw years of tenure: five years doing exactly this work locally outranks fifteen years of loosely related work elsewhere. A long overall track record mitigates recent short stints; do not penalize brief tenures when the total history is substantial.
2. "pros": %d to %d concise selling points drawn from the candidate's record.
3. "potentialDiscussionPoints": %d to %d topics to explore in a screening call, each phrased as a question to ask the candidate.
4. "summary": 2-3 sentences a recruiter could read aloud to a hiring manager.
5. "jobMatches": score the candidate against the open requisitions in two stages.
   Stage 1 (eligibility): a requisition is eligible only if the candidate's actual line of work could plausibly fill it. Judge semantically, not by keyword overlap: a "Litigation Paralegal" does not qualify for a "Payroll Clerk" role just because both mention "clerk" or "attention to detail". Discard ineligible requisitions silently.
   Stage 2 (fit score, eligible requisitions only): score 0-100 as a weighted blend of relevant experience (%d%%), skill overlap (%d%%), compensation and location alignment (%d%%), and seniority fit (%d%%).
   Include only requisitions scoring %d or higher. For each, give "jobId" and "jobTitle" exactly as listed above, "matchScore", a one-sentence "matchReason", and "concerns" (empty string if none).

Return only the JSON object.`

// ResumeSource fetches stored resume documents by object key.
type ResumeSource interface {
	FetchResume(ctx context.Context, key string) (data []byte, mediaType string, err error)
}

// Analyzer assesses applicants against open requisitions.
type Analyzer struct {
	gen         extract.Generator
	resumes     ResumeSource
	model       string
	temperature float64
	maxTokens   int
}

func New(gen extract.Generator, resumes ResumeSource, cfg *config.Config) *Analyzer {
	return &Analyzer{
		gen:         gen,
		resumes:     resumes,
		model:       cfg.GetModelForTask(constants.TaskApplicantAnalyze),
		temperature: cfg.Analyzer.Temperature,
		maxTokens:   cfg.Analyzer.MaxTokens,
	}
}

// OpenForMatching reports whether a requisition participates in matching.
func OpenForMatching(status string) bool {
	return status == constants.JobStatusOpen || status == constants.JobStatusInterviewing
}

// Analyze assesses the applicant against the snapshot's open requisitions.
// With zero open requisitions it returns a fixed empty assessment without
// calling the generation endpoint at all.
func (a *Analyzer) Analyze(ctx context.Context, applicant types.Applicant, snapshot types.Snapshot) (*types.CandidateAnalysis, error) {
	var open []types.JobOrder
	for _, job := range snapshot.JobOrders {
		if OpenForMatching(job.Status) {
			open = append(open, job)
		}
	}
	if len(open) == 0 {
		return &types.CandidateAnalysis{
			Pros:             []string{},
			DiscussionPoints: []string{"No open job orders available for matching"},
			Summary:          constants.NoOpenPositionsSummary,
			JobMatches:       []types.JobMatch{},
		}, nil
	}

	candidateJSON, err := json.MarshalIndent(applicant, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize applicant: %w", err)
	}
	jobsJSON, err := json.MarshalIndent(open, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize requisitions: %w", err)
	}

	instruction := fmt.Sprintf(analysisInstructionFmt,
		candidateJSON, jobsJSON,
		constants.MinPros, constants.MaxPros,
		constants.MinDiscussionPoints, constants.MaxDiscussionPoints,
		constants.WeightRelevantExperience, constants.WeightSkillOverlap,
		constants.WeightCompLocation, constants.WeightSeniority,
		constants.MatchScoreThreshold,
	)

	attachments, fetchWarnings := a.resumeAttachment(ctx, applicant)

	start := time.Now()
	raw, err := a.gen.GenerateStructured(ctx, extract.Request{
		Model:       a.model,
		Instruction: instruction,
		Attachments: attachments,
		Shape:       analysisShape,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	var analysis types.CandidateAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, &extract.Failure{Kind: extract.FailUnreadable, Reason: "analysis payload does not decode", Err: err}
	}

	analysis.Warnings = append(analysis.Warnings, fetchWarnings...)
	validate(&analysis, open)
	logger.Info().
		Str("applicant_id", applicant.ID).
		Int("open_jobs", len(open)).
		Int("matches", len(analysis.JobMatches)).
		Int("rating", analysis.OverallRating).
		Dur("elapsed", time.Since(start)).
		Msg("applicant analyzed")
	return &analysis, nil
}

// resumeAttachment fetches the applicant's stored resume for the assessment
// call. A missing or unfetchable document degrades to structured data only,
// recorded as a warning on the result.
func (a *Analyzer) resumeAttachment(ctx context.Context, applicant types.Applicant) ([]extract.Attachment, []string) {
	if a.resumes == nil || applicant.ResumeKey == "" {
		return nil, nil
	}
	data, mediaType, err := a.resumes.FetchResume(ctx, applicant.ResumeKey)
	if err != nil {
		logger.Warn().Str("applicant_id", applicant.ID).Str("resume_key", applicant.ResumeKey).Err(err).Msg("could not fetch resume for analysis")
		return nil, []string{"resume document could not be fetched; analysis used structured data only"}
	}
	if extract.ValidateMediaType(mediaType) != nil {
		return nil, []string{"stored resume has an unsupported media type; analysis used structured data only"}
	}
	return []extract.Attachment{{Data: data, MediaType: mediaType}}, nil
}

// validate enforces the output bounds the model was asked for but cannot be
// trusted to honor. Adjustments are recorded as warnings, never failures.
func validate(a *types.CandidateAnalysis, open []types.JobOrder) {
	if v, moved := extract.ClampInt(a.OverallRating, constants.MinOverallRating, constants.MaxOverallRating); moved {
		a.OverallRating = v
		a.Warnings = append(a.Warnings, "overall rating was out of range and clamped")
	}

	if list, cut := extract.Truncate(a.Pros, constants.MaxPros); cut {
		a.Pros = list
		a.Warnings = append(a.Warnings, fmt.Sprintf("pros truncated to %d", constants.MaxPros))
	}
	if list, cut := extract.Truncate(a.DiscussionPoints, constants.MaxDiscussionPoints); cut {
		a.DiscussionPoints = list
		a.Warnings = append(a.Warnings, fmt.Sprintf("discussion points truncated to %d", constants.MaxDiscussionPoints))
	}

	byID := make(map[string]types.JobOrder, len(open))
	for _, job := range open {
		byID[job.ID] = job
	}

	kept := a.JobMatches[:0]
	for _, m := range a.JobMatches {
		job, ok := byID[m.JobID]
		if !ok {
			a.Warnings = append(a.Warnings, fmt.Sprintf("dropped match for unknown requisition %q", m.JobID))
			continue
		}
		if m.MatchScore < constants.MatchScoreThreshold {
			a.Warnings = append(a.Warnings, fmt.Sprintf("dropped sub-threshold match for %q (%d)", job.JobTitle, m.MatchScore))
			continue
		}
		if m.MatchScore > 100 {
			m.MatchScore = 100
			a.Warnings = append(a.Warnings, fmt.Sprintf("match score for %q clamped to 100", job.JobTitle))
		}
		// The requisition list, not the model, is authoritative for titles.
		m.JobTitle = job.JobTitle
		kept = append(kept, m)
	}
	a.JobMatches = kept
	if a.JobMatches == nil {
		a.JobMatches = []types.JobMatch{}
	}
}
