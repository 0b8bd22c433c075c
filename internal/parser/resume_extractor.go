// Package parser turns raw resume documents into validated candidate
// profiles via the extraction contract.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/extract"
	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/types"
)

// rawProfile is what the model actually returns. It is wider than the public
// profile: statedTotalYears and employmentPeriods feed the experience policy
// and never leave this package.
type rawProfile struct {
	FullName          *string                  `json:"fullName"`
	Email             *string                  `json:"email"`
	Phone             *string                  `json:"phone"`
	LinkedinURL       *string                  `json:"linkedinUrl"`
	CurrentJobTitle   *string                  `json:"currentJobTitle"`
	CurrentCompany    *string                  `json:"currentCompany"`
	Location          *string                  `json:"location"`
	StatedTotalYears  *float64                 `json:"statedTotalYears"`
	EmploymentPeriods []types.EmploymentPeriod `json:"employmentPeriods"`
	PrimarySkill      *string                  `json:"primarySkill"`
	SecondarySkills   []string                 `json:"secondarySkills"`
	DesiredSalary     *string                  `json:"desiredSalary"`
}

var profileShape = &extract.Shape{
	Name: "candidate_profile",
	Response: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"fullName":         {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"email":            {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"phone":            {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"linkedinUrl":      {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"currentJobTitle":  {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"currentCompany":   {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"location":         {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"statedTotalYears": {Type: genai.TypeNumber, Nullable: genai.Ptr(true)},
			"employmentPeriods": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":   {Type: genai.TypeString},
						"company": {Type: genai.TypeString},
						"start":   {Type: genai.TypeString},
						"end":     {Type: genai.TypeString},
					},
					Required: []string{"start"},
				},
			},
			"primarySkill":    {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"secondarySkills": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"desiredSalary":   {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		},
	},
	Document: `{
		"type": "object",
		"properties": {
			"fullName":         {"type": ["string", "null"]},
			"email":            {"type": ["string", "null"]},
			"phone":            {"type": ["string", "null"]},
			"linkedinUrl":      {"type": ["string", "null"]},
			"currentJobTitle":  {"type": ["string", "null"]},
			"currentCompany":   {"type": ["string", "null"]},
			"location":         {"type": ["string", "null"]},
			"statedTotalYears": {"type": ["number", "null"]},
			"employmentPeriods": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"title":   {"type": "string"},
						"company": {"type": "string"},
						"start":   {"type": "string"},
						"end":     {"type": "string"}
					},
					"required": ["start"]
				}
			},
			"primarySkill":    {"type": ["string", "null"]},
			"secondarySkills": {"type": "array", "items": {"type": "string"}},
			"desiredSalary":   {"type": ["string", "null"]}
		}
	}`,
}

const extractionInstruction = `You are an expert resume parser for a recruitment agency. Read the attached resume document and extract the candidate's details.

Rules:
- Extract only information present in the document. Use null for anything the resume does not state.
- "statedTotalYears": only if the resume explicitly states a total amount of experience (e.g. "10+ years of experience"); otherwise null. Never compute it yourself.
- "employmentPeriods": every dated position, with "start" and "end" as "YYYY-MM" (or "YYYY" if only the year is given). Leave "end" empty for a current position.
- "primarySkill": the candidate's single strongest or most prominent skill.
- "secondarySkills": other notable skills, most important first.
- "linkedinUrl": full profile URL if present.
- "desiredSalary": verbatim, including currency, if stated.

Return only the JSON object.`

// ResumeExtractor parses resume documents into candidate profiles.
type ResumeExtractor struct {
	gen         extract.Generator
	model       string
	temperature float64
	maxTokens   int
	now         func() time.Time
}

func NewResumeExtractor(gen extract.Generator, cfg *config.Config) *ResumeExtractor {
	return &ResumeExtractor{
		gen:         gen,
		model:       cfg.GetModelForTask(constants.TaskResumeParse),
		temperature: cfg.Extractor.Temperature,
		maxTokens:   cfg.Extractor.MaxTokens,
		now:         time.Now,
	}
}

// Parse extracts a candidate profile from the document. The media type is
// checked before any network call; unsupported types fail closed. A profile
// missing both name and email still succeeds, with a warning attached.
func (e *ResumeExtractor) Parse(ctx context.Context, data []byte, mediaType string) (*types.ParsedResume, error) {
	if err := extract.ValidateMediaType(mediaType); err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := e.gen.GenerateStructured(ctx, extract.Request{
		Model:       e.model,
		Instruction: extractionInstruction,
		Attachments: []extract.Attachment{{Data: data, MediaType: mediaType}},
		Shape:       profileShape,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	var rp rawProfile
	if err := json.Unmarshal(raw, &rp); err != nil {
		return nil, &extract.Failure{Kind: extract.FailUnreadable, Reason: "profile payload does not decode", Err: err}
	}

	parsed := e.finalize(&rp)
	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("document_bytes", len(data)).
		Int("warnings", len(parsed.Warnings)).
		Msg("resume parsed")
	return parsed, nil
}

// finalize applies the post-extraction rules: string tidying, the experience
// policy, the skill cap and the identity warning.
func (e *ResumeExtractor) finalize(rp *rawProfile) *types.ParsedResume {
	var warnings []string

	profile := types.CandidateProfile{
		FullName:        tidy(rp.FullName),
		Email:           tidy(rp.Email),
		Phone:           tidy(rp.Phone),
		LinkedinURL:     tidy(rp.LinkedinURL),
		CurrentJobTitle: tidy(rp.CurrentJobTitle),
		CurrentCompany:  tidy(rp.CurrentCompany),
		Location:        tidy(rp.Location),
		PrimarySkill:    tidy(rp.PrimarySkill),
		DesiredSalary:   tidy(rp.DesiredSalary),
	}

	if rp.StatedTotalYears != nil {
		if v, moved := extract.ClampFloat(*rp.StatedTotalYears, 0, 60); moved {
			rp.StatedTotalYears = &v
			warnings = append(warnings, "stated years of experience was out of range and clamped")
		}
	}
	profile.TotalYOE = TotalYearsOfExperience(rp.StatedTotalYears, rp.EmploymentPeriods, e.now())

	skills := dedupSkills(rp.SecondarySkills)
	skills, cut := extract.Truncate(skills, constants.MaxSecondarySkills)
	if cut {
		warnings = append(warnings, fmt.Sprintf("secondary skills truncated to %d", constants.MaxSecondarySkills))
	}
	profile.SecondarySkills = skills

	if profile.FullName == nil && profile.Email == nil {
		warnings = append(warnings, "resume yielded neither a name nor an email address")
	}

	return &types.ParsedResume{Profile: profile, Warnings: warnings}
}

func tidy(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// dedupSkills drops case-insensitive duplicates, keeping first occurrences
// so the model's importance ordering survives.
func dedupSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	var out []string
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
