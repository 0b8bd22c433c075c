package types

// CandidateProfile is the structured result of parsing a resume document.
// Every field is optional; absence is an expected outcome, not an error.
type CandidateProfile struct {
	FullName        *string  `json:"fullName"`
	Email           *string  `json:"email"`
	Phone           *string  `json:"phone"`
	LinkedinURL     *string  `json:"linkedinUrl"`
	CurrentJobTitle *string  `json:"currentJobTitle"`
	CurrentCompany  *string  `json:"currentCompany"`
	Location        *string  `json:"location"`
	TotalYOE        *float64 `json:"totalYOE"`
	PrimarySkill    *string  `json:"primarySkill"`
	SecondarySkills []string `json:"secondarySkills"`
	DesiredSalary   *string  `json:"desiredSalary"`
}

// EmploymentPeriod is a single position's span as reported by the model.
// An empty End means the position is current.
type EmploymentPeriod struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	Start   string `json:"start"` // "2006-01" or "2006"
	End     string `json:"end"`   // same formats, or "" for present
}

// ParsedResume bundles a candidate profile with the non-blocking warnings
// accumulated during validation.
type ParsedResume struct {
	Profile  CandidateProfile `json:"profile"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Applicant is the persisted applicant record as exposed by the API and
// serialized into assistant/analyzer prompts.
type Applicant struct {
	ID              string   `json:"id"`
	FullName        string   `json:"fullName"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	LinkedinURL     string   `json:"linkedinUrl,omitempty"`
	CurrentJobTitle string   `json:"currentJobTitle"`
	CurrentCompany  string   `json:"currentCompany"`
	PrimarySkill    string   `json:"primarySkill"`
	SecondarySkills []string `json:"secondarySkills"`
	TotalYOE        float64  `json:"totalYOE"`
	Status          string   `json:"status"`
	Source          string   `json:"source"`
	DateApplied     string   `json:"dateApplied"`
	Location        string   `json:"location"`
	Availability    string   `json:"availability"`
	DesiredSalary   string   `json:"desiredSalary,omitempty"`
	ResumeKey       string   `json:"resumeKey,omitempty"` // object-store key
	Notes           string   `json:"notes,omitempty"`
	Rating          *int     `json:"rating,omitempty"` // AI rating 1-10
}

// JobOrder is an open requisition being staffed for a client.
type JobOrder struct {
	ID            string `json:"id"`
	JobTitle      string `json:"jobTitle"`
	ClientCompany string `json:"clientCompany"`
	HiringManager string `json:"hiringManager,omitempty"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	SalaryRange   string `json:"salaryRange"`
	FeeType       string `json:"feeType,omitempty"`
	DateOpened    string `json:"dateOpened"`
	Notes         string `json:"notes,omitempty"` // free-text responsibilities
}

// Client is a customer company of the agency.
type Client struct {
	ID           string `json:"id"`
	CompanyName  string `json:"companyName"`
	Industry     string `json:"industry"`
	Website      string `json:"website,omitempty"`
	Status       string `json:"status"`
	Location     string `json:"location"`
	FeeAgreement string `json:"feeAgreement,omitempty"`
	KeyContact   string `json:"keyContact,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Snapshot is a read-only view of the three collections, passed by value
// into each analysis or chat call. Callers build a fresh one per call; no
// process-wide shared state exists.
type Snapshot struct {
	Applicants []Applicant
	JobOrders  []JobOrder
	Clients    []Client
}

// JobMatch is one requisition the analyzer judged eligible and scored at or
// above the inclusion threshold.
type JobMatch struct {
	JobID      string `json:"jobId"`
	JobTitle   string `json:"jobTitle"`
	MatchScore int    `json:"matchScore"` // 65-100 after validation
	Reason     string `json:"matchReason"`
	Concerns   string `json:"concerns,omitempty"`
}

// CandidateAnalysis is the full analyzer output for one applicant.
type CandidateAnalysis struct {
	OverallRating    int        `json:"overallRating"` // 1-10, or 0 on the no-open-jobs fast path
	Pros             []string   `json:"pros"`
	DiscussionPoints []string   `json:"potentialDiscussionPoints"`
	Summary          string     `json:"summary"`
	JobMatches       []JobMatch `json:"jobMatches"`
	Warnings         []string   `json:"warnings,omitempty"`
}

// ChatRole is the speaker of a conversation turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChangeEvent is published on the Redis change feed after every mutation so
// connected UIs can refresh the affected collection.
type ChangeEvent struct {
	Collection string `json:"collection"`
	Op         string `json:"op"` // created, updated, deleted
	ID         string `json:"id"`
	At         int64  `json:"at"` // unix millis
}

// ApplicantCreatedEvent is the message published to RabbitMQ when a new
// applicant is stored. It carries the record's ID so the rating consumer
// never has to locate the row by name.
type ApplicantCreatedEvent struct {
	ApplicantID string `json:"applicant_id"`
	CreatedAt   int64  `json:"created_at"`
}
