package constants

// Task names used to select per-task models via config.
const (
	TaskResumeParse      = "resume_parse"
	TaskApplicantAnalyze = "applicant_analyze"
	TaskChatAssistant    = "chat_assistant"
)

// Job order lifecycle statuses. Only OpenForMatching statuses participate
// in candidate/job analysis.
const (
	JobStatusOpen         = "Open"
	JobStatusInterviewing = "Interviewing"
	JobStatusOnHold       = "On Hold"
	JobStatusPlaced       = "Placed"
	JobStatusCanceled     = "Canceled"
)

// Applicant pipeline statuses.
const (
	ApplicantStatusNew       = "New"
	ApplicantStatusScreening = "Screening"
	ApplicantStatusSubmitted = "Submitted"
	ApplicantStatusInterview = "Interview"
	ApplicantStatusOffer     = "Offer"
	ApplicantStatusPlaced    = "Placed"
	ApplicantStatusRejected  = "Rejected"
)

// Client statuses.
const (
	ClientStatusActive       = "Active Client"
	ClientStatusProspect     = "Prospect"
	ClientStatusPast         = "Past Client"
	ClientStatusDoNotContact = "Do Not Contact"
)

// Analyzer scoring parameters.
const (
	// MatchScoreThreshold is the minimum fit score a requisition must reach
	// to appear in the output at all.
	MatchScoreThreshold = 65

	// Fit score blend weights, in percent.
	WeightRelevantExperience = 40
	WeightSkillOverlap       = 30
	WeightCompLocation       = 20
	WeightSeniority          = 10

	MaxSecondarySkills  = 10
	MaxPros             = 5
	MinPros             = 3
	MaxDiscussionPoints = 4
	MinDiscussionPoints = 2
	MinOverallRating    = 1
	MaxOverallRating    = 10
)

// NoOpenPositionsSummary is the fixed narrative returned by the analyzer
// fast path when no requisitions are open for matching.
const NoOpenPositionsSummary = "No open positions available to match this candidate against."

// Redis key prefixes.
const (
	ChatMemoryPrefix = "chatmemory:"
	ChangeFeedPrefix = "ats:changes:" // + collection name
)

// Collection names used for change-feed publication.
const (
	CollectionApplicants = "applicants"
	CollectionJobOrders  = "jobOrders"
	CollectionClients    = "clients"
)
