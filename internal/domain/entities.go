// Package domain holds the core entities, ports, and error taxonomy of
// ClearPath Recruit. It has no dependencies on adapters; everything here is
// either a value type or an interface implemented elsewhere.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrDuplicateApplication = errors.New("duplicate application")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrMissingFeedback      = errors.New("missing feedback")
	ErrIncompleteScheduling = errors.New("incomplete scheduling")
	ErrVersionConflict      = errors.New("version conflict")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInternal             = errors.New("internal error")
)

// Role enumerates user roles.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
)

// User is a registered candidate or recruiter. Company is set for recruiters
// only and scopes the jobs and reputation stats they own.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	Company      string
	AvatarURL    string
	PasswordHash string
	Skills       []string
	CreatedAt    time.Time
}

// Job is an employment listing. Immutable once created; never deleted.
type Job struct {
	ID               string
	Title            string
	Company          string
	Location         string
	Salary           string
	Description      string
	Requirements     []string
	Responsibilities []string
	PostedAt         time.Time
	Deadline         *time.Time
	CreatedBy        string
}

// ApplicationStatus enumerates lifecycle states of an application.
type ApplicationStatus string

const (
	StatusApplied      ApplicationStatus = "APPLIED"
	StatusReviewing    ApplicationStatus = "REVIEWING"
	StatusInterviewing ApplicationStatus = "INTERVIEWING"
	StatusScheduled    ApplicationStatus = "SCHEDULED"
	StatusRejected     ApplicationStatus = "REJECTED"
	StatusOffer        ApplicationStatus = "OFFER"
)

// Application is a candidate's submission against exactly one job.
// Invariants: at most one per (CandidateID, JobID); REJECTED carries non-empty
// Feedback; SCHEDULED carries both InterviewDate and InterviewTime; AIScore,
// when present, is within [0, 100]. Applications are never deleted; rejected
// and offered records remain as history for reputation scoring.
type Application struct {
	ID                 string
	JobID              string
	CandidateID        string
	CandidateName      string
	CandidateEmail     string
	AppliedAt          time.Time
	LastStatusUpdateAt *time.Time
	Status             ApplicationStatus
	Feedback           string
	ResumeHandle       string
	Skills             []string
	InterviewDate      string
	InterviewTime      string
	AIScore            *float64
	AIReason           string
	// Version guards read-modify-write races: Replace only succeeds when the
	// stored row still carries the version the caller read.
	Version int
}

// Tier is the coarse reputation classification shown on company badges.
type Tier string

const (
	TierNew        Tier = "New"
	TierResponsive Tier = "Responsive"
	TierConsistent Tier = "Consistent"
	TierElite      Tier = "Elite"
)

// ReputationStats is a derived, read-only projection over a set of
// applications. It has no identity and is recomputed on demand.
type ReputationStats struct {
	ResponseRate        float64 `json:"response_rate"`
	AvgResponseTimeDays float64 `json:"avg_response_time_days"`
	TotalApplications   int     `json:"total_applications"`
	TotalResponded      int     `json:"total_responded"`
	Tier                Tier    `json:"tier"`
}

// AgentStatus enumerates sourcing agent states.
type AgentStatus string

const (
	AgentActive AgentStatus = "active"
	AgentPaused AgentStatus = "paused"
)

// AgentCriteria describes what a sourcing agent scans for.
type AgentCriteria struct {
	Seniority string   `json:"seniority"`
	Industry  string   `json:"industry"`
	Skills    []string `json:"skills"`
}

// SourcingAgent is an autonomous scanner attached to one job.
type SourcingAgent struct {
	ID              string
	JobID           string
	Status          AgentStatus
	Criteria        AgentCriteria
	OutreachEnabled bool
	LastScanAt      *time.Time
	MatchesFound    int
}

// ExternalCandidate is a profile from the talent directory, not (yet) a user.
type ExternalCandidate struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Email       string   `yaml:"email"`
	Skills      []string `yaml:"skills"`
	Experience  string   `yaml:"experience"`
	CurrentRole string   `yaml:"current_role"`
	Location    string   `yaml:"location"`
}

// FeedbackRequest carries the inputs for AI rejection feedback generation.
type FeedbackRequest struct {
	CandidateName string
	JobTitle      string
	Reasons       []string
	Tone          string
}

// MatchResult is the AI oracle's verdict on a candidate/job pairing.
type MatchResult struct {
	Score  float64
	Reason string
}

// StatusChangeEvent is emitted after every successful lifecycle transition.
type StatusChangeEvent struct {
	ApplicationID string            `json:"application_id"`
	JobID         string            `json:"job_id"`
	CandidateID   string            `json:"candidate_id"`
	From          ApplicationStatus `json:"from"`
	To            ApplicationStatus `json:"to"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// ScanTaskPayload asks the worker to run one sourcing agent's scan.
type ScanTaskPayload struct {
	AgentID string `json:"agent_id"`
	JobID   string `json:"job_id"`
}

// Repositories (ports)

type UserRepository interface {
	Create(ctx Context, u User) (string, error)
	Get(ctx Context, id string) (User, error)
	GetByEmail(ctx Context, email string) (User, error)
}

type JobRepository interface {
	Create(ctx Context, j Job) (string, error)
	Get(ctx Context, id string) (Job, error)
	List(ctx Context) ([]Job, error)
	ListByCompany(ctx Context, company string) ([]Job, error)
}

// ApplicationRepository owns application persistence. Replace performs a
// compare-and-swap on Version and returns ErrVersionConflict when the stored
// record moved underneath the caller.
type ApplicationRepository interface {
	Create(ctx Context, a Application) (string, error)
	Get(ctx Context, id string) (Application, error)
	Replace(ctx Context, a Application) error
	ListByJob(ctx Context, jobID string) ([]Application, error)
	ListByCandidate(ctx Context, candidateID string) ([]Application, error)
	ListByCompany(ctx Context, company string) ([]Application, error)
	FindByCandidateAndJob(ctx Context, candidateID, jobID string) (Application, error)
}

type AgentRepository interface {
	Create(ctx Context, a SourcingAgent) (string, error)
	Get(ctx Context, id string) (SourcingAgent, error)
	List(ctx Context) ([]SourcingAgent, error)
	ListActive(ctx Context) ([]SourcingAgent, error)
	Update(ctx Context, a SourcingAgent) error
}

// ResumeStore persists uploaded resume bytes and returns an opaque handle.
// The core never interprets the handle.
type ResumeStore interface {
	Store(ctx Context, filename string, data []byte) (string, error)
}

// AIClient is the text/score generation oracle. Implementations may fail;
// callers degrade to deterministic fallbacks rather than propagating errors
// into the lifecycle core.
type AIClient interface {
	GenerateRejectionFeedback(ctx Context, req FeedbackRequest) (string, error)
	GenerateCareerStrategy(ctx Context, currentSkills []string, targetRole string) (string, error)
	ScoreCandidateMatch(ctx Context, cand ExternalCandidate, job Job) (MatchResult, error)
}

// EventPublisher (port)

type EventPublisher interface {
	PublishStatusChange(ctx Context, ev StatusChangeEvent) error
	EnqueueScan(ctx Context, task ScanTaskPayload) (string, error)
}

// ExternalCandidateSource lists profiles available to sourcing scans.
type ExternalCandidateSource interface {
	List(ctx Context) ([]ExternalCandidate, error)
}

// Context is an alias to context.Context kept so the domain package reads
// uniformly; adapters and usecases pass the standard context through.
type Context = context.Context
