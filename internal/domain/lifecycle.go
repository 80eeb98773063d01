package domain

import (
	"fmt"
	"strings"
	"time"
)

// transitions is the authoritative state table. A status missing from the map
// is terminal. SCHEDULED is reachable only from INTERVIEWING; REJECTED and
// OFFER are reachable from every non-terminal state.
var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusApplied:      {StatusReviewing, StatusRejected, StatusOffer},
	StatusReviewing:    {StatusInterviewing, StatusRejected, StatusOffer},
	StatusInterviewing: {StatusScheduled, StatusRejected, StatusOffer},
}

// CanTransition reports whether the state table allows from -> to.
func CanTransition(from, to ApplicationStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is defined for s.
func IsTerminal(s ApplicationStatus) bool {
	return len(transitions[s]) == 0
}

// DefaultNextStatus is the "move forward" mapping used by one-click advance
// actions. Scheduling an interview is an explicit parallel path out of
// INTERVIEWING, not part of the default chain.
func DefaultNextStatus(current ApplicationStatus) (ApplicationStatus, bool) {
	switch current {
	case StatusApplied:
		return StatusReviewing, true
	case StatusReviewing:
		return StatusInterviewing, true
	case StatusInterviewing:
		return StatusOffer, true
	default:
		return "", false
	}
}

// AdvanceOptions carries the target-dependent payload for a transition.
type AdvanceOptions struct {
	Feedback      string
	InterviewDate string
	InterviewTime string
}

// NewApplication constructs an APPLIED application for a candidate submission.
// The repository assigns the ID on create.
func NewApplication(job Job, candidate User, resumeHandle string, skills []string) Application {
	return Application{
		JobID:          job.ID,
		CandidateID:    candidate.ID,
		CandidateName:  candidate.Name,
		CandidateEmail: candidate.Email,
		AppliedAt:      time.Now().UTC(),
		Status:         StatusApplied,
		ResumeHandle:   resumeHandle,
		Skills:         skills,
		Version:        1,
	}
}

// NewSourcedApplication constructs an APPLIED application for an external
// candidate inserted by a sourcing scan, carrying the AI match verdict.
func NewSourcedApplication(job Job, cand ExternalCandidate, score float64, reason string) (Application, error) {
	if score < 0 || score > 100 {
		return Application{}, fmt.Errorf("%w: ai score %v out of [0,100]", ErrInvalidArgument, score)
	}
	s := score
	return Application{
		JobID:          job.ID,
		CandidateID:    cand.ID,
		CandidateName:  cand.Name,
		CandidateEmail: cand.Email,
		AppliedAt:      time.Now().UTC(),
		Status:         StatusApplied,
		Skills:         cand.Skills,
		AIScore:        &s,
		AIReason:       reason,
		Version:        1,
	}, nil
}

// Advance validates and applies a single lifecycle transition, returning a new
// Application value. The input is never mutated, so concurrent readers of the
// old value never observe a partial update. On failure the typed error
// identifies which invariant blocked the transition.
func Advance(app Application, target ApplicationStatus, opts AdvanceOptions) (Application, error) {
	if !CanTransition(app.Status, target) {
		return Application{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, app.Status, target)
	}
	switch target {
	case StatusRejected:
		if strings.TrimSpace(opts.Feedback) == "" {
			return Application{}, fmt.Errorf("%w: rejection requires feedback", ErrMissingFeedback)
		}
	case StatusScheduled:
		if opts.InterviewDate == "" || opts.InterviewTime == "" {
			return Application{}, fmt.Errorf("%w: both interview date and time required", ErrIncompleteScheduling)
		}
	}

	next := app
	next.Status = target
	now := time.Now().UTC()
	next.LastStatusUpdateAt = &now
	next.Version = app.Version + 1
	switch target {
	case StatusRejected:
		next.Feedback = strings.TrimSpace(opts.Feedback)
	case StatusScheduled:
		next.InterviewDate = opts.InterviewDate
		next.InterviewTime = opts.InterviewTime
	}
	return next, nil
}
