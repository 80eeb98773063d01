package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpathhq/clearpath/internal/domain"
)

func newTestApp(status domain.ApplicationStatus) domain.Application {
	return domain.Application{
		ID:             "app-1",
		JobID:          "job-1",
		CandidateID:    "cand-1",
		CandidateName:  "Alex Johnson",
		CandidateEmail: "alex@example.com",
		AppliedAt:      time.Now().UTC().Add(-48 * time.Hour),
		Status:         status,
		Skills:         []string{"Go", "PostgreSQL"},
		Version:        1,
	}
}

func TestAdvance_HappyPath(t *testing.T) {
	t.Parallel()
	app := newTestApp(domain.StatusApplied)

	app, err := domain.Advance(app, domain.StatusReviewing, domain.AdvanceOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReviewing, app.Status)
	require.NotNil(t, app.LastStatusUpdateAt)
	assert.False(t, app.LastStatusUpdateAt.Before(app.AppliedAt))
	assert.Equal(t, 2, app.Version)

	app, err = domain.Advance(app, domain.StatusInterviewing, domain.AdvanceOptions{})
	require.NoError(t, err)

	app, err = domain.Advance(app, domain.StatusScheduled, domain.AdvanceOptions{
		InterviewDate: "2024-11-05",
		InterviewTime: "10:30 AM",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, app.Status)
	assert.Equal(t, "2024-11-05", app.InterviewDate)
	assert.Equal(t, "10:30 AM", app.InterviewTime)
	assert.Equal(t, 4, app.Version)
}

func TestAdvance_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	orig := newTestApp(domain.StatusApplied)
	_, err := domain.Advance(orig, domain.StatusReviewing, domain.AdvanceOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, orig.Status)
	assert.Nil(t, orig.LastStatusUpdateAt)
	assert.Equal(t, 1, orig.Version)
}

func TestAdvance_RejectedRequiresFeedback(t *testing.T) {
	t.Parallel()
	app := newTestApp(domain.StatusReviewing)

	_, err := domain.Advance(app, domain.StatusRejected, domain.AdvanceOptions{})
	require.ErrorIs(t, err, domain.ErrMissingFeedback)

	_, err = domain.Advance(app, domain.StatusRejected, domain.AdvanceOptions{Feedback: "   \t"})
	require.ErrorIs(t, err, domain.ErrMissingFeedback)

	got, err := domain.Advance(app, domain.StatusRejected, domain.AdvanceOptions{Feedback: "  not enough SaaS design experience  "})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Equal(t, "not enough SaaS design experience", got.Feedback)
}

func TestAdvance_ScheduledRequiresDateAndTime(t *testing.T) {
	t.Parallel()
	app := newTestApp(domain.StatusInterviewing)

	_, err := domain.Advance(app, domain.StatusScheduled, domain.AdvanceOptions{InterviewDate: "2024-11-05"})
	require.ErrorIs(t, err, domain.ErrIncompleteScheduling)

	_, err = domain.Advance(app, domain.StatusScheduled, domain.AdvanceOptions{InterviewTime: "10:30 AM"})
	require.ErrorIs(t, err, domain.ErrIncompleteScheduling)
}

func TestAdvance_TransitionTableCompleteness(t *testing.T) {
	t.Parallel()
	all := []domain.ApplicationStatus{
		domain.StatusApplied, domain.StatusReviewing, domain.StatusInterviewing,
		domain.StatusScheduled, domain.StatusRejected, domain.StatusOffer,
	}
	allowed := map[[2]domain.ApplicationStatus]bool{
		{domain.StatusApplied, domain.StatusReviewing}:         true,
		{domain.StatusApplied, domain.StatusRejected}:          true,
		{domain.StatusApplied, domain.StatusOffer}:             true,
		{domain.StatusReviewing, domain.StatusInterviewing}:    true,
		{domain.StatusReviewing, domain.StatusRejected}:        true,
		{domain.StatusReviewing, domain.StatusOffer}:           true,
		{domain.StatusInterviewing, domain.StatusScheduled}:    true,
		{domain.StatusInterviewing, domain.StatusRejected}:     true,
		{domain.StatusInterviewing, domain.StatusOffer}:        true,
	}
	opts := domain.AdvanceOptions{Feedback: "x", InterviewDate: "2024-11-05", InterviewTime: "10:30 AM"}
	for _, from := range all {
		for _, to := range all {
			_, err := domain.Advance(newTestApp(from), to, opts)
			if allowed[[2]domain.ApplicationStatus{from, to}] {
				assert.NoError(t, err, "%s -> %s should be legal", from, to)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s -> %s should be illegal", from, to)
			}
		}
	}
}

func TestAdvance_TerminalStatesAreFinal(t *testing.T) {
	t.Parallel()
	for _, s := range []domain.ApplicationStatus{domain.StatusRejected, domain.StatusOffer, domain.StatusScheduled} {
		assert.True(t, domain.IsTerminal(s), "%s should be terminal", s)
	}
	assert.False(t, domain.IsTerminal(domain.StatusApplied))
}

func TestDefaultNextStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		from domain.ApplicationStatus
		want domain.ApplicationStatus
		ok   bool
	}{
		{domain.StatusApplied, domain.StatusReviewing, true},
		{domain.StatusReviewing, domain.StatusInterviewing, true},
		{domain.StatusInterviewing, domain.StatusOffer, true},
		{domain.StatusScheduled, "", false},
		{domain.StatusRejected, "", false},
		{domain.StatusOffer, "", false},
	}
	for _, tc := range cases {
		got, ok := domain.DefaultNextStatus(tc.from)
		assert.Equal(t, tc.ok, ok, "from %s", tc.from)
		assert.Equal(t, tc.want, got, "from %s", tc.from)
	}
}

func TestNewSourcedApplication_ScoreBounds(t *testing.T) {
	t.Parallel()
	job := domain.Job{ID: "job-1", Title: "Backend Developer (Go)"}
	cand := domain.ExternalCandidate{ID: "x1", Name: "Jordan Lee", Email: "jordan@example.com", Skills: []string{"Go"}}

	_, err := domain.NewSourcedApplication(job, cand, 101, "too good")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = domain.NewSourcedApplication(job, cand, -1, "negative")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	app, err := domain.NewSourcedApplication(job, cand, 84, "strong overlap on Go and infra work")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, app.Status)
	require.NotNil(t, app.AIScore)
	assert.InDelta(t, 84, *app.AIScore, 0.0001)
	assert.Equal(t, "strong overlap on Go and infra work", app.AIReason)
}
