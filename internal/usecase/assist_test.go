package usecase_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpathhq/clearpath/internal/domain"
	"github.com/clearpathhq/clearpath/internal/usecase"
)

type textAI struct {
	feedback string
	strategy string
	err      error
}

func (a *textAI) GenerateRejectionFeedback(ctx domain.Context, req domain.FeedbackRequest) (string, error) {
	return a.feedback, a.err
}

func (a *textAI) GenerateCareerStrategy(ctx domain.Context, currentSkills []string, targetRole string) (string, error) {
	return a.strategy, a.err
}

func (a *textAI) ScoreCandidateMatch(ctx domain.Context, cand domain.ExternalCandidate, job domain.Job) (domain.MatchResult, error) {
	return domain.MatchResult{}, a.err
}

func TestAssist_RejectionFeedback_UsesOracle(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAssistService(&textAI{feedback: "personalized note"})
	got, err := svc.RejectionFeedback(context.Background(), domain.FeedbackRequest{
		CandidateName: "Alex", JobTitle: "Backend Developer",
	})
	require.NoError(t, err)
	assert.Equal(t, "personalized note", got)
}

func TestAssist_RejectionFeedback_FallbackOnError(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAssistService(&textAI{err: fmt.Errorf("quota exceeded")})
	got, err := svc.RejectionFeedback(context.Background(), domain.FeedbackRequest{
		CandidateName: "Alex", JobTitle: "Backend Developer", Reasons: []string{"Go depth"},
	})
	require.NoError(t, err)
	assert.Contains(t, got, "Alex")
	assert.Contains(t, got, "Backend Developer")
	assert.Contains(t, got, "Go depth")
}

func TestAssist_RejectionFeedback_Validation(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAssistService(&textAI{})
	_, err := svc.RejectionFeedback(context.Background(), domain.FeedbackRequest{JobTitle: "x"})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAssist_CareerStrategy_FallbackOnError(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAssistService(&textAI{err: fmt.Errorf("timeout")})
	got, err := svc.CareerStrategy(context.Background(), []string{"Go"}, "Staff Engineer")
	require.NoError(t, err)
	assert.Contains(t, got, "Staff Engineer")

	_, err = svc.CareerStrategy(context.Background(), nil, "  ")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}
