package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clearpathhq/clearpath/internal/domain"
)

func respondedApp(afterDays float64) domain.Application {
	applied := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	updated := applied.Add(time.Duration(afterDays * 24 * float64(time.Hour)))
	return domain.Application{
		AppliedAt:          applied,
		LastStatusUpdateAt: &updated,
		Status:             domain.StatusReviewing,
		Version:            2,
	}
}

func unansweredApp() domain.Application {
	return domain.Application{
		AppliedAt: time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC),
		Status:    domain.StatusApplied,
		Version:   1,
	}
}

func TestScoreReputation_EmptySet(t *testing.T) {
	t.Parallel()
	stats := domain.ScoreReputation(nil)
	assert.Equal(t, domain.TierNew, stats.Tier)
	assert.Zero(t, stats.ResponseRate)
	assert.Zero(t, stats.TotalApplications)
}

func TestScoreReputation_EliteTier(t *testing.T) {
	t.Parallel()
	apps := make([]domain.Application, 0, 6)
	for i := 0; i < 6; i++ {
		apps = append(apps, respondedApp(1))
	}
	stats := domain.ScoreReputation(apps)
	assert.InDelta(t, 100, stats.ResponseRate, 0.0001)
	assert.InDelta(t, 1, stats.AvgResponseTimeDays, 0.0001)
	assert.Equal(t, 6, stats.TotalResponded)
	assert.Equal(t, domain.TierElite, stats.Tier)
}

func TestScoreReputation_ConsistentWhenSlow(t *testing.T) {
	t.Parallel()
	// 100% response rate but a 5-day average keeps the company out of Elite.
	apps := make([]domain.Application, 0, 6)
	for i := 0; i < 6; i++ {
		apps = append(apps, respondedApp(5))
	}
	stats := domain.ScoreReputation(apps)
	assert.InDelta(t, 100, stats.ResponseRate, 0.0001)
	assert.Equal(t, domain.TierConsistent, stats.Tier)
}

func TestScoreReputation_ResponsiveBand(t *testing.T) {
	t.Parallel()
	// 5 of 7 responded = ~71.4%.
	apps := []domain.Application{
		respondedApp(2), respondedApp(2), respondedApp(2),
		respondedApp(2), respondedApp(2),
		unansweredApp(), unansweredApp(),
	}
	stats := domain.ScoreReputation(apps)
	assert.InDelta(t, 71.428, stats.ResponseRate, 0.01)
	assert.Equal(t, domain.TierResponsive, stats.Tier)
}

func TestScoreReputation_SmallSampleStaysNew(t *testing.T) {
	t.Parallel()
	// Perfect behavior over 3 applications is still too little history.
	apps := []domain.Application{respondedApp(1), respondedApp(1), respondedApp(1)}
	stats := domain.ScoreReputation(apps)
	assert.InDelta(t, 100, stats.ResponseRate, 0.0001)
	assert.Equal(t, domain.TierNew, stats.Tier)
}

func TestScoreReputation_LowRateStaysNew(t *testing.T) {
	t.Parallel()
	apps := []domain.Application{
		respondedApp(1),
		unansweredApp(), unansweredApp(), unansweredApp(), unansweredApp(), unansweredApp(),
	}
	stats := domain.ScoreReputation(apps)
	assert.InDelta(t, 16.666, stats.ResponseRate, 0.01)
	assert.Equal(t, 1, stats.TotalResponded)
	assert.Equal(t, domain.TierNew, stats.Tier)
}

func TestScoreReputation_IgnoresNonPositiveDeltas(t *testing.T) {
	t.Parallel()
	applied := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	same := applied
	apps := []domain.Application{
		{AppliedAt: applied, LastStatusUpdateAt: &same, Status: domain.StatusRejected, Feedback: "n/a"},
		respondedApp(2),
	}
	stats := domain.ScoreReputation(apps)
	// The zero-delta record counts toward the rate but not the average.
	assert.InDelta(t, 100, stats.ResponseRate, 0.0001)
	assert.InDelta(t, 2, stats.AvgResponseTimeDays, 0.0001)
}

func TestScoreReputation_Deterministic(t *testing.T) {
	t.Parallel()
	apps := []domain.Application{respondedApp(1), respondedApp(3), unansweredApp()}
	first := domain.ScoreReputation(apps)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, domain.ScoreReputation(apps))
	}
}

func TestScoreReputation_MoreResponsesNeverLowerRate(t *testing.T) {
	t.Parallel()
	apps := []domain.Application{
		respondedApp(2), respondedApp(2), respondedApp(2), respondedApp(2),
		unansweredApp(), unansweredApp(),
	}
	before := domain.ScoreReputation(apps)
	// Answering one previously unanswered application can only raise the rate.
	apps[4] = respondedApp(2)
	after := domain.ScoreReputation(apps)
	assert.Greater(t, after.ResponseRate, before.ResponseRate)
}
