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

type stubAgentRepo struct {
	agents map[string]domain.SourcingAgent
	idSeq  int
}

func newStubAgentRepo() *stubAgentRepo {
	return &stubAgentRepo{agents: map[string]domain.SourcingAgent{}}
}

func (r *stubAgentRepo) Create(ctx domain.Context, a domain.SourcingAgent) (string, error) {
	r.idSeq++
	id := fmt.Sprintf("agent-%d", r.idSeq)
	a.ID = id
	r.agents[id] = a
	return id, nil
}

func (r *stubAgentRepo) Get(ctx domain.Context, id string) (domain.SourcingAgent, error) {
	a, ok := r.agents[id]
	if !ok {
		return domain.SourcingAgent{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *stubAgentRepo) List(ctx domain.Context) ([]domain.SourcingAgent, error) {
	var out []domain.SourcingAgent
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out, nil
}

func (r *stubAgentRepo) ListActive(ctx domain.Context) ([]domain.SourcingAgent, error) {
	var out []domain.SourcingAgent
	for _, a := range r.agents {
		if a.Status == domain.AgentActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAgentRepo) Update(ctx domain.Context, a domain.SourcingAgent) error {
	if _, ok := r.agents[a.ID]; !ok {
		return domain.ErrNotFound
	}
	r.agents[a.ID] = a
	return nil
}

type stubDirectory struct{ cands []domain.ExternalCandidate }

func (d *stubDirectory) List(ctx domain.Context) ([]domain.ExternalCandidate, error) {
	return d.cands, nil
}

// scoringAI returns a fixed score per candidate id, or errors for ids in fail.
type scoringAI struct {
	scores map[string]float64
	fail   map[string]bool
}

func (a *scoringAI) GenerateRejectionFeedback(ctx domain.Context, req domain.FeedbackRequest) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (a *scoringAI) GenerateCareerStrategy(ctx domain.Context, currentSkills []string, targetRole string) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (a *scoringAI) ScoreCandidateMatch(ctx domain.Context, cand domain.ExternalCandidate, job domain.Job) (domain.MatchResult, error) {
	if a.fail[cand.ID] {
		return domain.MatchResult{}, fmt.Errorf("oracle unavailable")
	}
	return domain.MatchResult{Score: a.scores[cand.ID], Reason: "skills overlap"}, nil
}

func newSourcingFixture(ai domain.AIClient) (usecase.SourcingService, *stubAgentRepo, *stubAppRepo, *stubPublisher) {
	agents := newStubAgentRepo()
	apps := newStubAppRepo()
	jobs := &stubJobRepo{jobs: map[string]domain.Job{
		"job-1": {ID: "job-1", Title: "Backend Developer (Go)", Company: "NorthWind Labs"},
	}}
	dir := &stubDirectory{cands: []domain.ExternalCandidate{
		{ID: "x1", Name: "Jordan Lee", Email: "jordan@example.com", Skills: []string{"Go", "Kubernetes"}},
		{ID: "x2", Name: "Sam Chen", Email: "sam@example.com", Skills: []string{"Figma"}},
		{ID: "x3", Name: "Priya Patel", Email: "priya@example.com", Skills: []string{"Go"}},
	}}
	pub := &stubPublisher{}
	svc := usecase.NewSourcingService(agents, apps, jobs, dir, ai, pub, 0)
	return svc, agents, apps, pub
}

func TestSourcing_CreateAgent(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newSourcingFixture(&scoringAI{})
	agent, err := svc.CreateAgent(context.Background(), "job-1", domain.AgentCriteria{Skills: []string{"Go"}}, true)
	require.NoError(t, err)
	assert.Equal(t, domain.AgentActive, agent.Status)
	assert.True(t, agent.OutreachEnabled)

	_, err = svc.CreateAgent(context.Background(), "job-missing", domain.AgentCriteria{}, false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourcing_ToggleAgent(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newSourcingFixture(&scoringAI{})
	agent, err := svc.CreateAgent(context.Background(), "job-1", domain.AgentCriteria{}, false)
	require.NoError(t, err)

	toggled, err := svc.ToggleAgent(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AgentPaused, toggled.Status)

	toggled, err = svc.ToggleAgent(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AgentActive, toggled.Status)
}

func TestSourcing_RequestScans_OnlyActive(t *testing.T) {
	t.Parallel()
	svc, _, _, pub := newSourcingFixture(&scoringAI{})
	a1, err := svc.CreateAgent(context.Background(), "job-1", domain.AgentCriteria{}, false)
	require.NoError(t, err)
	a2, err := svc.CreateAgent(context.Background(), "job-1", domain.AgentCriteria{}, false)
	require.NoError(t, err)
	_, err = svc.ToggleAgent(context.Background(), a2.ID)
	require.NoError(t, err)

	n, err := svc.RequestScans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pub.tasks, 1)
	assert.Equal(t, a1.ID, pub.tasks[0].AgentID)
}

func TestSourcing_ProcessScan_ThresholdGate(t *testing.T) {
	t.Parallel()
	ai := &scoringAI{scores: map[string]float64{"x1": 88, "x2": 30, "x3": 70}}
	svc, agents, apps, _ := newSourcingFixture(ai)
	agent, err := svc.CreateAgent(context.Background(), "job-1", domain.AgentCriteria{}, false)
	require.NoError(t, err)

	out, err := svc.ProcessScan(context.Background(), domain.ScanTaskPayload{AgentID: agent.ID, JobID: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Scanned)
	// Exactly 70 does not clear the strict > threshold.
	assert.Equal(t, 1, out.Matched)
	require.Len(t, apps.created, 1)
	assert.Equal(t, "Jordan Lee", apps.created[0].CandidateName)
	require.NotNil(t, apps.created[0].AIScore)
	assert.InDelta(t, 88, *apps.created[0].AIScore, 0.0001)

	got, err := agents.Get(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastScanAt)
	assert.Equal(t, 1, got.MatchesFound)
}

func TestSourcing_ProcessScan_IdempotentRerun(t *testing.T) {
	t.Parallel()
	ai := &scoringAI{scores: map[string]float64{"x1": 88, "x2": 30, "x3": 70}}
	svc, _, apps, _ := newSourcingFixture(ai)
	agent, err := svc.CreateAgent(context.Background(), "job-1", domain.AgentCriteria{}, false)
	require.NoError(t, err)

	task := domain.ScanTaskPayload{AgentID: agent.ID, JobID: "job-1"}
	_, err = svc.ProcessScan(context.Background(), task)
	require.NoError(t, err)
	out, err := svc.ProcessScan(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Matched)
	assert.Equal(t, 1, out.Skipped)
	assert.Len(t, apps.created, 1)
}

func TestSourcing_ProcessScan_OracleFailureIsNeutral(t *testing.T) {
	t.Parallel()
	ai := &scoringAI{scores: map[string]float64{"x2": 30, "x3": 30}, fail: map[string]bool{"x1": true}}
	svc, _, apps, _ := newSourcingFixture(ai)
	agent, err := svc.CreateAgent(context.Background(), "job-1", domain.AgentCriteria{}, false)
	require.NoError(t, err)

	out, err := svc.ProcessScan(context.Background(), domain.ScanTaskPayload{AgentID: agent.ID, JobID: "job-1"})
	require.NoError(t, err)
	// Neutral score 50 never clears the 70 threshold.
	assert.Equal(t, 0, out.Matched)
	assert.Empty(t, apps.created)
}

func TestSourcing_ProcessScan_PausedAgentNoops(t *testing.T) {
	t.Parallel()
	svc, _, apps, _ := newSourcingFixture(&scoringAI{scores: map[string]float64{"x1": 99}})
	agent, err := svc.CreateAgent(context.Background(), "job-1", domain.AgentCriteria{}, false)
	require.NoError(t, err)
	_, err = svc.ToggleAgent(context.Background(), agent.ID)
	require.NoError(t, err)

	out, err := svc.ProcessScan(context.Background(), domain.ScanTaskPayload{AgentID: agent.ID, JobID: "job-1"})
	require.NoError(t, err)
	assert.Zero(t, out.Scanned)
	assert.Empty(t, apps.created)
}
