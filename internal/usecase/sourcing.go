package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// DefaultMatchThreshold is the minimum AI match score that turns an external
// profile into an inserted application.
const DefaultMatchThreshold = 70.0

// SourcingService manages sourcing agents and executes their scans. Scan
// requests are enqueued as tasks and processed by the worker; ProcessScan is
// the worker-side entry point.
type SourcingService struct {
	Agents    domain.AgentRepository
	Apps      domain.ApplicationRepository
	Jobs      domain.JobRepository
	Directory domain.ExternalCandidateSource
	AI        domain.AIClient
	Events    domain.EventPublisher
	Threshold float64
}

// NewSourcingService constructs a SourcingService. A zero threshold is
// replaced by DefaultMatchThreshold.
func NewSourcingService(ag domain.AgentRepository, ap domain.ApplicationRepository, j domain.JobRepository, dir domain.ExternalCandidateSource, ai domain.AIClient, ev domain.EventPublisher, threshold float64) SourcingService {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return SourcingService{Agents: ag, Apps: ap, Jobs: j, Directory: dir, AI: ai, Events: ev, Threshold: threshold}
}

// CreateAgent attaches a new active agent to a job.
func (s SourcingService) CreateAgent(ctx domain.Context, jobID string, criteria domain.AgentCriteria, outreach bool) (domain.SourcingAgent, error) {
	if jobID == "" {
		return domain.SourcingAgent{}, fmt.Errorf("%w: job id required", domain.ErrInvalidArgument)
	}
	if _, err := s.Jobs.Get(ctx, jobID); err != nil {
		return domain.SourcingAgent{}, fmt.Errorf("op=sourcing.create_agent: %w", err)
	}
	agent := domain.SourcingAgent{
		JobID:           jobID,
		Status:          domain.AgentActive,
		Criteria:        criteria,
		OutreachEnabled: outreach,
	}
	id, err := s.Agents.Create(ctx, agent)
	if err != nil {
		return domain.SourcingAgent{}, fmt.Errorf("op=sourcing.create_agent: %w", err)
	}
	agent.ID = id
	return agent, nil
}

// ToggleAgent flips an agent between active and paused.
func (s SourcingService) ToggleAgent(ctx domain.Context, agentID string) (domain.SourcingAgent, error) {
	agent, err := s.Agents.Get(ctx, agentID)
	if err != nil {
		return domain.SourcingAgent{}, fmt.Errorf("op=sourcing.toggle_agent: %w", err)
	}
	if agent.Status == domain.AgentActive {
		agent.Status = domain.AgentPaused
	} else {
		agent.Status = domain.AgentActive
	}
	if err := s.Agents.Update(ctx, agent); err != nil {
		return domain.SourcingAgent{}, fmt.Errorf("op=sourcing.toggle_agent: %w", err)
	}
	return agent, nil
}

// RequestScans enqueues one scan task per active agent and returns how many
// were enqueued.
func (s SourcingService) RequestScans(ctx domain.Context) (int, error) {
	agents, err := s.Agents.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("op=sourcing.request_scans: %w", err)
	}
	var n int
	for _, agent := range agents {
		task := domain.ScanTaskPayload{AgentID: agent.ID, JobID: agent.JobID}
		if _, err := s.Events.EnqueueScan(ctx, task); err != nil {
			return n, fmt.Errorf("op=sourcing.request_scans: %w", err)
		}
		n++
	}
	return n, nil
}

// ScanOutcome summarizes one processed scan. Scores carries every oracle
// verdict in scan order, matched or not.
type ScanOutcome struct {
	Scanned int
	Matched int
	Skipped int
	Scores  []float64
}

// ProcessScan runs one agent's scan: score every directory profile against the
// agent's job and insert an application for each score above the threshold.
// Profiles that already applied are skipped, so re-running a scan is
// idempotent. An oracle failure on one profile degrades to a neutral score of
// 50 rather than aborting the scan.
func (s SourcingService) ProcessScan(ctx domain.Context, task domain.ScanTaskPayload) (ScanOutcome, error) {
	agent, err := s.Agents.Get(ctx, task.AgentID)
	if err != nil {
		return ScanOutcome{}, fmt.Errorf("op=sourcing.process_scan: %w", err)
	}
	if agent.Status != domain.AgentActive {
		slog.Info("skipping scan for paused agent", slog.String("agent_id", agent.ID))
		return ScanOutcome{}, nil
	}
	job, err := s.Jobs.Get(ctx, agent.JobID)
	if err != nil {
		return ScanOutcome{}, fmt.Errorf("op=sourcing.process_scan: %w", err)
	}
	candidates, err := s.Directory.List(ctx)
	if err != nil {
		return ScanOutcome{}, fmt.Errorf("op=sourcing.process_scan: %w", err)
	}

	var out ScanOutcome
	for _, cand := range candidates {
		out.Scanned++
		if _, err := s.Apps.FindByCandidateAndJob(ctx, cand.ID, job.ID); err == nil {
			out.Skipped++
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return out, fmt.Errorf("op=sourcing.process_scan: %w", err)
		}

		match, err := s.AI.ScoreCandidateMatch(ctx, cand, job)
		if err != nil {
			slog.Warn("match scoring failed, using neutral score",
				slog.String("candidate_id", cand.ID), slog.Any("error", err))
			match = domain.MatchResult{Score: 50, Reason: "scoring unavailable, neutral default"}
		}
		out.Scores = append(out.Scores, match.Score)
		if match.Score <= s.Threshold {
			continue
		}

		app, err := domain.NewSourcedApplication(job, cand, match.Score, match.Reason)
		if err != nil {
			return out, err
		}
		if _, err := s.Apps.Create(ctx, app); err != nil {
			return out, fmt.Errorf("op=sourcing.process_scan: %w", err)
		}
		out.Matched++
	}

	now := time.Now().UTC()
	agent.LastScanAt = &now
	agent.MatchesFound += out.Matched
	if err := s.Agents.Update(ctx, agent); err != nil {
		return out, fmt.Errorf("op=sourcing.process_scan: %w", err)
	}
	return out, nil
}

// ListAgents returns every agent, active or paused.
func (s SourcingService) ListAgents(ctx domain.Context) ([]domain.SourcingAgent, error) {
	return s.Agents.List(ctx)
}
