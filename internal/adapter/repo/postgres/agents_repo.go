package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// AgentRepo persists and loads sourcing agents. Criteria is stored as JSONB.
type AgentRepo struct{ Pool PgxPool }

// NewAgentRepo constructs an AgentRepo with the given pool.
func NewAgentRepo(p PgxPool) *AgentRepo { return &AgentRepo{Pool: p} }

const agentCols = `id, job_id, status, criteria, outreach_enabled, last_scan_at, matches_found`

// Create inserts a new agent and returns its id.
func (r *AgentRepo) Create(ctx domain.Context, a domain.SourcingAgent) (string, error) {
	tracer := otel.Tracer("repo.agents")
	ctx, span := tracer.Start(ctx, "agents.Create")
	defer span.End()
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	criteria, err := json.Marshal(a.Criteria)
	if err != nil {
		return "", fmt.Errorf("op=agent.create: %w", err)
	}
	q := `INSERT INTO sourcing_agents (` + agentCols + `) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := r.Pool.Exec(ctx, q, id, a.JobID, a.Status, criteria, a.OutreachEnabled, a.LastScanAt, a.MatchesFound); err != nil {
		return "", fmt.Errorf("op=agent.create: %w", err)
	}
	return id, nil
}

func scanAgent(row pgx.Row) (domain.SourcingAgent, error) {
	var a domain.SourcingAgent
	var criteria []byte
	if err := row.Scan(&a.ID, &a.JobID, &a.Status, &criteria, &a.OutreachEnabled, &a.LastScanAt, &a.MatchesFound); err != nil {
		return domain.SourcingAgent{}, err
	}
	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &a.Criteria); err != nil {
			return domain.SourcingAgent{}, err
		}
	}
	return a, nil
}

// Get loads an agent by id.
func (r *AgentRepo) Get(ctx domain.Context, id string) (domain.SourcingAgent, error) {
	tracer := otel.Tracer("repo.agents")
	ctx, span := tracer.Start(ctx, "agents.Get")
	defer span.End()
	a, err := scanAgent(r.Pool.QueryRow(ctx, `SELECT `+agentCols+` FROM sourcing_agents WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SourcingAgent{}, fmt.Errorf("op=agent.get: %w", domain.ErrNotFound)
		}
		return domain.SourcingAgent{}, fmt.Errorf("op=agent.get: %w", err)
	}
	return a, nil
}

func (r *AgentRepo) queryAgents(ctx domain.Context, q string, args ...any) ([]domain.SourcingAgent, error) {
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.SourcingAgent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// List returns every agent.
func (r *AgentRepo) List(ctx domain.Context) ([]domain.SourcingAgent, error) {
	tracer := otel.Tracer("repo.agents")
	ctx, span := tracer.Start(ctx, "agents.List")
	defer span.End()
	out, err := r.queryAgents(ctx, `SELECT `+agentCols+` FROM sourcing_agents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("op=agent.list: %w", err)
	}
	return out, nil
}

// ListActive returns agents eligible for scans.
func (r *AgentRepo) ListActive(ctx domain.Context) ([]domain.SourcingAgent, error) {
	tracer := otel.Tracer("repo.agents")
	ctx, span := tracer.Start(ctx, "agents.ListActive")
	defer span.End()
	out, err := r.queryAgents(ctx, `SELECT `+agentCols+` FROM sourcing_agents WHERE status=$1 ORDER BY id`, domain.AgentActive)
	if err != nil {
		return nil, fmt.Errorf("op=agent.list_active: %w", err)
	}
	return out, nil
}

// Update writes the mutable fields of an agent.
func (r *AgentRepo) Update(ctx domain.Context, a domain.SourcingAgent) error {
	tracer := otel.Tracer("repo.agents")
	ctx, span := tracer.Start(ctx, "agents.Update")
	defer span.End()
	criteria, err := json.Marshal(a.Criteria)
	if err != nil {
		return fmt.Errorf("op=agent.update: %w", err)
	}
	q := `UPDATE sourcing_agents SET status=$2, criteria=$3, outreach_enabled=$4, last_scan_at=$5, matches_found=$6 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, a.ID, a.Status, criteria, a.OutreachEnabled, a.LastScanAt, a.MatchesFound)
	if err != nil {
		return fmt.Errorf("op=agent.update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=agent.update: %w", domain.ErrNotFound)
	}
	return nil
}
