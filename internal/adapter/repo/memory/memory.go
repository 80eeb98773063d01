// Package memory provides in-memory implementations of the repository ports.
// It backs local development without Postgres and keeps handler tests fast.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// Store holds all collections behind one mutex. Operations copy values in and
// out, so callers never share memory with the store.
type Store struct {
	mu     sync.RWMutex
	users  map[string]domain.User
	jobs   map[string]domain.Job
	apps   map[string]domain.Application
	agents map[string]domain.SourcingAgent
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		users:  map[string]domain.User{},
		jobs:   map[string]domain.Job{},
		apps:   map[string]domain.Application{},
		agents: map[string]domain.SourcingAgent{},
	}
}

// Users returns the UserRepository view of the store.
func (s *Store) Users() domain.UserRepository { return (*userRepo)(s) }

// Jobs returns the JobRepository view of the store.
func (s *Store) Jobs() domain.JobRepository { return (*jobRepo)(s) }

// Applications returns the ApplicationRepository view of the store.
func (s *Store) Applications() domain.ApplicationRepository { return (*applicationRepo)(s) }

// Agents returns the AgentRepository view of the store.
func (s *Store) Agents() domain.AgentRepository { return (*agentRepo)(s) }

type userRepo Store

func (r *userRepo) Create(_ domain.Context, u domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return "", fmt.Errorf("op=user.create: %w", domain.ErrConflict)
		}
	}
	r.users[u.ID] = u
	return u.ID, nil
}

func (r *userRepo) Get(_ domain.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("op=user.get: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (r *userRepo) GetByEmail(_ domain.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("op=user.get_by_email: %w", domain.ErrNotFound)
}

type jobRepo Store

func (r *jobRepo) Create(_ domain.Context, j domain.Job) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	r.jobs[j.ID] = j
	return j.ID, nil
}

func (r *jobRepo) Get(_ domain.Context, id string) (domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
	}
	return j, nil
}

func (r *jobRepo) List(_ domain.Context) ([]domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sortJobs(out)
	return out, nil
}

func (r *jobRepo) ListByCompany(_ domain.Context, company string) ([]domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Job
	for _, j := range r.jobs {
		if j.Company == company {
			out = append(out, j)
		}
	}
	sortJobs(out)
	return out, nil
}

func sortJobs(jobs []domain.Job) {
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].PostedAt.After(jobs[k].PostedAt) })
}

type applicationRepo Store

func (r *applicationRepo) Create(_ domain.Context, a domain.Application) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.CandidateID == a.CandidateID && existing.JobID == a.JobID {
			return "", fmt.Errorf("op=application.create: %w", domain.ErrDuplicateApplication)
		}
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	r.apps[a.ID] = a
	return a.ID, nil
}

func (r *applicationRepo) Get(_ domain.Context, id string) (domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.apps[id]
	if !ok {
		return domain.Application{}, fmt.Errorf("op=application.get: %w", domain.ErrNotFound)
	}
	return a, nil
}

func (r *applicationRepo) Replace(_ domain.Context, a domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.apps[a.ID]
	if !ok {
		return fmt.Errorf("op=application.replace: %w", domain.ErrNotFound)
	}
	if cur.Version != a.Version-1 {
		return fmt.Errorf("op=application.replace: %w", domain.ErrVersionConflict)
	}
	r.apps[a.ID] = a
	return nil
}

func (r *applicationRepo) ListByJob(_ domain.Context, jobID string) ([]domain.Application, error) {
	return r.filter(func(a domain.Application) bool { return a.JobID == jobID })
}

func (r *applicationRepo) ListByCandidate(_ domain.Context, candidateID string) ([]domain.Application, error) {
	return r.filter(func(a domain.Application) bool { return a.CandidateID == candidateID })
}

func (r *applicationRepo) ListByCompany(_ domain.Context, company string) ([]domain.Application, error) {
	r.mu.RLock()
	jobIDs := map[string]bool{}
	for _, j := range r.jobs {
		if j.Company == company {
			jobIDs[j.ID] = true
		}
	}
	r.mu.RUnlock()
	return r.filter(func(a domain.Application) bool { return jobIDs[a.JobID] })
}

func (r *applicationRepo) FindByCandidateAndJob(_ domain.Context, candidateID, jobID string) (domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.apps {
		if a.CandidateID == candidateID && a.JobID == jobID {
			return a, nil
		}
	}
	return domain.Application{}, fmt.Errorf("op=application.find_pair: %w", domain.ErrNotFound)
}

func (r *applicationRepo) filter(keep func(domain.Application) bool) ([]domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Application
	for _, a := range r.apps {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].AppliedAt.After(out[k].AppliedAt) })
	return out, nil
}

type agentRepo Store

func (r *agentRepo) Create(_ domain.Context, a domain.SourcingAgent) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	r.agents[a.ID] = a
	return a.ID, nil
}

func (r *agentRepo) Get(_ domain.Context, id string) (domain.SourcingAgent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return domain.SourcingAgent{}, fmt.Errorf("op=agent.get: %w", domain.ErrNotFound)
	}
	return a, nil
}

func (r *agentRepo) List(_ domain.Context) ([]domain.SourcingAgent, error) {
	return r.filter(func(domain.SourcingAgent) bool { return true })
}

func (r *agentRepo) ListActive(_ domain.Context) ([]domain.SourcingAgent, error) {
	return r.filter(func(a domain.SourcingAgent) bool { return a.Status == domain.AgentActive })
}

func (r *agentRepo) Update(_ domain.Context, a domain.SourcingAgent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[a.ID]; !ok {
		return fmt.Errorf("op=agent.update: %w", domain.ErrNotFound)
	}
	r.agents[a.ID] = a
	return nil
}

func (r *agentRepo) filter(keep func(domain.SourcingAgent) bool) ([]domain.SourcingAgent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.SourcingAgent
	for _, a := range r.agents {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}
