package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// JobService owns job listings. Jobs are append-only: there is no update or
// delete, matching the immutability of published postings.
type JobService struct {
	Jobs domain.JobRepository
}

// NewJobService constructs a JobService with the given repo.
func NewJobService(j domain.JobRepository) JobService { return JobService{Jobs: j} }

// Create validates and persists a new listing posted by a recruiter.
func (s JobService) Create(ctx domain.Context, job domain.Job) (domain.Job, error) {
	job.Title = strings.TrimSpace(job.Title)
	job.Company = strings.TrimSpace(job.Company)
	if job.Title == "" || job.Company == "" {
		return domain.Job{}, fmt.Errorf("%w: title and company required", domain.ErrInvalidArgument)
	}
	if job.PostedAt.IsZero() {
		job.PostedAt = time.Now().UTC()
	}
	id, err := s.Jobs.Create(ctx, job)
	if err != nil {
		return domain.Job{}, fmt.Errorf("op=jobs.create: %w", err)
	}
	job.ID = id
	return job, nil
}

// Get returns one job by id.
func (s JobService) Get(ctx domain.Context, id string) (domain.Job, error) {
	return s.Jobs.Get(ctx, id)
}

// List returns all listings, newest first.
func (s JobService) List(ctx domain.Context) ([]domain.Job, error) {
	return s.Jobs.List(ctx)
}

// ListByCompany returns the listings owned by one company.
func (s JobService) ListByCompany(ctx domain.Context, company string) ([]domain.Job, error) {
	if strings.TrimSpace(company) == "" {
		return nil, fmt.Errorf("%w: company required", domain.ErrInvalidArgument)
	}
	return s.Jobs.ListByCompany(ctx, company)
}
