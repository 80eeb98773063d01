// Package usecase contains application business logic services.
package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// ApplicationService orchestrates candidate submissions and lifecycle
// transitions over the repository ports.
type ApplicationService struct {
	Apps    domain.ApplicationRepository
	Jobs    domain.JobRepository
	Users   domain.UserRepository
	Resumes domain.ResumeStore
	Events  domain.EventPublisher
}

// NewApplicationService constructs an ApplicationService with its dependencies.
func NewApplicationService(a domain.ApplicationRepository, j domain.JobRepository, u domain.UserRepository, r domain.ResumeStore, e domain.EventPublisher) ApplicationService {
	return ApplicationService{Apps: a, Jobs: j, Users: u, Resumes: r, Events: e}
}

// Submit creates an APPLIED application for the candidate against the job.
// At most one application per (candidate, job) pair; a second attempt returns
// domain.ErrDuplicateApplication regardless of the first one's status.
func (s ApplicationService) Submit(ctx domain.Context, candidateID, jobID, resumeFilename string, resumeData []byte) (domain.Application, error) {
	if candidateID == "" || jobID == "" {
		return domain.Application{}, fmt.Errorf("%w: candidate and job ids required", domain.ErrInvalidArgument)
	}
	job, err := s.Jobs.Get(ctx, jobID)
	if err != nil {
		return domain.Application{}, fmt.Errorf("op=applications.submit: %w", err)
	}
	cand, err := s.Users.Get(ctx, candidateID)
	if err != nil {
		return domain.Application{}, fmt.Errorf("op=applications.submit: %w", err)
	}
	if _, err := s.Apps.FindByCandidateAndJob(ctx, candidateID, jobID); err == nil {
		return domain.Application{}, fmt.Errorf("%w: candidate %s already applied to job %s", domain.ErrDuplicateApplication, candidateID, jobID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Application{}, fmt.Errorf("op=applications.submit: %w", err)
	}

	var handle string
	if len(resumeData) > 0 {
		handle, err = s.Resumes.Store(ctx, resumeFilename, resumeData)
		if err != nil {
			return domain.Application{}, fmt.Errorf("op=applications.submit: %w", err)
		}
	}

	app := domain.NewApplication(job, cand, handle, cand.Skills)
	id, err := s.Apps.Create(ctx, app)
	if err != nil {
		return domain.Application{}, fmt.Errorf("op=applications.submit: %w", err)
	}
	app.ID = id
	return app, nil
}

// Advance moves an application to target, honoring the lifecycle table. The
// write is a compare-and-swap on the stored version; a concurrent writer wins
// and this call returns domain.ErrVersionConflict without retrying, leaving
// the retry decision to the caller.
func (s ApplicationService) Advance(ctx domain.Context, appID string, target domain.ApplicationStatus, opts domain.AdvanceOptions) (domain.Application, error) {
	app, err := s.Apps.Get(ctx, appID)
	if err != nil {
		return domain.Application{}, fmt.Errorf("op=applications.advance: %w", err)
	}
	from := app.Status
	next, err := domain.Advance(app, target, opts)
	if err != nil {
		return domain.Application{}, err
	}
	if err := s.Apps.Replace(ctx, next); err != nil {
		return domain.Application{}, fmt.Errorf("op=applications.advance: %w", err)
	}
	s.publishStatusChange(ctx, next, from)
	return next, nil
}

// AdvanceDefault applies the one-click "move forward" transition.
func (s ApplicationService) AdvanceDefault(ctx domain.Context, appID string) (domain.Application, error) {
	app, err := s.Apps.Get(ctx, appID)
	if err != nil {
		return domain.Application{}, fmt.Errorf("op=applications.advance: %w", err)
	}
	target, ok := domain.DefaultNextStatus(app.Status)
	if !ok {
		return domain.Application{}, fmt.Errorf("%w: %s has no default next status", domain.ErrInvalidTransition, app.Status)
	}
	from := app.Status
	next, err := domain.Advance(app, target, domain.AdvanceOptions{})
	if err != nil {
		return domain.Application{}, err
	}
	if err := s.Apps.Replace(ctx, next); err != nil {
		return domain.Application{}, fmt.Errorf("op=applications.advance: %w", err)
	}
	s.publishStatusChange(ctx, next, from)
	return next, nil
}

// publishStatusChange emits the transition event best-effort. The transition
// is already durable; a broker outage must not fail the request.
func (s ApplicationService) publishStatusChange(ctx domain.Context, app domain.Application, from domain.ApplicationStatus) {
	if s.Events == nil {
		return
	}
	ev := domain.StatusChangeEvent{
		ApplicationID: app.ID,
		JobID:         app.JobID,
		CandidateID:   app.CandidateID,
		From:          from,
		To:            app.Status,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.Events.PublishStatusChange(ctx, ev); err != nil {
		slog.Warn("publish status change failed", slog.String("application_id", app.ID), slog.Any("error", err))
	}
}

// Get returns one application by id.
func (s ApplicationService) Get(ctx domain.Context, id string) (domain.Application, error) {
	return s.Apps.Get(ctx, id)
}

// ListByJob returns all applications against a job.
func (s ApplicationService) ListByJob(ctx domain.Context, jobID string) ([]domain.Application, error) {
	return s.Apps.ListByJob(ctx, jobID)
}

// ListByCandidate returns a candidate's full application history.
func (s ApplicationService) ListByCandidate(ctx domain.Context, candidateID string) ([]domain.Application, error) {
	return s.Apps.ListByCandidate(ctx, candidateID)
}
