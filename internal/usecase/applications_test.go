package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpathhq/clearpath/internal/domain"
	"github.com/clearpathhq/clearpath/internal/usecase"
)

type stubAppRepo struct {
	apps    map[string]domain.Application
	idSeq   int
	created []domain.Application
	// replaceErr, when set, is returned from Replace once.
	replaceErr error
}

func newStubAppRepo() *stubAppRepo { return &stubAppRepo{apps: map[string]domain.Application{}} }

func (r *stubAppRepo) Create(ctx domain.Context, a domain.Application) (string, error) {
	r.idSeq++
	id := fmt.Sprintf("app-%d", r.idSeq)
	a.ID = id
	r.apps[id] = a
	r.created = append(r.created, a)
	return id, nil
}

func (r *stubAppRepo) Get(ctx domain.Context, id string) (domain.Application, error) {
	a, ok := r.apps[id]
	if !ok {
		return domain.Application{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *stubAppRepo) Replace(ctx domain.Context, a domain.Application) error {
	if r.replaceErr != nil {
		err := r.replaceErr
		r.replaceErr = nil
		return err
	}
	cur, ok := r.apps[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != a.Version-1 {
		return domain.ErrVersionConflict
	}
	r.apps[a.ID] = a
	return nil
}

func (r *stubAppRepo) ListByJob(ctx domain.Context, jobID string) ([]domain.Application, error) {
	var out []domain.Application
	for _, a := range r.apps {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAppRepo) ListByCandidate(ctx domain.Context, candidateID string) ([]domain.Application, error) {
	var out []domain.Application
	for _, a := range r.apps {
		if a.CandidateID == candidateID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAppRepo) ListByCompany(ctx domain.Context, company string) ([]domain.Application, error) {
	return nil, nil
}

func (r *stubAppRepo) FindByCandidateAndJob(ctx domain.Context, candidateID, jobID string) (domain.Application, error) {
	for _, a := range r.apps {
		if a.CandidateID == candidateID && a.JobID == jobID {
			return a, nil
		}
	}
	return domain.Application{}, domain.ErrNotFound
}

type stubJobRepo struct{ jobs map[string]domain.Job }

func (r *stubJobRepo) Create(ctx domain.Context, j domain.Job) (string, error) {
	return "", nil
}
func (r *stubJobRepo) Get(ctx domain.Context, id string) (domain.Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return j, nil
}
func (r *stubJobRepo) List(ctx domain.Context) ([]domain.Job, error) { return nil, nil }
func (r *stubJobRepo) ListByCompany(ctx domain.Context, company string) ([]domain.Job, error) {
	return nil, nil
}

type stubUserRepo struct{ users map[string]domain.User }

func (r *stubUserRepo) Create(ctx domain.Context, u domain.User) (string, error) { return "", nil }
func (r *stubUserRepo) Get(ctx domain.Context, id string) (domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}
func (r *stubUserRepo) GetByEmail(ctx domain.Context, email string) (domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

type stubResumeStore struct{ stored int }

func (s *stubResumeStore) Store(ctx domain.Context, filename string, data []byte) (string, error) {
	s.stored++
	return "resume://stub-" + filename, nil
}

type stubPublisher struct {
	events []domain.StatusChangeEvent
	tasks  []domain.ScanTaskPayload
	err    error
}

func (p *stubPublisher) PublishStatusChange(ctx domain.Context, ev domain.StatusChangeEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *stubPublisher) EnqueueScan(ctx domain.Context, task domain.ScanTaskPayload) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.tasks = append(p.tasks, task)
	return fmt.Sprintf("task-%d", len(p.tasks)), nil
}

func newAppSvcFixture() (usecase.ApplicationService, *stubAppRepo, *stubPublisher) {
	apps := newStubAppRepo()
	jobs := &stubJobRepo{jobs: map[string]domain.Job{
		"job-1": {ID: "job-1", Title: "Backend Developer (Go)", Company: "NorthWind Labs"},
	}}
	users := &stubUserRepo{users: map[string]domain.User{
		"cand-1": {ID: "cand-1", Name: "Alex Johnson", Email: "alex@example.com", Role: domain.RoleCandidate, Skills: []string{"Go"}},
	}}
	pub := &stubPublisher{}
	svc := usecase.NewApplicationService(apps, jobs, users, &stubResumeStore{}, pub)
	return svc, apps, pub
}

func TestApplications_Submit_Success(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newAppSvcFixture()
	app, err := svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, app.Status)
	assert.Equal(t, "Alex Johnson", app.CandidateName)
	assert.Equal(t, "resume://stub-cv.pdf", app.ResumeHandle)
	assert.Equal(t, 1, app.Version)
	require.Len(t, repo.created, 1)
}

func TestApplications_Submit_DuplicateRejected(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAppSvcFixture()
	_, err := svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", []byte("%PDF-1.4"))
	require.ErrorIs(t, err, domain.ErrDuplicateApplication)
}

func TestApplications_Submit_DuplicateEvenAfterRejection(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAppSvcFixture()
	app, err := svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), app.ID, domain.StatusRejected, domain.AdvanceOptions{Feedback: "no"})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", []byte("%PDF-1.4"))
	require.ErrorIs(t, err, domain.ErrDuplicateApplication)
}

func TestApplications_Submit_UnknownJob(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAppSvcFixture()
	_, err := svc.Submit(context.Background(), "cand-1", "job-missing", "cv.pdf", nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplications_Advance_PublishesEvent(t *testing.T) {
	t.Parallel()
	svc, _, pub := newAppSvcFixture()
	app, err := svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", nil)
	require.NoError(t, err)

	got, err := svc.Advance(context.Background(), app.ID, domain.StatusReviewing, domain.AdvanceOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReviewing, got.Status)
	assert.Equal(t, 2, got.Version)
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.StatusApplied, pub.events[0].From)
	assert.Equal(t, domain.StatusReviewing, pub.events[0].To)
	assert.Equal(t, app.ID, pub.events[0].ApplicationID)
}

func TestApplications_Advance_PublishFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()
	svc, repo, pub := newAppSvcFixture()
	app, err := svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", nil)
	require.NoError(t, err)

	pub.err = fmt.Errorf("broker down")
	got, err := svc.Advance(context.Background(), app.ID, domain.StatusReviewing, domain.AdvanceOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReviewing, got.Status)
	stored, err := repo.Get(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReviewing, stored.Status)
}

func TestApplications_Advance_VersionConflictSurfaces(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newAppSvcFixture()
	app, err := svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", nil)
	require.NoError(t, err)

	repo.replaceErr = domain.ErrVersionConflict
	_, err = svc.Advance(context.Background(), app.ID, domain.StatusReviewing, domain.AdvanceOptions{})
	require.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestApplications_Advance_InvalidTransitionLeavesStateUntouched(t *testing.T) {
	t.Parallel()
	svc, repo, pub := newAppSvcFixture()
	app, err := svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", nil)
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), app.ID, domain.StatusScheduled, domain.AdvanceOptions{
		InterviewDate: "2024-11-05", InterviewTime: "10:30 AM",
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	stored, err := repo.Get(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, stored.Status)
	assert.Empty(t, pub.events)
}

func TestApplications_AdvanceDefault_Chain(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAppSvcFixture()
	app, err := svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", nil)
	require.NoError(t, err)

	want := []domain.ApplicationStatus{domain.StatusReviewing, domain.StatusInterviewing, domain.StatusOffer}
	for _, expect := range want {
		got, err := svc.AdvanceDefault(context.Background(), app.ID)
		require.NoError(t, err)
		assert.Equal(t, expect, got.Status)
	}
	_, err = svc.AdvanceDefault(context.Background(), app.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApplications_Advance_TimestampsFeedReputation(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newAppSvcFixture()
	app, err := svc.Submit(context.Background(), "cand-1", "job-1", "cv.pdf", nil)
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), app.ID, domain.StatusReviewing, domain.AdvanceOptions{})
	require.NoError(t, err)
	stored, err := repo.Get(context.Background(), app.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastStatusUpdateAt)
	assert.WithinDuration(t, time.Now().UTC(), *stored.LastStatusUpdateAt, 5*time.Second)
}
