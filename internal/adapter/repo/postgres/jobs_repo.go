package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// JobRepo persists and loads job listings from PostgreSQL.
type JobRepo struct{ Pool PgxPool }

// NewJobRepo constructs a JobRepo with the given pool.
func NewJobRepo(p PgxPool) *JobRepo { return &JobRepo{Pool: p} }

const jobCols = `id, title, company, location, salary, description, requirements, responsibilities, posted_at, deadline, created_by`

// Create inserts a new listing and returns its id.
func (r *JobRepo) Create(ctx domain.Context, j domain.Job) (string, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Create")
	defer span.End()
	id := j.ID
	if id == "" {
		id = uuid.New().String()
	}
	posted := j.PostedAt
	if posted.IsZero() {
		posted = time.Now().UTC()
	}
	q := `INSERT INTO jobs (` + jobCols + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.Pool.Exec(ctx, q, id, j.Title, j.Company, j.Location, j.Salary, j.Description,
		j.Requirements, j.Responsibilities, posted, j.Deadline, j.CreatedBy)
	if err != nil {
		return "", fmt.Errorf("op=job.create: %w", err)
	}
	return id, nil
}

func scanJob(row pgx.Row) (domain.Job, error) {
	var j domain.Job
	err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Salary, &j.Description,
		&j.Requirements, &j.Responsibilities, &j.PostedAt, &j.Deadline, &j.CreatedBy)
	return j, err
}

// Get loads a listing by id.
func (r *JobRepo) Get(ctx domain.Context, id string) (domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Get")
	defer span.End()
	j, err := scanJob(r.Pool.QueryRow(ctx, `SELECT `+jobCols+` FROM jobs WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Job{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
		}
		return domain.Job{}, fmt.Errorf("op=job.get: %w", err)
	}
	return j, nil
}

func (r *JobRepo) queryJobs(ctx domain.Context, q string, args ...any) ([]domain.Job, error) {
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// List returns all listings, newest first.
func (r *JobRepo) List(ctx domain.Context) ([]domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.List")
	defer span.End()
	out, err := r.queryJobs(ctx, `SELECT `+jobCols+` FROM jobs ORDER BY posted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("op=job.list: %w", err)
	}
	return out, nil
}

// ListByCompany returns one company's listings, newest first.
func (r *JobRepo) ListByCompany(ctx domain.Context, company string) ([]domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.ListByCompany")
	defer span.End()
	out, err := r.queryJobs(ctx, `SELECT `+jobCols+` FROM jobs WHERE company=$1 ORDER BY posted_at DESC`, company)
	if err != nil {
		return nil, fmt.Errorf("op=job.list_by_company: %w", err)
	}
	return out, nil
}
