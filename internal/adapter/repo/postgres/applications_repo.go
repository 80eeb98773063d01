package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// ApplicationRepo persists and loads applications from PostgreSQL. The
// (candidate_id, job_id) pair carries a unique constraint so the duplicate
// guard holds even under concurrent submissions.
type ApplicationRepo struct{ Pool PgxPool }

// NewApplicationRepo constructs an ApplicationRepo with the given pool.
func NewApplicationRepo(p PgxPool) *ApplicationRepo { return &ApplicationRepo{Pool: p} }

const appCols = `id, job_id, candidate_id, candidate_name, candidate_email, applied_at, last_status_update_at,
	status, feedback, resume_handle, skills, interview_date, interview_time, ai_score, ai_reason, version`

// Create inserts a new application and returns its id.
func (r *ApplicationRepo) Create(ctx domain.Context, a domain.Application) (string, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "applications"),
	)
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO applications (` + appCols + `)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.Pool.Exec(ctx, q, id, a.JobID, a.CandidateID, a.CandidateName, a.CandidateEmail,
		a.AppliedAt, a.LastStatusUpdateAt, a.Status, a.Feedback, a.ResumeHandle, a.Skills,
		a.InterviewDate, a.InterviewTime, a.AIScore, a.AIReason, a.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("op=application.create: %w", domain.ErrDuplicateApplication)
		}
		return "", fmt.Errorf("op=application.create: %w", err)
	}
	return id, nil
}

// Replace writes the full record, guarded by the version the caller read. Zero
// rows affected means a concurrent writer already bumped the version.
func (r *ApplicationRepo) Replace(ctx domain.Context, a domain.Application) error {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.Replace")
	defer span.End()
	q := `UPDATE applications SET
	        last_status_update_at=$3, status=$4, feedback=$5, resume_handle=$6, skills=$7,
	        interview_date=$8, interview_time=$9, ai_score=$10, ai_reason=$11, version=$12
	      WHERE id=$1 AND version=$2`
	tag, err := r.Pool.Exec(ctx, q, a.ID, a.Version-1,
		a.LastStatusUpdateAt, a.Status, a.Feedback, a.ResumeHandle, a.Skills,
		a.InterviewDate, a.InterviewTime, a.AIScore, a.AIReason, a.Version)
	if err != nil {
		return fmt.Errorf("op=application.replace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=application.replace: %w", domain.ErrVersionConflict)
	}
	return nil
}

func scanApplication(row pgx.Row) (domain.Application, error) {
	var a domain.Application
	err := row.Scan(&a.ID, &a.JobID, &a.CandidateID, &a.CandidateName, &a.CandidateEmail,
		&a.AppliedAt, &a.LastStatusUpdateAt, &a.Status, &a.Feedback, &a.ResumeHandle, &a.Skills,
		&a.InterviewDate, &a.InterviewTime, &a.AIScore, &a.AIReason, &a.Version)
	return a, err
}

// Get loads an application by id.
func (r *ApplicationRepo) Get(ctx domain.Context, id string) (domain.Application, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.Get")
	defer span.End()
	a, err := scanApplication(r.Pool.QueryRow(ctx, `SELECT `+appCols+` FROM applications WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Application{}, fmt.Errorf("op=application.get: %w", domain.ErrNotFound)
		}
		return domain.Application{}, fmt.Errorf("op=application.get: %w", err)
	}
	return a, nil
}

// FindByCandidateAndJob loads the unique application for a pair, if any.
func (r *ApplicationRepo) FindByCandidateAndJob(ctx domain.Context, candidateID, jobID string) (domain.Application, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.FindByCandidateAndJob")
	defer span.End()
	a, err := scanApplication(r.Pool.QueryRow(ctx,
		`SELECT `+appCols+` FROM applications WHERE candidate_id=$1 AND job_id=$2`, candidateID, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Application{}, fmt.Errorf("op=application.find_pair: %w", domain.ErrNotFound)
		}
		return domain.Application{}, fmt.Errorf("op=application.find_pair: %w", err)
	}
	return a, nil
}

func (r *ApplicationRepo) queryApplications(ctx domain.Context, q string, args ...any) ([]domain.Application, error) {
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByJob returns all applications against a job, newest first.
func (r *ApplicationRepo) ListByJob(ctx domain.Context, jobID string) ([]domain.Application, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.ListByJob")
	defer span.End()
	out, err := r.queryApplications(ctx,
		`SELECT `+appCols+` FROM applications WHERE job_id=$1 ORDER BY applied_at DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("op=application.list_by_job: %w", err)
	}
	return out, nil
}

// ListByCandidate returns one candidate's applications, newest first.
func (r *ApplicationRepo) ListByCandidate(ctx domain.Context, candidateID string) ([]domain.Application, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.ListByCandidate")
	defer span.End()
	out, err := r.queryApplications(ctx,
		`SELECT `+appCols+` FROM applications WHERE candidate_id=$1 ORDER BY applied_at DESC`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("op=application.list_by_candidate: %w", err)
	}
	return out, nil
}

// ListByCompany returns every application against one company's jobs. This is
// the reputation scoring input, so it spans all lifecycle states.
func (r *ApplicationRepo) ListByCompany(ctx domain.Context, company string) ([]domain.Application, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.ListByCompany")
	defer span.End()
	q := `SELECT a.id, a.job_id, a.candidate_id, a.candidate_name, a.candidate_email, a.applied_at,
	             a.last_status_update_at, a.status, a.feedback, a.resume_handle, a.skills,
	             a.interview_date, a.interview_time, a.ai_score, a.ai_reason, a.version
	      FROM applications a JOIN jobs j ON j.id = a.job_id
	      WHERE j.company = $1 ORDER BY a.applied_at DESC`
	out, err := r.queryApplications(ctx, q, company)
	if err != nil {
		return nil, fmt.Errorf("op=application.list_by_company: %w", err)
	}
	return out, nil
}

// isUniqueViolation reports whether err is Postgres error 23505.
func isUniqueViolation(err error) bool {
	type sqlStater interface{ SQLState() string }
	var st sqlStater
	return errors.As(err, &st) && st.SQLState() == "23505"
}
