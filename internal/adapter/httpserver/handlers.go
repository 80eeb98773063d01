package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clearpathhq/clearpath/internal/adapter/observability"
	"github.com/clearpathhq/clearpath/internal/config"
	"github.com/clearpathhq/clearpath/internal/domain"
	"github.com/clearpathhq/clearpath/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg          config.Config
	Sessions     *SessionManager
	Auth         usecase.AuthService
	Jobs         usecase.JobService
	Applications usecase.ApplicationService
	Reputation   usecase.ReputationService
	Assist       usecase.AssistService
	Sourcing     usecase.SourcingService
	DBCheck      func(ctx context.Context) error
	RedisCheck   func(ctx context.Context) error
	KafkaCheck   func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, sessions *SessionManager, auth usecase.AuthService, jobs usecase.JobService, apps usecase.ApplicationService, rep usecase.ReputationService, assist usecase.AssistService, sourcing usecase.SourcingService, dbCheck, redisCheck, kafkaCheck func(context.Context) error) *Server {
	return &Server{
		Cfg: cfg, Sessions: sessions, Auth: auth, Jobs: jobs, Applications: apps,
		Reputation: rep, Assist: assist, Sourcing: sourcing,
		DBCheck: dbCheck, RedisCheck: redisCheck, KafkaCheck: kafkaCheck,
	}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
		return false
	}
	return true
}

// JSON DTOs

type jobDTO struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Company          string     `json:"company"`
	Location         string     `json:"location,omitempty"`
	Salary           string     `json:"salary,omitempty"`
	Description      string     `json:"description,omitempty"`
	Requirements     []string   `json:"requirements,omitempty"`
	Responsibilities []string   `json:"responsibilities,omitempty"`
	PostedAt         time.Time  `json:"posted_at"`
	Deadline         *time.Time `json:"deadline,omitempty"`
}

func toJobDTO(j domain.Job) jobDTO {
	return jobDTO{
		ID: j.ID, Title: j.Title, Company: j.Company, Location: j.Location,
		Salary: j.Salary, Description: j.Description, Requirements: j.Requirements,
		Responsibilities: j.Responsibilities, PostedAt: j.PostedAt, Deadline: j.Deadline,
	}
}

type applicationDTO struct {
	ID                 string     `json:"id"`
	JobID              string     `json:"job_id"`
	CandidateID        string     `json:"candidate_id"`
	CandidateName      string     `json:"candidate_name"`
	CandidateEmail     string     `json:"candidate_email"`
	AppliedAt          time.Time  `json:"applied_at"`
	LastStatusUpdateAt *time.Time `json:"last_status_update_at,omitempty"`
	Status             string     `json:"status"`
	Feedback           string     `json:"feedback,omitempty"`
	ResumeHandle       string     `json:"resume_handle,omitempty"`
	Skills             []string   `json:"skills,omitempty"`
	InterviewDate      string     `json:"interview_date,omitempty"`
	InterviewTime      string     `json:"interview_time,omitempty"`
	AIScore            *float64   `json:"ai_score,omitempty"`
	AIReason           string     `json:"ai_reason,omitempty"`
	Version            int        `json:"version"`
}

func toApplicationDTO(a domain.Application) applicationDTO {
	return applicationDTO{
		ID: a.ID, JobID: a.JobID, CandidateID: a.CandidateID,
		CandidateName: a.CandidateName, CandidateEmail: a.CandidateEmail,
		AppliedAt: a.AppliedAt, LastStatusUpdateAt: a.LastStatusUpdateAt,
		Status: string(a.Status), Feedback: a.Feedback, ResumeHandle: a.ResumeHandle,
		Skills: a.Skills, InterviewDate: a.InterviewDate, InterviewTime: a.InterviewTime,
		AIScore: a.AIScore, AIReason: a.AIReason, Version: a.Version,
	}
}

func toApplicationDTOs(apps []domain.Application) []applicationDTO {
	out := make([]applicationDTO, 0, len(apps))
	for _, a := range apps {
		out = append(out, toApplicationDTO(a))
	}
	return out
}

type agentDTO struct {
	ID              string               `json:"id"`
	JobID           string               `json:"job_id"`
	Status          string               `json:"status"`
	Criteria        domain.AgentCriteria `json:"criteria"`
	OutreachEnabled bool                 `json:"outreach_enabled"`
	LastScanAt      *time.Time           `json:"last_scan_at,omitempty"`
	MatchesFound    int                  `json:"matches_found"`
}

func toAgentDTO(a domain.SourcingAgent) agentDTO {
	return agentDTO{
		ID: a.ID, JobID: a.JobID, Status: string(a.Status), Criteria: a.Criteria,
		OutreachEnabled: a.OutreachEnabled, LastScanAt: a.LastScanAt, MatchesFound: a.MatchesFound,
	}
}

// Job handlers

// CreateJobHandler publishes a new listing for the authenticated recruiter.
func (s *Server) CreateJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title            string   `json:"title" validate:"required,max=200"`
			Location         string   `json:"location" validate:"max=200"`
			Salary           string   `json:"salary" validate:"max=100"`
			Description      string   `json:"description" validate:"max=10000"`
			Requirements     []string `json:"requirements" validate:"max=50,dive,max=500"`
			Responsibilities []string `json:"responsibilities" validate:"max=50,dive,max=500"`
			Deadline         *string  `json:"deadline"`
		}
		if !decodeAndValidate(w, r, &req) {
			return
		}
		sess := SessionFrom(r)
		recruiter, err := s.Auth.Users.Get(r.Context(), sess.UserID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		job := domain.Job{
			Title:            req.Title,
			Company:          recruiter.Company,
			Location:         req.Location,
			Salary:           req.Salary,
			Description:      req.Description,
			Requirements:     req.Requirements,
			Responsibilities: req.Responsibilities,
			CreatedBy:        recruiter.ID,
		}
		if req.Deadline != nil {
			d, err := time.Parse(time.RFC3339, *req.Deadline)
			if err != nil {
				writeError(w, r, fmt.Errorf("%w: deadline must be RFC3339", domain.ErrInvalidArgument), nil)
				return
			}
			job.Deadline = &d
		}
		created, err := s.Jobs.Create(r.Context(), job)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toJobDTO(created))
	}
}

// ListJobsHandler returns all listings, or one company's when ?company= is set.
func (s *Server) ListJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			jobs []domain.Job
			err  error
		)
		if company := r.URL.Query().Get("company"); company != "" {
			jobs, err = s.Jobs.ListByCompany(r.Context(), company)
		} else {
			jobs, err = s.Jobs.List(r.Context())
		}
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]jobDTO, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, toJobDTO(j))
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
	}
}

// GetJobHandler returns one listing by id.
func (s *Server) GetJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := s.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toJobDTO(job))
	}
}

// Application handlers

// ApplyHandler handles a candidate's multipart application submission. The
// resume part is optional; when present it is sniffed and stored.
func (s *Server) ApplyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "id")
		sess := SessionFrom(r)

		var filename string
		var data []byte
		if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			if err := r.ParseMultipartForm(maxBytes); err != nil {
				if strings.Contains(strings.ToLower(err.Error()), "too large") {
					writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
						Code: "INVALID_ARGUMENT", Message: "payload too large",
						Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
					}})
					return
				}
				writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
				return
			}
			if file, header, err := r.FormFile("resume"); err == nil {
				defer func() { _ = file.Close() }()
				data, err = io.ReadAll(file)
				if err != nil {
					writeError(w, r, fmt.Errorf("%w: resume read: %v", domain.ErrInvalidArgument, err), nil)
					return
				}
				filename = header.Filename
			}
		}

		app, err := s.Applications.Submit(r.Context(), sess.UserID, jobID, filename, data)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		observability.ObserveSubmission("direct")
		writeJSON(w, http.StatusCreated, toApplicationDTO(app))
	}
}

// ListJobApplicationsHandler returns all applications against a job.
func (s *Server) ListJobApplicationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apps, err := s.Applications.ListByJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"applications": toApplicationDTOs(apps)})
	}
}

// ListCandidateApplicationsHandler returns the caller's application history.
func (s *Server) ListCandidateApplicationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r)
		candidateID := chi.URLParam(r, "id")
		// Candidates can only read their own history; recruiters can read any.
		if sess.Role == domain.RoleCandidate && sess.UserID != candidateID {
			writeError(w, r, fmt.Errorf("%w: not your history", domain.ErrInvalidCredentials), nil)
			return
		}
		apps, err := s.Applications.ListByCandidate(r.Context(), candidateID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"applications": toApplicationDTOs(apps)})
	}
}

// AdvanceHandler moves an application through the lifecycle. With no target in
// the body it applies the default forward step.
func (s *Server) AdvanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Target        string `json:"target" validate:"omitempty,oneof=APPLIED REVIEWING INTERVIEWING SCHEDULED REJECTED OFFER"`
			Feedback      string `json:"feedback" validate:"max=5000"`
			InterviewDate string `json:"interview_date" validate:"max=40"`
			InterviewTime string `json:"interview_time" validate:"max=40"`
		}
		if !decodeAndValidate(w, r, &req) {
			return
		}
		before, err := s.Applications.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}

		var app domain.Application
		if req.Target == "" {
			app, err = s.Applications.AdvanceDefault(r.Context(), id)
		} else {
			app, err = s.Applications.Advance(r.Context(), id, domain.ApplicationStatus(req.Target), domain.AdvanceOptions{
				Feedback:      req.Feedback,
				InterviewDate: req.InterviewDate,
				InterviewTime: req.InterviewTime,
			})
		}
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		observability.ObserveTransition(string(before.Status), string(app.Status))
		// The stats for this company just changed; drop the cached projection.
		if job, jerr := s.Jobs.Get(r.Context(), app.JobID); jerr == nil {
			s.Reputation.Invalidate(r.Context(), job.Company)
		}
		writeJSON(w, http.StatusOK, toApplicationDTO(app))
	}
}

// GetApplicationHandler returns one application by id.
func (s *Server) GetApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := s.Applications.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toApplicationDTO(app))
	}
}

// Reputation handler

// ReputationHandler returns the responsiveness stats for one company.
func (s *Server) ReputationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := chi.URLParam(r, "name")
		stats, err := s.Reputation.ForCompany(r.Context(), company)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		observability.ObserveReputationTier(company, string(stats.Tier))
		writeJSON(w, http.StatusOK, stats)
	}
}

// Assist handlers

// FeedbackAssistHandler drafts rejection feedback text.
func (s *Server) FeedbackAssistHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CandidateName string   `json:"candidate_name" validate:"required,max=200"`
			JobTitle      string   `json:"job_title" validate:"required,max=200"`
			Reasons       []string `json:"reasons" validate:"max=10,dive,max=500"`
			Tone          string   `json:"tone" validate:"max=40"`
		}
		if !decodeAndValidate(w, r, &req) {
			return
		}
		text, err := s.Assist.RejectionFeedback(r.Context(), domain.FeedbackRequest{
			CandidateName: req.CandidateName,
			JobTitle:      req.JobTitle,
			Reasons:       req.Reasons,
			Tone:          req.Tone,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"feedback": text})
	}
}

// CareerAssistHandler drafts a career strategy for a candidate.
func (s *Server) CareerAssistHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CurrentSkills []string `json:"current_skills" validate:"max=50,dive,max=100"`
			TargetRole    string   `json:"target_role" validate:"required,max=200"`
		}
		if !decodeAndValidate(w, r, &req) {
			return
		}
		text, err := s.Assist.CareerStrategy(r.Context(), req.CurrentSkills, req.TargetRole)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"strategy": text})
	}
}

// Sourcing handlers

// CreateAgentHandler attaches a new sourcing agent to a job.
func (s *Server) CreateAgentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JobID           string               `json:"job_id" validate:"required"`
			Criteria        domain.AgentCriteria `json:"criteria"`
			OutreachEnabled bool                 `json:"outreach_enabled"`
		}
		if !decodeAndValidate(w, r, &req) {
			return
		}
		agent, err := s.Sourcing.CreateAgent(r.Context(), req.JobID, req.Criteria, req.OutreachEnabled)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toAgentDTO(agent))
	}
}

// ListAgentsHandler returns every sourcing agent.
func (s *Server) ListAgentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agents, err := s.Sourcing.ListAgents(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]agentDTO, 0, len(agents))
		for _, a := range agents {
			out = append(out, toAgentDTO(a))
		}
		writeJSON(w, http.StatusOK, map[string]any{"agents": out})
	}
}

// ToggleAgentHandler flips an agent between active and paused.
func (s *Server) ToggleAgentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent, err := s.Sourcing.ToggleAgent(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toAgentDTO(agent))
	}
}

// RequestScansHandler enqueues a scan task for every active agent.
func (s *Server) RequestScansHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := s.Sourcing.RequestScans(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		observability.ScansEnqueuedTotal.Add(float64(n))
		writeJSON(w, http.StatusAccepted, map[string]int{"enqueued": n})
	}
}

// ReadyzHandler probes Postgres, Redis, and the Kafka brokers.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 3)
		probe := func(name string, fn func(context.Context) error) {
			if fn == nil {
				return
			}
			if err := fn(ctx); err != nil {
				checks = append(checks, check{Name: name, OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: name, OK: true})
			}
		}
		probe("db", s.DBCheck)
		probe("redis", s.RedisCheck)
		probe("kafka", s.KafkaCheck)
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
