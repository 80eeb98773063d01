// Command seed loads demo users, jobs, and applications from a YAML fixture
// into Postgres so a fresh environment has something to show. Safe to re-run:
// existing records are left alone.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clearpathhq/clearpath/internal/adapter/observability"
	"github.com/clearpathhq/clearpath/internal/adapter/repo/postgres"
	"github.com/clearpathhq/clearpath/internal/config"
	"github.com/clearpathhq/clearpath/internal/domain"
	"github.com/clearpathhq/clearpath/internal/usecase"
)

type fixture struct {
	Password string `yaml:"password"`
	Users    []struct {
		Name      string   `yaml:"name"`
		Email     string   `yaml:"email"`
		Role      string   `yaml:"role"`
		Company   string   `yaml:"company"`
		AvatarURL string   `yaml:"avatar_url"`
		Skills    []string `yaml:"skills"`
	} `yaml:"users"`
	Jobs []struct {
		Title            string   `yaml:"title"`
		Company          string   `yaml:"company"`
		Location         string   `yaml:"location"`
		Salary           string   `yaml:"salary"`
		Description      string   `yaml:"description"`
		Requirements     []string `yaml:"requirements"`
		Responsibilities []string `yaml:"responsibilities"`
		PostedDaysAgo    int      `yaml:"posted_days_ago"`
		DeadlineInDays   int      `yaml:"deadline_in_days"`
		CreatedBy        string   `yaml:"created_by"`
	} `yaml:"jobs"`
	Applications []struct {
		Job              string   `yaml:"job"`
		Candidate        string   `yaml:"candidate"`
		CandidateID      string   `yaml:"candidate_id"`
		CandidateName    string   `yaml:"candidate_name"`
		CandidateEmail   string   `yaml:"candidate_email"`
		Status           string   `yaml:"status"`
		AppliedDaysAgo   int      `yaml:"applied_days_ago"`
		RespondedDaysAgo *int     `yaml:"responded_days_ago"`
		Feedback         string   `yaml:"feedback"`
		Skills           []string `yaml:"skills"`
		Version          int      `yaml:"version"`
	} `yaml:"applications"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetDefault(observability.SetupLogger(cfg))

	raw, err := os.ReadFile(cfg.SeedFile)
	if err != nil {
		slog.Error("read fixture failed", slog.String("path", cfg.SeedFile), slog.Any("error", err))
		os.Exit(1)
	}
	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		slog.Error("parse fixture failed", slog.String("path", cfg.SeedFile), slog.Any("error", err))
		os.Exit(1)
	}
	if fx.Password == "" {
		slog.Error("fixture missing password")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	users := postgres.NewUserRepo(pool)
	jobs := postgres.NewJobRepo(pool)
	apps := postgres.NewApplicationRepo(pool)

	hash, err := usecase.HashPassword(fx.Password)
	if err != nil {
		slog.Error("hash password failed", slog.Any("error", err))
		os.Exit(1)
	}

	now := time.Now().UTC()

	userIDs := map[string]string{}
	userNames := map[string]string{}
	for _, u := range fx.Users {
		userNames[u.Email] = u.Name
		existing, err := users.GetByEmail(ctx, u.Email)
		if err == nil {
			userIDs[u.Email] = existing.ID
			slog.Info("user exists, skipping", slog.String("email", u.Email))
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("lookup user failed", slog.String("email", u.Email), slog.Any("error", err))
			os.Exit(1)
		}
		id, err := users.Create(ctx, domain.User{
			Name: u.Name, Email: u.Email, Role: domain.Role(strings.ToLower(u.Role)),
			Company: u.Company, AvatarURL: u.AvatarURL, Skills: u.Skills,
			PasswordHash: hash, CreatedAt: now,
		})
		if err != nil {
			slog.Error("create user failed", slog.String("email", u.Email), slog.Any("error", err))
			os.Exit(1)
		}
		userIDs[u.Email] = id
		slog.Info("user created", slog.String("email", u.Email), slog.String("id", id))
	}

	jobIDs := map[string]string{}
	for _, j := range fx.Jobs {
		existing, err := jobs.ListByCompany(ctx, j.Company)
		if err != nil {
			slog.Error("list jobs failed", slog.Any("error", err))
			os.Exit(1)
		}
		var found string
		for _, e := range existing {
			if e.Title == j.Title {
				found = e.ID
				break
			}
		}
		if found != "" {
			jobIDs[j.Title] = found
			slog.Info("job exists, skipping", slog.String("title", j.Title))
			continue
		}
		job := domain.Job{
			Title: j.Title, Company: j.Company, Location: j.Location, Salary: j.Salary,
			Description: j.Description, Requirements: j.Requirements,
			Responsibilities: j.Responsibilities,
			PostedAt:         now.AddDate(0, 0, -j.PostedDaysAgo),
			CreatedBy:        userIDs[j.CreatedBy],
		}
		if j.DeadlineInDays > 0 {
			deadline := now.AddDate(0, 0, j.DeadlineInDays)
			job.Deadline = &deadline
		}
		id, err := jobs.Create(ctx, job)
		if err != nil {
			slog.Error("create job failed", slog.String("title", j.Title), slog.Any("error", err))
			os.Exit(1)
		}
		jobIDs[j.Title] = id
		slog.Info("job created", slog.String("title", j.Title), slog.String("id", id))
	}

	for _, a := range fx.Applications {
		app := domain.Application{
			JobID:          jobIDs[a.Job],
			CandidateID:    a.CandidateID,
			CandidateName:  a.CandidateName,
			CandidateEmail: a.CandidateEmail,
			Status:         domain.ApplicationStatus(a.Status),
			AppliedAt:      now.AddDate(0, 0, -a.AppliedDaysAgo),
			Feedback:       a.Feedback,
			Skills:         a.Skills,
			Version:        a.Version,
		}
		// `candidate` references a seeded user by email; inline fields cover
		// candidates without an account.
		if a.Candidate != "" {
			app.CandidateID = userIDs[a.Candidate]
			app.CandidateName = userNames[a.Candidate]
			app.CandidateEmail = a.Candidate
		}
		if a.RespondedDaysAgo != nil {
			respondedAt := now.AddDate(0, 0, -*a.RespondedDaysAgo)
			app.LastStatusUpdateAt = &respondedAt
		}
		if _, err := apps.Create(ctx, app); err != nil {
			if errors.Is(err, domain.ErrDuplicateApplication) {
				slog.Info("application exists, skipping", slog.String("candidate", app.CandidateName))
				continue
			}
			slog.Error("create application failed", slog.String("candidate", app.CandidateName), slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("application created", slog.String("candidate", app.CandidateName))
	}

	slog.Info("seed complete", slog.String("demo_password", fx.Password))
}
