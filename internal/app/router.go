package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/clearpathhq/clearpath/internal/adapter/httpserver"
	"github.com/clearpathhq/clearpath/internal/adapter/observability"
	"github.com/clearpathhq/clearpath/internal/config"
	"github.com/clearpathhq/clearpath/internal/domain"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	// Security & instrumentation middleware
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(30 * time.Second))
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	// CORS. Credentials are needed for the session cookie.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Auth endpoints, rate limited harder than the rest.
	r.Group(func(ar chi.Router) {
		ar.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		ar.Post("/v1/auth/register", srv.RegisterHandler())
		ar.Post("/v1/auth/login", srv.LoginHandler())
		ar.Post("/v1/auth/logout", srv.LogoutHandler())
	})

	// Public read-only listings.
	r.Get("/v1/jobs", srv.ListJobsHandler())
	r.Get("/v1/jobs/{id}", srv.GetJobHandler())
	r.Get("/v1/companies/{name}/reputation", srv.ReputationHandler())

	// Authenticated routes.
	r.Group(func(sr chi.Router) {
		sr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		sr.Use(srv.Sessions.AuthRequired)

		sr.Get("/v1/auth/me", srv.MeHandler())
		sr.Get("/v1/candidates/{id}/applications", srv.ListCandidateApplicationsHandler())

		// Candidate-only surface.
		sr.Group(func(cr chi.Router) {
			cr.Use(srv.Sessions.RoleRequired(domain.RoleCandidate))
			cr.Post("/v1/jobs/{id}/apply", srv.ApplyHandler())
			cr.Post("/v1/assist/career", srv.CareerAssistHandler())
		})

		// Recruiter-only surface.
		sr.Group(func(rr chi.Router) {
			rr.Use(srv.Sessions.RoleRequired(domain.RoleRecruiter))
			rr.Post("/v1/jobs", srv.CreateJobHandler())
			rr.Get("/v1/jobs/{id}/applications", srv.ListJobApplicationsHandler())
			rr.Get("/v1/applications/{id}", srv.GetApplicationHandler())
			rr.Post("/v1/applications/{id}/advance", srv.AdvanceHandler())
			rr.Post("/v1/assist/feedback", srv.FeedbackAssistHandler())
			rr.Post("/v1/agents", srv.CreateAgentHandler())
			rr.Get("/v1/agents", srv.ListAgentsHandler())
			rr.Post("/v1/agents/{id}/toggle", srv.ToggleAgentHandler())
			rr.Post("/v1/agents/scan", srv.RequestScansHandler())
		})
	})

	// Health and metrics
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })
	r.Get("/readyz", srv.ReadyzHandler())

	return httpserver.SecurityHeaders(r)
}
