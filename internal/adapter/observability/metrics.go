package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	ApplicationsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applications_submitted_total",
			Help: "Total number of applications submitted, by origin (direct or sourced)",
		},
		[]string{"origin"},
	)
	StatusTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "application_status_transitions_total",
			Help: "Total number of application lifecycle transitions",
		},
		[]string{"from", "to"},
	)

	ScansEnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sourcing_scans_enqueued_total",
			Help: "Total number of sourcing scan tasks enqueued",
		},
	)
	ScansProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_scans_processed_total",
			Help: "Total number of sourcing scans processed, by outcome",
		},
		[]string{"outcome"},
	)
	ScanMatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sourcing_matches_total",
			Help: "Total number of sourced applications inserted by scans",
		},
	)

	// Last computed tier per company, encoded as a rank so dashboards can
	// alert on drops. 0=New 1=Responsive 2=Consistent 3=Elite.
	CompanyReputationTier = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "company_reputation_tier",
			Help: "Reputation tier rank per company (0=New, 1=Responsive, 2=Consistent, 3=Elite)",
		},
		[]string{"company"},
	)

	// Match score distribution over everything the oracle scored, matched or not.
	MatchScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sourcing_match_score",
			Help:    "Distribution of AI match scores ([0,100])",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(ApplicationsSubmittedTotal)
	prometheus.MustRegister(StatusTransitionsTotal)
	prometheus.MustRegister(ScansEnqueuedTotal)
	prometheus.MustRegister(ScansProcessedTotal)
	prometheus.MustRegister(ScanMatchesTotal)
	prometheus.MustRegister(CompanyReputationTier)
	prometheus.MustRegister(MatchScoreHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

func ObserveTransition(from, to string) {
	StatusTransitionsTotal.WithLabelValues(from, to).Inc()
}

func ObserveSubmission(origin string) {
	ApplicationsSubmittedTotal.WithLabelValues(origin).Inc()
}

func ObserveScanProcessed(outcome string, matches int) {
	ScansProcessedTotal.WithLabelValues(outcome).Inc()
	if matches > 0 {
		ScanMatchesTotal.Add(float64(matches))
	}
}

// ObserveReputationTier records the tier a company scored at.
func ObserveReputationTier(company, tier string) {
	ranks := map[string]float64{"New": 0, "Responsive": 1, "Consistent": 2, "Elite": 3}
	if rank, ok := ranks[tier]; ok {
		CompanyReputationTier.WithLabelValues(company).Set(rank)
	}
}

// ObserveMatchScore records one oracle verdict.
func ObserveMatchScore(score float64) {
	if score >= 0 && score <= 100 {
		MatchScoreHistogram.Observe(score)
	}
}
