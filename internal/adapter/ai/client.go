// Package ai implements the text and scoring oracle against an
// OpenAI-compatible chat completions endpoint.
package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/clearpathhq/clearpath/internal/adapter/ai/tokencount"
	"github.com/clearpathhq/clearpath/internal/adapter/observability"
	"github.com/clearpathhq/clearpath/internal/config"
	"github.com/clearpathhq/clearpath/internal/domain"
	"github.com/clearpathhq/clearpath/internal/service/ratelimiter"
)

// rateLimitKey is the shared bucket for all outbound chat calls. One bucket
// across operations keeps the provider quota global per deployment.
const rateLimitKey = "ai_chat"

// promptTokenBudget bounds the prompt side of a request. Requests above it are
// rejected locally instead of burning a provider call on a guaranteed 400.
const promptTokenBudget = 8192

// Client implements domain.AIClient.
type Client struct {
	cfg     config.Config
	hc      *http.Client
	limiter ratelimiter.Limiter
	counter *tokencount.Counter
}

// New constructs a Client. limiter may be nil, in which case calls are not
// throttled locally and only the provider's own limits apply.
func New(cfg config.Config, limiter ratelimiter.Limiter) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("AI %s %s", r.Method, r.URL.Host)
		}),
	)
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   cfg.AITimeout,
			Transport: transport,
		},
		limiter: limiter,
		counter: tokencount.NewCounter(),
	}
}

func (c *Client) getBackoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// chatJSON posts a system+user message pair and returns the first choice's
// content. 429 and 5xx responses are retried with exponential backoff; other
// 4xx responses fail permanently.
func (c *Client) chatJSON(ctx domain.Context, operation, systemPrompt, userPrompt string) (string, error) {
	if c.cfg.AIAPIKey == "" {
		return "", fmt.Errorf("%w: AI_API_KEY missing", domain.ErrInvalidArgument)
	}

	if tokens, err := c.counter.CountChatTokens(systemPrompt, userPrompt, c.cfg.AIModel); err == nil && tokens > promptTokenBudget {
		observability.AIRequestsTotal.WithLabelValues(operation, "rejected").Inc()
		return "", fmt.Errorf("%w: prompt of %d tokens exceeds budget %d", domain.ErrInvalidArgument, tokens, promptTokenBudget)
	}

	if c.limiter != nil {
		allowed, retryAfter, err := c.limiter.Allow(ctx, rateLimitKey, 1)
		if err == nil && !allowed {
			observability.AIRequestsTotal.WithLabelValues(operation, "throttled").Inc()
			return "", fmt.Errorf("ai rate limit exhausted, retry after %s", retryAfter)
		}
	}

	reqBody := map[string]any{
		"model":       c.cfg.AIModel,
		"temperature": 0.2,
		"max_tokens":  c.cfg.AIMaxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, _ := json.Marshal(reqBody)

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	op := func() error {
		start := time.Now()
		// Recreate the request each attempt to avoid reusing consumed bodies.
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AIBaseURL+"/chat/completions", bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("Authorization", "Bearer "+c.cfg.AIAPIKey)
		r.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(r)
		observability.AIRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if err != nil {
			observability.AIRequestsTotal.WithLabelValues(operation, "transport_error").Inc()
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			observability.AIRequestsTotal.WithLabelValues(operation, "rate_limited").Inc()
			slog.Warn("ai provider rate limited",
				slog.String("operation", operation),
				slog.Int("status", resp.StatusCode))
			return fmt.Errorf("rate limited: 429")
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			observability.AIRequestsTotal.WithLabelValues(operation, "client_error").Inc()
			slog.Warn("ai provider 4xx",
				slog.String("operation", operation),
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(bodyBytes, 512)))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			observability.AIRequestsTotal.WithLabelValues(operation, "server_error").Inc()
			slog.Error("ai provider non-2xx",
				slog.String("operation", operation),
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(bodyBytes, 512)))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(bodyBytes, &out); err != nil {
			observability.AIRequestsTotal.WithLabelValues(operation, "decode_error").Inc()
			return err
		}
		observability.AIRequestsTotal.WithLabelValues(operation, "ok").Inc()
		return nil
	}

	bo := backoff.WithContext(c.getBackoffConfig(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("op=ai.%s: %w", operation, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=ai.%s: empty choices", operation)
	}
	return out.Choices[0].Message.Content, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

// GenerateRejectionFeedback drafts constructive rejection feedback.
func (c *Client) GenerateRejectionFeedback(ctx domain.Context, req domain.FeedbackRequest) (string, error) {
	system, user := rejectionPrompts(req)
	return c.chatJSON(ctx, "rejection_feedback", system, user)
}

// GenerateCareerStrategy drafts a skill development plan for a candidate.
func (c *Client) GenerateCareerStrategy(ctx domain.Context, currentSkills []string, targetRole string) (string, error) {
	system, user := strategyPrompts(currentSkills, targetRole)
	return c.chatJSON(ctx, "career_strategy", system, user)
}

// ScoreCandidateMatch asks the model to judge a candidate against a job and
// parses its strict-JSON verdict.
func (c *Client) ScoreCandidateMatch(ctx domain.Context, cand domain.ExternalCandidate, job domain.Job) (domain.MatchResult, error) {
	system, user := matchPrompts(cand, job)
	content, err := c.chatJSON(ctx, "candidate_match", system, user)
	if err != nil {
		return domain.MatchResult{}, err
	}
	return parseMatchResult(content)
}

func parseMatchResult(content string) (domain.MatchResult, error) {
	var verdict struct {
		Score  float64 `json:"score"`
		Reason string  `json:"reason"`
	}
	cleaned := stripCodeFence(content)
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return domain.MatchResult{}, fmt.Errorf("op=ai.candidate_match: parse verdict: %w", err)
	}
	if verdict.Reason == "" {
		return domain.MatchResult{}, errors.New("op=ai.candidate_match: verdict missing reason")
	}
	return domain.MatchResult{Score: clampScore(verdict.Score), Reason: verdict.Reason}, nil
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// stripCodeFence removes a surrounding markdown code fence that some models
// wrap JSON output in despite instructions not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
