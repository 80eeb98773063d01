package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// ReputationService computes company reputation stats from application
// history. Results are cached in Redis with a short TTL; the cache is a pure
// accelerator and every miss or Redis failure falls through to a recompute.
type ReputationService struct {
	Apps  domain.ApplicationRepository
	Redis *redis.Client
	TTL   time.Duration
}

// NewReputationService constructs a ReputationService. rdb may be nil, in
// which case every call recomputes.
func NewReputationService(a domain.ApplicationRepository, rdb *redis.Client, ttl time.Duration) ReputationService {
	return ReputationService{Apps: a, Redis: rdb, TTL: ttl}
}

func reputationKey(company string) string { return "reputation:" + company }

// ForCompany returns the reputation stats for one company.
func (s ReputationService) ForCompany(ctx domain.Context, company string) (domain.ReputationStats, error) {
	if company == "" {
		return domain.ReputationStats{}, fmt.Errorf("%w: company required", domain.ErrInvalidArgument)
	}
	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, reputationKey(company)).Bytes(); err == nil {
			var stats domain.ReputationStats
			if err := json.Unmarshal(raw, &stats); err == nil {
				return stats, nil
			}
		}
	}

	apps, err := s.Apps.ListByCompany(ctx, company)
	if err != nil {
		return domain.ReputationStats{}, fmt.Errorf("op=reputation.for_company: %w", err)
	}
	stats := domain.ScoreReputation(apps)

	if s.Redis != nil && s.TTL > 0 {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.Redis.Set(ctx, reputationKey(company), raw, s.TTL).Err(); err != nil {
				slog.Debug("reputation cache set failed", slog.String("company", company), slog.Any("error", err))
			}
		}
	}
	return stats, nil
}

// Invalidate drops the cached stats for a company, typically after a status
// transition on one of its applications.
func (s ReputationService) Invalidate(ctx domain.Context, company string) {
	if s.Redis == nil || company == "" {
		return
	}
	if err := s.Redis.Del(ctx, reputationKey(company)).Err(); err != nil {
		slog.Debug("reputation cache invalidate failed", slog.String("company", company), slog.Any("error", err))
	}
}
