package domain

import "time"

// ScoreReputation computes response-rate and responsiveness-tier metrics over
// a set of applications. A "response" is any transition away from APPLIED,
// regardless of outcome. Pure function: same input always yields identical
// output, so it is safe to recompute on every read.
func ScoreReputation(apps []Application) ReputationStats {
	total := len(apps)
	if total == 0 {
		return ReputationStats{Tier: TierNew}
	}

	var responded int
	var sumResponse time.Duration
	var counted int
	for _, app := range apps {
		if app.Status == StatusApplied {
			continue
		}
		responded++
		if app.LastStatusUpdateAt == nil {
			continue
		}
		// Non-positive deltas (clock skew, same-instant fixtures) are excluded
		// from the average rather than dragging it negative.
		if d := app.LastStatusUpdateAt.Sub(app.AppliedAt); d > 0 {
			sumResponse += d
			counted++
		}
	}

	rate := float64(responded) / float64(total) * 100
	var avgDays float64
	if counted > 0 {
		avgDays = sumResponse.Hours() / 24 / float64(counted)
	}

	tier := TierNew
	if total > 5 {
		switch {
		case rate >= 95 && avgDays <= 3:
			tier = TierElite
		case rate >= 85:
			tier = TierConsistent
		case rate >= 70:
			tier = TierResponsive
		}
	}

	return ReputationStats{
		ResponseRate:        rate,
		AvgResponseTimeDays: avgDays,
		TotalApplications:   total,
		TotalResponded:      responded,
		Tier:                tier,
	}
}
