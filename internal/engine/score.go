package engine

import (
	"math"
	"time"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

// Score weights. Fit dominates, urgency second, funding third; watchlist
// membership adds a flat boost.
const (
	weightFit     = 0.45
	weightUrgency = 0.30
	weightFunding = 0.20
	watchBoost    = 5.0

	fundingCap = 100000.0
)

// RadarScore blends fit, deadline urgency, funding size, and watchlist status
// into a 0-100 desirability score. Deterministic for a fixed now.
func RadarScore(o models.Opportunity, watched bool, now time.Time) int {
	fitScore := float64(o.Fit) * 20
	urgency := urgencyScore(DaysRemaining(o.Deadline, now))
	fundingScore := math.Min(math.Max(o.Funding, 0), fundingCap) / 1000

	score := weightFit*fitScore + weightUrgency*urgency + weightFunding*fundingScore
	if watched {
		score += watchBoost
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// urgencyScore is a step function of days remaining. Overdue items score zero:
// the action queue surfaces them instead.
func urgencyScore(days int) float64 {
	switch {
	case days < 0:
		return 0
	case days <= 7:
		return 100
	case days <= 14:
		return 85
	case days <= 30:
		return 70
	case days <= 60:
		return 50
	case days <= 90:
		return 35
	default:
		return 20
	}
}
