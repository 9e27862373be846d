package engine

import (
	"math"
	"time"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

// DaysRemaining returns the calendar-day distance from now to the deadline:
// the deadline's midnight minus today's midnight, in days. Negative values
// mean the deadline has passed. The value is stable across the day, unlike a
// raw wall-clock delta. A malformed deadline counts as due today.
func DaysRemaining(deadline string, now time.Time) int {
	due, err := time.ParseInLocation(models.DeadlineLayout, deadline, now.Location())
	if err != nil {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	// Round absorbs the one-hour wobble of DST transitions.
	return int(math.Round(due.Sub(today).Hours() / 24))
}
