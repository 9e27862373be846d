package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

// BriefEmptyFallback is returned verbatim when the view is empty.
const BriefEmptyFallback = "No opportunities match the current filters. Adjust filters to generate a briefing."

// BuildBrief renders the plain-text leadership brief for a filtered view:
// dated header, summary counts, then overdue, urgent, high-fit, top-funding,
// and watchlist sections.
func BuildBrief(items []models.Opportunity, watch models.Watchlist, now time.Time) string {
	if len(items) == 0 {
		return BriefEmptyFallback
	}

	var overdue, urgent, highFit, watchlist []models.Opportunity
	dueIn30 := 0
	for _, item := range items {
		days := DaysRemaining(item.Deadline, now)
		if days < 0 {
			overdue = append(overdue, item)
		}
		if days >= 0 && days <= 14 {
			urgent = append(urgent, item)
		}
		if days >= 0 && days <= 30 {
			dueIn30++
		}
		if item.Fit >= 4 {
			highFit = append(highFit, item)
		}
		if watch.Has(item.ID) {
			watchlist = append(watchlist, item)
		}
	}

	highFitCount := len(highFit)
	sort.SliceStable(highFit, func(i, j int) bool {
		if highFit[i].Fit != highFit[j].Fit {
			return highFit[i].Fit > highFit[j].Fit
		}
		return highFit[i].Funding > highFit[j].Funding
	})
	if len(highFit) > 5 {
		highFit = highFit[:5]
	}

	topFunding := make([]models.Opportunity, len(items))
	copy(topFunding, items)
	sort.SliceStable(topFunding, func(i, j int) bool {
		return topFunding[i].Funding > topFunding[j].Funding
	})
	if len(topFunding) > 3 {
		topFunding = topFunding[:3]
	}

	lineFor := func(item models.Opportunity) string {
		days := DaysRemaining(item.Deadline, now)
		dayLabel := fmt.Sprintf("%dd", days)
		if days < 0 {
			dayLabel = fmt.Sprintf("%dd overdue", -days)
		}
		return fmt.Sprintf("- %s — %s (%s) · %s", item.Name, briefDate(item.Deadline), dayLabel, item.Owner)
	}

	section := func(title string, list []models.Opportunity, fallback string) string {
		if len(list) == 0 {
			return title + "\n" + fallback
		}
		lines := make([]string, 0, len(list))
		for _, item := range list {
			lines = append(lines, lineFor(item))
		}
		return title + "\n" + strings.Join(lines, "\n")
	}

	return strings.Join([]string{
		fmt.Sprintf("Group Scholar Opportunity Radar Brief — %s", now.Format("January 2, 2006")),
		"",
		fmt.Sprintf("Active opportunities: %d", len(items)),
		fmt.Sprintf("Due in 30 days: %d", dueIn30),
		fmt.Sprintf("High-fit (4+): %d", highFitCount),
		fmt.Sprintf("Watchlist: %d", len(watchlist)),
		"",
		section("Overdue", overdue, "No overdue opportunities."),
		"",
		section("Urgent (next 14 days)", urgent, "No urgent deadlines in the next two weeks."),
		"",
		section("High-fit focus", highFit, "No high-fit opportunities in view."),
		"",
		section("Top funding (for leadership review)", topFunding, "No funding data available."),
		"",
		section("Watchlist priorities", watchlist, "No watchlist items selected yet."),
	}, "\n")
}

func briefDate(deadline string) string {
	parsed, err := models.ParseDeadline(deadline)
	if err != nil {
		return deadline
	}
	return parsed.Format("Jan 2, 2006")
}
