package engine

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

// Filter sentinels and sort orders.
const (
	FilterAll     = "all"
	WindowOverdue = "overdue"

	SortDeadline = "deadline"
	SortFit      = "fit"
	SortFunding  = "funding"
	SortRadar    = "radar"
)

// Criteria is one filter/sort selection. Zero values for the select fields
// mean "all"; an empty Window means "all"; an empty Sort means deadline order.
type Criteria struct {
	Search string
	Type   string
	Stage  string
	Region string
	Window string // "all", "overdue", or a non-negative day count
	Sort   string
}

// DefaultCriteria matches everything, ordered by soonest deadline.
func DefaultCriteria() Criteria {
	return Criteria{
		Type:   FilterAll,
		Stage:  FilterAll,
		Region: FilterAll,
		Window: FilterAll,
		Sort:   SortDeadline,
	}
}

// FilterAndSort derives an ordered view from the full collection. The input
// slice is never mutated; ties keep their input order (stable sort).
func FilterAndSort(all []models.Opportunity, c Criteria, watch models.Watchlist, now time.Time) []models.Opportunity {
	search := strings.ToLower(strings.TrimSpace(c.Search))

	filtered := make([]models.Opportunity, 0, len(all))
	for _, item := range all {
		if search != "" {
			haystack := strings.ToLower(item.Name + " " + item.Owner + " " + item.Focus)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		if !matchesSelect(c.Type, item.Type) || !matchesSelect(c.Stage, item.Stage) || !matchesSelect(c.Region, item.Region) {
			continue
		}
		if !matchesWindow(c.Window, DaysRemaining(item.Deadline, now)) {
			continue
		}
		filtered = append(filtered, item)
	}

	switch c.Sort {
	case SortFit:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Fit > filtered[j].Fit
		})
	case SortFunding:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Funding > filtered[j].Funding
		})
	case SortRadar:
		sort.SliceStable(filtered, func(i, j int) bool {
			return RadarScore(filtered[i], watch.Has(filtered[i].ID), now) >
				RadarScore(filtered[j], watch.Has(filtered[j].ID), now)
		})
	default: // deadline
		sort.SliceStable(filtered, func(i, j int) bool {
			return DaysRemaining(filtered[i].Deadline, now) < DaysRemaining(filtered[j].Deadline, now)
		})
	}

	return filtered
}

func matchesSelect(selected, value string) bool {
	return selected == "" || selected == FilterAll || selected == value
}

func matchesWindow(window string, days int) bool {
	switch window {
	case "", FilterAll:
		return true
	case WindowOverdue:
		return days < 0
	default:
		n, err := strconv.Atoi(window)
		if err != nil || n < 0 {
			return true
		}
		return days >= 0 && days <= n
	}
}

// SelectOptions returns the distinct values of one dimension, sorted, for
// populating filter dropdowns.
func SelectOptions(all []models.Opportunity, pick func(models.Opportunity) string) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, item := range all {
		v := pick(item)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
