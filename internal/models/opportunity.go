package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DeadlineLayout is the only accepted wire format for deadlines. Dates carry no
// time component and are always interpreted at local midnight.
const DeadlineLayout = "2006-01-02"

// Opportunity is a single trackable funding record. Base-catalog entries are
// immutable; custom entries belong to the client that created them and are
// replaced wholesale on upsert.
type Opportunity struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Deadline string  `json:"deadline" yaml:"deadline"`
	Region   string  `json:"region" yaml:"region"`
	Type     string  `json:"type" yaml:"type"`
	Stage    string  `json:"stage" yaml:"stage"`
	Owner    string  `json:"owner" yaml:"owner"`
	Funding  float64 `json:"funding" yaml:"funding"`
	Fit      int     `json:"fit" yaml:"fit"`
	Focus    string  `json:"focus,omitempty" yaml:"focus,omitempty"`
	Link     string  `json:"link,omitempty" yaml:"link,omitempty"`
	Custom   bool    `json:"custom" yaml:"custom,omitempty"`
}

// Watchlist is a client-scoped set of opportunity ids. Membership is boolean,
// no metadata.
type Watchlist map[string]struct{}

func NewWatchlist(ids ...string) Watchlist {
	w := make(Watchlist, len(ids))
	for _, id := range ids {
		w[id] = struct{}{}
	}
	return w
}

func (w Watchlist) Has(id string) bool {
	_, ok := w[id]
	return ok
}

func (w Watchlist) Add(id string)    { w[id] = struct{}{} }
func (w Watchlist) Remove(id string) { delete(w, id) }

// IDs returns the members in unspecified order; callers that need ordering
// must sort.
func (w Watchlist) IDs() []string {
	ids := make([]string, 0, len(w))
	for id := range w {
		ids = append(ids, id)
	}
	return ids
}

// ParseDeadline parses a YYYY-MM-DD date at local midnight.
func ParseDeadline(value string) (time.Time, error) {
	return time.ParseInLocation(DeadlineLayout, strings.TrimSpace(value), time.Local)
}

// CoerceFunding converts arbitrary JSON-ish input to a non-negative funding
// amount. Anything unparseable, negative, NaN, or infinite collapses to 0.
func CoerceFunding(value interface{}) float64 {
	f, ok := toFloat(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// CoerceFit converts arbitrary input to a fit score in 1..5, defaulting to 3
// when the value is absent or out of range.
func CoerceFit(value interface{}) int {
	f, ok := toFloat(value)
	if !ok {
		return 3
	}
	fit := int(f)
	if fit < 1 || fit > 5 {
		return 3
	}
	return fit
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
