package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

var briefNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestBuildBrief_EmptyView(t *testing.T) {
	got := BuildBrief(nil, models.NewWatchlist(), briefNow)
	if got != BriefEmptyFallback {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestBuildBrief_Header(t *testing.T) {
	items := []models.Opportunity{
		{ID: "a", Name: "Arts Fund", Owner: "Maria", Deadline: date(briefNow, 5), Fit: 3},
	}
	got := BuildBrief(items, models.NewWatchlist(), briefNow)

	lines := strings.Split(got, "\n")
	if lines[0] != "Group Scholar Opportunity Radar Brief — March 10, 2026" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[2] != "Active opportunities: 1" {
		t.Fatalf("unexpected count line %q", lines[2])
	}
	if lines[3] != "Due in 30 days: 1" {
		t.Fatalf("unexpected count line %q", lines[3])
	}
	if lines[4] != "High-fit (4+): 0" {
		t.Fatalf("unexpected count line %q", lines[4])
	}
	if lines[5] != "Watchlist: 0" {
		t.Fatalf("unexpected count line %q", lines[5])
	}
}

func TestBuildBrief_Sections(t *testing.T) {
	items := []models.Opportunity{
		{ID: "a", Name: "Arts Fund", Owner: "Maria", Deadline: date(briefNow, 5), Fit: 5, Funding: 50000},
		{ID: "b", Name: "Bio Grant", Owner: "Lukas", Deadline: date(briefNow, -2), Fit: 2},
		{ID: "c", Name: "Climate Call", Owner: "Priya", Deadline: date(briefNow, 45), Fit: 4, Funding: 250000},
	}
	got := BuildBrief(items, models.NewWatchlist("c"), briefNow)

	overdueLine := "- Bio Grant — " + briefDate(date(briefNow, -2)) + " (2d overdue) · Lukas"
	if !strings.Contains(got, "Overdue\n"+overdueLine) {
		t.Fatalf("missing overdue line in:\n%s", got)
	}

	urgentLine := "- Arts Fund — " + briefDate(date(briefNow, 5)) + " (5d) · Maria"
	if !strings.Contains(got, "Urgent (next 14 days)\n"+urgentLine) {
		t.Fatalf("missing urgent line in:\n%s", got)
	}

	// High-fit sorts by fit then funding: Arts Fund (5) before Climate Call (4).
	hfIdx := strings.Index(got, "High-fit focus")
	if hfIdx < 0 {
		t.Fatalf("missing high-fit section in:\n%s", got)
	}
	hfSection := got[hfIdx:]
	if strings.Index(hfSection, "Arts Fund") > strings.Index(hfSection, "Climate Call") {
		t.Fatalf("expected Arts Fund before Climate Call in:\n%s", hfSection)
	}

	// Top funding sorts descending: Climate Call first.
	tfIdx := strings.Index(got, "Top funding (for leadership review)")
	if tfIdx < 0 {
		t.Fatalf("missing top funding section in:\n%s", got)
	}
	tfSection := got[tfIdx:]
	if strings.Index(tfSection, "Climate Call") > strings.Index(tfSection, "Arts Fund") {
		t.Fatalf("expected Climate Call first in:\n%s", tfSection)
	}

	if !strings.Contains(got, "Watchlist priorities\n- Climate Call") {
		t.Fatalf("missing watchlist section in:\n%s", got)
	}
}

func TestBuildBrief_SectionFallbacks(t *testing.T) {
	items := []models.Opportunity{
		{ID: "a", Name: "Arts Fund", Owner: "Maria", Deadline: date(briefNow, 90), Fit: 2},
	}
	got := BuildBrief(items, models.NewWatchlist(), briefNow)

	for _, fallback := range []string{
		"No overdue opportunities.",
		"No urgent deadlines in the next two weeks.",
		"No high-fit opportunities in view.",
		"No watchlist items selected yet.",
	} {
		if !strings.Contains(got, fallback) {
			t.Fatalf("missing fallback %q in:\n%s", fallback, got)
		}
	}
}

func TestBuildBrief_HighFitCapsAtFive(t *testing.T) {
	var items []models.Opportunity
	for i := 0; i < 7; i++ {
		items = append(items, models.Opportunity{
			ID:       string(rune('a' + i)),
			Name:     "Grant " + string(rune('A'+i)),
			Owner:    "Maria",
			Deadline: date(briefNow, 40+i),
			Fit:      5,
		})
	}
	got := BuildBrief(items, models.NewWatchlist(), briefNow)

	hfIdx := strings.Index(got, "High-fit focus")
	tfIdx := strings.Index(got, "Top funding")
	section := got[hfIdx:tfIdx]
	if n := strings.Count(section, "- Grant"); n != 5 {
		t.Fatalf("expected 5 high-fit lines, got %d", n)
	}
	if !strings.Contains(got, "High-fit (4+): 7") {
		t.Fatalf("expected the full high-fit count in:\n%s", got)
	}
}
