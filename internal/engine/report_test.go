package engine

import (
	"testing"
	"time"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

var reportNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func reportFixture() []models.Opportunity {
	return []models.Opportunity{
		{ID: "a", Name: "Arts Fund", Owner: "Maria", Region: "Europe", Type: "Foundation", Stage: "Draft", Deadline: date(reportNow, 5), Fit: 5, Funding: 50000, Link: "https://a.example", Focus: "arts"},
		{ID: "b", Name: "Bio Grant", Owner: "Lukas", Region: "Global", Type: "Government", Stage: "Review", Deadline: date(reportNow, -2), Fit: 2, Funding: 0, Focus: "bio"},
		{ID: "c", Name: "Climate Call", Owner: "Priya", Region: "Europe", Type: "Government", Stage: "Research", Deadline: date(reportNow, 45), Fit: 4, Funding: 250000, Link: "https://c.example"},
		{ID: "d", Name: "Digital Equity", Owner: "Maria", Region: "Global", Type: "Corporate", Stage: "Outreach", Deadline: date(reportNow, 14), Fit: 3, Funding: 80000, Link: "https://d.example", Focus: "equity"},
	}
}

func TestComputeMetrics(t *testing.T) {
	m := ComputeMetrics(reportFixture(), reportNow)

	if m.Active != 4 {
		t.Fatalf("expected 4 active, got %d", m.Active)
	}
	if m.DueIn30 != 2 {
		t.Fatalf("expected 2 due in 30, got %d", m.DueIn30)
	}
	if m.HighFit != 2 {
		t.Fatalf("expected 2 high fit, got %d", m.HighFit)
	}
	if m.AvgFit != 3.5 {
		t.Fatalf("expected avg fit 3.5, got %g", m.AvgFit)
	}
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(nil, reportNow)
	if m.Active != 0 || m.AvgFit != 0 {
		t.Fatalf("expected zero metrics, got %+v", m)
	}
}

func TestComputePipelineHealth_ModalStageTie(t *testing.T) {
	// Draft and Review both appear twice; Draft appears first in the input
	// and must win the tie.
	items := []models.Opportunity{
		{ID: "1", Stage: "Draft", Deadline: date(reportNow, 5)},
		{ID: "2", Stage: "Review", Deadline: date(reportNow, 6)},
		{ID: "3", Stage: "Draft", Deadline: date(reportNow, -1)},
		{ID: "4", Stage: "Review", Deadline: date(reportNow, 8)},
	}
	h := ComputePipelineHealth(items, models.NewWatchlist("2", "4"), reportNow)

	if h.TopStage != "Draft" || h.TopStageCount != 2 {
		t.Fatalf("expected Draft x2, got %q x%d", h.TopStage, h.TopStageCount)
	}
	if h.Overdue != 1 {
		t.Fatalf("expected 1 overdue, got %d", h.Overdue)
	}
	if h.Watchlist != 2 {
		t.Fatalf("expected watchlist 2, got %d", h.Watchlist)
	}
}

func TestComputePipelineHealth_Empty(t *testing.T) {
	h := ComputePipelineHealth(nil, models.NewWatchlist(), reportNow)
	if h.TopStage != "" || h.TopStageCount != 0 {
		t.Fatalf("expected empty top stage, got %+v", h)
	}
}

func TestComputeSignals(t *testing.T) {
	s := ComputeSignals(reportFixture(), models.NewWatchlist("a"), reportNow)

	if s.Soonest == nil || s.Soonest.ID != "b" || s.SoonestDays != -2 {
		t.Fatalf("expected soonest b at -2 days, got %+v", s.Soonest)
	}
	if s.TopFunding == nil || s.TopFunding.ID != "c" {
		t.Fatalf("expected top funding c, got %+v", s.TopFunding)
	}
	if s.WatchlistCount != 1 {
		t.Fatalf("expected watchlist count 1, got %d", s.WatchlistCount)
	}
	// Corporate and Foundation both count 1; "type:Corporate" sorts first.
	if s.Gap == nil || s.Gap.Dimension != "type" || s.Gap.Value != "Corporate" {
		t.Fatalf("expected gap type:Corporate, got %+v", s.Gap)
	}
}

func TestCoverageGap_NoThinBuckets(t *testing.T) {
	items := []models.Opportunity{
		{Region: "Europe", Type: "Foundation"},
		{Region: "Europe", Type: "Foundation"},
	}
	if gap := coverageGap(items); gap != nil {
		t.Fatalf("expected no gap, got %+v", gap)
	}
}

func TestComputeFundingMix(t *testing.T) {
	mix := ComputeFundingMix(reportFixture(), reportNow)

	if mix.Total != 380000 {
		t.Fatalf("expected total 380000, got %g", mix.Total)
	}
	// 50000*5/5 + 0 + 250000*4/5 + 80000*3/5 = 50000 + 200000 + 48000
	if mix.FitWeighted != 298000 {
		t.Fatalf("expected fit-weighted 298000, got %g", mix.FitWeighted)
	}
	if mix.DueIn30 != 130000 {
		t.Fatalf("expected due-in-30 130000, got %g", mix.DueIn30)
	}
	if mix.Overdue != 0 {
		t.Fatalf("expected overdue 0, got %g", mix.Overdue)
	}
	if mix.Horizon[2].Label != "31-60" || mix.Horizon[2].Value != 250000 {
		t.Fatalf("expected 31-60 bucket 250000, got %+v", mix.Horizon[2])
	}
}

func TestComputeOwnerLoad(t *testing.T) {
	loads := ComputeOwnerLoad(reportFixture(), reportNow)

	if len(loads) != 3 {
		t.Fatalf("expected 3 owners, got %d", len(loads))
	}
	if loads[0].Owner != "Maria" || loads[0].Count != 2 {
		t.Fatalf("expected Maria x2 first, got %+v", loads[0])
	}
	if loads[0].NextDays != 5 || loads[0].NextDeadline != date(reportNow, 5) {
		t.Fatalf("expected Maria next in 5 days, got %+v", loads[0])
	}
	if loads[0].AvgFit != 4.0 {
		t.Fatalf("expected Maria avg fit 4.0, got %g", loads[0].AvgFit)
	}
	// Lukas (-2) sorts before Priya (45) on next deadline.
	if loads[1].Owner != "Lukas" || loads[2].Owner != "Priya" {
		t.Fatalf("expected Lukas then Priya, got %q then %q", loads[1].Owner, loads[2].Owner)
	}
	if loads[1].Overdue != 1 {
		t.Fatalf("expected Lukas overdue 1, got %d", loads[1].Overdue)
	}
}

func TestComputeOwnerLoad_CapsAtSix(t *testing.T) {
	var items []models.Opportunity
	for _, owner := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		items = append(items, models.Opportunity{Owner: owner, Deadline: date(reportNow, 10), Fit: 3})
	}
	if loads := ComputeOwnerLoad(items, reportNow); len(loads) != 6 {
		t.Fatalf("expected 6 owners, got %d", len(loads))
	}
}

func TestComputeHorizonHistogram(t *testing.T) {
	buckets := ComputeHorizonHistogram(reportFixture(), reportNow)

	expected := map[string]float64{
		"overdue": 1, "0-7": 1, "8-14": 1, "15-30": 0, "31-60": 1, "61-90": 0, "90+": 0,
	}
	for _, b := range buckets {
		if b.Value != expected[b.Label] {
			t.Fatalf("bucket %q: expected %g, got %g", b.Label, expected[b.Label], b.Value)
		}
	}
}

func TestComputeHygiene(t *testing.T) {
	issues := ComputeHygiene(reportFixture(), reportNow)

	byLabel := make(map[string]HygieneIssue)
	for _, issue := range issues {
		byLabel[issue.Label] = issue
	}

	if got := byLabel["missing link"]; got.Count != 1 || got.Preview[0].ID != "b" {
		t.Fatalf("missing link: got %+v", got)
	}
	if got := byLabel["missing funding"]; got.Count != 1 {
		t.Fatalf("missing funding: got %+v", got)
	}
	if got := byLabel["missing focus"]; got.Count != 1 || got.Preview[0].ID != "c" {
		t.Fatalf("missing focus: got %+v", got)
	}
	if got := byLabel["overdue"]; got.Count != 1 || got.Preview[0].ID != "b" {
		t.Fatalf("overdue: got %+v", got)
	}
}

func TestComputeHygiene_PreviewCap(t *testing.T) {
	var items []models.Opportunity
	for i := 0; i < 5; i++ {
		items = append(items, models.Opportunity{ID: string(rune('a' + i)), Deadline: date(reportNow, i)})
	}
	issues := ComputeHygiene(items, reportNow)
	for _, issue := range issues {
		if issue.Label != "missing link" {
			continue
		}
		if issue.Count != 5 {
			t.Fatalf("expected count 5, got %d", issue.Count)
		}
		if len(issue.Preview) != 3 {
			t.Fatalf("expected preview capped at 3, got %d", len(issue.Preview))
		}
		// Soonest deadlines first.
		if issue.Preview[0].ID != "a" || issue.Preview[2].ID != "c" {
			t.Fatalf("expected previews a..c, got %+v", issue.Preview)
		}
	}
}

func TestComputeActionSummary(t *testing.T) {
	s := ComputeActionSummary(reportFixture(), reportNow)

	if s.Overdue != 1 {
		t.Fatalf("expected 1 overdue, got %d", s.Overdue)
	}
	if s.DueIn7 != 1 || s.DueIn14 != 2 || s.DueIn30 != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestComputeActionQueue_Ordering(t *testing.T) {
	// An overdue item outranks an item due in 5 days regardless of fit.
	items := []models.Opportunity{
		{ID: "a", Stage: "Draft", Deadline: date(reportNow, 5), Fit: 5, Funding: 90000},
		{ID: "b", Stage: "Review", Deadline: date(reportNow, -3), Fit: 1, Funding: 0},
	}
	queue := ComputeActionQueue(items, reportNow)

	if len(queue) != 2 {
		t.Fatalf("expected 2 items, got %d", len(queue))
	}
	if queue[0].ID != "b" || queue[1].ID != "a" {
		t.Fatalf("expected b before a, got %q then %q", queue[0].ID, queue[1].ID)
	}
	if queue[0].Label != "Overdue" || queue[1].Label != "Due this week" {
		t.Fatalf("unexpected labels %q / %q", queue[0].Label, queue[1].Label)
	}
	if queue[0].Recommendation != "Escalate deadline: request extension or close out." {
		t.Fatalf("unexpected recommendation %q", queue[0].Recommendation)
	}
	if queue[1].Recommendation != "Complete draft and route for review." {
		t.Fatalf("unexpected recommendation %q", queue[1].Recommendation)
	}
}

func TestComputeActionQueue_FitThenFundingTiebreak(t *testing.T) {
	items := []models.Opportunity{
		{ID: "low", Deadline: date(reportNow, 5), Fit: 2, Funding: 10000},
		{ID: "rich", Deadline: date(reportNow, 5), Fit: 4, Funding: 20000},
		{ID: "poor", Deadline: date(reportNow, 5), Fit: 4, Funding: 5000},
	}
	queue := ComputeActionQueue(items, reportNow)

	if queue[0].ID != "rich" || queue[1].ID != "poor" || queue[2].ID != "low" {
		t.Fatalf("unexpected order %q %q %q", queue[0].ID, queue[1].ID, queue[2].ID)
	}
}

func TestComputeActionQueue_CapsAtEight(t *testing.T) {
	var items []models.Opportunity
	for i := 0; i < 12; i++ {
		items = append(items, models.Opportunity{Deadline: date(reportNow, i), Fit: 3})
	}
	if queue := ComputeActionQueue(items, reportNow); len(queue) != 8 {
		t.Fatalf("expected 8 items, got %d", len(queue))
	}
}

func TestActionLabel(t *testing.T) {
	tests := []struct {
		days     int
		expected string
	}{
		{-1, "Overdue"},
		{0, "Due this week"},
		{7, "Due this week"},
		{8, "Due in 2 weeks"},
		{14, "Due in 2 weeks"},
		{15, "Due this month"},
		{30, "Due this month"},
		{31, "Future window"},
	}
	for _, tt := range tests {
		if got := ActionLabel(tt.days); got != tt.expected {
			t.Fatalf("ActionLabel(%d): expected %q, got %q", tt.days, tt.expected, got)
		}
	}
}

func TestComputeReadiness(t *testing.T) {
	report := ComputeReadiness(reportFixture(), reportNow)

	if report.OwnerCount != 3 {
		t.Fatalf("expected 3 owners, got %d", report.OwnerCount)
	}
	if report.Overdue != 1 {
		t.Fatalf("expected 1 overdue, got %d", report.Overdue)
	}
	if report.NextDue == nil || *report.NextDue != 5 {
		t.Fatalf("expected next due 5, got %v", report.NextDue)
	}
	if report.TaskCount != len(report.Tasks) {
		t.Fatalf("task count %d does not match %d tasks", report.TaskCount, len(report.Tasks))
	}

	// The overdue item maps to the archive-or-extend task.
	found := false
	for _, task := range report.Tasks {
		if task.Task == "Decide extension or archive the submission." {
			found = true
			if task.Count != 1 || task.Soonest != -2 {
				t.Fatalf("unexpected overdue task %+v", task)
			}
		}
	}
	if !found {
		t.Fatal("expected the overdue readiness task")
	}
}

func TestComputeReadiness_Empty(t *testing.T) {
	report := ComputeReadiness(nil, reportNow)
	if report.NextDue != nil || report.TaskCount != 0 || len(report.Tasks) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{0, "N/A"},
		{-50, "N/A"},
		{999, "$999"},
		{1000, "$1,000"},
		{250000, "$250,000"},
		{1234567.4, "$1,234,567"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.amount); got != tt.expected {
			t.Fatalf("FormatCurrency(%g): expected %q, got %q", tt.amount, tt.expected, got)
		}
	}
}
