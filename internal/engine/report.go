package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

// Metrics are the headline counts over a view.
type Metrics struct {
	Active  int     `json:"active"`
	DueIn30 int     `json:"due_in_30"`
	HighFit int     `json:"high_fit"`
	AvgFit  float64 `json:"avg_fit"` // one decimal place
}

func ComputeMetrics(items []models.Opportunity, now time.Time) Metrics {
	m := Metrics{Active: len(items)}
	var fitSum int
	for _, item := range items {
		days := DaysRemaining(item.Deadline, now)
		if days >= 0 && days <= 30 {
			m.DueIn30++
		}
		if item.Fit >= 4 {
			m.HighFit++
		}
		fitSum += item.Fit
	}
	if len(items) > 0 {
		m.AvgFit = math.Round(float64(fitSum)/float64(len(items))*10) / 10
	}
	return m
}

// PipelineHealth summarizes where the pipeline is concentrated.
type PipelineHealth struct {
	TopStage      string `json:"top_stage"` // empty when the view is empty
	TopStageCount int    `json:"top_stage_count"`
	Overdue       int    `json:"overdue"`
	Watchlist     int    `json:"watchlist"`
}

// ComputePipelineHealth finds the modal stage (ties broken by first
// appearance), the overdue count, and the watchlist size.
func ComputePipelineHealth(items []models.Opportunity, watch models.Watchlist, now time.Time) PipelineHealth {
	h := PipelineHealth{Watchlist: len(watch)}
	counts := make(map[string]int)
	var firstSeen []string
	for _, item := range items {
		if DaysRemaining(item.Deadline, now) < 0 {
			h.Overdue++
		}
		if _, ok := counts[item.Stage]; !ok {
			firstSeen = append(firstSeen, item.Stage)
		}
		counts[item.Stage]++
	}
	for _, stage := range firstSeen {
		if counts[stage] > h.TopStageCount {
			h.TopStage = stage
			h.TopStageCount = counts[stage]
		}
	}
	return h
}

// CoverageGap names the (region|type) bucket with the fewest members.
type CoverageGap struct {
	Dimension string `json:"dimension"` // "region" or "type"
	Value     string `json:"value"`
	Count     int    `json:"count"`
}

// Signals are the attention-steering callouts above the list.
type Signals struct {
	Soonest        *models.Opportunity `json:"soonest,omitempty"`
	SoonestDays    int                 `json:"soonest_days"`
	TopFunding     *models.Opportunity `json:"top_funding,omitempty"`
	WatchlistCount int                 `json:"watchlist_count"`
	Gap            *CoverageGap        `json:"coverage_gap,omitempty"`
}

func ComputeSignals(items []models.Opportunity, watch models.Watchlist, now time.Time) Signals {
	var s Signals
	for i := range items {
		item := &items[i]
		days := DaysRemaining(item.Deadline, now)
		if s.Soonest == nil || days < s.SoonestDays {
			s.Soonest = item
			s.SoonestDays = days
		}
		if s.TopFunding == nil || item.Funding > s.TopFunding.Funding {
			s.TopFunding = item
		}
		if watch.Has(item.ID) {
			s.WatchlistCount++
		}
	}
	s.Gap = coverageGap(items)
	return s
}

// coverageGap scans the region and type buckets for the thinnest one. Only
// buckets with at most one member qualify; ties break alphabetically on
// "dimension:value".
func coverageGap(items []models.Opportunity) *CoverageGap {
	type bucket struct {
		dim, value string
	}
	counts := make(map[bucket]int)
	for _, item := range items {
		if item.Region != "" {
			counts[bucket{"region", item.Region}]++
		}
		if item.Type != "" {
			counts[bucket{"type", item.Type}]++
		}
	}

	var gap *CoverageGap
	for b, n := range counts {
		if n > 1 {
			continue
		}
		candidate := &CoverageGap{Dimension: b.dim, Value: b.value, Count: n}
		if gap == nil || n < gap.Count ||
			(n == gap.Count && candidate.Dimension+":"+candidate.Value < gap.Dimension+":"+gap.Value) {
			gap = candidate
		}
	}
	return gap
}

// FundingMix totals funding across urgency slices.
type FundingMix struct {
	Total       float64         `json:"total"`
	FitWeighted float64         `json:"fit_weighted"` // funding * fit/5, summed
	DueIn30     float64         `json:"due_in_30"`
	Overdue     float64         `json:"overdue"`
	Horizon     []HorizonBucket `json:"horizon"`
}

// HorizonBucket is one labelled slice of a deadline histogram. Value carries
// a funding total or an item count depending on the report.
type HorizonBucket struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

var fundingHorizonLabels = []string{"overdue", "0-30", "31-60", "61-90", "90+"}

func ComputeFundingMix(items []models.Opportunity, now time.Time) FundingMix {
	mix := FundingMix{Horizon: make([]HorizonBucket, len(fundingHorizonLabels))}
	for i, label := range fundingHorizonLabels {
		mix.Horizon[i].Label = label
	}
	for _, item := range items {
		days := DaysRemaining(item.Deadline, now)
		mix.Total += item.Funding
		mix.FitWeighted += item.Funding * float64(item.Fit) / 5
		switch {
		case days < 0:
			mix.Overdue += item.Funding
			mix.Horizon[0].Value += item.Funding
		case days <= 30:
			mix.DueIn30 += item.Funding
			mix.Horizon[1].Value += item.Funding
		case days <= 60:
			mix.Horizon[2].Value += item.Funding
		case days <= 90:
			mix.Horizon[3].Value += item.Funding
		default:
			mix.Horizon[4].Value += item.Funding
		}
	}
	return mix
}

// OwnerLoad is one owner's slice of the pipeline.
type OwnerLoad struct {
	Owner        string  `json:"owner"`
	Count        int     `json:"count"`
	AvgFit       float64 `json:"avg_fit"`
	Overdue      int     `json:"overdue"`
	DueSoon      int     `json:"due_soon"` // due within 30 days
	NextDays     int     `json:"next_days"`
	NextDeadline string  `json:"next_deadline"`
}

// ComputeOwnerLoad groups the view per owner, top 6 by count, then soonest
// deadline, then owner name.
func ComputeOwnerLoad(items []models.Opportunity, now time.Time) []OwnerLoad {
	byOwner := make(map[string]*OwnerLoad)
	fitSums := make(map[string]int)
	var order []string
	for _, item := range items {
		load, ok := byOwner[item.Owner]
		if !ok {
			load = &OwnerLoad{Owner: item.Owner, NextDays: math.MaxInt32}
			byOwner[item.Owner] = load
			order = append(order, item.Owner)
		}
		days := DaysRemaining(item.Deadline, now)
		load.Count++
		fitSums[item.Owner] += item.Fit
		if days < 0 {
			load.Overdue++
		} else if days <= 30 {
			load.DueSoon++
		}
		if days < load.NextDays {
			load.NextDays = days
			load.NextDeadline = item.Deadline
		}
	}

	loads := make([]OwnerLoad, 0, len(order))
	for _, owner := range order {
		load := *byOwner[owner]
		load.AvgFit = math.Round(float64(fitSums[owner])/float64(load.Count)*10) / 10
		loads = append(loads, load)
	}
	sort.SliceStable(loads, func(i, j int) bool {
		if loads[i].Count != loads[j].Count {
			return loads[i].Count > loads[j].Count
		}
		if loads[i].NextDays != loads[j].NextDays {
			return loads[i].NextDays < loads[j].NextDays
		}
		return loads[i].Owner < loads[j].Owner
	})
	if len(loads) > 6 {
		loads = loads[:6]
	}
	return loads
}

var histogramLabels = []string{"overdue", "0-7", "8-14", "15-30", "31-60", "61-90", "90+"}

// ComputeHorizonHistogram counts items per deadline bucket.
func ComputeHorizonHistogram(items []models.Opportunity, now time.Time) []HorizonBucket {
	buckets := make([]HorizonBucket, len(histogramLabels))
	for i, label := range histogramLabels {
		buckets[i].Label = label
	}
	for _, item := range items {
		days := DaysRemaining(item.Deadline, now)
		idx := 0
		switch {
		case days < 0:
			idx = 0
		case days <= 7:
			idx = 1
		case days <= 14:
			idx = 2
		case days <= 30:
			idx = 3
		case days <= 60:
			idx = 4
		case days <= 90:
			idx = 5
		default:
			idx = 6
		}
		buckets[idx].Value++
	}
	return buckets
}

// HygieneIssue is one data-quality bucket with a short preview.
type HygieneIssue struct {
	Label   string               `json:"label"`
	Count   int                  `json:"count"`
	Preview []models.Opportunity `json:"preview"` // at most 3, most urgent first
}

// ComputeHygiene flags records missing a link, funding amount, or focus note,
// plus overdue entries. Previews are capped to three items sorted by urgency.
func ComputeHygiene(items []models.Opportunity, now time.Time) []HygieneIssue {
	byUrgency := make([]models.Opportunity, len(items))
	copy(byUrgency, items)
	sort.SliceStable(byUrgency, func(i, j int) bool {
		return DaysRemaining(byUrgency[i].Deadline, now) < DaysRemaining(byUrgency[j].Deadline, now)
	})

	collect := func(label string, match func(models.Opportunity) bool) HygieneIssue {
		issue := HygieneIssue{Label: label}
		for _, item := range byUrgency {
			if !match(item) {
				continue
			}
			issue.Count++
			if len(issue.Preview) < 3 {
				issue.Preview = append(issue.Preview, item)
			}
		}
		return issue
	}

	return []HygieneIssue{
		collect("missing link", func(o models.Opportunity) bool { return strings.TrimSpace(o.Link) == "" }),
		collect("missing funding", func(o models.Opportunity) bool { return o.Funding <= 0 }),
		collect("missing focus", func(o models.Opportunity) bool { return strings.TrimSpace(o.Focus) == "" }),
		collect("overdue", func(o models.Opportunity) bool { return DaysRemaining(o.Deadline, now) < 0 }),
	}
}

// ActionSummary counts the view per urgency window.
type ActionSummary struct {
	Overdue int `json:"overdue"`
	DueIn7  int `json:"due_in_7"`
	DueIn14 int `json:"due_in_14"`
	DueIn30 int `json:"due_in_30"`
}

func ComputeActionSummary(items []models.Opportunity, now time.Time) ActionSummary {
	var s ActionSummary
	for _, item := range items {
		days := DaysRemaining(item.Deadline, now)
		if days < 0 {
			s.Overdue++
			continue
		}
		if days <= 7 {
			s.DueIn7++
		}
		if days <= 14 {
			s.DueIn14++
		}
		if days <= 30 {
			s.DueIn30++
		}
	}
	return s
}

// ActionItem is one queue entry: an opportunity tagged with its priority tier
// and a canned next step.
type ActionItem struct {
	models.Opportunity
	Days           int    `json:"days"`
	Priority       int    `json:"priority"` // 0 = overdue ... 4 = beyond 30 days
	Label          string `json:"label"`
	Recommendation string `json:"recommendation"`
}

// ComputeActionQueue tags every item, orders by (priority, days, fit desc,
// funding desc), and keeps the top eight.
func ComputeActionQueue(items []models.Opportunity, now time.Time) []ActionItem {
	queue := make([]ActionItem, 0, len(items))
	for _, item := range items {
		days := DaysRemaining(item.Deadline, now)
		queue = append(queue, ActionItem{
			Opportunity:    item,
			Days:           days,
			Priority:       actionPriority(days),
			Label:          ActionLabel(days),
			Recommendation: actionRecommendation(item.Stage, days),
		})
	}
	sort.SliceStable(queue, func(i, j int) bool {
		a, b := queue[i], queue[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Days != b.Days {
			return a.Days < b.Days
		}
		if a.Fit != b.Fit {
			return a.Fit > b.Fit
		}
		return a.Funding > b.Funding
	})
	if len(queue) > 8 {
		queue = queue[:8]
	}
	return queue
}

func actionPriority(days int) int {
	switch {
	case days < 0:
		return 0
	case days <= 7:
		return 1
	case days <= 14:
		return 2
	case days <= 30:
		return 3
	default:
		return 4
	}
}

// ActionLabel names the urgency window for display.
func ActionLabel(days int) string {
	switch {
	case days < 0:
		return "Overdue"
	case days <= 7:
		return "Due this week"
	case days <= 14:
		return "Due in 2 weeks"
	case days <= 30:
		return "Due this month"
	default:
		return "Future window"
	}
}

// stageContains does the case-insensitive substring check used by the canned
// recommendation rules. Stages are free text, not an enum; first matching rule
// wins in the order written below.
func stageContains(stage string, keywords ...string) bool {
	lowered := strings.ToLower(stage)
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func actionRecommendation(stage string, days int) string {
	switch {
	case days < 0:
		return "Escalate deadline: request extension or close out."
	case days <= 7:
		if stageContains(stage, "review", "final", "submit") {
			return "Finalize submission and confirm upload."
		}
		if stageContains(stage, "draft", "application") {
			return "Complete draft and route for review."
		}
		return "Lock requirements, assign reviewers, and draft package."
	case days <= 14:
		if stageContains(stage, "research", "discovery", "scoping") {
			return "Confirm eligibility and gather requirements."
		}
		if stageContains(stage, "outreach", "partner") {
			return "Schedule partner check-in and confirm intent."
		}
		return "Outline submission plan and assign owners."
	case days <= 30:
		return "Build submission plan and start early drafts."
	default:
		return "Monitor timeline and confirm monthly cadence."
	}
}

// ReadinessTask groups the view by canned prep task.
type ReadinessTask struct {
	Task    string   `json:"task"`
	Count   int      `json:"count"`
	Owners  []string `json:"owners"` // first-seen order
	Soonest int      `json:"soonest"`
}

// ReadinessReport is the prep-work rollup: distinct tasks with counts and
// owners, plus summary chips.
type ReadinessReport struct {
	TaskCount  int             `json:"task_count"`
	OwnerCount int             `json:"owner_count"`
	NextDue    *int            `json:"next_due,omitempty"` // nil when nothing is upcoming
	Overdue    int             `json:"overdue"`
	Tasks      []ReadinessTask `json:"tasks"` // top 5 by count, soonest, task text
}

func ComputeReadiness(items []models.Opportunity, now time.Time) ReadinessReport {
	var report ReadinessReport
	byTask := make(map[string]*ReadinessTask)
	taskOwners := make(map[string]map[string]struct{})
	owners := make(map[string]struct{})
	var order []string

	for _, item := range items {
		days := DaysRemaining(item.Deadline, now)
		task := readinessTask(item.Stage, days)
		owners[item.Owner] = struct{}{}

		if days < 0 {
			report.Overdue++
		} else if report.NextDue == nil || days < *report.NextDue {
			d := days
			report.NextDue = &d
		}

		entry, ok := byTask[task]
		if !ok {
			entry = &ReadinessTask{Task: task, Soonest: days}
			byTask[task] = entry
			taskOwners[task] = make(map[string]struct{})
			order = append(order, task)
		}
		entry.Count++
		if days < entry.Soonest {
			entry.Soonest = days
		}
		if _, seen := taskOwners[task][item.Owner]; !seen {
			taskOwners[task][item.Owner] = struct{}{}
			entry.Owners = append(entry.Owners, item.Owner)
		}
	}

	report.TaskCount = len(byTask)
	report.OwnerCount = len(owners)

	tasks := make([]ReadinessTask, 0, len(order))
	for _, task := range order {
		tasks = append(tasks, *byTask[task])
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Count != tasks[j].Count {
			return tasks[i].Count > tasks[j].Count
		}
		if tasks[i].Soonest != tasks[j].Soonest {
			return tasks[i].Soonest < tasks[j].Soonest
		}
		return tasks[i].Task < tasks[j].Task
	})
	if len(tasks) > 5 {
		tasks = tasks[:5]
	}
	report.Tasks = tasks
	return report
}

func readinessTask(stage string, days int) string {
	switch {
	case days < 0:
		return "Decide extension or archive the submission."
	case days <= 7:
		if stageContains(stage, "review", "final", "submit") {
			return "QA submission package and submit."
		}
		if stageContains(stage, "draft", "application") {
			return "Finalize narrative, budget, and artifacts."
		}
		return "Lock requirements and confirm attachments."
	case days <= 14:
		if stageContains(stage, "research", "discovery", "scoping") {
			return "Confirm eligibility and gather requirements."
		}
		if stageContains(stage, "outreach", "partner") {
			return "Confirm partner commitment and letters."
		}
		return "Draft outline and assign writers."
	case days <= 30:
		return "Schedule kickoff and set a weekly prep cadence."
	default:
		return "Monitor timeline and confirm monthly check-in."
	}
}

// FormatCurrency renders whole-dollar USD with thousands separators, or "N/A"
// for zero.
func FormatCurrency(amount float64) string {
	if amount <= 0 {
		return "N/A"
	}
	whole := int64(math.Round(amount))
	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	b.WriteByte('$')
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
		if len(digits) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
