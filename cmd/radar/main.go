// Command radar is the team-facing reporting CLI. It loads the current
// opportunity set (backend when reachable, local cache otherwise), applies
// filters, and renders the radar view, action queue, readiness rollup, a
// plain-text brief, or CSV/ICS export files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/groupscholar/opportunity-radar/internal/config"
	"github.com/groupscholar/opportunity-radar/internal/engine"
	"github.com/groupscholar/opportunity-radar/internal/export"
	"github.com/groupscholar/opportunity-radar/internal/logging"
	"github.com/groupscholar/opportunity-radar/internal/models"
	"github.com/groupscholar/opportunity-radar/internal/state"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to yaml config file")
		search  = flag.String("search", "", "free-text filter over name, owner, and focus")
		typ     = flag.String("type", "all", "opportunity type filter")
		stage   = flag.String("stage", "all", "stage filter")
		region  = flag.String("region", "all", "region filter")
		window  = flag.String("window", "all", `deadline window: "all", "overdue", or a day count`)
		sortBy  = flag.String("sort", "deadline", "sort order: deadline, fit, funding, radar")
		today   = flag.String("today", "", "override today's date (YYYY-MM-DD)")

		brief   = flag.Bool("brief", false, "print the leadership brief instead of the table")
		csvPath = flag.String("csv", "", "write the full collection as CSV to this path")
		icsPath = flag.String("ics", "", "write the filtered view as an iCalendar file to this path")

		addName     = flag.String("add", "", "add a custom opportunity with this name")
		addDeadline = flag.String("deadline", "", "deadline for -add (YYYY-MM-DD)")
		addOwner    = flag.String("owner", "", "owner for -add")
		addRegion   = flag.String("add-region", "", "region for -add")
		addType     = flag.String("add-type", "", "type for -add")
		addStage    = flag.String("add-stage", "", "stage for -add")
		addFunding  = flag.Float64("funding", 0, "funding amount for -add")
		addFit      = flag.Int("fit", 3, "fit score 1-5 for -add")
		addFocus    = flag.String("focus", "", "focus note for -add")
		addLink     = flag.String("link", "", "link for -add")

		removeID = flag.String("remove", "", "delete the custom opportunity with this id")
		watchID  = flag.String("watch", "", "toggle watchlist membership for this id")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	logger, err := logging.New("warn")
	if err != nil {
		fatal("failed to build logger: %v", err)
	}
	defer logger.Sync()

	now := time.Now()
	if *today != "" {
		parsed, err := models.ParseDeadline(*today)
		if err != nil {
			fatal("invalid -today value %q: must be YYYY-MM-DD", *today)
		}
		now = parsed.Add(12 * time.Hour)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adapter := state.New(cfg.RemoteURL, cfg.CacheDir, logger)
	if err := adapter.Load(ctx); err != nil {
		fatal("failed to load opportunities: %v", err)
	}

	switch {
	case *addName != "":
		entry, err := adapter.AddOpportunity(ctx, models.Opportunity{
			Name:     *addName,
			Deadline: *addDeadline,
			Owner:    *addOwner,
			Region:   *addRegion,
			Type:     *addType,
			Stage:    *addStage,
			Funding:  *addFunding,
			Fit:      *addFit,
			Focus:    *addFocus,
			Link:     *addLink,
		})
		if err != nil {
			fatal("add failed: %v", err)
		}
		fmt.Printf("Added %s (%s)\n", entry.Name, entry.ID)
		return
	case *removeID != "":
		if err := adapter.RemoveOpportunity(ctx, *removeID); err != nil {
			fatal("remove failed: %v", err)
		}
		fmt.Printf("Removed %s\n", *removeID)
		return
	case *watchID != "":
		active := adapter.ToggleWatch(ctx, *watchID)
		if active {
			fmt.Printf("%s added to watchlist\n", *watchID)
		} else {
			fmt.Printf("%s removed from watchlist\n", *watchID)
		}
		return
	}

	criteria := engine.Criteria{
		Search: *search,
		Type:   *typ,
		Stage:  *stage,
		Region: *region,
		Window: *window,
		Sort:   *sortBy,
	}
	all := adapter.Opportunities()
	watch := adapter.Watchlist()
	view := engine.FilterAndSort(all, criteria, watch, now)

	if *csvPath != "" {
		if err := os.WriteFile(*csvPath, []byte(export.CSV(all)), 0o644); err != nil {
			fatal("csv export failed: %v", err)
		}
		fmt.Printf("Wrote %d opportunities to %s\n", len(all), *csvPath)
		return
	}
	if *icsPath != "" {
		if err := os.WriteFile(*icsPath, []byte(export.Calendar(view)), 0o644); err != nil {
			fatal("calendar export failed: %v", err)
		}
		fmt.Printf("Wrote %d deadlines to %s\n", len(view), *icsPath)
		return
	}
	if *brief {
		fmt.Println(engine.BuildBrief(view, watch, now))
		return
	}

	renderDashboard(view, all, watch, now, adapter.Mode())
}

func renderDashboard(view, all []models.Opportunity, watch models.Watchlist, now time.Time, mode state.Mode) {
	metrics := engine.ComputeMetrics(view, now)
	health := engine.ComputePipelineHealth(all, watch, now)
	fmt.Printf("Opportunity Radar — %s · %d in view · mode: %s\n", now.Format("Jan 2, 2006"), metrics.Active, mode)
	fmt.Printf("Due in 30 days: %d · High fit (4+): %d · Avg fit: %.1f · Overdue: %d\n\n",
		metrics.DueIn30, metrics.HighFit, metrics.AvgFit, health.Overdue)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Score", "Name", "Deadline", "Days", "Fit", "Funding", "Stage", "Owner", ""})
	for _, item := range view {
		days := engine.DaysRemaining(item.Deadline, now)
		watched := ""
		if watch.Has(item.ID) {
			watched = "★"
		}
		t.AppendRow(table.Row{
			engine.RadarScore(item, watch.Has(item.ID), now),
			text.WrapSoft(item.Name, 42),
			item.Deadline,
			days,
			item.Fit,
			engine.FormatCurrency(item.Funding),
			item.Stage,
			item.Owner,
			watched,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	queue := engine.ComputeActionQueue(view, now)
	if len(queue) > 0 {
		fmt.Println("\nAction queue:")
		for _, action := range queue {
			fmt.Printf("  [%s] %s — %s\n", action.Label, action.Name, action.Recommendation)
		}
	}

	readiness := engine.ComputeReadiness(view, now)
	if len(readiness.Tasks) > 0 {
		fmt.Println("\nReadiness:")
		for _, task := range readiness.Tasks {
			fmt.Printf("  %s (%d)\n", task.Task, task.Count)
		}
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
