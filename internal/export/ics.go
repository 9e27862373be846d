package export

import (
	"strconv"
	"strings"

	"github.com/groupscholar/opportunity-radar/internal/engine"
	"github.com/groupscholar/opportunity-radar/internal/models"
)

const uidSuffix = "groupscholar-opportunity-radar"

// Calendar renders one all-day VEVENT per opportunity. Items with a deadline
// that does not parse are skipped rather than producing a broken event.
func Calendar(items []models.Opportunity) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Group Scholar//Opportunity Radar//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}

	for _, item := range items {
		start, err := models.ParseDeadline(item.Deadline)
		if err != nil {
			continue
		}
		end := start.AddDate(0, 0, 1)

		parts := []string{"Owner: " + item.Owner}
		if item.Focus != "" {
			parts = append(parts, "Focus: "+item.Focus)
		}
		parts = append(parts, "Fit: "+strconv.Itoa(item.Fit))
		parts = append(parts, "Funding: "+engine.FormatCurrency(item.Funding))
		parts = append(parts, "Region: "+item.Region, "Stage: "+item.Stage)
		if item.Link != "" {
			parts = append(parts, "Link: "+item.Link)
		}

		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+escapeICS(item.ID)+"@"+uidSuffix,
			"SUMMARY:"+escapeICS(item.Name+" ("+item.Stage+")"),
			"DTSTART;VALUE=DATE:"+start.Format("20060102"),
			"DTEND;VALUE=DATE:"+end.Format("20060102"),
			"DESCRIPTION:"+escapeICS(strings.Join(parts, "\n")),
			"END:VEVENT",
		)
	}

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n")
}

// escapeICS applies RFC 5545 text escaping. Backslashes go first so the later
// replacements do not double-escape.
func escapeICS(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "\n", `\n`)
	value = strings.ReplaceAll(value, ",", `\,`)
	value = strings.ReplaceAll(value, ";", `\;`)
	return value
}
