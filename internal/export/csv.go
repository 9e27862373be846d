// Package export renders the current view into the two download formats the
// dashboard offers: CSV for spreadsheets and iCalendar for deadline feeds.
package export

import (
	"strconv"
	"strings"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

// csvHeaders fixes the column order of the export.
var csvHeaders = []string{
	"Name", "Deadline", "Region", "Type", "Stage",
	"Owner", "Funding", "Fit", "Focus", "Link",
}

// CSV serializes opportunities with every value quoted and embedded quotes
// doubled. encoding/csv quotes lazily, which breaks the fixed wire format
// downstream sheets were built against, so the quoting is done by hand.
func CSV(items []models.Opportunity) string {
	var b strings.Builder
	writeRow(&b, csvHeaders)
	for _, item := range items {
		b.WriteByte('\n')
		writeRow(&b, []string{
			item.Name,
			item.Deadline,
			item.Region,
			item.Type,
			item.Stage,
			item.Owner,
			strconv.FormatFloat(item.Funding, 'f', -1, 64),
			strconv.Itoa(item.Fit),
			item.Focus,
			item.Link,
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, values []string) {
	for i, value := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(value, `"`, `""`))
		b.WriteByte('"')
	}
}
