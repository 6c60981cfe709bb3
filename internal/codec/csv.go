package codec

import (
	"bufio"
	"io"
	"strings"

	"tasktrack/internal/model"
)

// csvHeader is the first row of every CSV export.
var csvHeader = []string{"ID", "Text", "Completed", "Category", "Priority", "Due Date", "Tags", "Created At"}

// csvInstant renders Created At as an ISO-8601 UTC instant.
const csvInstant = "2006-01-02T15:04:05.000Z"

// ExportCSV writes one row per task under the fixed header.
func ExportCSV(w io.Writer, tasks []model.Task) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, csvHeader, -1)

	for _, t := range tasks {
		completed := "No"
		if t.Completed {
			completed = "Yes"
		}
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Time().Format(model.DateFormat)
		}
		created := ""
		if !t.CreatedAt.IsZero() {
			created = t.CreatedAt.Time().UTC().Format(csvInstant)
		}

		writeRow(bw, []string{
			t.ID,
			t.Text,
			completed,
			t.Category,
			string(t.Priority),
			due,
			strings.Join(t.Tags, "; "),
			created,
		}, 1)
	}
	return bw.Flush()
}

// writeRow writes fields separated by commas. The field at alwaysQuote is
// quoted unconditionally; the others only when they need it.
func writeRow(w *bufio.Writer, fields []string, alwaysQuote int) {
	for i, f := range fields {
		if i > 0 {
			_ = w.WriteByte(',')
		}
		if i == alwaysQuote || strings.ContainsAny(f, ",\"\r\n") {
			_, _ = w.WriteString(quote(f))
		} else {
			_, _ = w.WriteString(f)
		}
	}
	_ = w.WriteByte('\n')
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
