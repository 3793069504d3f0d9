// Package format turns raw query results into timezone-adjusted rows,
// question-aware summaries, and chart specifications for the web UI.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/ovitag/porterbot/internal/executor"
	"github.com/ovitag/porterbot/internal/schema"
)

// displayTimeLayout matches the original dashboard rendering,
// e.g. "June 5, 2025 2:30:05 PM".
const displayTimeLayout = "January 2, 2006 3:04:05 PM"

// Formatter converts results for presentation in a fixed display timezone.
type Formatter struct {
	loc *time.Location
}

// New creates a Formatter for the given IANA timezone name.
func New(timezone string) (*Formatter, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load display timezone %q: %w", timezone, err)
	}
	return &Formatter{loc: loc}, nil
}

// Location returns the display timezone.
func (f *Formatter) Location() *time.Location { return f.loc }

// ConvertTimezones rewrites timestamp values from UTC into the display
// timezone, rendering them as human-readable strings. Non-timestamp values
// pass through unchanged. The input result is modified in place and returned.
func (f *Formatter) ConvertTimezones(result *executor.Result) *executor.Result {
	if result == nil {
		return nil
	}
	for _, row := range result.Rows {
		for col, v := range row {
			switch val := v.(type) {
			case time.Time:
				row[col] = val.In(f.loc).Format(displayTimeLayout)
			case string:
				if !isTimeColumn(col) {
					continue
				}
				if t, err := time.Parse(time.RFC3339, val); err == nil {
					row[col] = t.In(f.loc).Format(displayTimeLayout)
				}
			}
		}
	}
	return result
}

func isTimeColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, c := range schema.TimeColumns {
		if lower == c {
			return true
		}
	}
	return strings.Contains(lower, "time") || strings.Contains(lower, "date")
}

// Summarize produces a one-line human-readable summary of the result, worded
// by the question's intent.
func Summarize(question string, result *executor.Result) string {
	if result == nil || result.RowCount() == 0 {
		return "No results found for your query."
	}

	q := strings.ToLower(question)
	n := result.RowCount()

	switch {
	case containsAny(q, "count", "how many", "number"):
		if n == 1 {
			if col, ok := countColumn(result); ok {
				return fmt.Sprintf("Found %v records matching your criteria.", result.Rows[0][col])
			}
		}
		return fmt.Sprintf("Found %d different groups in the results.", n)
	case containsAny(q, "average", "avg", "mean"):
		return fmt.Sprintf("Calculated average values across %d records.", n)
	case containsAny(q, "minimum", "min", "lowest"):
		return "Found the minimum value from the dataset."
	case containsAny(q, "maximum", "max", "highest", "most"):
		return "Found the maximum value from the dataset."
	case containsAny(q, "tat", "turnaround"):
		return fmt.Sprintf("Analyzed turnaround time data for %d records.", n)
	case containsAny(q, "daily", "hourly", "trends", "patterns"):
		return fmt.Sprintf("Analyzed %d time periods showing the requested patterns.", n)
	case containsAny(q, "facility", "porter", "status"):
		return fmt.Sprintf("Retrieved %d records grouped by your specified criteria.", n)
	default:
		return fmt.Sprintf("Retrieved %d records matching your query.", n)
	}
}

func countColumn(result *executor.Result) (string, bool) {
	for _, col := range result.Columns {
		if strings.Contains(strings.ToLower(col), "count") {
			return col, true
		}
	}
	return "", false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
