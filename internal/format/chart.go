package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ovitag/porterbot/internal/executor"
)

// ChartSpec is a renderer-agnostic chart description consumed by the web UI
// and returned as chart_data on the API.
type ChartSpec struct {
	Type   string    `json:"type"` // "line", "pie", or "bar"
	Title  string    `json:"title"`
	XLabel string    `json:"x_label,omitempty"`
	YLabel string    `json:"y_label,omitempty"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

const (
	chartMinRows = 2
	chartMaxRows = 100
	pieMaxRows   = 10
)

// chartKeywords gate chart generation: a question must mention at least one
// trend/aggregate term before any chart is produced.
var chartKeywords = []string{
	"count", "average", "sum", "total", "by", "group",
	"distribution", "trends", "patterns", "volume",
	"per day", "daily", "hourly",
}

var trendKeywords = []string{"daily", "hourly", "trends", "over time", "per day", "patterns"}

var distributionKeywords = []string{"distribution", "percentage", "%"}

// ChartEligible is the deterministic decision function of (question, result
// shape): a chart is produced only when the question carries a trend/aggregate
// keyword, the result has a numeric column, and the row count is in [2, 100].
func ChartEligible(question string, result *executor.Result) bool {
	if result == nil {
		return false
	}
	n := result.RowCount()
	if n < chartMinRows || n > chartMaxRows {
		return false
	}
	if !containsAny(strings.ToLower(question), chartKeywords...) {
		return false
	}
	_, ok := firstNumericColumn(result)
	return ok
}

// BuildChart constructs the chart specification for an eligible result.
// The first selected column is the category axis and the first numeric column
// after it is the value axis. Selection: time-indexed results become line
// charts; distribution questions over at most ten rows become pie charts;
// everything else is a bar chart.
func BuildChart(question string, result *executor.Result) (*ChartSpec, error) {
	if result.RowCount() == 0 || len(result.Columns) == 0 {
		return nil, fmt.Errorf("empty result")
	}
	xCol := result.Columns[0]
	yCol, ok := valueColumn(result, xCol)
	if !ok {
		return nil, fmt.Errorf("no numeric column to chart")
	}

	spec := &ChartSpec{
		XLabel: titleize(xCol),
		YLabel: titleize(yCol),
		Labels: make([]string, 0, result.RowCount()),
		Values: make([]float64, 0, result.RowCount()),
	}

	for _, row := range result.Rows {
		spec.Labels = append(spec.Labels, stringify(row[xCol]))
		v, ok := toFloat(row[yCol])
		if !ok {
			return nil, fmt.Errorf("non-numeric value in column %s", yCol)
		}
		spec.Values = append(spec.Values, v)
	}

	q := strings.ToLower(question)
	switch {
	case containsAny(q, trendKeywords...) || isTimeIndexed(xCol):
		spec.Type = "line"
		spec.Title = fmt.Sprintf("%s Over Time", titleize(yCol))
	case containsAny(q, distributionKeywords...) && result.RowCount() <= pieMaxRows:
		spec.Type = "pie"
		spec.Title = fmt.Sprintf("Distribution of %s", titleize(yCol))
	default:
		spec.Type = "bar"
		spec.Title = fmt.Sprintf("%s by %s", titleize(yCol), titleize(xCol))
	}

	return spec, nil
}

// firstNumericColumn returns the first column whose first-row value is
// numeric, preserving SELECT order.
func firstNumericColumn(result *executor.Result) (string, bool) {
	if result.RowCount() == 0 {
		return "", false
	}
	first := result.Rows[0]
	for _, col := range result.Columns {
		if _, ok := toFloat(first[col]); ok {
			return col, true
		}
	}
	return "", false
}

// valueColumn picks the value axis: the first numeric column other than the
// category column, falling back to the category column itself when it is the
// only numeric one.
func valueColumn(result *executor.Result, xCol string) (string, bool) {
	first := result.Rows[0]
	for _, col := range result.Columns {
		if col == xCol {
			continue
		}
		if _, ok := toFloat(first[col]); ok {
			return col, true
		}
	}
	if _, ok := toFloat(first[xCol]); ok {
		return xCol, true
	}
	return "", false
}

func isTimeIndexed(col string) bool {
	lower := strings.ToLower(col)
	return containsAny(lower, "hour", "date", "day", "month", "year", "time")
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func titleize(col string) string {
	words := strings.Split(strings.ReplaceAll(col, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
