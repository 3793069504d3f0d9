package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovitag/porterbot/internal/executor"
)

func TestNewRejectsBadTimezone(t *testing.T) {
	_, err := New("Not/AZone")
	require.Error(t, err)
}

func TestConvertTimezones(t *testing.T) {
	f, err := New("Asia/Kolkata")
	require.NoError(t, err)

	result := &executor.Result{
		Columns: []string{"id", "scheduled_time", "completed_time", "facility_id"},
		Rows: []map[string]any{
			{
				"id":             int64(1),
				"scheduled_time": time.Date(2025, 6, 5, 9, 0, 5, 0, time.UTC),
				"completed_time": "2025-06-05T10:15:00Z",
				"facility_id":    "0184",
			},
		},
	}

	got := f.ConvertTimezones(result)
	require.Same(t, result, got)

	row := got.Rows[0]
	// 09:00:05 UTC is 14:30:05 in Kolkata (UTC+5:30).
	assert.Equal(t, "June 5, 2025 2:30:05 PM", row["scheduled_time"])
	assert.Equal(t, "June 5, 2025 3:45:00 PM", row["completed_time"])
	assert.Equal(t, "0184", row["facility_id"])
	assert.Equal(t, int64(1), row["id"])
}

func TestConvertTimezonesLeavesNonTimeStrings(t *testing.T) {
	f, err := New("Asia/Kolkata")
	require.NoError(t, err)

	result := &executor.Result{
		Columns: []string{"comments"},
		Rows:    []map[string]any{{"comments": "2025-06-05T10:15:00Z looks like a time but is text"}},
	}

	got := f.ConvertTimezones(result)
	assert.Equal(t, "2025-06-05T10:15:00Z looks like a time but is text", got.Rows[0]["comments"])
}

func TestConvertTimezonesNilResult(t *testing.T) {
	f, err := New("Asia/Kolkata")
	require.NoError(t, err)
	assert.Nil(t, f.ConvertTimezones(nil))
}

func TestSummarize(t *testing.T) {
	twoRows := &executor.Result{
		Columns: []string{"facility_id", "avg_tat_minutes"},
		Rows: []map[string]any{
			{"facility_id": "0184", "avg_tat_minutes": 15.5},
			{"facility_id": "0206", "avg_tat_minutes": 18.2},
		},
	}

	tests := []struct {
		name     string
		question string
		result   *executor.Result
		contains string
	}{
		{
			name:     "average wording",
			question: "Show average turnaround time by facility",
			result:   twoRows,
			contains: "average",
		},
		{
			name:     "single row count uses the value",
			question: "How many requests were cancelled?",
			result: &executor.Result{
				Columns: []string{"request_count"},
				Rows:    []map[string]any{{"request_count": int64(42)}},
			},
			contains: "42",
		},
		{
			name:     "grouped count reports group count",
			question: "Count requests by status",
			result:   twoRows,
			contains: "2 different groups",
		},
		{
			name:     "turnaround wording",
			question: "What is the TAT for facility 184?",
			result:   twoRows,
			contains: "turnaround",
		},
		{
			name:     "trend wording",
			question: "Show hourly request patterns",
			result:   twoRows,
			contains: "time periods",
		},
		{
			name:     "nil result",
			question: "anything",
			result:   nil,
			contains: "No results",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, Summarize(tt.question, tt.result), tt.contains)
		})
	}
}

func chartResult() *executor.Result {
	return &executor.Result{
		Columns: []string{"facility_id", "avg_tat_minutes"},
		Rows: []map[string]any{
			{"facility_id": "0184", "avg_tat_minutes": 15.5},
			{"facility_id": "0206", "avg_tat_minutes": 18.2},
		},
	}
}

func TestChartEligible(t *testing.T) {
	tests := []struct {
		name     string
		question string
		result   *executor.Result
		want     bool
	}{
		{
			name:     "aggregate question over numeric result",
			question: "Show average turnaround time by facility",
			result:   chartResult(),
			want:     true,
		},
		{
			name:     "no chart keyword",
			question: "Show me the last request in the database",
			result:   chartResult(),
			want:     false,
		},
		{
			name:     "single row too few",
			question: "Show average turnaround time",
			result: &executor.Result{
				Columns: []string{"avg_tat_minutes"},
				Rows:    []map[string]any{{"avg_tat_minutes": 15.5}},
			},
			want: false,
		},
		{
			name:     "no numeric column",
			question: "Count requests by status",
			result: &executor.Result{
				Columns: []string{"status_a", "status_b"},
				Rows: []map[string]any{
					{"status_a": "RQ-CO", "status_b": "Completed"},
					{"status_a": "RQ-CA", "status_b": "Cancelled"},
				},
			},
			want: false,
		},
		{
			name:     "nil result",
			question: "Count requests by status",
			result:   nil,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChartEligible(tt.question, tt.result))
		})
	}
}

func TestChartEligibleRowCountBounds(t *testing.T) {
	big := &executor.Result{Columns: []string{"bucket", "request_count"}}
	for i := 0; i < 101; i++ {
		big.Rows = append(big.Rows, map[string]any{"bucket": "b", "request_count": int64(i)})
	}
	assert.False(t, ChartEligible("Count requests by bucket", big))

	big.Rows = big.Rows[:100]
	assert.True(t, ChartEligible("Count requests by bucket", big))
}

func TestBuildChartBar(t *testing.T) {
	chart, err := BuildChart("Show average turnaround time by facility", chartResult())
	require.NoError(t, err)

	assert.Equal(t, "bar", chart.Type)
	assert.Equal(t, []string{"0184", "0206"}, chart.Labels)
	assert.Equal(t, []float64{15.5, 18.2}, chart.Values)
	assert.Equal(t, "Facility Id", chart.XLabel)
	assert.Equal(t, "Avg Tat Minutes", chart.YLabel)
	assert.Contains(t, chart.Title, "by Facility Id")
}

func TestBuildChartLine(t *testing.T) {
	result := &executor.Result{
		Columns: []string{"request_hour", "request_count"},
		Rows: []map[string]any{
			{"request_hour": int64(9), "request_count": int64(12)},
			{"request_hour": int64(10), "request_count": int64(30)},
			{"request_hour": int64(11), "request_count": int64(25)},
		},
	}

	chart, err := BuildChart("Show hourly request patterns", result)
	require.NoError(t, err)

	assert.Equal(t, "line", chart.Type)
	assert.Equal(t, "Request Hour", chart.XLabel)
	assert.Equal(t, "Request Count", chart.YLabel)
	assert.Equal(t, []string{"9", "10", "11"}, chart.Labels)
	assert.Equal(t, []float64{12, 30, 25}, chart.Values)
}

func TestBuildChartPie(t *testing.T) {
	result := &executor.Result{
		Columns: []string{"status_description", "request_count"},
		Rows: []map[string]any{
			{"status_description": "Completed", "request_count": int64(120)},
			{"status_description": "Cancelled", "request_count": int64(30)},
			{"status_description": "In Progress", "request_count": int64(8)},
		},
	}

	chart, err := BuildChart("Show the percentage distribution of requests by status", result)
	require.NoError(t, err)

	assert.Equal(t, "pie", chart.Type)
	assert.Equal(t, []string{"Completed", "Cancelled", "In Progress"}, chart.Labels)
	assert.Equal(t, []float64{120, 30, 8}, chart.Values)
}

func TestBuildChartNoNumericColumn(t *testing.T) {
	result := &executor.Result{
		Columns: []string{"facility_id"},
		Rows: []map[string]any{
			{"facility_id": "0184"},
			{"facility_id": "0206"},
		},
	}

	_, err := BuildChart("Count requests by facility", result)
	require.Error(t, err)
}
