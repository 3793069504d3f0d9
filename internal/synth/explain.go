package synth

import "strings"

// Explain produces a human-readable description of what the generated query
// does, keyed off the question's wording and the SQL's shape. It is
// deterministic: the same (question, sql) pair always yields the same text.
func Explain(question, sql string) string {
	q := strings.ToLower(question)
	s := strings.ToLower(sql)

	switch {
	case containsAny(q, "count", "how many", "number of"):
		switch {
		case strings.Contains(q, "facility"):
			return "This query counts the total number of requests for each facility."
		case strings.Contains(q, "porter"):
			return "This query counts how many requests each porter has handled."
		case strings.Contains(q, "status"):
			return "This query breaks down the total requests by their current status."
		case strings.Contains(q, "asset category"):
			return "This query shows the distribution of requests across asset categories."
		case strings.Contains(q, "service group"):
			return "This query counts requests grouped by their service group."
		default:
			return "This query counts records and groups them by the specified criteria."
		}

	case containsAny(q, "tat", "turnaround", "average time"):
		switch {
		case containsAny(q, "minimum", "min"):
			return "This query finds which porter has the fastest average turnaround time (from scheduled to completed)."
		case containsAny(q, "maximum", "max"):
			return "This query identifies which porter has the slowest average turnaround time."
		case strings.Contains(q, "facility"):
			return "This query calculates the average turnaround time for each facility."
		case strings.Contains(q, "porter"):
			return "This query shows each porter's average turnaround time."
		default:
			return "This query calculates turnaround time (the duration from when a request was scheduled to when it was completed)."
		}

	case containsAny(q, "cancelled", "completed", "in progress", "assigned"):
		switch {
		case strings.Contains(q, "cancelled"):
			return "This query retrieves requests that were cancelled before completion."
		case strings.Contains(q, "completed"):
			return "This query shows successfully completed requests."
		case strings.Contains(q, "in progress"):
			return "This query finds requests that are currently being worked on."
		default:
			return "This query filters requests based on their current status."
		}

	case containsAny(q, "today", "yesterday", "date", "last week", "between"):
		return "This query filters requests by the specified time period."

	case strings.Contains(q, "porter"):
		if containsAny(q, "performance", "efficiency") {
			return "This query analyzes porter performance metrics including completion rates and turnaround time."
		}
		return "This query analyzes porter-related data."

	case strings.Contains(q, "facility"):
		return "This query analyzes data grouped by facility."

	case containsAny(q, "percentage", "rate", "%"):
		return "This query calculates percentage or rate metrics."

	case containsAny(q, "distribution", "patterns", "unique", "common"):
		return "This query explores data patterns and distributions."

	case strings.Contains(s, "group by"):
		return "This query groups data by specific criteria and provides aggregate information."
	case strings.Contains(s, "join"):
		return "This query combines data from multiple tables."
	case strings.Contains(s, "order by") && strings.Contains(s, "desc"):
		return "This query sorts results in descending order to show the highest values first."
	default:
		return "This query retrieves records matching your criteria."
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
