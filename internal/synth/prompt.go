package synth

import (
	"fmt"
	"strings"
)

// fewShot is one curated question/SQL pair included in every prompt.
type fewShot struct {
	Question string
	SQL      string
}

// fewShots are the worked examples that anchor the model to the warehouse's
// conventions: string facility IDs, countIf casing, timezone-wrapped date
// bucketing, and the TAT formula.
var fewShots = []fewShot{
	{
		"List all requesters and their request count",
		"SELECT requester_user_id, COUNT(*) AS request_count FROM fact_porter_request GROUP BY requester_user_id ORDER BY request_count DESC",
	},
	{
		"Show average turnaround time",
		"SELECT round(AVG(dateDiff('second', scheduled_time, completed_time)/60.0), 2) AS avg_tat_minutes FROM fact_porter_request WHERE completed_time IS NOT NULL AND scheduled_time IS NOT NULL",
	},
	{
		"Which porter had the minimum TAT?",
		"SELECT porter_user_id, round(AVG(dateDiff('second', scheduled_time, completed_time)/60.0), 2) AS avg_tat_minutes FROM fact_porter_request WHERE porter_user_id IS NOT NULL AND completed_time IS NOT NULL AND scheduled_time IS NOT NULL GROUP BY porter_user_id ORDER BY avg_tat_minutes ASC LIMIT 1",
	},
	{
		"Show cancelled requests for facility 184",
		"SELECT * FROM fact_porter_request WHERE request_performer_status = 'RQ-CA' AND facility_id = '0184'",
	},
	{
		"Show all requests on May 31",
		"SELECT * FROM fact_porter_request WHERE toDate(toTimeZone(scheduled_time, '{{TZ}}')) = '2025-05-31'",
	},
	{
		"Show me the last request in the database",
		"SELECT id, facility_id, requester_user_id, porter_user_id, toTimeZone(scheduled_time, '{{TZ}}') AS scheduled_time, toTimeZone(completed_time, '{{TZ}}') AS completed_time, request_performer_status FROM fact_porter_request ORDER BY scheduled_time DESC LIMIT 1",
	},
	{
		"Count requests by status",
		"SELECT COALESCE(f.request_performer_status, '') AS status_code, COALESCE(d.value, 'N/A') AS status_description, COUNT(*) AS request_count FROM fact_porter_request f LEFT JOIN dim_app_terms d ON f.request_performer_status = d.code GROUP BY f.request_performer_status, d.value ORDER BY request_count DESC",
	},
	{
		"Show porter efficiency metrics",
		"SELECT porter_user_id, COUNT(*) AS total_requests, SUM(CASE WHEN request_performer_status = 'RQ-CO' THEN 1 ELSE 0 END) AS completed_requests, SUM(CASE WHEN request_performer_status = 'RQ-CA' THEN 1 ELSE 0 END) AS cancelled_requests, round(AVG(dateDiff('second', scheduled_time, completed_time)/60.0), 2) AS avg_tat_minutes FROM fact_porter_request WHERE porter_user_id IS NOT NULL GROUP BY porter_user_id ORDER BY avg_tat_minutes ASC",
	},
	{
		"Show hourly request patterns",
		"SELECT toHour(toTimeZone(scheduled_time, '{{TZ}}')) AS request_hour, COUNT(*) AS request_count FROM fact_porter_request WHERE scheduled_time IS NOT NULL GROUP BY request_hour ORDER BY request_hour ASC",
	},
	{
		"Count requests by asset category",
		"SELECT COALESCE(f.asset_category, '') AS asset_category, COALESCE(d.value, 'N/A') AS category_name, COUNT(*) AS request_count FROM fact_porter_request f LEFT JOIN dim_app_terms d ON f.asset_category = d.code GROUP BY f.asset_category, d.value ORDER BY request_count DESC",
	},
	{
		"List facilities and their request counts",
		"SELECT facility_id, COUNT(*) AS request_count FROM fact_porter_request GROUP BY facility_id ORDER BY request_count DESC",
	},
}

// BuildSystemPrompt constructs the system prompt for SQL generation: rules,
// schema context, dialect pitfalls, and the few-shot examples.
func BuildSystemPrompt(schemaContext, displayTimezone string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `You are an expert SQL generator for a ClickHouse database. Convert natural language questions into valid ClickHouse SQL queries.

SCHEMA CONTEXT:
%[1]s

RULES:
1. Output ONLY the SQL query - no explanations, no markdown code blocks, no comments
2. Use only SELECT or WITH (CTE) statements - never INSERT, UPDATE, DELETE, DROP, or any other modifying statements
3. Use the TAT calculation: round(dateDiff('second', scheduled_time, completed_time)/60.0, 2) AS tat_minutes
4. All timestamp columns are stored in UTC; wrap them with toTimeZone(column, '%[2]s') for display and date filtering
5. For date filters, bucket by local calendar date: toDate(toTimeZone(scheduled_time, '%[2]s')) = '2025-05-31'
6. Join dim_app_terms when codes need human-readable labels
7. Include meaningful column aliases and appropriate ORDER BY clauses
8. Add a reasonable LIMIT for potentially large result sets (default 100)
9. Handle NULL values appropriately with COALESCE or IS NOT NULL filters

IMPORTANT: facility_id is stored as a STRING with leading zeros ('0184', '0039').
- When users mention facility 184, use facility_id = '0184'
- Always pad facility numbers to 4 digits with leading zeros

CLICKHOUSE FUNCTION NOTES:
- countIf() is lowercase-c camelCase; COUNTIf and COUNTIF do not exist
- SUM(CASE WHEN condition THEN 1 ELSE 0 END) is a portable alternative
- Use toHour(), toDate(), toYear(), toMonth() for time bucketing

EXAMPLES:
`, schemaContext, displayTimezone)

	for _, ex := range fewShots {
		sql := strings.ReplaceAll(ex.SQL, "{{TZ}}", displayTimezone)
		fmt.Fprintf(&sb, "\nQuestion: %q\nSQL: %s\n", ex.Question, sql)
	}

	sb.WriteString("\nReturn ONLY the SQL query, no explanations or markdown.")
	return sb.String()
}
