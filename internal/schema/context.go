// Package schema describes the porter-request warehouse: a static business
// schema used to ground SQL generation, plus a live introspection cache.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// FactTable is the single fact table all questions are answered from.
	FactTable = "fact_porter_request"

	// LookupTable maps short codes (statuses, categories) to display values.
	LookupTable = "dim_app_terms"

	// TATFormula computes turnaround time in minutes between scheduling and
	// completion. Quoted verbatim in the prompt so generated SQL stays uniform.
	TATFormula = "round(dateDiff('second', scheduled_time, completed_time)/60.0, 2)"
)

// StatusCodes maps request_performer_status codes to human labels.
var StatusCodes = map[string]string{
	"RQ-CO": "Completed",
	"RQ-CA": "Cancelled",
	"RQ-IP": "In Progress",
	"RQ-AS": "Assigned",
	"RQ-AC": "Accepted",
	"RQ-AR": "Arrived",
	"RQ-OH": "On Hold",
	"RQ-RJ": "Rejected",
}

// TimeColumns lists every UTC timestamp column; the correction pipeline and
// the formatter both key timezone handling off this set.
var TimeColumns = []string{
	"scheduled_time", "start_time", "end_time", "assigned_time",
	"accepted_time", "arrived_time", "cancelled_time", "onhold_time",
	"inprogress_time", "rejected_time", "completed_time",
}

// NullableTextColumns are text columns where the source data uses NULL and
// the empty string interchangeably for "missing".
var NullableTextColumns = []string{
	"comp_manually", "comments", "remarks", "porter_user_id", "patient_id",
}

// columnDesc pairs a column name with its one-line business meaning.
type columnDesc struct {
	Name string
	Desc string
}

var factColumns = []columnDesc{
	{"id", "Unique identifier for the person requesting (can appear multiple times)"},
	{"request_detail_id", "Unique identifier for a specific porter request detail"},
	{"facility_id", "Facility where the request was made (STRING with leading zeros, e.g. '0184', '0039')"},
	{"requester_user_id", "User who initiated the request"},
	{"porter_user_id", "Porter assigned to handle the request (can be NULL)"},
	{"porter_count", "Number of porters assigned/required"},
	{"request_type_id", "Type of request (e.g. 'RQT-PO' for Porter Request)"},
	{"is_auto_assigned", "'Y' if auto-assigned, 'N' if manual"},
	{"comp_manually", "'Y' if completed manually, blank/NULL if not"},
	{"asset_category", "Category of asset (e.g. 'RN-DSC', 'RN-PH', 'AT-TO')"},
	{"service_group_id", "Service group ID (e.g. 'SG-HK')"},
	{"asset_count", "Number of assets"},
	{"source_id", "Source location ID"},
	{"destination_id", "Destination location ID"},
	{"request_category", "Category like 'PR-SE' (Service), 'PR-PA' (Patient)"},
	{"priority", "Priority level (0, 1, ...)"},
	{"comments", "Optional comments field"},
	{"remarks", "Additional remarks"},
	{"pool_name_id", "Pool name identifier (join with dim_app_terms)"},
	{"pool_location_id", "Pool location ID"},
	{"is_round_trip", "'Y' for round trip, 'N' for one-way"},
	{"status", "Request status"},
	{"scheduled_time", "When the request was scheduled (UTC)"},
	{"start_time", "When the request started (UTC)"},
	{"end_time", "When the request ended (UTC)"},
	{"assigned_time", "When a porter was assigned (UTC)"},
	{"accepted_time", "When the porter accepted (UTC)"},
	{"arrived_time", "When the porter arrived (UTC)"},
	{"cancelled_time", "When the request was cancelled (UTC)"},
	{"onhold_time", "When put on hold (UTC)"},
	{"inprogress_time", "When marked in progress (UTC)"},
	{"rejected_time", "When rejected (UTC)"},
	{"completed_time", "When completed (UTC)"},
	{"request_performer_status", "Status code, e.g. 'RQ-CO' (Completed), 'RQ-CA' (Cancelled)"},
	{"patient_id", "Patient ID if applicable"},
}

// ColumnDescriptions returns a name -> description map for the fact table.
func ColumnDescriptions() map[string]string {
	m := make(map[string]string, len(factColumns))
	for _, c := range factColumns {
		m[c.Name] = c.Desc
	}
	return m
}

// Context renders the static schema description handed to the language model.
// It is pure formatting of package constants: same output every call.
func Context(displayTimezone string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "PRIMARY TABLE: %s\n\n", FactTable)
	sb.WriteString("COLUMNS AND DESCRIPTIONS:\n")
	for _, c := range factColumns {
		fmt.Fprintf(&sb, "- %s: %s\n", c.Name, c.Desc)
	}

	fmt.Fprintf(&sb, "\nLOOKUP TABLE: %s\n", LookupTable)
	sb.WriteString("- code: The code value\n")
	sb.WriteString("- value: Human-readable description\n")
	sb.WriteString("- group_name: Category (e.g. 'CountryCode', 'AssetType')\n")

	sb.WriteString("\nBUSINESS LOGIC:\n")
	fmt.Fprintf(&sb, "- TAT (turnaround time) in minutes: %s\n", TATFormula)
	fmt.Fprintf(&sb, "- All timestamp columns are stored in UTC; convert to %s for display and date filtering\n", displayTimezone)

	sb.WriteString("\nCOMMON STATUS CODES:\n")
	codes := make([]string, 0, len(StatusCodes))
	for code := range StatusCodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(&sb, "- '%s': %s\n", code, StatusCodes[code])
	}

	return sb.String()
}

// SampleQuestions are shown in the UI and returned by GET /samples.
var SampleQuestions = []string{
	"List all requesters and their request count",
	"Who made the most requests?",
	"Show average turnaround time",
	"Which porter had the minimum TAT overall?",
	"Show cancelled requests for facility 184",
	"List completed requests from last week",
	"Show request count per porter",
	"Average time from scheduled to completion in minutes",
	"Show all requests with high priority",
	"List requests by asset category",
	"Show all requests on May 31, 2025",
	"List facilities and their request counts",
}
