package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ovitag/porterbot/internal/schema"
)

// facilityIDPattern matches a bare integer compared against facility_id.
// Already-quoted literals and non-numeric comparisons do not match.
var facilityIDPattern = regexp.MustCompile(`(?i)(facility_id\s*=\s*)(\d+)\b`)

// PadFacilityIDs rewrites bare integer facility comparisons into the
// zero-padded 4-character string form the warehouse stores:
//
//	facility_id = 184  ->  facility_id = '0184'
//
// Digit runs longer than four characters are quoted without padding.
func PadFacilityIDs(sql string) string {
	return facilityIDPattern.ReplaceAllStringFunc(sql, func(m string) string {
		parts := facilityIDPattern.FindStringSubmatch(m)
		num := parts[2]
		for len(num) < 4 {
			num = "0" + num
		}
		return fmt.Sprintf("%s'%s'", parts[1], num)
	})
}

// nullCheck holds the precompiled patterns for one nullable text column.
type nullCheck struct {
	column    string
	pattern   *regexp.Regexp // matches "col IS NULL" or "col = ''"
	augmented string         // the combined form both rewrite targets become
}

var nullChecks = buildNullChecks()

func buildNullChecks() []nullCheck {
	checks := make([]nullCheck, 0, len(schema.NullableTextColumns))
	for _, col := range schema.NullableTextColumns {
		checks = append(checks, nullCheck{
			column:    col,
			pattern:   regexp.MustCompile(`(?i)\b` + col + `\s+IS\s+NULL\b|\b` + col + `\s*=\s*''`),
			augmented: fmt.Sprintf("(%s IS NULL OR %s = '')", col, col),
		})
	}
	return checks
}

// AugmentNullChecks widens NULL-only (or empty-only) conditions on nullable
// text columns to match both conventions the source data uses for "missing".
// A condition that already covers both forms is left untouched.
func AugmentNullChecks(sql string) string {
	for _, c := range nullChecks {
		if strings.Contains(sql, c.augmented) {
			continue
		}
		sql = c.pattern.ReplaceAllString(sql, c.augmented)
	}
	return sql
}

// bucketFuncs are the date-bucketing functions whose raw-column uses must be
// converted to the display timezone before truncation.
var bucketFuncs = []string{"toDate", "toHour", "toDayOfWeek", "toMonth", "toYear"}

// WrapTimezones returns the pass that wraps bare timestamp columns inside
// date-bucketing calls with a toTimeZone conversion, so date-only grouping
// buckets by local calendar date rather than UTC. Columns already wrapped do
// not match the pattern, making the pass idempotent.
func WrapTimezones(timezone string) func(string) string {
	pattern := regexp.MustCompile(
		`\b(` + strings.Join(bucketFuncs, "|") + `)\(\s*(` +
			strings.Join(schema.TimeColumns, "|") + `)\s*\)`)
	replacement := fmt.Sprintf("$1(toTimeZone($2, '%s'))", timezone)

	return func(sql string) string {
		return pattern.ReplaceAllString(sql, replacement)
	}
}

// dialectFixes maps function spellings the model tends to emit to the casing
// ClickHouse requires. Applied as exact substring replacements, in order.
var dialectFixes = []struct {
	from, to string
}{
	{"COUNTIf(", "countIf("},
	{"COUNTIF(", "countIf("},
	{"CountIf(", "countIf("},
	{"SUMIf(", "sumIf("},
	{"SUMIF(", "sumIf("},
	{"AVGIf(", "avgIf("},
	{"AVGIF(", "avgIf("},
}

// FixDialectFunctions corrects known function-name casing mismatches.
func FixDialectFunctions(sql string) string {
	for _, f := range dialectFixes {
		sql = strings.ReplaceAll(sql, f.from, f.to)
	}
	return sql
}
