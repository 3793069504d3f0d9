// Package rewrite applies the deterministic correction passes that fix known
// LLM failure modes in generated ClickHouse SQL. The passes run in a fixed
// order - later passes assume earlier normalization has already happened -
// and every candidate query goes through the full pipeline before execution,
// even when no rule applies.
package rewrite

// Pass is one textual rewrite over the full SQL string.
type Pass struct {
	Name  string
	Apply func(sql string) string
}

// Warning is a non-fatal finding from the consistency check. It is surfaced
// alongside the results; execution proceeds regardless.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pipeline is the left-to-right composition of the correction passes plus the
// final aggregation consistency check.
type Pipeline struct {
	passes []Pass
}

// NewPipeline builds the documented pass sequence for the given display
// timezone:
//
//  1. facility-ID zero-padding
//  2. null/empty disambiguation on nullable text columns
//  3. timezone wrapping of date-bucketing expressions
//  4. dialect function-name correction
//
// followed by the non-rewriting aggregation/GROUP BY check.
func NewPipeline(timezone string) *Pipeline {
	return &Pipeline{
		passes: []Pass{
			{Name: "pad_facility_id", Apply: PadFacilityIDs},
			{Name: "null_empty", Apply: AugmentNullChecks},
			{Name: "timezone", Apply: WrapTimezones(timezone)},
			{Name: "dialect_functions", Apply: FixDialectFunctions},
		},
	}
}

// Apply runs every pass in order and returns the corrected SQL together with
// any consistency warnings.
func (p *Pipeline) Apply(sql string) (string, []Warning) {
	for _, pass := range p.passes {
		sql = pass.Apply(sql)
	}
	return sql, CheckAggregation(sql)
}

// Passes exposes the rewrite sequence, mainly for tests that assert ordering.
func (p *Pipeline) Passes() []Pass {
	return p.passes
}
