package rewrite

import (
	"regexp"
	"strings"
)

var aggFuncPattern = regexp.MustCompile(`(?i)\b(count|countIf|sum|sumIf|avg|avgIf|min|max|uniq|uniqExact|any|median|quantile)\s*\(`)

// CheckAggregation verifies that every non-aggregated selected column also
// appears in the GROUP BY clause. It never rewrites: a violation produces a
// Warning and the query still executes.
func CheckAggregation(sql string) []Warning {
	selectList, ok := extractSelectList(sql)
	if !ok {
		return nil
	}

	items := splitTopLevel(selectList)

	type selected struct {
		expr  string
		alias string
	}

	var hasAggregate bool
	var plain []selected // non-aggregated select items
	for _, item := range items {
		if aggFuncPattern.MatchString(item) {
			hasAggregate = true
			continue
		}
		expr, alias := splitAlias(item)
		if expr == "" || expr == "*" {
			continue
		}
		plain = append(plain, selected{expr: expr, alias: alias})
	}

	if !hasAggregate || len(plain) == 0 {
		return nil
	}

	grouped := groupByExprs(sql)
	var warnings []Warning
	for _, sel := range plain {
		// GROUP BY may reference either the expression or its alias.
		if containsExpr(grouped, sel.expr) {
			continue
		}
		if sel.alias != "" && containsExpr(grouped, sel.alias) {
			continue
		}
		warnings = append(warnings, Warning{
			Code:    "ungrouped_column",
			Message: "selected column " + sel.expr + " is not aggregated and does not appear in GROUP BY",
		})
	}
	return warnings
}

// extractSelectList returns the text between the first top-level SELECT and
// its matching FROM.
func extractSelectList(sql string) (string, bool) {
	upper := strings.ToUpper(sql)
	start := strings.Index(upper, "SELECT")
	if start < 0 {
		return "", false
	}
	start += len("SELECT")

	depth := 0
	for i := start; i+4 <= len(sql); i++ {
		switch sql[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(upper[i:], "FROM") && isWordBoundary(upper, i, i+4) {
			return sql[start:i], true
		}
	}
	return "", false
}

// groupByExprs returns the expressions listed in the GROUP BY clause.
func groupByExprs(sql string) []string {
	upper := strings.ToUpper(sql)
	idx := strings.Index(upper, "GROUP BY")
	if idx < 0 {
		return nil
	}
	rest := sql[idx+len("GROUP BY"):]
	restUpper := upper[idx+len("GROUP BY"):]

	end := len(rest)
	for _, kw := range []string{"ORDER BY", "HAVING", "LIMIT", "SETTINGS"} {
		if i := strings.Index(restUpper, kw); i >= 0 && i < end {
			end = i
		}
	}

	exprs := splitTopLevel(rest[:end])
	for i := range exprs {
		exprs[i] = strings.TrimSpace(exprs[i])
	}
	return exprs
}

// splitTopLevel splits on commas that are not inside parentheses.
func splitTopLevel(s string) []string {
	var items []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				items = append(items, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	items = append(items, strings.TrimSpace(s[start:]))
	return items
}

// splitAlias separates a select item into its expression and a trailing
// "AS alias", if present.
func splitAlias(item string) (expr, alias string) {
	item = strings.TrimSpace(item)
	upper := strings.ToUpper(item)
	if i := strings.LastIndex(upper, " AS "); i >= 0 {
		return strings.TrimSpace(item[:i]), strings.TrimSpace(item[i+4:])
	}
	return item, ""
}

// containsExpr reports whether expr matches one of the grouped expressions,
// either exactly or as the base column of a qualified reference.
func containsExpr(grouped []string, expr string) bool {
	for _, g := range grouped {
		if strings.EqualFold(g, expr) {
			return true
		}
		// f.facility_id groups facility_id and vice versa
		if strings.EqualFold(baseColumn(g), baseColumn(expr)) && baseColumn(expr) != "" {
			return true
		}
	}
	return false
}

func baseColumn(expr string) string {
	if strings.ContainsAny(expr, "() ") {
		return ""
	}
	if i := strings.LastIndex(expr, "."); i >= 0 {
		return expr[i+1:]
	}
	return expr
}

func isWordBoundary(s string, start, end int) bool {
	boundary := func(b byte) bool {
		return !(b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_')
	}
	if start > 0 && !boundary(s[start-1]) {
		return false
	}
	if end < len(s) && !boundary(s[end]) {
		return false
	}
	return true
}
