package synth

import "strings"

// ParseSQL extracts bare SQL from raw model output, stripping the markdown
// fences and labels models tend to add despite instructions. Returns an empty
// string when no SELECT/WITH statement can be found.
func ParseSQL(raw string) string {
	sql := strings.TrimSpace(raw)

	sql = strings.TrimPrefix(sql, "```sql")
	sql = strings.TrimPrefix(sql, "```SQL")
	sql = strings.TrimPrefix(sql, "```")
	sql = strings.TrimSuffix(sql, "```")
	sql = strings.TrimSpace(sql)

	// Some models prefix the statement with "SQL:" despite the prompt.
	if rest, ok := cutPrefixFold(sql, "sql:"); ok {
		sql = strings.TrimSpace(rest)
	}

	lower := strings.ToLower(sql)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return ""
	}
	return sql
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
