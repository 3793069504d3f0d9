// Package executor runs corrected SQL against the analytics database under a
// timeout and a row-count cap, and classifies failures. Access is read-only
// by credential policy; the guard here is a second line of defense.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ovitag/porterbot/internal/config"

	_ "github.com/ClickHouse/clickhouse-go/v2" // driver: clickhouse
	_ "github.com/lib/pq"                      // driver: postgres (local development mirror)
)

// Result is one executed query's output. Rows map column name to value; the
// column order of the SELECT list is preserved in Columns.
type Result struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"data"`
}

// RowCount returns the number of rows.
func (r *Result) RowCount() int { return len(r.Rows) }

// Executor executes read-only queries with limit clamping and a deadline.
type Executor struct {
	db           *sql.DB
	timeout      time.Duration
	defaultLimit int
	maxLimit     int
}

// Open connects to the configured database and verifies connectivity.
func Open(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, Classify(err)
	}
	return db, nil
}

// New creates an Executor over an open database handle.
func New(db *sql.DB, cfg *config.Config) *Executor {
	return &Executor{
		db:           db,
		timeout:      cfg.QueryTimeout,
		defaultLimit: cfg.DefaultRowLimit,
		maxLimit:     cfg.MaxRowLimit,
	}
}

// Ping reports database connectivity, for health checks.
func (e *Executor) Ping(ctx context.Context) error {
	if e.db == nil {
		return &ExecError{Kind: KindConnection, Message: "no database connection"}
	}
	if err := e.db.PingContext(ctx); err != nil {
		return Classify(err)
	}
	return nil
}

// DB exposes the underlying handle for schema introspection.
func (e *Executor) DB() *sql.DB { return e.db }

// Run validates, limit-caps, and executes the query. A zero-row result is
// reported as KindNoData so the boundary can attach a tailored hint.
func (e *Executor) Run(ctx context.Context, query string, limit int) (*Result, error) {
	query, err := ValidateReadOnly(query)
	if err != nil {
		return nil, err
	}

	query = EnsureLimit(query, e.ClampLimit(limit))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, Classify(err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, Classify(err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify(err)
	}

	if len(result.Rows) == 0 {
		return nil, &ExecError{Kind: KindNoData, Message: "the query matched no rows"}
	}
	return result, nil
}

// ClampLimit applies the default for non-positive limits and caps requests
// that exceed the configured maximum. Oversized values are clamped, never
// rejected.
func (e *Executor) ClampLimit(limit int) int {
	if limit <= 0 {
		return e.defaultLimit
	}
	if limit > e.maxLimit {
		return e.maxLimit
	}
	return limit
}

var limitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+\d`)

// EnsureLimit appends a LIMIT clause when the query does not already
// constrain its result size.
func EnsureLimit(query string, limit int) string {
	if limitPattern.MatchString(query) {
		return query
	}
	query = strings.TrimRight(strings.TrimSpace(query), ";")
	return fmt.Sprintf("%s LIMIT %d", query, limit)
}

var writeKeywords = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|TRUNCATE|GRANT|REVOKE|CREATE|RENAME|ATTACH|DETACH|OPTIMIZE)\b`)

// ValidateReadOnly trims the query and rejects anything that is not a plain
// SELECT/CTE statement.
func ValidateReadOnly(raw string) (string, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return "", &ExecError{Kind: KindInvalid, Message: "query is required"}
	}
	lower := strings.ToLower(query)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return "", &ExecError{Kind: KindInvalid, Message: "only SELECT / CTE queries are allowed"}
	}
	if writeKeywords.MatchString(query) {
		return "", &ExecError{Kind: KindInvalid, Message: "query contains a write keyword"}
	}
	return query, nil
}

// normalizeValue converts driver values into JSON-friendly forms. Timestamps
// stay as time.Time so the formatter can convert them to the display timezone.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return v
	}
}
