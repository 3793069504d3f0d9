package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache holds introspected table structure, loaded once at startup and safe
// for concurrent reads. It complements the static business context with the
// live column types actually present in the warehouse.
type Cache struct {
	mu          sync.RWMutex
	tables      []Table
	lastRefresh time.Time
}

// Table is an introspected table.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column is an introspected column.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Comment  string `json:"comment,omitempty"`
}

// NewCache creates an empty schema cache.
func NewCache() *Cache {
	return &Cache{}
}

// Load fetches column metadata for the fact and lookup tables from
// system.columns and caches it.
func (c *Cache) Load(ctx context.Context, db *sql.DB) error {
	tables, err := loadTables(ctx, db)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}

	c.mu.Lock()
	c.tables = tables
	c.lastRefresh = time.Now()
	c.mu.Unlock()

	return nil
}

// Tables returns a copy of the cached tables.
func (c *Cache) Tables() []Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tables := make([]Table, len(c.tables))
	copy(tables, c.tables)
	return tables
}

// TableCount returns the number of cached tables.
func (c *Cache) TableCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// LastRefresh returns when the schema was last loaded.
func (c *Cache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

func loadTables(ctx context.Context, db *sql.DB) ([]Table, error) {
	const query = `
		SELECT table, name, type, comment
		FROM system.columns
		WHERE database = currentDatabase()
		  AND table IN (?, ?)
		ORDER BY table, position`

	rows, err := db.QueryContext(ctx, query, FactTable, LookupTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byTable := make(map[string][]Column)
	var order []string
	for rows.Next() {
		var table string
		var col Column
		if err := rows.Scan(&table, &col.Name, &col.Type, &col.Comment); err != nil {
			return nil, err
		}
		col.Nullable = strings.HasPrefix(col.Type, "Nullable(")
		if _, seen := byTable[table]; !seen {
			order = append(order, table)
		}
		byTable[table] = append(byTable[table], col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(order))
	for _, name := range order {
		tables = append(tables, Table{Name: name, Columns: byTable[name]})
	}
	return tables, nil
}
