// Package introspect reads table layout metadata from a live database
// connection and caches it as a validation snapshot.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/SooryaOmeg/sqlagent/domain/agent"
	"github.com/SooryaOmeg/sqlagent/domain/sqlguard"
)

// UnknownTableError reports a describe request for a table the database
// does not have. Known carries the actual table names so the caller can
// surface them as corrective context.
type UnknownTableError struct {
	Name  string
	Known []string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("table %q does not exist; available tables: %s",
		e.Name, strings.Join(e.Known, ", "))
}

// Identifiers interpolated into PRAGMA and COUNT statements must be plain
// names; anything else is refused before it reaches the driver.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Inspector probes table metadata through a database/sql pool. The probes
// are dialect-ordered: sqlite first, information_schema as fallback, so
// the same inspector serves both supported drivers.
type Inspector struct {
	db *sql.DB

	mu   sync.Mutex
	snap *sqlguard.Snapshot
}

// NewInspector creates an inspector over an open connection pool.
func NewInspector(db *sql.DB) *Inspector {
	return &Inspector{db: db}
}

// ListTables returns user table names, sorted. Internal bookkeeping
// tables of the engine are excluded.
func (in *Inspector) ListTables(ctx context.Context) ([]string, error) {
	queries := []string{
		// sqlite
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
		// postgres and friends
		"SELECT table_name FROM information_schema.tables WHERE table_schema NOT IN ('pg_catalog', 'information_schema') ORDER BY table_name",
	}

	var lastErr error
	for _, q := range queries {
		rows, err := in.db.QueryContext(ctx, q)
		if err != nil {
			lastErr = err
			continue
		}

		tables := make([]string, 0)
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return nil, err
			}
			tables = append(tables, name)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		return tables, nil
	}
	return nil, fmt.Errorf("failed to list tables: %w", lastErr)
}

// DescribeTable returns the column layout and row count for one table.
// A name the database does not know yields *UnknownTableError.
func (in *Inspector) DescribeTable(ctx context.Context, name string) (*agent.TableSchema, error) {
	if !identPattern.MatchString(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}

	known, err := in.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	actual := ""
	for _, t := range known {
		if strings.EqualFold(t, name) {
			actual = t
			break
		}
	}
	if actual == "" {
		return nil, &UnknownTableError{Name: name, Known: known}
	}

	cols, err := in.columns(ctx, actual)
	if err != nil {
		return nil, err
	}

	var rowCount int
	if err := in.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", actual)).Scan(&rowCount); err != nil {
		return nil, fmt.Errorf("failed to count rows of %s: %w", actual, err)
	}

	return &agent.TableSchema{Table: actual, Columns: cols, RowCount: rowCount}, nil
}

func (in *Inspector) columns(ctx context.Context, table string) ([]agent.Column, error) {
	if cols, err := in.sqliteColumns(ctx, table); err == nil && len(cols) > 0 {
		return cols, nil
	}
	return in.standardColumns(ctx, table)
}

func (in *Inspector) sqliteColumns(ctx context.Context, table string) ([]agent.Column, error) {
	rows, err := in.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []agent.Column
	for rows.Next() {
		var cid, notNull, pk int
		var name, ctype string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, agent.Column{Name: name, Type: ctype})
	}
	return cols, rows.Err()
}

func (in *Inspector) standardColumns(ctx context.Context, table string) ([]agent.Column, error) {
	rows, err := in.db.QueryContext(ctx,
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position",
		table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []agent.Column
	for rows.Next() {
		var c agent.Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found or has no columns", table)
	}
	return cols, nil
}

// Snapshot returns the cached table layout, probing the database on first
// use. Invalidate discards it.
func (in *Inspector) Snapshot(ctx context.Context) (sqlguard.Snapshot, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.snap != nil {
		return *in.snap, nil
	}

	tables, err := in.ListTables(ctx)
	if err != nil {
		return sqlguard.Snapshot{}, err
	}

	snap := sqlguard.Snapshot{Tables: make(map[string][]string, len(tables))}
	for _, t := range tables {
		cols, err := in.columns(ctx, t)
		if err != nil {
			return sqlguard.Snapshot{}, fmt.Errorf("failed to read columns of %s: %w", t, err)
		}
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Name
		}
		sort.Strings(names)
		snap.Tables[t] = names
	}

	in.snap = &snap
	return snap, nil
}

// Invalidate discards the cached snapshot so the next Snapshot call
// re-probes the database.
func (in *Inspector) Invalidate() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.snap = nil
}
