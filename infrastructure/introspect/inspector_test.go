package introspect

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE emp (id INTEGER PRIMARY KEY, emp_job TEXT, emp_bank TEXT);
		CREATE TABLE sample (id INTEGER PRIMARY KEY, first_name TEXT, gender TEXT);
		INSERT INTO emp (emp_job, emp_bank) VALUES ('plasterer', 'north'), ('welder', 'south');
	`)
	if err != nil {
		t.Fatalf("failed to seed database: %v", err)
	}
	return db
}

func TestListTables(t *testing.T) {
	in := NewInspector(setupTestDB(t))

	tables, err := in.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables) != 2 || tables[0] != "emp" || tables[1] != "sample" {
		t.Errorf("ListTables() = %v, want sorted [emp sample]", tables)
	}
}

func TestDescribeTable(t *testing.T) {
	in := NewInspector(setupTestDB(t))

	schema, err := in.DescribeTable(context.Background(), "emp")
	if err != nil {
		t.Fatalf("DescribeTable() error = %v", err)
	}
	if schema.Table != "emp" || schema.RowCount != 2 {
		t.Errorf("schema = %+v", schema)
	}
	if len(schema.Columns) != 3 || schema.Columns[1].Name != "emp_job" {
		t.Errorf("Columns = %v", schema.Columns)
	}
}

func TestDescribeTable_CaseInsensitive(t *testing.T) {
	in := NewInspector(setupTestDB(t))

	schema, err := in.DescribeTable(context.Background(), "EMP")
	if err != nil {
		t.Fatalf("DescribeTable() error = %v", err)
	}
	// The canonical name from the catalog wins, not the caller's casing.
	if schema.Table != "emp" {
		t.Errorf("Table = %q, want emp", schema.Table)
	}
}

func TestDescribeTable_Unknown(t *testing.T) {
	in := NewInspector(setupTestDB(t))

	_, err := in.DescribeTable(context.Background(), "employees")

	var unknown *UnknownTableError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownTableError", err)
	}
	if unknown.Name != "employees" || len(unknown.Known) != 2 {
		t.Errorf("unknown = %+v", unknown)
	}
}

func TestDescribeTable_RejectsHostileName(t *testing.T) {
	in := NewInspector(setupTestDB(t))

	if _, err := in.DescribeTable(context.Background(), "emp; DROP TABLE emp"); err == nil {
		t.Fatal("hostile identifier accepted")
	}

	// The table must still exist.
	if _, err := in.DescribeTable(context.Background(), "emp"); err != nil {
		t.Fatalf("emp disappeared: %v", err)
	}
}

func TestSnapshot_CachedUntilInvalidated(t *testing.T) {
	db := setupTestDB(t)
	in := NewInspector(db)
	ctx := context.Background()

	snap, err := in.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Tables) != 2 {
		t.Fatalf("Tables = %v", snap.Tables)
	}
	if cols := snap.Tables["emp"]; len(cols) != 3 {
		t.Errorf("emp columns = %v", cols)
	}

	// New tables stay invisible until the cache is dropped.
	if _, err := db.Exec("CREATE TABLE extra (id INTEGER)"); err != nil {
		t.Fatal(err)
	}
	snap, _ = in.Snapshot(ctx)
	if _, ok := snap.Tables["extra"]; ok {
		t.Error("cached snapshot picked up new table")
	}

	in.Invalidate()
	snap, err = in.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() after Invalidate error = %v", err)
	}
	if _, ok := snap.Tables["extra"]; !ok {
		t.Error("fresh snapshot missing new table")
	}
}
