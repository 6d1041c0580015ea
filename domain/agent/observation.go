package agent

import (
	"encoding/json"
	"fmt"
)

// Observation is the structured result of a tool dispatch. Exactly one
// concrete type is produced per dispatch; the Wire form is what gets
// serialized back into the next model prompt.
type Observation interface {
	// Wire returns the JSON payload fed back to the model.
	Wire() json.RawMessage

	isObservation()
}

// TableList is the observation produced by the list_tables tool.
type TableList struct {
	Tables []string
}

func (o *TableList) isObservation() {}

// Wire returns {"tables": [...]}.
func (o *TableList) Wire() json.RawMessage {
	tables := o.Tables
	if tables == nil {
		tables = []string{}
	}
	raw, _ := json.Marshal(struct {
		Tables []string `json:"tables"`
	}{Tables: tables})
	return raw
}

// Column describes a single column of a table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableSchema is the observation produced by the describe_table tool.
type TableSchema struct {
	Table    string
	Columns  []Column
	RowCount int
}

func (o *TableSchema) isObservation() {}

// Wire returns {"table_name": ..., "columns": [{"name","type"}], "row_count": N}.
func (o *TableSchema) Wire() json.RawMessage {
	cols := o.Columns
	if cols == nil {
		cols = []Column{}
	}
	raw, _ := json.Marshal(struct {
		Table    string   `json:"table_name"`
		Columns  []Column `json:"columns"`
		RowCount int      `json:"row_count"`
	}{Table: o.Table, Columns: cols, RowCount: o.RowCount})
	return raw
}

// QueryResult is the observation produced by the query_database tool.
type QueryResult struct {
	Columns  []string
	Rows     [][]any
	RowCount int
}

func (o *QueryResult) isObservation() {}

// Wire returns {"columns": [...], "rows": [[...]], "row_count": N}.
func (o *QueryResult) Wire() json.RawMessage {
	cols := o.Columns
	if cols == nil {
		cols = []string{}
	}
	rows := o.Rows
	if rows == nil {
		rows = [][]any{}
	}
	raw, _ := json.Marshal(struct {
		Columns  []string `json:"columns"`
		Rows     [][]any  `json:"rows"`
		RowCount int      `json:"row_count"`
	}{Columns: cols, Rows: rows, RowCount: o.RowCount})
	return raw
}

// ToolError is the observation produced for every rejection or failure:
// unknown tools, missing arguments, SQL safety rejections, driver errors
// and handler panics. It is corrective context for the model, not a fault.
type ToolError struct {
	Message string
}

func (o *ToolError) isObservation() {}

// Wire returns {"error": "..."}.
func (o *ToolError) Wire() json.RawMessage {
	raw, _ := json.Marshal(struct {
		Message string `json:"error"`
	}{Message: o.Message})
	return raw
}

// Errorf builds a ToolError observation from a format string.
func Errorf(format string, args ...any) *ToolError {
	return &ToolError{Message: fmt.Sprintf(format, args...)}
}
