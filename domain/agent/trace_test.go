package agent

import (
	"errors"
	"strings"
	"testing"
)

func TestTrace_BudgetEnforced(t *testing.T) {
	tr := NewTrace("t1", "how many rows?", 2)

	if err := tr.Append(Step{Thought: "one"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := tr.Append(Step{Thought: "two"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := tr.Append(Step{Thought: "three"}); !errors.Is(err, ErrTraceFull) {
		t.Fatalf("Append() beyond budget error = %v, want ErrTraceFull", err)
	}
	if tr.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tr.Len())
	}
}

func TestTrace_HasEvidence(t *testing.T) {
	tr := NewTrace("t1", "q", 5)

	if tr.HasEvidence() {
		t.Error("HasEvidence() = true on empty trace")
	}

	// A corrective step with no observation is not evidence either.
	_ = tr.Append(Step{Thought: "thinking"})
	if tr.HasEvidence() {
		t.Error("HasEvidence() = true with no observations")
	}

	_ = tr.Append(Step{
		Thought:     "checking tables",
		Action:      &ToolCall{Name: "list_tables"},
		Observation: &TableList{Tables: []string{"emp"}},
	})
	if !tr.HasEvidence() {
		t.Error("HasEvidence() = false after a tool observation")
	}
}

func TestStep_Block(t *testing.T) {
	action := Step{
		Thought:     "count rows",
		Action:      &ToolCall{Name: "query_database", Arguments: map[string]any{"query": "SELECT COUNT(*) FROM emp"}},
		Observation: &QueryResult{Columns: []string{"count"}, Rows: [][]any{{float64(3)}}, RowCount: 1},
	}
	block := action.Block()
	for _, want := range []string{"THOUGHT: count rows", "ACTION: query_database{", `OBSERVATION: {"columns":["count"]`} {
		if !strings.Contains(block, want) {
			t.Errorf("Block() = %q, missing %q", block, want)
		}
	}

	corrective := Step{Thought: "oops", Observation: &ToolError{Message: "bad json"}}
	if !strings.Contains(corrective.Block(), "ACTION: N/A") {
		t.Errorf("corrective Block() = %q, missing ACTION: N/A", corrective.Block())
	}

	final := Step{Thought: "done", IsFinal: true, FinalText: "3 employees."}
	if !strings.Contains(final.Block(), "FINAL ANSWER: 3 employees.") {
		t.Errorf("final Block() = %q", final.Block())
	}
}

func TestTrace_Outcomes(t *testing.T) {
	tr := NewTrace("t1", "q", 3)
	if tr.IsTerminal() {
		t.Error("new trace is terminal")
	}

	tr.Answer("done")
	if tr.Outcome != OutcomeAnswered || tr.FinalAnswer != "done" {
		t.Errorf("Outcome = %v, FinalAnswer = %q", tr.Outcome, tr.FinalAnswer)
	}
	if !tr.IsTerminal() {
		t.Error("answered trace not terminal")
	}
	if tr.EndTime.IsZero() {
		t.Error("EndTime not set")
	}
}

func TestObservation_Wire(t *testing.T) {
	tests := []struct {
		name string
		obs  Observation
		want string
	}{
		{"table list", &TableList{Tables: []string{"a", "b"}}, `{"tables":["a","b"]}`},
		{"empty table list", &TableList{}, `{"tables":[]}`},
		{
			"schema",
			&TableSchema{Table: "emp", Columns: []Column{{Name: "id", Type: "INTEGER"}}, RowCount: 7},
			`{"table_name":"emp","columns":[{"name":"id","type":"INTEGER"}],"row_count":7}`,
		},
		{
			"query result",
			&QueryResult{Columns: []string{"n"}, Rows: [][]any{{float64(1)}}, RowCount: 1},
			`{"columns":["n"],"rows":[[1]],"row_count":1}`,
		},
		{"error", &ToolError{Message: "boom"}, `{"error":"boom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.obs.Wire()); got != tt.want {
				t.Errorf("Wire() = %s, want %s", got, tt.want)
			}
		})
	}
}
