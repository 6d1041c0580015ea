package application

import (
	"testing"

	"github.com/SooryaOmeg/sqlagent/domain/agent"
)

func TestEvidenceCache_Ingest(t *testing.T) {
	cache := newEvidenceCache()

	cache.ingest(&agent.ToolCall{Name: "list_tables"}, &agent.TableList{Tables: []string{"emp", "dept"}})
	if got := cache.knownTables(); len(got) != 2 || got[0] != "dept" {
		t.Errorf("knownTables() = %v", got)
	}

	cache.ingest(&agent.ToolCall{Name: "describe_table"}, &agent.TableSchema{
		Table:    "Emp",
		Columns:  []agent.Column{{Name: "id", Type: "INTEGER"}},
		RowCount: 150,
	})
	if cache.rowCounts["emp"] != 150 {
		t.Errorf("rowCounts = %v, want emp=150", cache.rowCounts)
	}
}

func TestEvidenceCache_CheckFinal(t *testing.T) {
	cache := newEvidenceCache()
	cache.ingest(nil, &agent.TableSchema{Table: "emp", RowCount: 150})

	tests := []struct {
		name     string
		final    string
		wantWarn bool
	}{
		{"matching count", "The emp table contains 150 rows.", false},
		{"within tolerance", "The emp table contains 152 rows.", false},
		{"contradiction", "The emp table contains 5000 rows.", true},
		{"no number claimed", "The emp table holds employee records.", false},
		{"different table", "The dept table contains 9999 rows.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := cache.checkFinal(tt.final)
			if (warning != "") != tt.wantWarn {
				t.Errorf("checkFinal(%q) = %q, wantWarn=%v", tt.final, warning, tt.wantWarn)
			}
		})
	}
}
