package sqlguard

import (
	"strings"
	"testing"
)

func testSnapshot() Snapshot {
	return Snapshot{Tables: map[string][]string{
		"customers": {"id", "name", "city"},
		"orders":    {"id", "customer_id", "total"},
	}}
}

func TestValidate_Rejections(t *testing.T) {
	v := New(100)
	snap := testSnapshot()

	tests := []struct {
		name  string
		query string
		kind  RejectionKind
	}{
		{"empty", "", RejectEmpty},
		{"whitespace", "   \n\t ", RejectEmpty},
		{"lone semicolon", " ; ", RejectEmpty},
		{"insert", "INSERT INTO customers VALUES (1)", RejectNotReadOnly},
		{"update head", "UPDATE customers SET name = 'x'", RejectNotReadOnly},
		{"delete lowercase", "delete from customers", RejectNotReadOnly},
		{"drop", "DROP TABLE customers", RejectNotReadOnly},
		{"pragma", "PRAGMA table_info(customers)", RejectNotReadOnly},
		{"forbidden verb in subquery", "SELECT * FROM customers WHERE id IN (DELETE FROM orders)", RejectNotReadOnly},
		{"stacked", "SELECT 1; SELECT 2", RejectStacked},
		{"stacked mutation", "SELECT 1; DROP TABLE customers", RejectStacked},
		{"not select", "EXPLAIN SELECT 1", RejectNotReadOnly},
		{"unknown table", "SELECT * FROM cstomers", RejectUnknownReference},
		{"unknown join", "SELECT * FROM customers JOIN order_items ON 1=1", RejectUnknownReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rej := v.Validate(tt.query, snap)
			if rej == nil {
				t.Fatalf("Validate(%q) accepted, want rejection %s", tt.query, tt.kind)
			}
			if rej.Kind != tt.kind {
				t.Errorf("Validate(%q) kind = %s, want %s (detail: %s)", tt.query, rej.Kind, tt.kind, rej.Detail)
			}
		})
	}
}

func TestValidate_Accepts(t *testing.T) {
	v := New(100)
	snap := testSnapshot()

	tests := []struct {
		name  string
		query string
	}{
		{"plain select", "SELECT * FROM customers"},
		{"trailing semicolon", "SELECT * FROM customers;"},
		{"lowercase", "select name from customers where city = 'Berlin'"},
		{"qualified table", "SELECT * FROM main.customers"},
		{"quoted table", `SELECT * FROM "customers"`},
		{"subquery from", "SELECT * FROM (SELECT id FROM customers) sub"},
		{"join known tables", "SELECT * FROM customers JOIN orders ON orders.customer_id = customers.id"},
		{"cte", "WITH big AS (SELECT * FROM orders WHERE total > 100) SELECT COUNT(*) FROM big"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, rej := v.Validate(tt.query, snap); rej != nil {
				t.Errorf("Validate(%q) rejected: %s", tt.query, rej.Detail)
			}
		})
	}
}

func TestValidate_KeywordsInLiteralsAndComments(t *testing.T) {
	v := New(100)
	snap := testSnapshot()

	tests := []struct {
		name  string
		query string
	}{
		{"literal", "SELECT * FROM customers WHERE name = 'DROP TABLE'"},
		{"literal with escape", "SELECT * FROM customers WHERE name = 'don''t DELETE'"},
		{"line comment", "SELECT * FROM customers -- DELETE FROM orders"},
		{"block comment", "SELECT /* UPDATE customers */ * FROM customers"},
		{"quoted identifier", `SELECT "delete" FROM customers`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, rej := v.Validate(tt.query, snap); rej != nil {
				t.Errorf("Validate(%q) rejected: %s", tt.query, rej.Detail)
			}
		})
	}

	// And the inverse: hiding the SELECT head inside a comment still fails.
	if _, rej := v.Validate("/* SELECT */ DELETE FROM customers", snap); rej == nil {
		t.Error("mutation behind a leading comment was accepted")
	}
}

func TestValidate_LimitInjection(t *testing.T) {
	v := New(100)
	snap := testSnapshot()

	prepared, rej := v.Validate("SELECT * FROM customers", snap)
	if rej != nil {
		t.Fatalf("rejected: %s", rej.Detail)
	}
	if !prepared.LimitApplied {
		t.Error("LimitApplied = false, want true")
	}
	if !strings.HasSuffix(prepared.Query, "LIMIT 100") {
		t.Errorf("Query = %q, want LIMIT 100 suffix", prepared.Query)
	}

	// Existing top-level LIMIT is respected.
	prepared, rej = v.Validate("SELECT * FROM customers LIMIT 5", snap)
	if rej != nil {
		t.Fatalf("rejected: %s", rej.Detail)
	}
	if prepared.LimitApplied {
		t.Errorf("LimitApplied = true for %q", prepared.Query)
	}

	// A LIMIT buried in a subquery does not bound the outer result.
	prepared, rej = v.Validate("SELECT * FROM (SELECT id FROM customers LIMIT 5) sub", snap)
	if rej != nil {
		t.Fatalf("rejected: %s", rej.Detail)
	}
	if !prepared.LimitApplied {
		t.Error("LimitApplied = false for subquery-only LIMIT")
	}

	// Trailing semicolon is stripped before appending.
	prepared, _ = v.Validate("SELECT * FROM customers;", snap)
	if strings.Contains(prepared.Query, ";") {
		t.Errorf("Query = %q, semicolon survived limit injection", prepared.Query)
	}

	// A trailing line comment must not swallow the injected LIMIT.
	prepared, rej = v.Validate("SELECT * FROM customers -- all rows", snap)
	if rej != nil {
		t.Fatalf("rejected: %s", rej.Detail)
	}
	if !prepared.LimitApplied {
		t.Error("LimitApplied = false for query with trailing comment")
	}
	if !strings.HasSuffix(prepared.Query, "\nLIMIT 100") {
		t.Errorf("Query = %q, LIMIT landed inside the trailing comment", prepared.Query)
	}
}

func TestValidate_UnknownTableSuggestion(t *testing.T) {
	v := New(100)
	snap := testSnapshot()

	_, rej := v.Validate("SELECT * FROM custmers", snap)
	if rej == nil {
		t.Fatal("typo accepted")
	}
	if !strings.Contains(rej.Detail, `did you mean "customers"`) {
		t.Errorf("Detail = %q, want suggestion for customers", rej.Detail)
	}
	if !strings.Contains(rej.Detail, "list_tables") {
		t.Errorf("Detail = %q, want pointer to list_tables", rej.Detail)
	}
}

func TestValidate_EmptySnapshotDefersNames(t *testing.T) {
	v := New(100)

	// With no snapshot the name check defers to the driver.
	if _, rej := v.Validate("SELECT * FROM anything", Snapshot{}); rej != nil {
		t.Errorf("Validate with empty snapshot rejected: %s", rej.Detail)
	}
}

func TestValidate_DefaultLimitFallback(t *testing.T) {
	v := New(0)
	if v.DefaultLimit() != DefaultRowLimit {
		t.Errorf("DefaultLimit() = %d, want %d", v.DefaultLimit(), DefaultRowLimit)
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"customers", "custmers", 1},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClosestName(t *testing.T) {
	candidates := []string{"customers", "orders"}

	if got := closestName("custmers", candidates); got != "customers" {
		t.Errorf("closestName(custmers) = %q", got)
	}
	// Far-off names yield no suggestion.
	if got := closestName("zzzzzzzzzz", candidates); got != "" {
		t.Errorf("closestName(zzzzzzzzzz) = %q, want empty", got)
	}
}
