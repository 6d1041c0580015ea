// Package sqlguard statically classifies candidate SQL as safe to run
// against a read-only connection, and injects a row-limit guard. It is a
// lightweight token-level pass: broad classes of mutating statements are
// rejected here, while anything it cannot resolve (aliases, computed
// columns, join ambiguity) is deferred to the database driver.
package sqlguard

import (
	"fmt"
	"sort"
	"strings"
)

// RejectionKind classifies why a statement was refused.
type RejectionKind string

const (
	// RejectEmpty means the statement was blank after normalization.
	RejectEmpty RejectionKind = "empty"

	// RejectNotReadOnly means a mutating verb was found.
	RejectNotReadOnly RejectionKind = "not_read_only"

	// RejectStacked means multiple semicolon-separated statements.
	RejectStacked RejectionKind = "stacked_statement"

	// RejectUnknownReference means a table reference not present in the
	// schema snapshot.
	RejectUnknownReference RejectionKind = "unknown_reference"
)

// Rejection is the typed refusal returned to the caller; its detail is
// written to be actionable for the model on the next turn.
type Rejection struct {
	Kind   RejectionKind
	Detail string
}

func (r *Rejection) Error() string {
	return r.Detail
}

// Prepared is a statement that passed validation, possibly augmented with
// the default row limit.
type Prepared struct {
	Query        string
	LimitApplied bool
}

// Snapshot is the table layout the validator checks name references
// against. It is read once per run and never mutated afterwards, so it is
// safe to share across concurrent validations.
type Snapshot struct {
	// Tables maps table name to its column names.
	Tables map[string][]string
}

// TableNames returns the known table names, sorted.
func (s Snapshot) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a table exists, case-insensitively.
func (s Snapshot) Has(name string) bool {
	for known := range s.Tables {
		if strings.EqualFold(known, name) {
			return true
		}
	}
	return false
}

// Mutating verbs rejected wherever they appear in the token stream.
// Scanning every token rather than only statement heads is deliberately
// conservative: a verb inside a subquery is just as disqualifying, and
// string literals are already opaque to the scanner.
var forbiddenVerbs = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "DROP": {}, "ALTER": {},
	"CREATE": {}, "TRUNCATE": {}, "REPLACE": {}, "ATTACH": {}, "DETACH": {},
	"PRAGMA": {}, "VACUUM": {}, "REINDEX": {}, "GRANT": {}, "REVOKE": {},
}

// DefaultRowLimit bounds result sets when the statement carries no LIMIT
// of its own.
const DefaultRowLimit = 100

// Validator performs the static safety pass.
type Validator struct {
	defaultLimit int
}

// New creates a validator with the given default row limit; zero or
// negative falls back to DefaultRowLimit.
func New(defaultLimit int) *Validator {
	if defaultLimit <= 0 {
		defaultLimit = DefaultRowLimit
	}
	return &Validator{defaultLimit: defaultLimit}
}

// DefaultLimit returns the configured row limit.
func (v *Validator) DefaultLimit() int {
	return v.defaultLimit
}

// Validate classifies the statement and, on success, returns the possibly
// limit-augmented form to execute. The rejection return is nil on success.
func (v *Validator) Validate(query string, snap Snapshot) (Prepared, *Rejection) {
	trimmed := strings.TrimSpace(query)
	toks := scan(trimmed)
	if len(toks) == 0 {
		return Prepared{}, &Rejection{Kind: RejectEmpty, Detail: "empty query"}
	}

	// A single trailing semicolon is tolerated; anything after one is a
	// stacked statement and rejected outright.
	for i, t := range toks {
		if t.kind != tkSemicolon {
			continue
		}
		if i != len(toks)-1 {
			return Prepared{}, &Rejection{
				Kind:   RejectStacked,
				Detail: "multiple statements are not allowed; submit a single SELECT",
			}
		}
		trimmed = strings.TrimSpace(trimmed[:t.pos])
		toks = toks[:i]
	}
	if len(toks) == 0 {
		return Prepared{}, &Rejection{Kind: RejectEmpty, Detail: "empty query"}
	}

	head := toks[0]
	if head.kind != tkWord || (head.upper != "SELECT" && head.upper != "WITH") {
		return Prepared{}, &Rejection{
			Kind:   RejectNotReadOnly,
			Detail: "only SELECT queries are allowed (read-only mode)",
		}
	}

	for _, t := range toks {
		if t.kind != tkWord || t.quoted {
			continue
		}
		if _, forbidden := forbiddenVerbs[t.upper]; forbidden {
			return Prepared{}, &Rejection{
				Kind:   RejectNotReadOnly,
				Detail: fmt.Sprintf("forbidden keyword %s detected; only SELECT queries are allowed", t.upper),
			}
		}
	}

	if rej := v.checkTableRefs(toks, snap); rej != nil {
		return Prepared{}, rej
	}

	prepared := Prepared{Query: trimmed}
	if !hasTopLevelLimit(toks) {
		// On its own line, so a trailing -- comment cannot swallow it.
		prepared.Query = fmt.Sprintf("%s\nLIMIT %d", trimmed, v.defaultLimit)
		prepared.LimitApplied = true
	}
	return prepared, nil
}

// checkTableRefs validates the identifier following each FROM/JOIN against
// the snapshot. The check is advisory-strict: it fails closed on names it
// is confident do not exist and defers subqueries, aliases, and an empty
// snapshot to the driver.
func (v *Validator) checkTableRefs(toks []token, snap Snapshot) *Rejection {
	if len(snap.Tables) == 0 {
		return nil
	}

	// Names introduced by the statement itself (WITH ... AS) are legal
	// references even though the snapshot has never heard of them. They
	// can only be declared at depth 0 before the main SELECT.
	ctes := map[string]struct{}{}
	if toks[0].upper == "WITH" {
		for i, t := range toks {
			if t.depth == 0 && t.kind == tkWord && t.upper == "SELECT" {
				break
			}
			if t.depth == 0 && t.kind == tkWord && i+1 < len(toks) &&
				toks[i+1].kind == tkWord && toks[i+1].upper == "AS" {
				ctes[strings.ToLower(t.text)] = struct{}{}
			}
		}
	}

	for i, t := range toks {
		if t.kind != tkWord || t.quoted || (t.upper != "FROM" && t.upper != "JOIN") {
			continue
		}
		if i+1 >= len(toks) {
			continue
		}
		next := toks[i+1]
		if next.kind != tkWord {
			// FROM (SELECT ...) — a subquery, not a name reference
			continue
		}

		name := next.text
		// schema-qualified reference: take the last dotted segment
		j := i + 1
		for j+2 < len(toks) && toks[j+1].kind == tkPunct && toks[j+1].text == "." && toks[j+2].kind == tkWord {
			name = toks[j+2].text
			j += 2
		}

		if _, isCTE := ctes[strings.ToLower(name)]; isCTE {
			continue
		}
		if !snap.Has(name) {
			detail := fmt.Sprintf("unknown table %q", name)
			if suggestion := closestName(name, snap.TableNames()); suggestion != "" {
				detail += fmt.Sprintf(" (did you mean %q?)", suggestion)
			}
			detail += fmt.Sprintf("; available tables: %s. Use list_tables or describe_table first",
				strings.Join(snap.TableNames(), ", "))
			return &Rejection{Kind: RejectUnknownReference, Detail: detail}
		}
	}
	return nil
}

// hasTopLevelLimit reports whether a LIMIT clause exists outside of any
// subquery. A LIMIT buried in a subquery does not bound the outer result.
func hasTopLevelLimit(toks []token) bool {
	for _, t := range toks {
		if t.kind == tkWord && !t.quoted && t.depth == 0 && t.upper == "LIMIT" {
			return true
		}
	}
	return false
}
