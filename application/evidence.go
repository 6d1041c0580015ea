package application

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/SooryaOmeg/sqlagent/domain/agent"
)

// evidenceCache opportunistically accumulates facts from observations so
// a final answer can be sanity-checked against what the tools actually
// reported. It is advisory only and never blocks an answer.
type evidenceCache struct {
	tables    []string
	schema    map[string][]string
	rowCounts map[string]int
}

func newEvidenceCache() *evidenceCache {
	return &evidenceCache{
		schema:    make(map[string][]string),
		rowCounts: make(map[string]int),
	}
}

// ingest records whatever the observation can teach us.
func (c *evidenceCache) ingest(_ *agent.ToolCall, obs agent.Observation) {
	switch o := obs.(type) {
	case *agent.TableList:
		c.tables = append([]string(nil), o.Tables...)
	case *agent.TableSchema:
		cols := make([]string, len(o.Columns))
		for i, col := range o.Columns {
			cols[i] = col.Name
		}
		c.schema[strings.ToLower(o.Table)] = cols
		c.rowCounts[strings.ToLower(o.Table)] = o.RowCount
	}
}

var rowClaimPattern = regexp.MustCompile(`(\d{2,6})\s+rows`)

// checkFinal returns a warning for clear contradictions between the final
// answer and cached evidence, or "" when nothing stands out.
func (c *evidenceCache) checkFinal(final string) string {
	text := strings.ToLower(final)

	// A claimed row count far from the observed one is worth flagging.
	for table, rc := range c.rowCounts {
		if !strings.Contains(text, table) {
			continue
		}
		m := rowClaimPattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		claimed, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if diff := claimed - rc; diff > 5 || diff < -5 {
			return fmt.Sprintf("answer claims %d rows for %s, tools observed %d", claimed, table, rc)
		}
	}

	return ""
}

// knownTables returns the cached table names, sorted.
func (c *evidenceCache) knownTables() []string {
	out := append([]string(nil), c.tables...)
	sort.Strings(out)
	return out
}
