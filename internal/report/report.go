// Package report formats a populated lookup table as a two-column text
// report: a fixed-width METHOD column, one row per method.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cspurity/cspurity/internal/graph"
	"github.com/cspurity/cspurity/internal/knowledge"
	"github.com/cspurity/cspurity/internal/method"
)

const (
	// methodWidth is the METHOD column's fixed width.
	methodWidth = 80
	levelHeader = "PURITY LEVEL"
)

// Row is one reported method/purity pair, plus an optional near-miss
// hint for Unknown rows.
type Row struct {
	Method string
	Level  string
	Hint   string
}

// Build extracts and sorts the rows to report. Sorting by display form
// gives the CLI deterministic output independent of the lookup table's
// internal map iteration order; overloads share a display form, so ties
// break on the identity's stable hash.
func Build(g *graph.Graph, table *knowledge.Table) []Row {
	methods := g.Methods()
	sort.Slice(methods, func(i, j int) bool {
		di, dj := methods[i].Display(), methods[j].Display()
		if di != dj {
			return di < dj
		}
		return graph.HashKey(methods[i]) < graph.HashKey(methods[j])
	})
	rows := make([]Row, 0, len(methods))
	for _, m := range methods {
		lvl, err := g.GetPurity(m)
		if err != nil {
			continue
		}
		row := Row{Method: m.Display(), Level: lvl.String()}
		if table != nil && row.Level == "Unknown" {
			if suggestion, ok := suggestFor(m, table); ok {
				row.Hint = suggestion
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func suggestFor(m method.Identity, table *knowledge.Table) (string, bool) {
	key := m.External()
	if m.IsResolved() {
		key = m.ClassDotName()
	}
	return table.Suggest(key)
}

// Write renders rows to w in the fixed-width, two-column format:
//
//	METHOD                                                                          PURITY LEVEL
//	--------------------------------------------------------------------------------------------
//	<display form of m>                                                             <level name>
func Write(w io.Writer, rows []Row) error {
	header := padRight("METHOD", methodWidth) + levelHeader
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", len(header))); err != nil {
		return err
	}
	for _, r := range rows {
		line := padRight(r.Method, methodWidth) + r.Level
		if r.Hint != "" {
			line += fmt.Sprintf("  (did you mean %s?)", r.Hint)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-len(s))
}
