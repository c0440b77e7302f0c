// Package report exports bus templates and their resolved names as an
// s-expression document, in the spirit of a KiCad netlist export.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/sexp"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
)

// Row is one templated element and what its template resolves to.
type Row struct {
	bus.Template
	Resolved string
	Err      error
}

// Stale reports whether the element's name differs from its resolution.
func (r Row) Stale() bool {
	return !strings.EqualFold(r.Name, r.Resolved)
}

// Collect resolves every template of the non-hidden libraries.
func Collect(db *circuit.Database, opts ...busparam.Option) []Row {
	resolver := busparam.NewResolver(bus.Snapshot(db), opts...)
	var rows []Row
	for _, t := range bus.Templates(db) {
		resolved, err := resolver.Expand(t.Template, t.Ref.Library)
		resolver.Report(err)
		rows = append(rows, Row{Template: t, Resolved: resolved, Err: err})
	}
	return rows
}

// Export renders rows grouped by library and cell.
func Export(rows []Row) string {
	var b strings.Builder
	b.WriteString("(bus-report (version 1)\n")
	lib, cell := "", ""
	open := false
	for _, r := range rows {
		if r.Ref.Library != lib || r.Ref.Cell != cell {
			if open {
				b.WriteString("    )\n  )\n")
			}
			lib, cell = r.Ref.Library, r.Ref.Cell
			fmt.Fprintf(&b, "  (library (name %s)\n    (cell (name %s)\n", quote(lib), quote(cell))
			open = true
		}
		fmt.Fprintf(&b, "      (element (id %d) (kind %s) (name %s) (template %s) (resolved %s)",
			r.Ref.ID, r.Kind, quote(r.Name), quote(r.Template.Template), quote(r.Resolved))
		if r.Stale() {
			b.WriteString(" (stale yes)")
		}
		if r.Err != nil {
			fmt.Fprintf(&b, " (error %s)", quote(r.Err.Error()))
		}
		b.WriteString(")\n")
	}
	if open {
		b.WriteString("    )\n  )\n")
	}
	b.WriteString(")\n")
	return b.String()
}

// Check verifies that doc is a single well-formed s-expression and returns
// its leaf count. Quoted strings count as one leaf each.
func Check(doc string) (leaves int, err error) {
	plain, err := atomize(doc)
	if err != nil {
		return 0, err
	}
	defer func() {
		if r := recover(); r != nil {
			leaves, err = 0, fmt.Errorf("report: malformed s-expression: %v", r)
		}
	}()
	exprs, err := sexp.ParseString(plain)
	if err != nil {
		return 0, fmt.Errorf("report: malformed s-expression: %w", err)
	}
	if len(exprs) != 1 {
		return 0, fmt.Errorf("report: expected one top-level expression, got %d", len(exprs))
	}
	if exprs[0].IsLeaf() {
		return 0, fmt.Errorf("report: top-level expression is not a list")
	}
	return exprs[0].LeafCount(), nil
}

// atomize replaces every quoted string in doc with a bare placeholder atom.
// The s-expression reader has no string syntax and splits atoms on spaces
// and parentheses, so strings must not reach it. Parentheses are balanced
// here as well; the reader panics on a stray ')'.
func atomize(doc string) (string, error) {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(doc); {
		c := doc[i]
		switch c {
		case '"':
			lit, err := strconv.QuotedPrefix(doc[i:])
			if err != nil {
				return "", fmt.Errorf("report: bad string at offset %d: %w", i, err)
			}
			b.WriteString("str")
			i += len(lit)
			continue
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return "", fmt.Errorf("report: unbalanced ')' at offset %d", i)
			}
			depth--
		}
		b.WriteByte(c)
		i++
	}
	if depth != 0 {
		return "", fmt.Errorf("report: %d unclosed '('", depth)
	}
	return b.String(), nil
}

func quote(s string) string {
	return strconv.Quote(s)
}
