package circuit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// CellListOptions controls ListCells. Callers keep their own copy (for
// example inside a saved UI configuration); nothing here is remembered
// between calls.
type CellListOptions struct {
	Library       string // only this library; empty means every library
	IncludeHidden bool   // also list cells of hidden libraries
	NamePattern   string // regular expression on the cell name

	// Elements carrying any of these keys count as templated.
	TemplateKeys      []Key
	OnlyWithTemplates bool // drop cells without templated elements

	nameRegex *regexp.Regexp
}

// DefaultCellListOptions lists every cell of every visible library.
func DefaultCellListOptions() CellListOptions {
	return CellListOptions{}
}

// Validate compiles the name pattern.
func (o *CellListOptions) Validate() error {
	o.nameRegex = nil
	if o.NamePattern == "" {
		return nil
	}
	re, err := regexp.Compile(o.NamePattern)
	if err != nil {
		return fmt.Errorf("circuit: bad cell pattern: %w", err)
	}
	o.nameRegex = re
	return nil
}

// CellInfo describes one listed cell.
type CellInfo struct {
	Library   string
	Name      string
	Elements  int
	Templates int
}

// ListCells returns matching cells sorted by library then name
// (case-insensitive).
func (db *Database) ListCells(opts CellListOptions) ([]CellInfo, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	if opts.Library != "" && db.find(opts.Library) == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoLibrary, opts.Library)
	}

	var out []CellInfo
	for _, lib := range db.libraries {
		if opts.Library != "" && lib.Name != opts.Library {
			continue
		}
		if lib.Hidden && !opts.IncludeHidden && opts.Library == "" {
			continue
		}
		for _, c := range lib.Cells {
			if opts.nameRegex != nil && !opts.nameRegex.MatchString(c.Name) {
				continue
			}
			ci := CellInfo{Library: lib.Name, Name: c.Name, Elements: len(c.Elements)}
			for _, e := range c.Elements {
				if hasAny(e, opts.TemplateKeys) {
					ci.Templates++
				}
			}
			if opts.OnlyWithTemplates && ci.Templates == 0 {
				continue
			}
			out = append(out, ci)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Library != out[j].Library {
			return out[i].Library < out[j].Library
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func hasAny(e *Element, keys []Key) bool {
	for _, k := range keys {
		if _, ok := e.vars[k]; ok {
			return true
		}
	}
	return false
}
