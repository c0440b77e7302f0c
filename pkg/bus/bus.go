// Package bus connects the bus-parameter engine to the circuit database.
//
// Parameters are stored on each library as the array attribute
// KeyLibraryParameters; templates are stored on elements under one key per
// element kind. The package offers the two non-interactive entry points used
// by the CLI and plugins: ResolveTemplate and UpdateAllParameters.
package bus

import (
	"strings"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
)

const (
	KeyLibraryParameters circuit.Key = "LIB_Bus_Parameters"
	KeyNodeTemplate      circuit.Key = "NODE_Bus_Template"
	KeyArcTemplate       circuit.Key = "ARC_Bus_Template"
	KeyExportTemplate    circuit.Key = "EXPORT_Bus_Template"
)

// TemplateKey returns the attribute that holds templates for kind.
func TemplateKey(kind circuit.ElementKind) circuit.Key {
	switch kind {
	case circuit.KindArc:
		return KeyArcTemplate
	case circuit.KindExport:
		return KeyExportTemplate
	default:
		return KeyNodeTemplate
	}
}

// TemplateKeys lists every template attribute, e.g. for cell listings.
func TemplateKeys() []circuit.Key {
	return []circuit.Key{KeyNodeTemplate, KeyArcTemplate, KeyExportTemplate}
}

// LoadParameters returns a library's stored parameters, or nil when it has
// none or does not exist.
func LoadParameters(db *circuit.Database, library string) []string {
	entries, _, err := db.LibraryVar(library, KeyLibraryParameters)
	if err != nil {
		return nil
	}
	return entries
}

// Snapshot builds the parameter table of every loaded library, in load order.
func Snapshot(db *circuit.Database) busparam.Table {
	libs := db.Libraries()
	table := make(busparam.Table, 0, len(libs))
	for _, lib := range libs {
		table = append(table, busparam.LibraryParameters{
			Name:    lib.Name,
			Hidden:  lib.Hidden,
			Entries: LoadParameters(db, lib.Name),
		})
	}
	return table
}

// DefaultLibrary picks the library a parameter editor should start on.
func DefaultLibrary(db *circuit.Database) string {
	return busparam.BestDefaultLibrary(Snapshot(db), db.Current())
}

// ResolveTemplate resolves one template against the currently loaded
// libraries. An empty library selects DefaultLibrary.
func ResolveTemplate(db *circuit.Database, template, library string, opts ...busparam.Option) string {
	table := Snapshot(db)
	if library == "" {
		library = busparam.BestDefaultLibrary(table, db.Current())
	}
	return busparam.NewResolver(table, opts...).Resolve(template, library)
}

// Template is one element carrying a template.
type Template struct {
	Ref      circuit.ElementRef
	Kind     circuit.ElementKind
	Name     string
	Template string
}

// Templates lists every templated element of the non-hidden libraries.
func Templates(db *circuit.Database) []Template {
	var out []Template
	for _, e := range db.Elements(false) {
		tmpl, ok := e.Vars[TemplateKey(e.Kind)]
		if !ok {
			continue
		}
		out = append(out, Template{Ref: e.Ref, Kind: e.Kind, Name: e.Name, Template: tmpl})
	}
	return out
}

// ApplyToElement renames the element when its name differs from resolved
// (ignoring case). It reports whether a rename happened.
func ApplyToElement(db *circuit.Database, ref circuit.ElementRef, resolved string) (bool, error) {
	e, err := db.Element(ref)
	if err != nil {
		return false, err
	}
	if strings.EqualFold(e.Name, resolved) {
		return false, nil
	}
	if err := db.RenameElement(ref, resolved); err != nil {
		return false, err
	}
	return true, nil
}
