// Package busparam implements bus-parameter expansion for element names.
//
// A library carries an ordered list of "name=value" parameter entries. Nodes,
// arcs and exports may carry a template such as "data[$(width)-1:0]" which is
// resolved against those parameters to produce the element's actual name.
//
// # Resolution
//
// Resolving a template happens in two steps:
//  1. Substitution: every "$(name)" token is replaced, left to right, by the
//     value found in the home library or, failing that, in the first other
//     non-hidden library that defines it. Inserted values are scanned again,
//     so a value may itself reference another parameter.
//  2. Arithmetic: one left-to-right pass reduces "digits op digits" spans for
//     the operators + - * /. There is no precedence: "2+3*2" becomes "10".
//
// Resolution never fails outright. A missing ")" or an undefined name stops
// substitution, the partially substituted string is returned, and a
// diagnostic is written to the resolver's Logger.
//
// # Usage
//
//	table := busparam.Table{
//		{Name: "core", Entries: []string{"width=8"}},
//	}
//	r := busparam.NewResolver(table)
//	name := r.Resolve("d[$(width)-1:0]", "core") // "d[7:0]"
//
// # Editing
//
// Session provides the New/Edit/Delete operations of the parameter editor.
// It keeps names unique per library (case-insensitively) and inserts new
// entries at their sorted position. The engine itself never writes to a
// database: callers persist Session.Table one library at a time.
package busparam
