package busparam

import "strings"

// LibraryParameters is the parameter list of one library.
type LibraryParameters struct {
	Name    string
	Hidden  bool     // hidden libraries are skipped by fallback lookup and default selection
	Entries []string // "name=value", in display order
}

// Table is an ordered snapshot of every library's parameters. Order matters:
// fallback lookup visits libraries in table order.
type Table []LibraryParameters

// ParseEntry splits an entry at its first '='. Entries without '=' are
// malformed and report ok == false.
func ParseEntry(entry string) (name, value string, ok bool) {
	eq := strings.IndexByte(entry, '=')
	if eq < 0 {
		return "", "", false
	}
	return entry[:eq], entry[eq+1:], true
}

// FormatEntry builds the stored form of a parameter.
func FormatEntry(name, value string) string {
	return name + "=" + value
}

// FindValue returns the value of the first entry whose name matches name
// case-insensitively.
func FindValue(entries []string, name string) (string, bool) {
	for _, entry := range entries {
		n, v, ok := ParseEntry(entry)
		if !ok {
			continue
		}
		if strings.EqualFold(n, name) {
			return v, true
		}
	}
	return "", false
}

// Library returns the parameters of the named library.
func (t Table) Library(name string) (LibraryParameters, bool) {
	for _, lib := range t {
		if lib.Name == name {
			return lib, true
		}
	}
	return LibraryParameters{}, false
}

// Lookup finds a parameter value. The home library is searched first (hidden
// or not), then every other non-hidden library in table order.
func (t Table) Lookup(name, home string) (string, bool) {
	if home != "" {
		if lib, ok := t.Library(home); ok {
			if v, ok := FindValue(lib.Entries, name); ok {
				return v, true
			}
		}
	}
	for _, lib := range t {
		if lib.Hidden || (home != "" && lib.Name == home) {
			continue
		}
		if v, ok := FindValue(lib.Entries, name); ok {
			return v, true
		}
	}
	return "", false
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for i, lib := range t {
		out[i] = LibraryParameters{
			Name:    lib.Name,
			Hidden:  lib.Hidden,
			Entries: append([]string(nil), lib.Entries...),
		}
	}
	return out
}

// BestDefaultLibrary picks the library a parameter editor should open on.
// The current library wins when it has any entries; otherwise the non-hidden
// library with the most entries (first one on ties); otherwise current.
func BestDefaultLibrary(t Table, current string) string {
	if lib, ok := t.Library(current); ok && len(lib.Entries) > 0 {
		return current
	}
	best, most := "", 0
	for _, lib := range t {
		if lib.Hidden {
			continue
		}
		if len(lib.Entries) > most {
			best, most = lib.Name, len(lib.Entries)
		}
	}
	if most == 0 {
		return current
	}
	return best
}
