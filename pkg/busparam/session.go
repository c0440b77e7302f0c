package busparam

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrInvalidName        = errors.New("busparam: invalid parameter name")
	ErrDuplicateParameter = errors.New("busparam: parameter already exists")
	ErrUnknownParameter   = errors.New("busparam: no such parameter")
	ErrUnknownLibrary     = errors.New("busparam: no such library")
)

// Session is an editing session over a parameter table. It is not safe for
// concurrent use; the UI owns one session per open dialog.
type Session struct {
	table Table
	dirty map[string]bool
}

// NewSession starts editing a copy of table.
func NewSession(table Table) *Session {
	return &Session{
		table: table.Clone(),
		dirty: make(map[string]bool),
	}
}

// Libraries returns the names of all libraries, in table order.
func (s *Session) Libraries() []string {
	names := make([]string, 0, len(s.table))
	for _, lib := range s.table {
		names = append(names, lib.Name)
	}
	return names
}

// Entries returns a copy of a library's entries.
func (s *Session) Entries(library string) ([]string, error) {
	lib, err := s.library(library)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), lib.Entries...), nil
}

// Add creates a parameter, keeping the library's entries sorted.
func (s *Session) Add(library, name, value string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	lib, err := s.library(library)
	if err != nil {
		return err
	}
	if indexOf(lib.Entries, name) >= 0 {
		return fmt.Errorf("%w: %q in library %q", ErrDuplicateParameter, name, library)
	}
	entry := FormatEntry(name, value)
	pos := len(lib.Entries)
	for i, existing := range lib.Entries {
		if strings.ToLower(existing) > strings.ToLower(entry) {
			pos = i
			break
		}
	}
	lib.Entries = append(lib.Entries, "")
	copy(lib.Entries[pos+1:], lib.Entries[pos:])
	lib.Entries[pos] = entry
	s.dirty[library] = true
	return nil
}

// SetValue replaces the value of an existing parameter. The stored name keeps
// its original spelling.
func (s *Session) SetValue(library, name, value string) error {
	lib, err := s.library(library)
	if err != nil {
		return err
	}
	idx := indexOf(lib.Entries, name)
	if idx < 0 {
		return fmt.Errorf("%w: %q in library %q", ErrUnknownParameter, name, library)
	}
	stored, _, _ := ParseEntry(lib.Entries[idx])
	updated := FormatEntry(stored, value)
	if lib.Entries[idx] != updated {
		lib.Entries[idx] = updated
		s.dirty[library] = true
	}
	return nil
}

// Delete removes a parameter.
func (s *Session) Delete(library, name string) error {
	lib, err := s.library(library)
	if err != nil {
		return err
	}
	idx := indexOf(lib.Entries, name)
	if idx < 0 {
		return fmt.Errorf("%w: %q in library %q", ErrUnknownParameter, name, library)
	}
	lib.Entries = append(lib.Entries[:idx], lib.Entries[idx+1:]...)
	s.dirty[library] = true
	return nil
}

// Dirty lists the libraries changed since the session started, in table order.
func (s *Session) Dirty() []string {
	var names []string
	for _, lib := range s.table {
		if s.dirty[lib.Name] {
			names = append(names, lib.Name)
		}
	}
	return names
}

// MarkClean forgets pending changes, typically after they were written back.
func (s *Session) MarkClean() {
	s.dirty = make(map[string]bool)
}

// Table returns a copy of the edited table.
func (s *Session) Table() Table {
	return s.table.Clone()
}

// ValidateName checks that name can be stored and referenced as "$(name)".
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	for _, r := range name {
		if r == '=' || r == '(' || r == ')' || unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, r)
		}
	}
	return nil
}

func (s *Session) library(name string) (*LibraryParameters, error) {
	for i := range s.table {
		if s.table[i].Name == name {
			return &s.table[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLibrary, name)
}

func indexOf(entries []string, name string) int {
	for i, entry := range entries {
		n, _, ok := ParseEntry(entry)
		if ok && strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}
