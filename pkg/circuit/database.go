package circuit

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNoLibrary        = errors.New("circuit: no such library")
	ErrNoCell           = errors.New("circuit: no such cell")
	ErrNoElement        = errors.New("circuit: no such element")
	ErrDuplicateLibrary = errors.New("circuit: library already loaded")
)

// LibraryInfo summarizes a loaded library.
type LibraryInfo struct {
	Name   string
	Hidden bool
	Cells  int
}

// ElementInfo is a snapshot of one element.
type ElementInfo struct {
	Ref    ElementRef
	Hidden bool // owning library is hidden
	Kind   ElementKind
	Name   string
	Vars   map[Key]string
}

// Database holds every loaded library. All methods are safe for concurrent
// use; accessors return copies so callers never hold references into the
// live data.
type Database struct {
	mu        sync.RWMutex
	libraries []*Library
	current   string
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{}
}

// AddLibrary takes ownership of lib. The first library added becomes the
// current library.
func (db *Database) AddLibrary(lib *Library) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.find(lib.Name) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateLibrary, lib.Name)
	}
	db.libraries = append(db.libraries, lib)
	if db.current == "" && !lib.Hidden {
		db.current = lib.Name
	}
	return nil
}

// Libraries lists loaded libraries in load order.
func (db *Database) Libraries() []LibraryInfo {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]LibraryInfo, 0, len(db.libraries))
	for _, lib := range db.libraries {
		out = append(out, LibraryInfo{Name: lib.Name, Hidden: lib.Hidden, Cells: len(lib.Cells)})
	}
	return out
}

// CloneLibrary returns a deep copy of a library, e.g. for saving it.
func (db *Database) CloneLibrary(name string) (*Library, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	lib := db.find(name)
	if lib == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoLibrary, name)
	}
	return lib.Clone(), nil
}

// Current returns the name of the current library ("" when none is loaded).
func (db *Database) Current() string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.current
}

// SetCurrent changes the current library.
func (db *Database) SetCurrent(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.find(name) == nil {
		return fmt.Errorf("%w: %q", ErrNoLibrary, name)
	}
	db.current = name
	return nil
}

// LibraryVar reads an array attribute of a library.
func (db *Database) LibraryVar(library string, key Key) ([]string, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	lib := db.find(library)
	if lib == nil {
		return nil, false, fmt.Errorf("%w: %q", ErrNoLibrary, library)
	}
	v, ok := lib.Var(key)
	return v, ok, nil
}

// SetLibraryVar replaces an array attribute of a library in one step.
func (db *Database) SetLibraryVar(library string, key Key, value []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	lib := db.find(library)
	if lib == nil {
		return fmt.Errorf("%w: %q", ErrNoLibrary, library)
	}
	lib.SetVar(key, value)
	return nil
}

// Element returns a snapshot of one element.
func (db *Database) Element(ref ElementRef) (ElementInfo, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	lib, e, err := db.element(ref)
	if err != nil {
		return ElementInfo{}, err
	}
	return info(lib, ref.Cell, e), nil
}

// Elements snapshots every element of every library, hidden ones included
// only when includeHidden is set.
func (db *Database) Elements(includeHidden bool) []ElementInfo {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []ElementInfo
	for _, lib := range db.libraries {
		if lib.Hidden && !includeHidden {
			continue
		}
		for _, c := range lib.Cells {
			for _, e := range c.Elements {
				out = append(out, info(lib, c.Name, e))
			}
		}
	}
	return out
}

// SetElementVar stores a string attribute on an element.
func (db *Database) SetElementVar(ref ElementRef, key Key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, e, err := db.element(ref)
	if err != nil {
		return err
	}
	e.SetVar(key, value)
	return nil
}

// DeleteElementVar removes a string attribute from an element.
func (db *Database) DeleteElementVar(ref ElementRef, key Key) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, e, err := db.element(ref)
	if err != nil {
		return err
	}
	e.DeleteVar(key)
	return nil
}

// RenameElement sets an element's name.
func (db *Database) RenameElement(ref ElementRef, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, e, err := db.element(ref)
	if err != nil {
		return err
	}
	e.Name = name
	return nil
}

func (db *Database) find(name string) *Library {
	for _, lib := range db.libraries {
		if lib.Name == name {
			return lib
		}
	}
	return nil
}

func (db *Database) element(ref ElementRef) (*Library, *Element, error) {
	lib := db.find(ref.Library)
	if lib == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrNoLibrary, ref.Library)
	}
	c := lib.Cell(ref.Cell)
	if c == nil {
		return nil, nil, fmt.Errorf("%w: %q in library %q", ErrNoCell, ref.Cell, ref.Library)
	}
	e := c.Element(ref.ID)
	if e == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoElement, ref)
	}
	return lib, e, nil
}

func info(lib *Library, cell string, e *Element) ElementInfo {
	return ElementInfo{
		Ref:    ElementRef{Library: lib.Name, Cell: cell, ID: e.ID},
		Hidden: lib.Hidden,
		Kind:   e.Kind,
		Name:   e.Name,
		Vars:   e.Vars(),
	}
}
