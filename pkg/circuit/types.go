package circuit

import (
	"fmt"
	"strings"
)

// Key names an attribute stored on a library or element.
type Key string

// ElementKind distinguishes the named objects a cell contains.
type ElementKind int

const (
	KindNode ElementKind = iota
	KindArc
	KindExport
)

var elementKindNames = [...]string{
	KindNode:   "node",
	KindArc:    "arc",
	KindExport: "export",
}

func (k ElementKind) String() string {
	if k < 0 || int(k) >= len(elementKindNames) {
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
	return elementKindNames[k]
}

// ParseElementKind accepts "node", "arc" or "export" in any case.
func ParseElementKind(s string) (ElementKind, error) {
	for i, name := range elementKindNames {
		if strings.EqualFold(s, name) {
			return ElementKind(i), nil
		}
	}
	return 0, fmt.Errorf("circuit: unknown element kind %q", s)
}

// ElementRef identifies an element independently of its (mutable) name.
type ElementRef struct {
	Library string
	Cell    string
	ID      int
}

func (r ElementRef) String() string {
	return fmt.Sprintf("%s:%s#%d", r.Library, r.Cell, r.ID)
}

// Element is a node, arc or export inside a cell.
type Element struct {
	ID   int // unique within the cell, assigned by Cell.AddElement
	Kind ElementKind
	Name string
	vars map[Key]string
}

// Var returns a string attribute.
func (e *Element) Var(key Key) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// SetVar stores a string attribute.
func (e *Element) SetVar(key Key, value string) {
	if e.vars == nil {
		e.vars = make(map[Key]string)
	}
	e.vars[key] = value
}

// DeleteVar removes an attribute.
func (e *Element) DeleteVar(key Key) {
	delete(e.vars, key)
}

// Vars returns a copy of every attribute.
func (e *Element) Vars() map[Key]string {
	out := make(map[Key]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

func (e *Element) clone() *Element {
	c := *e
	c.vars = e.Vars()
	return &c
}

// Cell is a named collection of elements.
type Cell struct {
	Name     string
	Elements []*Element
	nextID   int
}

// AddElement appends a new element and returns it.
func (c *Cell) AddElement(kind ElementKind, name string) *Element {
	c.nextID++
	e := &Element{ID: c.nextID, Kind: kind, Name: name}
	c.Elements = append(c.Elements, e)
	return e
}

// Element finds an element by ID.
func (c *Cell) Element(id int) *Element {
	for _, e := range c.Elements {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (c *Cell) clone() *Cell {
	out := &Cell{Name: c.Name, nextID: c.nextID, Elements: make([]*Element, len(c.Elements))}
	for i, e := range c.Elements {
		out.Elements[i] = e.clone()
	}
	return out
}

// Library groups cells and carries array-valued attributes such as the bus
// parameter list.
type Library struct {
	Name   string
	Hidden bool // internal libraries (technologies, palettes) not shown to users
	Cells  []*Cell
	vars   map[Key][]string
}

// NewLibrary returns an empty library.
func NewLibrary(name string, hidden bool) *Library {
	return &Library{Name: name, Hidden: hidden}
}

// NewCell appends an empty cell.
func (l *Library) NewCell(name string) *Cell {
	c := &Cell{Name: name}
	l.Cells = append(l.Cells, c)
	return c
}

// Cell finds a cell by exact name.
func (l *Library) Cell(name string) *Cell {
	for _, c := range l.Cells {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Var returns a copy of an array attribute.
func (l *Library) Var(key Key) ([]string, bool) {
	v, ok := l.vars[key]
	if !ok {
		return nil, false
	}
	return append([]string(nil), v...), true
}

// SetVar stores a copy of value. A nil value deletes the attribute.
func (l *Library) SetVar(key Key, value []string) {
	if value == nil {
		delete(l.vars, key)
		return
	}
	if l.vars == nil {
		l.vars = make(map[Key][]string)
	}
	l.vars[key] = append([]string(nil), value...)
}

// Clone returns a deep copy.
func (l *Library) Clone() *Library {
	out := &Library{Name: l.Name, Hidden: l.Hidden, Cells: make([]*Cell, len(l.Cells))}
	for i, c := range l.Cells {
		out.Cells[i] = c.clone()
	}
	for k, v := range l.vars {
		out.SetVar(k, v)
	}
	return out
}
