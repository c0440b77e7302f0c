package ui

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/job"
)

type recordSaver struct {
	calls [][]string
	err   error
}

func (s *recordSaver) SaveAll(db *circuit.Database, libraries ...string) error {
	s.calls = append(s.calls, append([]string(nil), libraries...))
	return s.err
}

func newEditorFixture(t *testing.T) (*circuit.Database, *job.Queue, circuit.ElementRef) {
	t.Helper()
	db := circuit.NewDatabase()

	work := circuit.NewLibrary("work", false)
	work.SetVar(bus.KeyLibraryParameters, []string{"width=8"})
	cell := work.NewCell("alu{sch}")
	n := cell.AddElement(circuit.KindNode, "a[7:0]")
	n.SetVar(bus.KeyNodeTemplate, "a[$(width)-1:0]")

	shared := circuit.NewLibrary("shared", false)
	shared.SetVar(bus.KeyLibraryParameters, []string{"lanes=2"})

	tech := circuit.NewLibrary("tech", true)
	tech.SetVar(bus.KeyLibraryParameters, []string{"a=1", "b=2"})

	for _, lib := range []*circuit.Library{work, shared, tech} {
		if err := db.AddLibrary(lib); err != nil {
			t.Fatalf("AddLibrary failed: %v", err)
		}
	}

	q := job.NewQueue(db, job.WithLogger(log.New(io.Discard, "", 0)))
	t.Cleanup(func() { q.Close() })
	return db, q, circuit.ElementRef{Library: "work", Cell: "alu{sch}", ID: 1}
}

func TestParamEditorSelection(t *testing.T) {
	db, q, _ := newEditorFixture(t)
	e := NewParamEditor(db, q, nil, nil, "")

	if e.Library() != "work" {
		t.Errorf("expected default library work, got %q", e.Library())
	}
	libs := e.Libraries()
	if len(libs) != 2 || libs[0] != "work" || libs[1] != "shared" {
		t.Errorf("hidden libraries must not be offered: %v", libs)
	}

	if err := e.SelectLibrary("nope"); !errors.Is(err, busparam.ErrUnknownLibrary) {
		t.Errorf("expected ErrUnknownLibrary, got %v", err)
	}
	if err := e.SelectLibrary("shared"); err != nil {
		t.Fatalf("SelectLibrary failed: %v", err)
	}
	name, value, ok := e.Entry(0)
	if !ok || name != "lanes" || value != "2" {
		t.Errorf("unexpected entry %q=%q ok=%v", name, value, ok)
	}
	if _, _, ok := e.Entry(5); ok {
		t.Errorf("out of range entry should not be ok")
	}

	// A hidden or unknown remembered library falls back to the default.
	if got := NewParamEditor(db, q, nil, nil, "tech").Library(); got != "work" {
		t.Errorf("hidden library should not be selected, got %q", got)
	}
	if got := NewParamEditor(db, q, nil, nil, "shared").Library(); got != "shared" {
		t.Errorf("remembered library ignored, got %q", got)
	}
}

func TestParamEditorEditAndPreview(t *testing.T) {
	db, q, _ := newEditorFixture(t)
	e := NewParamEditor(db, q, nil, nil, "work")

	if err := e.New("depth", "$(width)*2"); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := e.New("Depth", "1"); !errors.Is(err, busparam.ErrDuplicateParameter) {
		t.Errorf("expected ErrDuplicateParameter, got %v", err)
	}
	if err := e.New("a b", "1"); !errors.Is(err, busparam.ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
	if got := e.Entries(); len(got) != 2 || got[0] != "depth=$(width)*2" {
		t.Errorf("unexpected entries %v", got)
	}
	if !e.Dirty() {
		t.Errorf("editor should be dirty after New")
	}

	got, err := e.Preview("d[$(depth)-1:0]")
	if err != nil || got != "d[15:0]" {
		t.Errorf("Preview = %q, %v", got, err)
	}
	if _, err := e.Preview("$(missing)"); !errors.Is(err, busparam.ErrUndefinedVariable) {
		t.Errorf("expected ErrUndefinedVariable, got %v", err)
	}

	// Nothing reached the database yet.
	if entries := bus.LoadParameters(db, "work"); len(entries) != 1 {
		t.Errorf("database changed before apply: %v", entries)
	}

	e.Reload(e.Library())
	if e.Dirty() || len(e.Entries()) != 1 {
		t.Errorf("Reload should discard edits: %v", e.Entries())
	}
}

func TestParamEditorApply(t *testing.T) {
	db, q, node := newEditorFixture(t)
	state := NewState()
	saver := &recordSaver{}
	e := NewParamEditor(db, q, saver, state, "work")

	if err := e.Update("WIDTH", "4"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := e.Update("missing", "4"); !errors.Is(err, busparam.ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
	if err := e.Apply(context.Background(), true, true); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if e.Dirty() {
		t.Errorf("editor should be clean after apply")
	}
	if entries := bus.LoadParameters(db, "work"); len(entries) != 1 || entries[0] != "width=4" {
		t.Errorf("parameters not applied: %v", entries)
	}
	info, err := db.Element(node)
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "a[3:0]" {
		t.Errorf("node not renamed, got %q", info.Name)
	}
	if len(saver.calls) != 1 || len(saver.calls[0]) != 1 || saver.calls[0][0] != "work" {
		t.Errorf("unexpected saves %v", saver.calls)
	}

	logs := strings.Join(state.Snapshot().Logs, "\n")
	if !strings.Contains(logs, "Renamed 1 of 1 elements") {
		t.Errorf("rename summary missing from log:\n%s", logs)
	}
}

func TestParamEditorApplyWithoutUpdate(t *testing.T) {
	db, q, node := newEditorFixture(t)
	saver := &recordSaver{err: errors.New("disk full")}
	e := NewParamEditor(db, q, saver, nil, "work")

	if err := e.Delete("width"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	err := e.Apply(context.Background(), false, true)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected save error, got %v", err)
	}
	if _, ok, _ := db.LibraryVar("work", bus.KeyLibraryParameters); ok {
		t.Errorf("deleting the last parameter should remove the attribute")
	}
	if info, _ := db.Element(node); info.Name != "a[7:0]" {
		t.Errorf("element renamed without update: %q", info.Name)
	}
}

func TestParamEditorUpdateAllAfterClose(t *testing.T) {
	db, q, _ := newEditorFixture(t)
	e := NewParamEditor(db, q, nil, nil, "")
	q.Close()
	if err := e.UpdateAll(context.Background(), true); !errors.Is(err, job.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestParamEditorCloseWaitsForQueuedWork(t *testing.T) {
	db, q, node := newEditorFixture(t)
	saver := &recordSaver{}
	e := NewParamEditor(db, q, saver, nil, "work")

	if err := e.Update("width", "4"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	// Queued without waiting, as the window does.
	if err := e.Apply(context.Background(), true, false); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if err := e.Close(context.Background(), true, true); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if info, _ := db.Element(node); info.Name != "a[3:0]" {
		t.Errorf("rename not finished before Close returned: %q", info.Name)
	}
	if len(saver.calls) != 1 {
		t.Errorf("expected one save before Close returned, got %v", saver.calls)
	}
}

func TestParamEditorCloseAppliesPendingEdits(t *testing.T) {
	db, q, node := newEditorFixture(t)
	saver := &recordSaver{}
	e := NewParamEditor(db, q, saver, nil, "work")

	if err := e.Update("width", "2"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := e.Close(context.Background(), true, true); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if entries := bus.LoadParameters(db, "work"); len(entries) != 1 || entries[0] != "width=2" {
		t.Errorf("pending edit not applied on close: %v", entries)
	}
	if info, _ := db.Element(node); info.Name != "a[1:0]" {
		t.Errorf("node not renamed on close: %q", info.Name)
	}
	if len(saver.calls) != 1 || saver.calls[0][0] != "work" {
		t.Errorf("unexpected saves %v", saver.calls)
	}
}

func TestParamEditorCloseDiscardsPendingEdits(t *testing.T) {
	db, q, _ := newEditorFixture(t)
	saver := &recordSaver{}
	e := NewParamEditor(db, q, saver, nil, "work")

	if err := e.Update("width", "2"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := e.Close(context.Background(), false, true); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if entries := bus.LoadParameters(db, "work"); entries[0] != "width=8" {
		t.Errorf("discarded edit reached the database: %v", entries)
	}
	if len(saver.calls) != 0 {
		t.Errorf("nothing should be saved, got %v", saver.calls)
	}
}
