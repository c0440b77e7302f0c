// Package ui holds the window-independent parts of the bus parameter dialog:
// the editing model, the shared state and the saved configuration.
package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/bus"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/job"
)

// Saver writes libraries back to wherever they were loaded from.
type Saver interface {
	SaveAll(db *circuit.Database, libraries ...string) error
}

// ParamEditor is the model behind the bus parameter dialog. It owns one
// editing session and turns Apply into requests on the job queue. It is not
// safe for concurrent use; only the frame loop touches it.
type ParamEditor struct {
	db      *circuit.Database
	queue   *job.Queue
	saver   Saver
	log     busparam.Logger
	session *busparam.Session
	library string
}

// NewParamEditor opens a session on db. library selects the initial library;
// an empty or unknown name picks the best default library.
func NewParamEditor(db *circuit.Database, q *job.Queue, saver Saver, log busparam.Logger, library string) *ParamEditor {
	if log == nil {
		log = NewState()
	}
	e := &ParamEditor{db: db, queue: q, saver: saver, log: log}
	e.Reload(library)
	return e
}

// Reload discards pending edits and starts a new session from the database.
func (e *ParamEditor) Reload(library string) {
	table := bus.Snapshot(e.db)
	e.session = busparam.NewSession(table)
	if lib, ok := table.Library(library); ok && !lib.Hidden {
		e.library = library
		return
	}
	e.library = busparam.BestDefaultLibrary(table, e.db.Current())
}

// Libraries lists the libraries the dialog offers, hidden ones excluded.
func (e *ParamEditor) Libraries() []string {
	var names []string
	for _, lib := range e.session.Table() {
		if !lib.Hidden {
			names = append(names, lib.Name)
		}
	}
	return names
}

// Library returns the library being edited.
func (e *ParamEditor) Library() string { return e.library }

// SelectLibrary switches the library being edited. Pending edits of other
// libraries are kept.
func (e *ParamEditor) SelectLibrary(name string) error {
	if _, err := e.session.Entries(name); err != nil {
		return err
	}
	e.library = name
	return nil
}

// Entries returns the entries of the library being edited.
func (e *ParamEditor) Entries() []string {
	entries, _ := e.session.Entries(e.library)
	return entries
}

// Entry splits the i-th entry into name and value.
func (e *ParamEditor) Entry(i int) (name, value string, ok bool) {
	entries := e.Entries()
	if i < 0 || i >= len(entries) {
		return "", "", false
	}
	return busparam.ParseEntry(entries[i])
}

// New creates a parameter in the library being edited.
func (e *ParamEditor) New(name, value string) error {
	return e.session.Add(e.library, name, value)
}

// Update changes the value of an existing parameter.
func (e *ParamEditor) Update(name, value string) error {
	return e.session.SetValue(e.library, name, value)
}

// Delete removes a parameter.
func (e *ParamEditor) Delete(name string) error {
	return e.session.Delete(e.library, name)
}

// Dirty reports whether there are edits not yet applied.
func (e *ParamEditor) Dirty() bool {
	return len(e.session.Dirty()) > 0
}

// Preview resolves template against the edited, not yet applied, parameters
// with the library being edited as home.
func (e *ParamEditor) Preview(template string) (string, error) {
	r := busparam.NewResolver(e.session.Table(), busparam.WithLogger(nil))
	return r.Expand(template, e.library)
}

// Apply submits one SetParameters request per changed library, then an
// update of every template when updateAll is set, then a save of the touched
// libraries. With wait unset Apply returns once everything is queued.
func (e *ParamEditor) Apply(ctx context.Context, updateAll, wait bool) error {
	dirty := e.session.Dirty()
	for _, name := range dirty {
		entries, err := e.session.Entries(name)
		if err != nil {
			return err
		}
		if err := e.queue.Submit(ctx, &bus.SetParameters{Library: name, Entries: entries}, wait); err != nil {
			return err
		}
	}
	e.session.MarkClean()

	var update *bus.UpdateAll
	var updateErr error
	if updateAll {
		update, updateErr = bus.UpdateAllParameters(ctx, e.queue, wait, busparam.WithLogger(e.log))
		if errors.Is(updateErr, job.ErrClosed) {
			return updateErr
		}
	}

	finish := job.Func{
		Label: "save bus parameters",
		Fn: func(ctx context.Context, db *circuit.Database) error {
			libs := append([]string(nil), dirty...)
			if update != nil {
				for _, rn := range update.Planned {
					e.log.Printf("[INFO] %s: %s -> %s", rn.Ref, rn.From, rn.To)
					if !slices.Contains(libs, rn.Ref.Library) {
						libs = append(libs, rn.Ref.Library)
					}
				}
				e.log.Printf("[INFO] Renamed %d of %d elements", update.Renamed, len(update.Planned))
			}
			if e.saver == nil || len(libs) == 0 {
				return nil
			}
			if err := e.saver.SaveAll(db, libs...); err != nil {
				return fmt.Errorf("save: %w", err)
			}
			e.log.Printf("[INFO] Saved %d libraries", len(libs))
			return nil
		},
	}
	return errors.Join(updateErr, e.queue.Submit(ctx, finish, wait))
}

// UpdateAll applies pending edits, if any, and re-resolves every template.
func (e *ParamEditor) UpdateAll(ctx context.Context, wait bool) error {
	return e.Apply(ctx, true, wait)
}

// Flush waits until every request submitted so far has run.
func (e *ParamEditor) Flush(ctx context.Context) error {
	barrier := job.Func{
		Label: "flush",
		Fn:    func(context.Context, *circuit.Database) error { return nil },
	}
	return e.queue.Submit(ctx, barrier, true)
}

// Close prepares the editor for the window going away. With apply set,
// unapplied edits are applied first. It returns once the queue has caught
// up, so applied changes are on disk before the process exits.
func (e *ParamEditor) Close(ctx context.Context, apply, updateAll bool) error {
	var applyErr error
	if apply && e.Dirty() {
		applyErr = e.Apply(ctx, updateAll, false)
	}
	return errors.Join(applyErr, e.Flush(ctx))
}
