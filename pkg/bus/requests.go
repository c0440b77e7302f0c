package bus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/busparam"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/job"
)

// SetParameters replaces a library's whole parameter list in one step. An
// empty list removes the attribute.
type SetParameters struct {
	Library string
	Entries []string
}

func (r *SetParameters) Name() string { return "set bus parameters of " + r.Library }

func (r *SetParameters) Do(ctx context.Context, db *circuit.Database) error {
	var value []string
	if len(r.Entries) > 0 {
		value = r.Entries
	}
	return db.SetLibraryVar(r.Library, KeyLibraryParameters, value)
}

// SetTemplate attaches a template to an element. An empty template removes it.
// With Rename set the element is also renamed to what the new template
// resolves to at the time the request runs.
type SetTemplate struct {
	Ref      circuit.ElementRef
	Template string
	Rename   bool
	Options  []busparam.Option

	Previous string // set by Do: the template replaced, empty if none
	Resolved string // set by Do when Rename is set
	Renamed  bool   // set by Do
}

func (r *SetTemplate) Name() string { return "set bus template on " + r.Ref.String() }

func (r *SetTemplate) Do(ctx context.Context, db *circuit.Database) error {
	e, err := db.Element(r.Ref)
	if err != nil {
		return err
	}
	key := TemplateKey(e.Kind)
	r.Previous = e.Vars[key]
	if r.Template == "" {
		return db.DeleteElementVar(r.Ref, key)
	}
	if err := db.SetElementVar(r.Ref, key, r.Template); err != nil {
		return err
	}
	if !r.Rename {
		return nil
	}
	resolver := busparam.NewResolver(Snapshot(db), r.Options...)
	resolved, rerr := resolver.Expand(r.Template, r.Ref.Library)
	resolver.Report(rerr)
	r.Resolved = resolved
	r.Renamed, err = ApplyToElement(db, r.Ref, resolved)
	return err
}

// Rename is one planned name change.
type Rename struct {
	Ref  circuit.ElementRef
	From string
	To   string
	Err  error // resolution diagnostic; To is then the partial result
}

// Plan resolves every template of the non-hidden libraries against one
// snapshot of the parameter table and returns the elements whose names would
// change. Elements are independent: a failed resolution is recorded on its
// Rename and planning continues.
func Plan(db *circuit.Database, opts ...busparam.Option) []Rename {
	r := busparam.NewResolver(Snapshot(db), opts...)
	var plan []Rename
	for _, t := range Templates(db) {
		resolved, err := r.Expand(t.Template, t.Ref.Library)
		r.Report(err)
		if strings.EqualFold(t.Name, resolved) {
			continue
		}
		plan = append(plan, Rename{Ref: t.Ref, From: t.Name, To: resolved, Err: err})
	}
	return plan
}

// RenameBatch applies a list of renames. Each rename is attempted even when
// earlier ones fail; the errors are joined.
type RenameBatch struct {
	Renames []Rename
	Renamed int // set by Do
}

func (r *RenameBatch) Name() string { return fmt.Sprintf("rename %d elements", len(r.Renames)) }

func (r *RenameBatch) Do(ctx context.Context, db *circuit.Database) error {
	var errs []error
	r.Renamed = 0
	for _, rn := range r.Renames {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		changed, err := ApplyToElement(db, rn.Ref, rn.To)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rn.Ref, err))
			continue
		}
		if changed {
			r.Renamed++
		}
	}
	return errors.Join(errs...)
}

// UpdateAll recomputes every template and renames what changed. Planning
// happens when the request runs, so it sees parameter edits queued before it.
type UpdateAll struct {
	Options []busparam.Option

	Planned []Rename // set by Do
	Renamed int      // set by Do
}

func (r *UpdateAll) Name() string { return "update all bus parameters" }

func (r *UpdateAll) Do(ctx context.Context, db *circuit.Database) error {
	r.Planned = Plan(db, r.Options...)
	batch := &RenameBatch{Renames: r.Planned}
	err := batch.Do(ctx, db)
	r.Renamed = batch.Renamed
	return err
}

// UpdateAllParameters is the batch entry point: it asks the queue to
// recompute and apply every template. With wait unset it returns as soon as
// the request is queued and the returned request's results are not yet
// filled in.
func UpdateAllParameters(ctx context.Context, q *job.Queue, wait bool, opts ...busparam.Option) (*UpdateAll, error) {
	req := &UpdateAll{Options: opts}
	if err := q.Submit(ctx, req, wait); err != nil {
		return req, err
	}
	return req, nil
}
