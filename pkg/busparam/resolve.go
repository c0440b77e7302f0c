package busparam

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

var (
	// ErrUnterminatedReference reports a "$(" without a closing ")".
	ErrUnterminatedReference = errors.New("missing the close parenthesis")
	// ErrUndefinedVariable reports a reference no library defines.
	ErrUndefinedVariable = errors.New("is not defined")
	// ErrExpansionLimit reports a template that kept expanding past the
	// resolver's substitution bound, usually a parameter referring to itself.
	ErrExpansionLimit = errors.New("too many substitutions")
)

// DefaultMaxSubstitutions bounds the number of tokens replaced in one template.
const DefaultMaxSubstitutions = 1000

// ResolveError describes why substitution stopped early.
type ResolveError struct {
	Template string // template as given by the caller
	Name     string // parameter name, empty for unterminated references
	Offset   int    // byte offset of the "$(" in the partially resolved string
	Err      error
}

func (e *ResolveError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUndefinedVariable):
		return fmt.Sprintf("bus parameter %q in %q %v", e.Name, e.Template, e.Err)
	case errors.Is(e.Err, ErrExpansionLimit):
		return fmt.Sprintf("bus template %q: %v", e.Template, e.Err)
	default:
		return fmt.Sprintf("bus parameter in %q is %v", e.Template, e.Err)
	}
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Logger receives resolution diagnostics. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...any) {}

// Resolver resolves templates against a fixed Table. A Resolver is immutable
// after construction and safe for concurrent use.
type Resolver struct {
	table            Table
	maxSubstitutions int
	logger           Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sends diagnostics to l. A nil logger discards them.
func WithLogger(l Logger) Option {
	return func(r *Resolver) {
		if l == nil {
			l = discardLogger{}
		}
		r.logger = l
	}
}

// WithMaxSubstitutions overrides DefaultMaxSubstitutions. Values below 1 keep
// the default.
func WithMaxSubstitutions(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxSubstitutions = n
		}
	}
}

// NewResolver snapshots table and returns a resolver for it.
func NewResolver(table Table, opts ...Option) *Resolver {
	r := &Resolver{
		table:            table.Clone(),
		maxSubstitutions: DefaultMaxSubstitutions,
		logger:           log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table returns a copy of the resolver's parameter table.
func (r *Resolver) Table() Table {
	return r.table.Clone()
}

// Substitute replaces "$(name)" tokens in template using home as the first
// library searched. On failure it returns the string resolved so far together
// with a *ResolveError.
func (r *Resolver) Substitute(template, home string) (string, error) {
	s := template
	for count := 0; ; count++ {
		open := strings.Index(s, "$(")
		if open < 0 {
			return s, nil
		}
		if count >= r.maxSubstitutions {
			return s, &ResolveError{Template: template, Offset: open, Err: ErrExpansionLimit}
		}
		end := strings.IndexByte(s[open+2:], ')')
		if end < 0 {
			return s, &ResolveError{Template: template, Offset: open, Err: ErrUnterminatedReference}
		}
		end += open + 2
		name := s[open+2 : end]
		value, ok := r.table.Lookup(name, home)
		if !ok {
			return s, &ResolveError{Template: template, Name: name, Offset: open, Err: ErrUndefinedVariable}
		}
		// The search restarts from the beginning, so the inserted value is
		// scanned again.
		s = s[:open] + value + s[end+1:]
	}
}

// Expand substitutes and then reduces arithmetic. The returned string is
// always usable; err describes a substitution that stopped early.
func (r *Resolver) Expand(template, home string) (string, error) {
	s, err := r.Substitute(template, home)
	return ReduceArithmetic(s), err
}

// Resolve is Expand with the diagnostic sent to the resolver's logger.
func (r *Resolver) Resolve(template, home string) string {
	s, err := r.Expand(template, home)
	r.Report(err)
	return s
}

// Report writes a diagnostic returned by Expand or Substitute to the
// resolver's logger. A nil error is ignored.
func (r *Resolver) Report(err error) {
	if err != nil {
		r.logger.Printf("busparam: %v", err)
	}
}
