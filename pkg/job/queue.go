// Package job runs change requests against a circuit database.
//
// Every mutation the tools make (new parameter values, renames, template
// edits) is described by a Request value and handed to a Queue. A single
// worker goroutine applies requests in submission order, so requests never
// interleave with one another.
package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
)

// ErrClosed is returned when submitting to a closed queue.
var ErrClosed = errors.New("job: queue closed")

// Request is a serializable description of one database change.
type Request interface {
	// Name is a short human-readable label used in logs.
	Name() string
	// Do applies the change. It runs on the queue's worker goroutine.
	Do(ctx context.Context, db *circuit.Database) error
}

type task struct {
	ctx  context.Context
	req  Request
	done chan error // nil for fire-and-forget submissions
}

// Queue serializes requests onto one worker goroutine.
type Queue struct {
	db     *circuit.Database
	logger *log.Logger
	tasks  chan task

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets where failures of asynchronous requests are reported.
func WithLogger(l *log.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithBuffer sets how many requests may wait before Submit blocks.
func WithBuffer(n int) Option {
	return func(q *Queue) {
		if n >= 0 {
			q.tasks = make(chan task, n)
		}
	}
}

// NewQueue starts a worker for db.
func NewQueue(db *circuit.Database, opts ...Option) *Queue {
	q := &Queue{
		db:     db,
		logger: log.Default(),
		tasks:  make(chan task, 64),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for t := range q.tasks {
		err := q.execute(t)
		if t.done != nil {
			t.done <- err
			continue
		}
		if err != nil {
			q.logger.Printf("job: %v", err)
		}
	}
}

func (q *Queue) execute(t task) error {
	if err := t.ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", t.req.Name(), err)
	}
	if err := t.req.Do(t.ctx, q.db); err != nil {
		return fmt.Errorf("%s: %w", t.req.Name(), err)
	}
	return nil
}

// Submit queues req. With wait set it blocks until the request has run and
// returns its error; otherwise it returns once the request is queued and
// failures are only logged. Cancelling ctx stops the wait, and a request
// still queued when ctx is cancelled is skipped.
func (q *Queue) Submit(ctx context.Context, req Request, wait bool) error {
	t := task{ctx: ctx, req: req}
	if wait {
		t.done = make(chan error, 1)
	}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrClosed
	}
	select {
	case q.tasks <- t:
		q.mu.RUnlock()
	case <-ctx.Done():
		q.mu.RUnlock()
		return ctx.Err()
	}

	if !wait {
		return nil
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting requests, runs everything already queued and waits
// for the worker to exit.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	q.wg.Wait()
	return nil
}

// Await submits req, waits for it and returns it so results recorded on the
// request can be read.
func Await[R Request](ctx context.Context, q *Queue, req R) (R, error) {
	err := q.Submit(ctx, req, true)
	return req, err
}

// Func adapts a function to a Request.
type Func struct {
	Label string
	Fn    func(ctx context.Context, db *circuit.Database) error
}

func (f Func) Name() string { return f.Label }

func (f Func) Do(ctx context.Context, db *circuit.Database) error {
	return f.Fn(ctx, db)
}
