package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// StateSnapshot captures a copy of the state data for rendering without
// requiring the UI to hold locks while laying out widgets.
type StateSnapshot struct {
	Busy      bool
	LastError error
	Status    string

	Logs []string

	LastUpdated time.Time
}

// AppState tracks the mutable state shared between the Gio event loop and
// the job queue worker.
type AppState struct {
	mu sync.RWMutex

	busy      bool
	lastError error
	status    string

	logs     []string
	logLimit int

	invalidate func()

	lastUpdated time.Time
}

// NewState returns a baseline AppState with safe defaults.
func NewState() *AppState {
	return &AppState{
		logLimit:    200,
		status:      "Idle",
		lastUpdated: time.Now(),
	}
}

// Snapshot returns a copy of the mutable state for rendering.
func (s *AppState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logCopy := make([]string, len(s.logs))
	copy(logCopy, s.logs)

	return StateSnapshot{
		Busy:        s.busy,
		LastError:   s.lastError,
		Status:      s.status,
		Logs:        logCopy,
		LastUpdated: s.lastUpdated,
	}
}

// SetInvalidate registers the callback that asks the window to redraw.
func (s *AppState) SetInvalidate(fn func()) {
	s.mu.Lock()
	s.invalidate = fn
	s.mu.Unlock()
}

// SetBusy toggles the busy indicator.
func (s *AppState) SetBusy(busy bool) {
	s.update(func() { s.busy = busy })
}

// SetStatus updates the status bar text.
func (s *AppState) SetStatus(status string) {
	s.update(func() { s.status = status })
}

// SetError records the last error and shows it in the status bar.
func (s *AppState) SetError(err error) {
	s.update(func() {
		s.lastError = err
		if err != nil {
			s.status = "Error: " + err.Error()
		}
	})
}

// AppendLog adds a line to the log pane, dropping the oldest lines past the
// limit.
func (s *AppState) AppendLog(msg string) {
	s.update(func() {
		entry := fmt.Sprintf("[%s] %s", time.Now().Format(time.Stamp), msg)
		s.logs = append(s.logs, entry)
		if s.logLimit > 0 && len(s.logs) > s.logLimit {
			offset := len(s.logs) - s.logLimit
			s.logs = append([]string(nil), s.logs[offset:]...)
		}
	})
}

// Printf lets the state receive resolver and queue diagnostics.
func (s *AppState) Printf(format string, args ...any) {
	s.AppendLog(fmt.Sprintf(format, args...))
}

// Write lets a *log.Logger report into the log pane, one entry per line.
func (s *AppState) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		s.AppendLog(line)
	}
	return len(p), nil
}

func (s *AppState) update(fn func()) {
	s.mu.Lock()
	fn()
	s.lastUpdated = time.Now()
	invalidate := s.invalidate
	s.mu.Unlock()
	if invalidate != nil {
		invalidate()
	}
}
