package ui

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"
)

func TestAppStateLogLimit(t *testing.T) {
	s := NewState()
	redraws := 0
	s.SetInvalidate(func() { redraws++ })

	for i := 0; i < 250; i++ {
		s.Printf("line %d", i)
	}
	snap := s.Snapshot()
	if len(snap.Logs) != 200 {
		t.Fatalf("expected 200 log lines, got %d", len(snap.Logs))
	}
	if !strings.HasSuffix(snap.Logs[0], "line 50") || !strings.HasSuffix(snap.Logs[199], "line 249") {
		t.Errorf("oldest lines should be dropped: %q .. %q", snap.Logs[0], snap.Logs[199])
	}
	if redraws != 250 {
		t.Errorf("expected a redraw per line, got %d", redraws)
	}

	// The snapshot is a copy.
	snap.Logs[0] = "changed"
	if s.Snapshot().Logs[0] == "changed" {
		t.Errorf("snapshot shares its log slice")
	}
}

func TestAppStateStatus(t *testing.T) {
	s := NewState()
	if s.Snapshot().Status != "Idle" {
		t.Errorf("unexpected initial status")
	}
	s.SetBusy(true)
	s.SetError(fmt.Errorf("apply: %w", errors.New("boom")))
	snap := s.Snapshot()
	if !snap.Busy || snap.LastError == nil || snap.Status != "Error: apply: boom" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	s.SetStatus("Ready")
	if s.Snapshot().Status != "Ready" {
		t.Errorf("status not updated")
	}
}

func TestAppStateBusyClears(t *testing.T) {
	s := NewState()
	s.SetBusy(true)
	s.SetError(errors.New("boom"))
	s.SetError(nil)
	s.SetBusy(false)
	snap := s.Snapshot()
	if snap.Busy || snap.LastError != nil {
		t.Errorf("busy and error should be cleared: %+v", snap)
	}
}

func TestAppStateAsLogOutput(t *testing.T) {
	s := NewState()
	l := log.New(s, "otv: ", 0)
	l.Printf("job: %v", errors.New("save: disk full"))
	l.Print("first\nsecond")

	logs := s.Snapshot().Logs
	if len(logs) != 3 {
		t.Fatalf("expected 3 log lines, got %q", logs)
	}
	if !strings.HasSuffix(logs[0], "otv: job: save: disk full") {
		t.Errorf("unexpected first line %q", logs[0])
	}
	if !strings.HasSuffix(logs[2], "second") {
		t.Errorf("multi-line output should be split: %q", logs)
	}
}
