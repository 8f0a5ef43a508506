package progress

import (
	"io"
	"sync"
	"testing"
	"time"
)

// TestCallbackReporter_StartPhase tests phase start reporting
func TestCallbackReporter_StartPhase(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.StartPhase(PhaseWalkFrom, 100)

	if update.Type != UpdatePhaseStart {
		t.Errorf("expected UpdatePhaseStart, got %v", update.Type)
	}
	if update.Phase != PhaseWalkFrom {
		t.Errorf("expected phase %q, got %q", PhaseWalkFrom, update.Phase)
	}
	if update.Total != 100 {
		t.Errorf("expected total 100, got %d", update.Total)
	}
}

// TestCallbackReporter_Step tests per-entry step reporting
func TestCallbackReporter_Step(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.StartPhase(PhaseWalkTo, 0)
	reporter.Step("/etc/fstab")
	reporter.Step("/etc/hosts")

	if update.Type != UpdateStep {
		t.Errorf("expected UpdateStep, got %v", update.Type)
	}
	if update.CurrentPath != "/etc/hosts" {
		t.Errorf("expected path '/etc/hosts', got %q", update.CurrentPath)
	}
	if update.Count != 2 {
		t.Errorf("expected count 2, got %d", update.Count)
	}
}

// TestCallbackReporter_Interval tests step throttling
func TestCallbackReporter_Interval(t *testing.T) {
	var steps int
	reporter := NewCallbackReporter(func(u Update) {
		if u.Type == UpdateStep {
			steps++
		}
	})
	reporter.Interval = 10

	reporter.StartPhase(PhaseWalkFrom, 0)
	for i := 0; i < 25; i++ {
		reporter.Step("entry")
	}

	if steps != 2 {
		t.Errorf("expected 2 throttled step updates, got %d", steps)
	}
}

// TestCallbackReporter_EndPhase tests phase completion reporting
func TestCallbackReporter_EndPhase(t *testing.T) {
	var updates []Update
	var mu sync.Mutex

	reporter := NewCallbackReporter(func(u Update) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})

	reporter.StartPhase(PhaseClassify, 3)
	reporter.Step("a")
	reporter.Step("b")
	reporter.Step("c")
	reporter.EndPhase(PhaseClassify)

	mu.Lock()
	defer mu.Unlock()

	last := updates[len(updates)-1]
	if last.Type != UpdatePhaseEnd {
		t.Fatalf("expected UpdatePhaseEnd, got %v", last.Type)
	}
	if last.Count != 3 {
		t.Errorf("expected final count 3, got %d", last.Count)
	}
}

// TestCallbackReporter_Error tests recovered error reporting
func TestCallbackReporter_Error(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.StartPhase(PhaseContentDiff, 0)
	testErr := io.ErrUnexpectedEOF
	reporter.Error("/var/log/messages", testErr)

	if update.Type != UpdateError {
		t.Errorf("expected UpdateError, got %v", update.Type)
	}
	if update.Error != testErr {
		t.Errorf("expected error %v, got %v", testErr, update.Error)
	}
	if update.CurrentPath != "/var/log/messages" {
		t.Errorf("expected failing path, got %q", update.CurrentPath)
	}
}

// TestCallbackReporter_CallbackReentrance tests that callbacks don't deadlock
func TestCallbackReporter_CallbackReentrance(t *testing.T) {
	done := make(chan bool, 1)

	var reporter *CallbackReporter
	reporter = NewCallbackReporter(func(u Update) {
		// callback re-enters the reporter; would deadlock if the
		// lock were held during the callback
		if u.Type == UpdatePhaseStart {
			reporter.Step("re-entered")
		}
	})

	go func() {
		reporter.StartPhase(PhaseWalkFrom, 1)
		reporter.Step("entry")
		reporter.EndPhase(PhaseWalkFrom)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deadlock detected - callback was called while holding lock")
	}
}

// TestFormatBytes tests byte formatting
func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{1024 * 1024 * 1024, "1.0 GB"},
		{-1536, "-1.5 KB"},
	}

	for _, tt := range tests {
		got := FormatBytes(tt.bytes)
		if got != tt.expected {
			t.Errorf("FormatBytes(%d) = %s, want %s", tt.bytes, got, tt.expected)
		}
	}
}

// TestFormatCount tests count formatting
func TestFormatCount(t *testing.T) {
	if got := FormatCount(5, 10); got != "5/10" {
		t.Errorf("FormatCount(5, 10) = %s, want 5/10", got)
	}
	if got := FormatCount(5, 0); got != "5" {
		t.Errorf("FormatCount(5, 0) = %s, want 5", got)
	}
}

// TestNullReporter tests that NullReporter doesn't panic
func TestNullReporter(t *testing.T) {
	var nr NullReporter

	nr.StartPhase(PhaseWalkFrom, 10)
	nr.Step("x")
	nr.EndPhase(PhaseWalkFrom)
	nr.Error("x", io.EOF)
}
