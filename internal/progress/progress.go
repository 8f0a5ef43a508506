package progress

import (
	"fmt"
	"sync"
	"time"
)

// Phase names one stage of a tree comparison
type Phase string

const (
	PhaseWalkFrom    Phase = "walk-from"
	PhaseWalkTo      Phase = "walk-to"
	PhaseClassify    Phase = "classify"
	PhaseMoves       Phase = "moves"
	PhaseContentDiff Phase = "content-diff"
	PhaseCache       Phase = "cache"
)

// Reporter receives progress updates during a comparison
type Reporter interface {
	// StartPhase begins a stage; total is 0 when the unit count is unknown
	StartPhase(phase Phase, total int)
	// Step reports one processed unit within the current phase
	Step(path string)
	// EndPhase marks the current stage complete
	EndPhase(phase Phase)
	// Error reports a recovered per-entry failure
	Error(path string, err error)
}

// Callback is a function that receives progress updates
type Callback func(update Update)

// Update represents a progress update
type Update struct {
	Type        UpdateType
	Phase       Phase
	CurrentPath string
	Count       int
	Total       int
	Elapsed     time.Duration
	Error       error
}

// UpdateType indicates the type of progress update
type UpdateType int

const (
	UpdatePhaseStart UpdateType = iota
	UpdateStep
	UpdatePhaseEnd
	UpdateError
)

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback Callback
	mu       sync.Mutex
	phase    Phase
	count    int
	total    int
	started  time.Time

	// Interval throttles Step callbacks; 1 reports every step
	Interval int
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{
		callback: callback,
		Interval: 1,
	}
}

// StartPhase begins a stage
func (r *CallbackReporter) StartPhase(phase Phase, total int) {
	r.mu.Lock()
	r.phase = phase
	r.count = 0
	r.total = total
	r.started = time.Now()

	update := Update{
		Type:  UpdatePhaseStart,
		Phase: phase,
		Total: total,
	}
	callback := r.callback
	r.mu.Unlock()

	// invoke outside the lock to prevent deadlock
	if callback != nil {
		callback(update)
	}
}

// Step reports one processed unit within the current phase
func (r *CallbackReporter) Step(path string) {
	r.mu.Lock()
	r.count++
	if r.Interval > 1 && r.count%r.Interval != 0 {
		r.mu.Unlock()
		return
	}

	update := Update{
		Type:        UpdateStep,
		Phase:       r.phase,
		CurrentPath: path,
		Count:       r.count,
		Total:       r.total,
		Elapsed:     time.Since(r.started),
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// EndPhase marks the current stage complete
func (r *CallbackReporter) EndPhase(phase Phase) {
	r.mu.Lock()
	update := Update{
		Type:    UpdatePhaseEnd,
		Phase:   phase,
		Count:   r.count,
		Total:   r.total,
		Elapsed: time.Since(r.started),
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Error reports a recovered per-entry failure
func (r *CallbackReporter) Error(path string, err error) {
	r.mu.Lock()
	update := Update{
		Type:        UpdateError,
		Phase:       r.phase,
		CurrentPath: path,
		Count:       r.count,
		Total:       r.total,
		Error:       err,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) StartPhase(phase Phase, total int) {}
func (NullReporter) Step(path string)                  {}
func (NullReporter) EndPhase(phase Phase)              {}
func (NullReporter) Error(path string, err error)      {}

// FormatBytes formats bytes into human-readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	neg := ""
	if bytes < 0 {
		neg = "-"
		bytes = -bytes
	}

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%s%.1f GB", neg, float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%s%.1f MB", neg, float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%s%.1f KB", neg, float64(bytes)/KB)
	default:
		return fmt.Sprintf("%s%d B", neg, bytes)
	}
}

// FormatCount returns a "n/total" or bare count when the total is unknown
func FormatCount(count, total int) string {
	if total <= 0 {
		return fmt.Sprintf("%d", count)
	}
	return fmt.Sprintf("%d/%d", count, total)
}
