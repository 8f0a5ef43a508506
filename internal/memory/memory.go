package memory

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"snapdiff/internal/domain"
)

// DefaultFraction is the share of total memory the process may reach
// before content comparisons are suppressed
const DefaultFraction = 0.5

// Guard gates memory-hungry work against the host's total memory.
// A tripped guard suppresses the work it gates; it never fails the
// surrounding comparison.
type Guard struct {
	fraction float64
	disabled bool

	// probes are replaceable for tests
	totalFn func() (uint64, error)
	rssFn   func() (uint64, error)
}

// NewGuard builds a guard allowing the process to grow to the given
// fraction of total memory. Disabled guards always allow.
func NewGuard(fraction float64, disabled bool) *Guard {
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultFraction
	}
	return &Guard{
		fraction: fraction,
		disabled: disabled,
		totalFn:  TotalMemory,
		rssFn:    ProcessRSS,
	}
}

// WithProbes overrides the memory probes; used by tests to force
// deterministic guard decisions
func (g *Guard) WithProbes(total, rss func() (uint64, error)) *Guard {
	g.totalFn = total
	g.rssFn = rss
	return g
}

// Allow checks whether the process can take on extra bytes of work.
// Probe failures count as allowed; the guard is advisory.
func (g *Guard) Allow(extra uint64) error {
	if g == nil || g.disabled {
		return nil
	}

	total, err := g.totalFn()
	if err != nil || total == 0 {
		return nil
	}
	rss, err := g.rssFn()
	if err != nil {
		return nil
	}

	limit := uint64(float64(total) * g.fraction)
	if rss+extra > limit {
		return fmt.Errorf("%w: need %d bytes with rss %d, limit %d",
			domain.ErrMemoryGuard, extra, rss, limit)
	}
	return nil
}

// TotalMemory returns the host's total physical memory in bytes
func TotalMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Total, nil
}

// ProcessRSS returns this process's resident set size in bytes
func ProcessRSS() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
