package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"snapdiff/internal/cache"
	"snapdiff/internal/config"
	"snapdiff/internal/core/engine"
	"snapdiff/internal/core/walker"
	"snapdiff/internal/domain"
	"snapdiff/internal/lock"
	"snapdiff/internal/logger"
	"snapdiff/internal/progress"
	"snapdiff/internal/scheduler"
	"snapdiff/internal/state"
)

// WatchConfig describes a periodic comparison of one root pair
type WatchConfig struct {
	FromRoot string
	ToRoot   string
	Options  domain.DiffOptions
	Interval time.Duration

	// OnResults is invoked after each completed comparison. Optional.
	OnResults func(results *domain.FsDiffResults, cacheHit bool)

	// Reporter receives per-run progress updates. Optional.
	Reporter progress.Reporter
}

// WatchService periodically compares a root pair and records each
// outcome in the comparison history
type WatchService struct {
	mu        sync.RWMutex
	config    *config.Config
	watch     WatchConfig
	scheduler scheduler.Scheduler
	stateMgr  *state.Manager
	fileLock  *lock.FileLock
	log       logger.Logger
}

// WatchStatus represents the current watch status
type WatchStatus struct {
	Running        bool
	SchedulerStats *scheduler.Status
	LastComparison *state.ComparisonRecord
}

// NewWatchService creates a watch service for the given root pair
func NewWatchService(cfg *config.Config, watch WatchConfig) (*WatchService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if watch.FromRoot == "" || watch.ToRoot == "" {
		return nil, fmt.Errorf("both roots must be set")
	}
	if watch.FromRoot == watch.ToRoot {
		return nil, fmt.Errorf("%w: %s", domain.ErrSameRoot, watch.FromRoot)
	}
	if watch.Interval <= 0 {
		return nil, fmt.Errorf("watch interval must be positive, got %v", watch.Interval)
	}
	if watch.Reporter == nil {
		watch.Reporter = progress.NullReporter{}
	}

	stateMgr, err := state.NewManager(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create state manager: %w", err)
	}

	scope := watch.FromRoot + ":" + watch.ToRoot
	fileLock, err := lock.NewFileLock(cfg.DataDir, scope)
	if err != nil {
		stateMgr.Close()
		return nil, fmt.Errorf("failed to create lock: %w", err)
	}

	return &WatchService{
		config:   cfg,
		watch:    watch,
		stateMgr: stateMgr,
		fileLock: fileLock,
		log:      logger.With("component", "watch"),
	}, nil
}

// Start acquires the watch lock and begins the comparison loop
func (w *WatchService) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler != nil {
		return fmt.Errorf("watch is already running")
	}

	if err := w.fileLock.Acquire(); err != nil {
		return err
	}

	sched, err := scheduler.NewIntervalScheduler(scheduler.Config{
		Interval: w.watch.Interval,
	}, w)
	if err != nil {
		w.fileLock.Release()
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		w.fileLock.Release()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	w.scheduler = sched
	w.log.Info("watch started",
		"from", w.watch.FromRoot,
		"to", w.watch.ToRoot,
		"interval", w.watch.Interval)
	return nil
}

// Stop stops the comparison loop and releases the watch lock
func (w *WatchService) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler == nil {
		return fmt.Errorf("watch is not running")
	}

	if err := w.scheduler.Stop(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	w.scheduler = nil

	return w.fileLock.Release()
}

// Status returns the current watch status
func (w *WatchService) Status() *WatchStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	status := &WatchStatus{
		Running: w.scheduler != nil,
	}

	if w.scheduler != nil {
		status.SchedulerStats = w.scheduler.Status()
	}

	if w.stateMgr != nil {
		last, err := w.stateMgr.GetLast(w.watch.FromRoot, w.watch.ToRoot)
		if err == nil && last != nil {
			status.LastComparison = last
		}
	}

	return status
}

// Close releases all resources
func (w *WatchService) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var lastErr error

	if w.scheduler != nil {
		if err := w.scheduler.Stop(); err != nil {
			lastErr = err
		}
		w.scheduler = nil
		if err := w.fileLock.Release(); err != nil {
			lastErr = err
		}
	}

	if w.stateMgr != nil {
		if err := w.stateMgr.Close(); err != nil {
			lastErr = err
		}
		w.stateMgr = nil
	}

	return lastErr
}

// Run performs one comparison pass. It implements scheduler.Runner and
// is safe to call directly for a one-shot comparison.
func (w *WatchService) Run(ctx context.Context) error {
	w.mu.RLock()
	watch := w.watch
	stateMgr := w.stateMgr
	w.mu.RUnlock()

	if stateMgr == nil {
		return fmt.Errorf("watch service is closed")
	}

	fromWalker, err := walker.New(watch.FromRoot, watch.Options, watch.Reporter)
	if err != nil {
		return err
	}
	toWalker, err := walker.New(watch.ToRoot, watch.Options, watch.Reporter)
	if err != nil {
		return err
	}

	var store engine.Cache
	if watch.Options.CacheMode != domain.CacheModeNever {
		s, err := cache.New(w.config.CacheDir)
		if err != nil {
			w.log.Warn("cache unavailable", "dir", w.config.CacheDir, "error", err)
		} else {
			store = s
		}
	}

	eng, err := engine.New(engine.Config{
		Options:        watch.Options,
		FromWalker:     fromWalker,
		ToWalker:       toWalker,
		Cache:          store,
		Reporter:       watch.Reporter,
		Log:            w.log,
		MemoryFraction: w.config.MemoryFraction,
	})
	if err != nil {
		return err
	}

	started := time.Now()
	results, cacheHit, err := eng.Diff(ctx)
	if err != nil {
		return err
	}

	record := state.RecordFromResults(results, started, time.Since(started), cacheHit)
	if err := stateMgr.SaveComparison(record); err != nil {
		w.log.Warn("failed to record comparison", "error", err)
	}

	w.log.Info("comparison complete",
		"from", watch.FromRoot,
		"to", watch.ToRoot,
		"total", results.Len(),
		"cached", cacheHit,
		"duration", time.Since(started).Round(time.Millisecond))

	if watch.OnResults != nil {
		watch.OnResults(results, cacheHit)
	}
	return nil
}
