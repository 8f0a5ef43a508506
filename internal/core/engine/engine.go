package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"snapdiff/internal/core/checksum"
	"snapdiff/internal/core/contentdiff"
	"snapdiff/internal/core/filetype"
	"snapdiff/internal/core/walker"
	"snapdiff/internal/domain"
	"snapdiff/internal/logger"
	"snapdiff/internal/memory"
	"snapdiff/internal/progress"
)

// TreeWalker captures a snapshot of one directory tree
type TreeWalker interface {
	Walk(ctx context.Context) (*walker.Result, error)
	Root() string
}

// Cache stores and retrieves computed comparison results.
// Load returns domain.ErrCacheMiss when no usable entry exists.
type Cache interface {
	Load(ctx context.Context, fromRoot, toRoot string, opts domain.DiffOptions) (*domain.FsDiffResults, error)
	Save(ctx context.Context, results *domain.FsDiffResults, opts domain.DiffOptions) error
}

// Config wires an Engine's collaborators. FromWalker and ToWalker are
// required; Cache and Reporter may be nil.
type Config struct {
	Options    domain.DiffOptions
	FromWalker TreeWalker
	ToWalker   TreeWalker
	Cache      Cache
	Reporter   progress.Reporter
	Log        logger.Logger

	// MemoryFraction overrides the content diff memory guard threshold;
	// zero selects the default
	MemoryFraction float64
}

// Engine computes the difference between two directory trees
type Engine struct {
	opts     domain.DiffOptions
	from     TreeWalker
	to       TreeWalker
	cache    Cache
	reporter progress.Reporter
	log      logger.Logger

	hasher   checksum.Calculator
	differ   *contentdiff.Differ
	detector filetype.Detector
}

// New builds an engine after validating its configuration
func New(cfg Config) (*Engine, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	if cfg.FromWalker == nil || cfg.ToWalker == nil {
		return nil, fmt.Errorf("%w: both tree walkers are required", domain.ErrOptionConflict)
	}
	if cfg.FromWalker.Root() == cfg.ToWalker.Root() {
		return nil, fmt.Errorf("%w: %s", domain.ErrSameRoot, cfg.FromWalker.Root())
	}
	if cfg.Reporter == nil {
		cfg.Reporter = progress.NullReporter{}
	}
	if cfg.Log == nil {
		cfg.Log = logger.With("component", "engine")
	}

	fraction := cfg.MemoryFraction
	if fraction <= 0 {
		fraction = memory.DefaultFraction
	}
	guard := memory.NewGuard(fraction, cfg.Options.NoMemChecks)

	return &Engine{
		opts:     cfg.Options,
		from:     cfg.FromWalker,
		to:       cfg.ToWalker,
		cache:    cfg.Cache,
		reporter: cfg.Reporter,
		log:      cfg.Log,
		hasher: checksum.NewCalculator(checksum.Options{
			MaxSize: cfg.Options.MaxContentHashSize,
		}),
		differ:   contentdiff.New(guard, cfg.Options),
		detector: filetype.ForOptions(cfg.Options.UseMagicFileType),
	}, nil
}

// NewForRoots builds an engine walking fromRoot and toRoot directly
func NewForRoots(fromRoot, toRoot string, opts domain.DiffOptions, cache Cache, reporter progress.Reporter) (*Engine, error) {
	fromWalker, err := walker.New(fromRoot, opts, reporter)
	if err != nil {
		return nil, err
	}
	toWalker, err := walker.New(toRoot, opts, reporter)
	if err != nil {
		return nil, err
	}
	return New(Config{
		Options:    opts,
		FromWalker: fromWalker,
		ToWalker:   toWalker,
		Cache:      cache,
		Reporter:   reporter,
	})
}

// Diff computes the comparison, serving it from the cache when
// possible. The second result reports whether the cache was hit.
func (e *Engine) Diff(ctx context.Context) (*domain.FsDiffResults, bool, error) {
	fromRoot, toRoot := e.from.Root(), e.to.Root()

	if cached := e.loadCached(ctx, fromRoot, toRoot); cached != nil {
		e.log.Info("serving cached comparison", "from", fromRoot, "to", toRoot)
		return cached, true, nil
	}

	e.reporter.StartPhase(progress.PhaseWalkFrom, 0)
	fromResult, err := e.from.Walk(ctx)
	if err != nil {
		return nil, false, err
	}
	e.reporter.EndPhase(progress.PhaseWalkFrom)

	e.reporter.StartPhase(progress.PhaseWalkTo, 0)
	toResult, err := e.to.Walk(ctx)
	if err != nil {
		return nil, false, err
	}
	e.reporter.EndPhase(progress.PhaseWalkTo)

	records, err := e.classify(ctx, fromResult.Entries, toResult.Entries)
	if err != nil {
		return nil, false, err
	}

	records, moves, err := e.detectMoves(ctx, records)
	if err != nil {
		return nil, false, err
	}

	if e.opts.IncludeContentDiffs {
		if err := e.attachContentDiffs(ctx, records); err != nil {
			return nil, false, err
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})

	stats := domain.WalkStats{
		ScannedFrom: len(fromResult.Entries),
		ScannedTo:   len(toResult.Entries),
		Excluded:    fromResult.Excluded + toResult.Excluded,
		Moves:       moves,
	}
	results := domain.NewResults(records, fromRoot, toRoot, time.Now(), stats)

	e.saveCached(ctx, results)
	return results, false, nil
}

// loadCached returns a cached result or nil, honoring the cache mode
func (e *Engine) loadCached(ctx context.Context, fromRoot, toRoot string) *domain.FsDiffResults {
	if e.cache == nil || e.opts.CacheMode == domain.CacheModeNever {
		return nil
	}
	e.reporter.StartPhase(progress.PhaseCache, 0)
	defer e.reporter.EndPhase(progress.PhaseCache)

	results, err := e.cache.Load(ctx, fromRoot, toRoot, e.opts)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			e.log.Warn("cache load failed", "error", err)
		}
		return nil
	}
	return results
}

// saveCached stores a computed result, honoring the cache mode.
// Save failures are logged, never surfaced.
func (e *Engine) saveCached(ctx context.Context, results *domain.FsDiffResults) {
	if e.cache == nil || e.opts.CacheMode == domain.CacheModeNever {
		return
	}
	if err := e.cache.Save(ctx, results, e.opts); err != nil {
		e.log.Warn("cache save failed", "error", err)
	}
}

// classify partitions the two snapshots into change records
func (e *Engine) classify(ctx context.Context, from, to map[string]*domain.FsEntry) ([]domain.FsDiffRecord, error) {
	paths := make([]string, 0, len(from)+len(to))
	seen := make(map[string]struct{}, len(from)+len(to))
	for p := range from {
		paths = append(paths, p)
		seen[p] = struct{}{}
	}
	for p := range to {
		if _, ok := seen[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	e.reporter.StartPhase(progress.PhaseClassify, len(paths))
	defer e.reporter.EndPhase(progress.PhaseClassify)

	var records []domain.FsDiffRecord
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		e.reporter.Step(path)

		oldEntry, inFrom := from[path]
		newEntry, inTo := to[path]

		switch {
		case inFrom && !inTo:
			records = append(records, e.newRecord(path, domain.ChangeRemoved, oldEntry, nil, nil))
		case !inFrom && inTo:
			records = append(records, e.newRecord(path, domain.ChangeAdded, nil, newEntry, nil))
		default:
			rec, changed, err := e.compare(ctx, path, oldEntry, newEntry)
			if err != nil {
				return nil, err
			}
			if changed {
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

// newRecord assembles one record with its file type annotation
func (e *Engine) newRecord(path string, kind domain.ChangeKind, oldEntry, newEntry *domain.FsEntry, changes []domain.MetaChange) domain.FsDiffRecord {
	rec := domain.FsDiffRecord{
		Path:     path,
		Kind:     kind,
		OldEntry: oldEntry,
		NewEntry: newEntry,
		Changes:  changes,
	}
	info := filetype.DetectEntry(e.detector, rec.Entry())
	rec.FileType = string(info.Category)
	rec.FileTypeDesc = info.Description
	return rec
}

// attachContentDiffs generates content comparisons for eligible records
func (e *Engine) attachContentDiffs(ctx context.Context, records []domain.FsDiffRecord) error {
	e.reporter.StartPhase(progress.PhaseContentDiff, len(records))
	defer e.reporter.EndPhase(progress.PhaseContentDiff)

	for i := range records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		rec := &records[i]
		e.reporter.Step(rec.Path)

		var oldPath, newPath string
		switch rec.Kind {
		case domain.ChangeAdded:
			if rec.NewEntry == nil || !rec.NewEntry.IsFile() {
				continue
			}
			newPath = rec.NewEntry.FullPath
		case domain.ChangeRemoved:
			if rec.OldEntry == nil || !rec.OldEntry.IsFile() {
				continue
			}
			oldPath = rec.OldEntry.FullPath
		case domain.ChangeModified:
			if !rec.ContentChanged() {
				continue
			}
			if rec.OldEntry == nil || rec.NewEntry == nil ||
				!rec.OldEntry.IsFile() || !rec.NewEntry.IsFile() {
				continue
			}
			oldPath = rec.OldEntry.FullPath
			newPath = rec.NewEntry.FullPath
		default:
			continue
		}

		rec.ContentDiff = e.differ.File(ctx, rec.Path, oldPath, newPath)
	}
	return nil
}

// hashEntry fills the entry's content hash once, on demand
func (e *Engine) hashEntry(ctx context.Context, entry *domain.FsEntry) (string, error) {
	if entry.ContentHash != "" {
		return entry.ContentHash, nil
	}
	hash, err := e.hasher.File(ctx, entry.FullPath, checksum.Algorithm(e.opts.HashAlgorithm))
	if err != nil {
		return "", err
	}
	entry.ContentHash = hash
	return hash, nil
}
