package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gobwas/glob"

	"snapdiff/internal/domain"
	"snapdiff/internal/logger"
	"snapdiff/internal/progress"
)

// alwaysExcludePatterns are paths that are never safe to scan: virtual
// files of unbounded size, blocking device nodes and kernel debug trees
var alwaysExcludePatterns = []string{
	"/proc/kcore",
	"/proc/kmsg",
	"/proc/*/mem",
	"/proc/*/fd/*",
	"/proc/*/task/*/mem",
	"/proc/sysrq-trigger",
	"/proc/acpi/event",
	"/dev/zero",
	"/dev/full",
	"/dev/random",
	"/dev/urandom",
	"/dev/kmsg",
	"/dev/mem",
	"/dev/kmem",
	"/dev/port",
	"/dev/nvram",
	"/dev/console",
	"/dev/tty*",
	"/dev/pts/*",
	"/dev/ptmx",
	"/dev/input/*",
	"/dev/uinput",
	"/dev/watchdog*",
	"/dev/st*",
	"/dev/nst*",
	"/sys/kernel/debug/*",
	"/sys/kernel/tracing/trace_pipe",
	"/sys/fs/cgroup/*",
}

// excludeSystemDirs are the volatile system trees skipped by default
var excludeSystemDirs = []string{
	"/proc/*",
	"/sys/*",
	"/dev/*",
	"/tmp/*",
	"/run/*",
	"/var/run/*",
	"/var/lock/*",
}

// Result is the outcome of walking one root
type Result struct {
	// Entries maps root-relative "/"-rooted paths to their snapshots
	Entries map[string]*domain.FsEntry

	// Excluded counts entries dropped by exclusion patterns
	Excluded int
}

// Walker captures a metadata snapshot of one directory tree.
// It never reads file content; hashes are filled in later, on demand.
type Walker struct {
	root     string
	fromPath string
	includes []glob.Glob
	excludes []glob.Glob
	reporter progress.Reporter
	log      logger.Logger
}

// New builds a walker for root with the given comparison options
func New(root string, opts domain.DiffOptions, reporter progress.Reporter) (*Walker, error) {
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, root)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrWalk, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotDirectory, root)
	}

	patterns := append([]string{}, alwaysExcludePatterns...)
	if !opts.IncludeSystemDirs {
		patterns = append(patterns, excludeSystemDirs...)
	}
	patterns = append(patterns, opts.ExcludePatterns...)

	excludes, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}
	includes, err := compilePatterns(opts.IncludePatterns)
	if err != nil {
		return nil, err
	}

	if reporter == nil {
		reporter = progress.NullReporter{}
	}

	return &Walker{
		root:     root,
		fromPath: opts.FromPath,
		includes: includes,
		excludes: excludes,
		reporter: reporter,
		log:      logger.With("component", "walker", "root", root),
	}, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", domain.ErrOptionConflict, p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Root returns the walked root
func (w *Walker) Root() string {
	return w.root
}

// Walk captures the tree snapshot. Per-entry failures degrade to
// entries marked Unavailable; only root-level failures abort.
func (w *Walker) Walk(ctx context.Context) (*Result, error) {
	result := &Result{Entries: make(map[string]*domain.FsEntry)}

	start := w.root
	if w.fromPath != "" {
		start = filepath.Join(w.root, w.fromPath)
		if info, err := os.Stat(start); err != nil || !info.IsDir() {
			// a subtree missing on one side is an empty snapshot,
			// not an error: every path shows up as added or removed
			return result, nil
		}
	}

	walkErr := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel := w.relative(path)
		if rel == "/" {
			// the root itself is not a comparable entry
			return err
		}

		if w.excluded(rel) {
			result.Excluded++
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if err != nil {
			w.log.Debug("walk error", "path", rel, "error", err)
			result.Entries[rel] = w.degradedEntry(rel, path)
			return nil
		}
		if len(w.includes) > 0 && !d.IsDir() && !w.included(rel) {
			result.Excluded++
			return nil
		}

		entry, entryErr := w.capture(rel, path)
		if entryErr != nil {
			w.log.Debug("stat error", "path", rel, "error", entryErr)
			w.reporter.Error(rel, entryErr)
			entry = w.degradedEntry(rel, path)
		}
		result.Entries[rel] = entry
		w.reporter.Step(rel)
		return nil
	})

	if walkErr != nil {
		if walkErr == context.Canceled || walkErr == context.DeadlineExceeded {
			return nil, walkErr
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrWalk, walkErr)
	}
	return result, nil
}

// relative converts an absolute walked path to the "/"-rooted key
func (w *Walker) relative(path string) string {
	rel := strings.TrimPrefix(filepath.Clean(path), w.root)
	if rel == "" {
		return "/"
	}
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}

func (w *Walker) excluded(rel string) bool {
	for _, g := range w.excludes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func (w *Walker) included(rel string) bool {
	for _, g := range w.includes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// capture snapshots one path's metadata without following symlinks
func (w *Walker) capture(rel, path string) (*domain.FsEntry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}

	entry := &domain.FsEntry{
		Path:     rel,
		FullPath: path,
		Kind:     domain.KindFromMode(info.Mode()),
		Mode:     info.Mode(),
		ModTime:  info.ModTime(),
	}
	if entry.Kind == domain.KindRegular {
		entry.Size = info.Size()
	}

	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		entry.UID = st.Uid
		entry.GID = st.Gid
	}

	if entry.Kind == domain.KindSymlink {
		target, err := os.Readlink(path)
		if err != nil {
			return nil, err
		}
		entry.SymlinkTarget = target
		if _, err := os.Stat(path); err != nil {
			entry.BrokenSymlink = true
		}
	}

	// xattr failures are tolerated; many filesystems don't support them
	if xattrs, err := readXattrs(path); err == nil && len(xattrs) > 0 {
		entry.Xattrs = xattrs
	}

	return entry, nil
}

// degradedEntry records a path whose metadata could not be read
func (w *Walker) degradedEntry(rel, path string) *domain.FsEntry {
	return &domain.FsEntry{
		Path:        rel,
		FullPath:    path,
		Unavailable: true,
	}
}
