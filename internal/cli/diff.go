package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"snapdiff/internal/cache"
	"snapdiff/internal/config"
	"snapdiff/internal/core/engine"
	"snapdiff/internal/core/walker"
	"snapdiff/internal/domain"
	"snapdiff/internal/logger"
	"snapdiff/internal/render"
	"snapdiff/internal/state"
)

// liveSentinel names the running system in place of a root path
const liveSentinel = "live"

var diffFlags struct {
	format            string
	pretty            bool
	desc              string
	stat              bool
	color             string
	contentOnly       bool
	ignoreTimestamps  bool
	ignorePermissions bool
	ignoreOwnership   bool
	includeSystemDirs bool
	noContentDiff     bool
	useMagic          bool
	maxDiffSize       int64
	maxHashSize       int64
	hashAlgorithm     string
	contextLines      int
	includePatterns   []string
	excludePatterns   []string
	fromPath          string
	cacheMode         string
	cacheExpires      int
	noMemChecks       bool
	quiet             bool
}

var diffCmd = &cobra.Command{
	Use:   "diff FROM TO",
	Short: "Compare two filesystem trees",
	Long: `Compare the filesystem tree at FROM against the tree at TO and
report every added, removed, modified, moved, or type-changed path.
Either side may be the literal "live" to compare against the running
system root.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

// resolveRoot maps the live sentinel to "/" and absolutizes paths
func resolveRoot(arg string) (string, error) {
	if arg == liveSentinel {
		return "/", nil
	}
	abs, err := filepath.Abs(config.ExpandPath(arg))
	if err != nil {
		return "", fmt.Errorf("resolving root %q: %w", arg, err)
	}
	return abs, nil
}

// diffOptions builds the comparison options from config defaults and
// flag overrides
func diffOptions(cmd *cobra.Command) (domain.DiffOptions, error) {
	opts := cfg.Options()

	opts.ContentOnly = diffFlags.contentOnly
	opts.IgnoreTimestamps = diffFlags.ignoreTimestamps
	opts.IgnorePermissions = diffFlags.ignorePermissions
	opts.IgnoreOwnership = diffFlags.ignoreOwnership
	opts.IncludeSystemDirs = diffFlags.includeSystemDirs
	opts.IncludeContentDiffs = !diffFlags.noContentDiff
	opts.UseMagicFileType = diffFlags.useMagic
	opts.IncludePatterns = diffFlags.includePatterns
	opts.ExcludePatterns = diffFlags.excludePatterns
	opts.FromPath = diffFlags.fromPath
	opts.NoMemChecks = diffFlags.noMemChecks
	opts.Quiet = diffFlags.quiet
	opts.CacheMode = domain.CacheMode(diffFlags.cacheMode)

	if cmd.Flags().Changed("cache-expires") {
		opts.CacheExpires = diffFlags.cacheExpires
	}
	if cmd.Flags().Changed("max-diff-size") {
		opts.MaxContentDiffSize = diffFlags.maxDiffSize
	}
	if cmd.Flags().Changed("max-hash-size") {
		opts.MaxContentHashSize = diffFlags.maxHashSize
	}
	if cmd.Flags().Changed("hash") {
		opts.HashAlgorithm = diffFlags.hashAlgorithm
	}
	if cmd.Flags().Changed("context") {
		opts.ContextLines = diffFlags.contextLines
	}

	return opts, opts.Validate()
}

// validateOutputFlags rejects flag combinations before any walk begins
func validateOutputFlags(format render.Format) error {
	if diffFlags.pretty && format != render.FormatJSON {
		return fmt.Errorf("%w: --pretty is only supported with --format=json",
			domain.ErrOptionConflict)
	}
	if diffFlags.desc != string(render.DescNone) && format != render.FormatTree {
		return fmt.Errorf("%w: --desc is only supported with --format=tree",
			domain.ErrOptionConflict)
	}
	if diffFlags.stat && format != render.FormatDiff && format != render.FormatSummary {
		return fmt.Errorf("%w: --stat is only supported with --format=diff or --format=summary",
			domain.ErrOptionConflict)
	}
	switch render.ColorMode(diffFlags.color) {
	case render.ColorAuto, render.ColorAlways, render.ColorNever:
	default:
		return fmt.Errorf("%w: unknown color mode %q", domain.ErrOptionConflict, diffFlags.color)
	}
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	log := logger.With("component", "cli")

	format, err := render.ParseFormat(diffFlags.format)
	if err != nil {
		return err
	}
	desc, err := render.ParseDescMode(diffFlags.desc)
	if err != nil {
		return err
	}
	if err := validateOutputFlags(format); err != nil {
		return err
	}

	fromRoot, err := resolveRoot(args[0])
	if err != nil {
		return err
	}
	toRoot, err := resolveRoot(args[1])
	if err != nil {
		return err
	}
	if fromRoot == toRoot {
		return fmt.Errorf("%w: %s", domain.ErrSameRoot, fromRoot)
	}

	opts, err := diffOptions(cmd)
	if err != nil {
		return err
	}

	reporter := newReporter(cmd.ErrOrStderr(), opts.Quiet)

	fromWalker, err := walker.New(fromRoot, opts, reporter)
	if err != nil {
		return err
	}
	toWalker, err := walker.New(toRoot, opts, reporter)
	if err != nil {
		return err
	}

	var store engine.Cache
	if opts.CacheMode != domain.CacheModeNever {
		s, err := cache.New(cfg.CacheDir)
		if err != nil {
			// The cache is an accelerator; a broken cache dir only
			// costs a recompute
			log.Warn("cache unavailable", "dir", cfg.CacheDir, "error", err)
		} else {
			store = s
		}
	}

	eng, err := engine.New(engine.Config{
		Options:        opts,
		FromWalker:     fromWalker,
		ToWalker:       toWalker,
		Cache:          store,
		Reporter:       reporter,
		Log:            log,
		MemoryFraction: cfg.MemoryFraction,
	})
	if err != nil {
		return err
	}

	started := time.Now()
	results, cacheHit, err := eng.Diff(cmd.Context())
	if err != nil {
		return err
	}

	recordHistory(log, results, started, cacheHit)

	renderer := render.New(render.Options{
		Color:    render.ColorMode(diffFlags.color),
		Pretty:   diffFlags.pretty,
		DiffStat: diffFlags.stat,
		Desc:     desc,
	})
	return renderer.Render(cmd.OutOrStdout(), results, format)
}

// recordHistory stores the comparison outcome, best-effort
func recordHistory(log logger.Logger, results *domain.FsDiffResults, started time.Time, cacheHit bool) {
	manager, err := state.NewManager(cfg.DataDir)
	if err != nil {
		log.Warn("history unavailable", "dir", cfg.DataDir, "error", err)
		return
	}
	defer manager.Close()

	record := state.RecordFromResults(results, started, time.Since(started), cacheHit)
	if err := manager.SaveComparison(record); err != nil {
		log.Warn("failed to record comparison", "error", err)
	}
}

func init() {
	f := diffCmd.Flags()

	f.StringVarP(&diffFlags.format, "format", "o", "tree",
		"Output format (paths, full, short, json, diff, summary, tree)")
	f.BoolVarP(&diffFlags.pretty, "pretty", "P", false,
		"Pretty print output if supported by the output format")
	f.StringVarP(&diffFlags.desc, "desc", "D", "none",
		"Include change descriptions in tree output (none, short, full)")
	f.BoolVar(&diffFlags.stat, "stat", false,
		"Include diffstat in diff and summary output")
	f.StringVar(&diffFlags.color, "color", "auto",
		"Colored output (auto, always, never)")

	f.BoolVarP(&diffFlags.contentOnly, "content-only", "c", false,
		"Only consider content changes")
	f.BoolVarP(&diffFlags.ignoreTimestamps, "ignore-timestamps", "t", false,
		"Ignore timestamps when computing diffs")
	f.BoolVarP(&diffFlags.ignorePermissions, "ignore-permissions", "p", false,
		"Ignore permissions when computing diffs")
	f.BoolVarP(&diffFlags.ignoreOwnership, "ignore-ownership", "w", false,
		"Ignore ownership when computing diffs")
	f.BoolVar(&diffFlags.includeSystemDirs, "include-system-dirs", false,
		"Include system directories in the comparison")
	f.BoolVarP(&diffFlags.noContentDiff, "no-content-diff", "C", false,
		"Do not generate content diffs for detected file modifications")
	f.BoolVar(&diffFlags.useMagic, "use-magic", false,
		"Detect file types by content instead of name")

	f.Int64VarP(&diffFlags.maxDiffSize, "max-diff-size", "z", domain.DefaultMaxContentDiffSize,
		"Maximum file size for generating content diffs")
	f.Int64VarP(&diffFlags.maxHashSize, "max-hash-size", "H", domain.DefaultMaxContentHashSize,
		"Maximum file size for generating content hashes")
	f.StringVar(&diffFlags.hashAlgorithm, "hash", domain.HashSHA256,
		"Content hash algorithm (sha256, xxhash64)")
	f.IntVar(&diffFlags.contextLines, "context", domain.DefaultContextLines,
		"Unified diff context lines")

	f.StringArrayVarP(&diffFlags.includePatterns, "include", "i", nil,
		"File patterns to include (glob notation, repeatable)")
	f.StringArrayVarP(&diffFlags.excludePatterns, "exclude", "x", nil,
		"File patterns to exclude (glob notation, repeatable)")
	f.StringVarP(&diffFlags.fromPath, "from-path", "s", "",
		"Start traversal from PATH inside each root")

	f.StringVarP(&diffFlags.cacheMode, "cache", "M", string(domain.CacheModeAuto),
		"Diff caching mode (auto, never, always)")
	f.IntVarP(&diffFlags.cacheExpires, "cache-expires", "e", domain.DefaultCacheExpires,
		"Cache expiry time in seconds (0 to disable expiry)")

	f.BoolVar(&diffFlags.noMemChecks, "no-mem-checks", false,
		"Disable the content diff memory guard")
	f.BoolVarP(&diffFlags.quiet, "quiet", "q", false,
		"Do not output progress or status information")
}
