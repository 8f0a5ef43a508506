package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"snapdiff/internal/domain"
	"snapdiff/internal/service"
)

var watchFlags struct {
	interval          time.Duration
	contentOnly       bool
	includeSystemDirs bool
	cacheMode         string
	quiet             bool
}

var watchCmd = &cobra.Command{
	Use:   "watch FROM TO",
	Short: "Periodically compare two filesystem trees",
	Long: `Compare the filesystem tree at FROM against the tree at TO on a
fixed interval, recording every comparison in the history store. Only
one watcher may run per root pair. Either side may be the literal
"live" to watch the running system root.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	opts := cfg.Options()
	opts.ContentOnly = watchFlags.contentOnly
	opts.IncludeSystemDirs = watchFlags.includeSystemDirs
	opts.CacheMode = domain.CacheMode(watchFlags.cacheMode)
	opts.Quiet = true
	if err := opts.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	watch := service.WatchConfig{
		FromRoot: fromRoot,
		ToRoot:   toRoot,
		Options:  opts,
		Interval: watchFlags.interval,
	}
	if !watchFlags.quiet {
		watch.OnResults = func(results *domain.FsDiffResults, cacheHit bool) {
			source := "walked"
			if cacheHit {
				source = "cached"
			}
			fmt.Fprintf(out, "%s  added:%d removed:%d modified:%d moved:%d different:%d  (%s)\n",
				results.Timestamp.Format("2006-01-02 15:04:05"),
				results.Counts.Added,
				results.Counts.Removed,
				results.Counts.Modified,
				results.Counts.Moved,
				results.Counts.TypeChanged,
				source)
		}
	}

	svc, err := service.NewWatchService(cfg, watch)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()

	if !watchFlags.quiet {
		fmt.Fprintf(out, "Watching %s -> %s every %s\n", fromRoot, toRoot, watchFlags.interval)
	}

	// The scheduler first fires after one full interval; compare once
	// up front so the watcher starts with a current picture.
	if err := svc.Run(ctx); err != nil {
		return err
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return svc.Stop()
}

func init() {
	f := watchCmd.Flags()

	f.DurationVar(&watchFlags.interval, "interval", 5*time.Minute,
		"Time between comparisons")
	f.BoolVarP(&watchFlags.contentOnly, "content-only", "c", false,
		"Only consider content changes")
	f.BoolVar(&watchFlags.includeSystemDirs, "include-system-dirs", false,
		"Include system directories in the comparison")
	f.StringVarP(&watchFlags.cacheMode, "cache", "M", string(domain.CacheModeAuto),
		"Diff caching mode (auto, never, always)")
	f.BoolVarP(&watchFlags.quiet, "quiet", "q", false,
		"Do not print per-comparison summaries")
}
