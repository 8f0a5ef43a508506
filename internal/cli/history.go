package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"snapdiff/internal/progress"
	"snapdiff/internal/state"
)

var historyFlags struct {
	limit int
}

var historyCmd = &cobra.Command{
	Use:   "history [FROM TO]",
	Short: "List recorded comparisons",
	Long: `List past comparisons from the history database, most recent
first. With FROM and TO, only comparisons of that root pair are shown.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("history takes either no roots or both FROM and TO")
	}

	manager, err := state.NewManager(cfg.DataDir)
	if err != nil {
		return err
	}
	defer manager.Close()

	var records []state.ComparisonRecord
	if len(args) == 2 {
		fromRoot, err := resolveRoot(args[0])
		if err != nil {
			return err
		}
		toRoot, err := resolveRoot(args[1])
		if err != nil {
			return err
		}
		records, err = manager.GetHistory(fromRoot, toRoot, historyFlags.limit)
		if err != nil {
			return err
		}
	} else {
		records, err = manager.GetAllHistory(historyFlags.limit)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No comparisons recorded.")
		return nil
	}

	for _, record := range records {
		source := "walked"
		if record.CacheHit {
			source = "cached"
		}
		fmt.Fprintf(out, "#%d  %s  %s -> %s  %s  %s\n",
			record.ID,
			record.Started.Format("2006-01-02 15:04:05"),
			record.FromRoot,
			record.ToRoot,
			record.Duration.Round(time.Millisecond),
			source,
		)
		fmt.Fprintf(out, "    added:%d removed:%d modified:%d moved:%d different:%d  delta:%s  scanned:%d\n",
			record.Added,
			record.Removed,
			record.Modified,
			record.Moved,
			record.Different,
			progress.FormatBytes(record.SizeDelta),
			record.Scanned,
		)
	}
	return nil
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20,
		"Maximum number of comparisons to show")
}
