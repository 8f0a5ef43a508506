package cli

import (
	"fmt"
	"io"
	"time"

	"snapdiff/internal/progress"
)

// stepInterval throttles per-entry progress callbacks
const stepInterval = 512

// newReporter builds the terminal progress reporter, or a silent one
func newReporter(w io.Writer, quiet bool) progress.Reporter {
	if quiet {
		return progress.NullReporter{}
	}

	reporter := progress.NewCallbackReporter(func(update progress.Update) {
		switch update.Type {
		case progress.UpdatePhaseEnd:
			if update.Count == 0 {
				return
			}
			fmt.Fprintf(w, "%s: %s entries in %s\n",
				update.Phase,
				progress.FormatCount(update.Count, update.Total),
				update.Elapsed.Round(time.Millisecond))
		case progress.UpdateError:
			fmt.Fprintf(w, "%s: %s: %v\n", update.Phase, update.CurrentPath, update.Error)
		}
	})
	reporter.Interval = stepInterval
	return reporter
}
