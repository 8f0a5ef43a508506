package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"snapdiff/internal/cache"
	"snapdiff/internal/domain"
)

var cacheFlags struct {
	expires int
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the comparison cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.New(cfg.CacheDir)
		if err != nil {
			return err
		}

		removed, err := store.Prune(cacheFlags.expires)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entr%s\n",
			removed, pluralY(removed))
		return nil
	},
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func init() {
	cachePruneCmd.Flags().IntVarP(&cacheFlags.expires, "expires", "e",
		domain.DefaultCacheExpires, "Entry age in seconds beyond which entries are removed")
	cacheCmd.AddCommand(cachePruneCmd)
}
