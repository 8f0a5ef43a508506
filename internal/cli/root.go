package cli

import (
	"context"

	"github.com/spf13/cobra"

	"snapdiff/internal/config"
	"snapdiff/internal/logger"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "snapdiff",
	Short:         "Compare filesystem trees and report changes",
	Long:          "snapdiff walks two directory trees, classifies every difference between them and reports the changes in a choice of formats.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute runs the command tree under the given context
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}

	lcfg := logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Format:  logger.ParseFormat(cfg.Log.Format),
		Outputs: []logger.OutputConfig{{Type: logger.OutputStderr}},
	}
	if cfg.Log.File != "" {
		lcfg.Outputs = append(lcfg.Outputs, logger.OutputConfig{Type: logger.OutputFile})
		lcfg.File = logger.FileConfig{
			Enabled:    true,
			Path:       cfg.Log.File,
			MaxSizeMB:  10,
			MaxAgeDays: 30,
			MaxBackups: 5,
			Compress:   true,
		}
	}
	// Re-initialization is harmless: repeated command runs within one
	// process (tests) keep the first logger
	_ = logger.Init(lcfg)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cacheCmd)
}
