package config

import (
	"fmt"
	"os"
	"path/filepath"

	"snapdiff/internal/domain"
	"snapdiff/internal/memory"
)

// Config represents the complete configuration for snapdiff
type Config struct {
	// CacheDir holds the comparison result cache
	CacheDir string `mapstructure:"cache_dir"`

	// DataDir holds the comparison history database
	DataDir string `mapstructure:"data_dir"`

	// MemoryFraction is the usable share of system memory for content
	// diff generation
	MemoryFraction float64 `mapstructure:"memory_fraction"`

	// Log configures the process logger
	Log LogConfig `mapstructure:"log"`

	// Diff carries the default comparison option overrides
	Diff DiffConfig `mapstructure:"diff"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// DiffConfig carries configurable comparison defaults; flags override
// these per invocation
type DiffConfig struct {
	CacheExpires       int    `mapstructure:"cache_expires"`
	MaxContentDiffSize int64  `mapstructure:"max_content_diff_size"`
	MaxContentHashSize int64  `mapstructure:"max_content_hash_size"`
	HashAlgorithm      string `mapstructure:"hash_algorithm"`
	ContextLines       int    `mapstructure:"context_lines"`
}

// DefaultBaseDir returns the per-user base directory for snapdiff data
func DefaultBaseDir() string {
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "snapdiff")
	}
	return filepath.Join(os.TempDir(), "snapdiff")
}

// Default returns the built-in configuration
func Default() *Config {
	base := DefaultBaseDir()
	return &Config{
		CacheDir:       filepath.Join(base, "cache"),
		DataDir:        base,
		MemoryFraction: memory.DefaultFraction,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Diff: DiffConfig{
			CacheExpires:       domain.DefaultCacheExpires,
			MaxContentDiffSize: domain.DefaultMaxContentDiffSize,
			MaxContentHashSize: domain.DefaultMaxContentHashSize,
			HashAlgorithm:      domain.HashSHA256,
			ContextLines:       domain.DefaultContextLines,
		},
	}
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("%w: cache directory cannot be empty", domain.ErrConfigInvalid)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data directory cannot be empty", domain.ErrConfigInvalid)
	}
	if c.MemoryFraction <= 0 || c.MemoryFraction > 1 {
		return fmt.Errorf("%w: memory fraction must be in (0, 1], got %g",
			domain.ErrConfigInvalid, c.MemoryFraction)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", domain.ErrConfigInvalid, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", domain.ErrConfigInvalid, c.Log.Format)
	}
	if c.Diff.CacheExpires < 0 {
		return fmt.Errorf("%w: cache expiry must be non-negative", domain.ErrConfigInvalid)
	}
	switch c.Diff.HashAlgorithm {
	case domain.HashSHA256, domain.HashXXHash64:
	default:
		return fmt.Errorf("%w: unknown hash algorithm %q",
			domain.ErrConfigInvalid, c.Diff.HashAlgorithm)
	}
	if c.Diff.ContextLines < 0 {
		return fmt.Errorf("%w: context lines must be non-negative", domain.ErrConfigInvalid)
	}
	return nil
}

// Options builds the base comparison options from the configured defaults
func (c *Config) Options() domain.DiffOptions {
	opts := domain.DefaultOptions()
	opts.CacheExpires = c.Diff.CacheExpires
	opts.MaxContentDiffSize = c.Diff.MaxContentDiffSize
	opts.MaxContentHashSize = c.Diff.MaxContentHashSize
	opts.HashAlgorithm = c.Diff.HashAlgorithm
	opts.ContextLines = c.Diff.ContextLines
	return opts
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	// Expand ~ to home directory
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	// Expand environment variables
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
