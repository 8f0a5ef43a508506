package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"snapdiff/internal/domain"
)

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
	}

	// Add user config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "snapdiff"))
	}

	// Add home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "snapdiff"))
		paths = append(paths, filepath.Join(homeDir, ".snapdiff"))
	}

	return paths
}

func newViper() *viper.Viper {
	v := viper.New()

	defaults := Default()
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("memory_fraction", defaults.MemoryFraction)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("diff.cache_expires", defaults.Diff.CacheExpires)
	v.SetDefault("diff.max_content_diff_size", defaults.Diff.MaxContentDiffSize)
	v.SetDefault("diff.max_content_hash_size", defaults.Diff.MaxContentHashSize)
	v.SetDefault("diff.hash_algorithm", defaults.Diff.HashAlgorithm)
	v.SetDefault("diff.context_lines", defaults.Diff.ContextLines)

	v.SetEnvPrefix("SNAPDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func finish(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg.CacheDir = ExpandPath(cfg.CacheDir)
	cfg.DataDir = ExpandPath(cfg.DataDir)
	if cfg.Log.File != "" {
		cfg.Log.File = ExpandPath(cfg.Log.File)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses a configuration file.
// If path is empty, searches default locations for config.yaml; a
// missing file is not an error and yields the built-in defaults.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		// Use specific file
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, domain.ErrConfigNotFound
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
		return finish(v)
	}

	// Search default paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range DefaultConfigPaths() {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
		// No config file anywhere: run on defaults
	}

	return finish(v)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return finish(v)
}
