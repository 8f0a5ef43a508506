package domain

import (
	"fmt"
	"strings"
)

// CacheMode controls how the diff cache participates in a comparison
type CacheMode string

const (
	// CacheModeAuto reads and writes the cache honoring the expiry
	CacheModeAuto CacheMode = "auto"
	// CacheModeNever bypasses both cache read and write
	CacheModeNever CacheMode = "never"
	// CacheModeAlways accepts a cached entry regardless of expiry
	CacheModeAlways CacheMode = "always"
)

// IsValid checks if the cache mode is a known value
func (m CacheMode) IsValid() bool {
	switch m {
	case CacheModeAuto, CacheModeNever, CacheModeAlways:
		return true
	}
	return false
}

const (
	// DefaultCacheExpires is the default cache entry time-to-live in seconds
	DefaultCacheExpires = 900

	// DefaultMaxContentDiffSize caps files eligible for content diffing
	DefaultMaxContentDiffSize = 1 << 20

	// DefaultMaxContentHashSize caps files eligible for content hashing
	DefaultMaxContentHashSize = 1 << 20

	// DefaultContextLines is the unified diff context size
	DefaultContextLines = 3
)

// Hash algorithm names accepted by DiffOptions.HashAlgorithm
const (
	HashSHA256   = "sha256"
	HashXXHash64 = "xxhash64"
)

// DiffOptions is the fixed, fully-enumerated comparison configuration.
// Construct with DefaultOptions and validate before use; conflicting
// combinations are rejected at validation, not at use.
type DiffOptions struct {
	// ContentOnly restricts reported changes to content deltas
	ContentOnly bool

	// IgnoreTimestamps elides modification time comparisons
	IgnoreTimestamps bool

	// IgnorePermissions elides permission bit comparisons
	IgnorePermissions bool

	// IgnoreOwnership elides owner/group comparisons
	IgnoreOwnership bool

	// IncludePatterns restricts the walk to matching paths (glob notation)
	IncludePatterns []string

	// ExcludePatterns removes matching paths from the walk (glob notation)
	ExcludePatterns []string

	// FromPath narrows the comparison to a subtree of each root
	FromPath string

	// IncludeSystemDirs walks volatile system directories that are
	// excluded by default (/proc, /sys, /dev, /tmp, /run)
	IncludeSystemDirs bool

	// NoMemChecks disables the content diff memory guard
	NoMemChecks bool

	// UseMagicFileType enables content sniffing for file type detection
	UseMagicFileType bool

	// CacheMode selects cache participation
	CacheMode CacheMode

	// CacheExpires is the cache entry time-to-live in seconds
	CacheExpires int

	// IncludeContentDiffs generates content diffs for detected changes
	IncludeContentDiffs bool

	// MaxContentDiffSize caps files eligible for content diffing (bytes)
	MaxContentDiffSize int64

	// MaxContentHashSize caps files eligible for content hashing (bytes)
	MaxContentHashSize int64

	// HashAlgorithm selects the content hash: "sha256" or "xxhash64"
	HashAlgorithm string

	// ContextLines is the unified diff context size
	ContextLines int

	// Quiet suppresses progress output
	Quiet bool
}

// DefaultOptions returns the recommended defaults
func DefaultOptions() DiffOptions {
	return DiffOptions{
		CacheMode:           CacheModeAuto,
		CacheExpires:        DefaultCacheExpires,
		IncludeContentDiffs: true,
		MaxContentDiffSize:  DefaultMaxContentDiffSize,
		MaxContentHashSize:  DefaultMaxContentHashSize,
		HashAlgorithm:       HashSHA256,
		ContextLines:        DefaultContextLines,
	}
}

// Validate checks the option set for unknown or conflicting values.
// It must pass before any tree walk begins.
func (o DiffOptions) Validate() error {
	if !o.CacheMode.IsValid() {
		return fmt.Errorf("%w: unknown cache mode %q", ErrOptionConflict, o.CacheMode)
	}
	if o.CacheExpires < 0 {
		return fmt.Errorf("%w: cache expiry must be non-negative", ErrOptionConflict)
	}
	// A non-default TTL only makes sense with auto mode: never skips the
	// cache entirely and always disregards expiry.
	if o.CacheMode != CacheModeAuto && o.CacheExpires != DefaultCacheExpires {
		return fmt.Errorf("%w: cache-expires cannot be combined with cache mode %q",
			ErrOptionConflict, o.CacheMode)
	}
	switch o.HashAlgorithm {
	case HashSHA256, HashXXHash64:
	default:
		return fmt.Errorf("%w: unknown hash algorithm %q", ErrOptionConflict, o.HashAlgorithm)
	}
	if o.ContextLines < 0 {
		return fmt.Errorf("%w: context lines must be non-negative", ErrOptionConflict)
	}
	if o.FromPath != "" && !strings.HasPrefix(o.FromPath, "/") {
		return fmt.Errorf("%w: from-path must be absolute within the root", ErrOptionConflict)
	}
	return nil
}

// Fingerprint returns the canonical form of the options that shape a
// result. Cache participation knobs are excluded: two runs differing
// only in cache mode or expiry produce identical results.
func (o DiffOptions) Fingerprint() string {
	return fmt.Sprintf(
		"content_only=%t ignore_timestamps=%t ignore_permissions=%t ignore_ownership=%t "+
			"include=%s exclude=%s from_path=%s system_dirs=%t no_mem_checks=%t use_magic=%t "+
			"content_diffs=%t max_diff_size=%d max_hash_size=%d hash=%s context=%d",
		o.ContentOnly, o.IgnoreTimestamps, o.IgnorePermissions, o.IgnoreOwnership,
		strings.Join(o.IncludePatterns, ","), strings.Join(o.ExcludePatterns, ","),
		o.FromPath, o.IncludeSystemDirs, o.NoMemChecks, o.UseMagicFileType,
		o.IncludeContentDiffs, o.MaxContentDiffSize,
		o.MaxContentHashSize, o.HashAlgorithm, o.ContextLines,
	)
}

// String returns a stable human readable representation for logging
func (o DiffOptions) String() string {
	return fmt.Sprintf(
		"content_only=%t ignore_timestamps=%t ignore_permissions=%t ignore_ownership=%t "+
			"include=%s exclude=%s from_path=%s system_dirs=%t no_mem_checks=%t use_magic=%t "+
			"cache_mode=%s cache_expires=%d content_diffs=%t max_diff_size=%d "+
			"max_hash_size=%d hash=%s context=%d",
		o.ContentOnly, o.IgnoreTimestamps, o.IgnorePermissions, o.IgnoreOwnership,
		strings.Join(o.IncludePatterns, ","), strings.Join(o.ExcludePatterns, ","),
		o.FromPath, o.IncludeSystemDirs, o.NoMemChecks, o.UseMagicFileType,
		o.CacheMode, o.CacheExpires, o.IncludeContentDiffs, o.MaxContentDiffSize,
		o.MaxContentHashSize, o.HashAlgorithm, o.ContextLines,
	)
}
