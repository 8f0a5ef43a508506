package domain

import "errors"

// Comparison errors - recovered per entry, never aborting a comparison
var (
	// ErrWalk indicates a per-entry failure while walking a tree
	ErrWalk = errors.New("walk error")

	// ErrHash indicates a content hashing failure
	ErrHash = errors.New("hash error")

	// ErrContentDiff indicates a content comparison failure
	ErrContentDiff = errors.New("content diff error")

	// ErrMemoryGuard indicates the memory guard suppressed a content diff
	ErrMemoryGuard = errors.New("memory guard exceeded")
)

// Cache errors - whole-entry, always degrading to a recompute
var (
	// ErrCacheMiss indicates no usable cache entry exists
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheCorrupt indicates a cache entry that could not be parsed
	ErrCacheCorrupt = errors.New("cache entry corrupt")
)

// Invocation errors - rejected before any tree walk begins
var (
	// ErrOptionConflict indicates a malformed option combination
	ErrOptionConflict = errors.New("conflicting options")

	// ErrNotFound indicates a compared root does not exist
	ErrNotFound = errors.New("root not found")

	// ErrNotDirectory indicates a compared root is not a directory
	ErrNotDirectory = errors.New("root is not a directory")

	// ErrSameRoot indicates both sides of a comparison resolve to one root
	ErrSameRoot = errors.New("from and to roots are identical")
)

// Configuration errors
var (
	// ErrConfigNotFound indicates no configuration file exists in the
	// search path
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates a configuration that failed validation
	ErrConfigInvalid = errors.New("invalid configuration")
)
