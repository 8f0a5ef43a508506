package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultStaleTimeout is the duration after which a lock held by an
	// unreachable host is considered stale
	DefaultStaleTimeout = 30 * time.Minute
)

// LockInfo contains metadata about the lock holder
type LockInfo struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartTime time.Time `json:"start_time"`
	Scope     string    `json:"scope,omitempty"`
}

// FileLock is a file-based lock preventing concurrent watchers of the
// same root pair. The scope string identifies what is being watched;
// locks with different scopes never conflict.
type FileLock struct {
	lockPath     string
	scope        string
	staleTimeout time.Duration
	info         *LockInfo
}

// NewFileLock creates a lock for the given scope under lockDir
func NewFileLock(lockDir, scope string) (*FileLock, error) {
	if lockDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config dir: %w", err)
		}
		lockDir = filepath.Join(configDir, "snapdiff")
	}

	// Ensure lock directory exists
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	name := fmt.Sprintf("watch-%016x.lock", xxhash.Sum64String(scope))

	return &FileLock{
		lockPath:     filepath.Join(lockDir, name),
		scope:        scope,
		staleTimeout: DefaultStaleTimeout,
	}, nil
}

// SetStaleTimeout sets the duration after which a lock is considered stale
func (l *FileLock) SetStaleTimeout(d time.Duration) {
	l.staleTimeout = d
}

// Path returns the lock file location
func (l *FileLock) Path() string {
	return l.lockPath
}

// Acquire attempts to acquire the lock.
// Returns a LockError if the lock is held by another live process.
func (l *FileLock) Acquire() error {
	// Re-acquisition by the holding instance is a no-op
	if l.info != nil {
		existingInfo, err := l.readLockInfo()
		if err == nil && l.isHeldByThisInstance(existingInfo) {
			return nil
		}
	}

	// Check for existing lock
	existingInfo, err := l.readLockInfo()
	if err == nil {
		if l.isStale(existingInfo) {
			// Remove stale lock
			if err := os.Remove(l.lockPath); err != nil {
				return fmt.Errorf("failed to remove stale lock: %w", err)
			}
		} else {
			return &LockError{
				Holder: existingInfo,
				Reason: "lock is held by another process",
			}
		}
	}

	hostname, _ := os.Hostname()
	info := &LockInfo{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartTime: time.Now(),
		Scope:     l.scope,
	}

	// Create the lock file atomically using O_CREATE|O_EXCL
	file, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			// Another process acquired the lock between our check and create
			existingInfo, readErr := l.readLockInfo()
			if readErr != nil {
				return fmt.Errorf("lock acquisition race condition: %w", err)
			}
			return &LockError{
				Holder: existingInfo,
				Reason: "lock acquired by another process during acquisition",
			}
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(info); err != nil {
		os.Remove(l.lockPath)
		return fmt.Errorf("failed to write lock info: %w", err)
	}

	l.info = info
	return nil
}

// Release releases the lock
func (l *FileLock) Release() error {
	if l.info == nil {
		return nil // Not holding lock
	}

	// Verify we still own the lock before removing
	existingInfo, err := l.readLockInfo()
	if err != nil {
		l.info = nil
		return nil // Lock file doesn't exist, consider it released
	}

	if !l.isHeldByThisInstance(existingInfo) {
		l.info = nil
		return fmt.Errorf("lock was stolen by another process")
	}

	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	l.info = nil
	return nil
}

// IsLocked checks if a live lock is currently held
func (l *FileLock) IsLocked() bool {
	info, err := l.readLockInfo()
	if err != nil {
		return false
	}
	return !l.isStale(info)
}

// GetHolder returns information about the current lock holder
func (l *FileLock) GetHolder() (*LockInfo, error) {
	info, err := l.readLockInfo()
	if err != nil {
		return nil, err
	}
	if l.isStale(info) {
		return nil, fmt.Errorf("lock is stale")
	}
	return info, nil
}

// ForceRelease forcibly removes the lock file.
// Use with caution - only when certain the lock holder has crashed.
func (l *FileLock) ForceRelease() error {
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to force remove lock: %w", err)
	}
	l.info = nil
	return nil
}

// readLockInfo reads the lock information from file
func (l *FileLock) readLockInfo() (*LockInfo, error) {
	data, err := os.ReadFile(l.lockPath)
	if err != nil {
		return nil, err
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("invalid lock file format: %w", err)
	}

	return &info, nil
}

// isStale checks if a lock is stale.
// A lock is only stale when its process is dead; the timeout applies
// solely to locks taken on another host where liveness cannot be checked.
func (l *FileLock) isStale(info *LockInfo) bool {
	hostname, _ := os.Hostname()

	// Same host: check if process is still running
	if info.Hostname == hostname {
		return !processExists(info.PID)
	}

	// Different host: use the timeout as a conservative fallback
	return time.Since(info.StartTime) > l.staleTimeout
}

// isHeldByCurrentProcess checks if the lock is held by the current process
func (l *FileLock) isHeldByCurrentProcess(info *LockInfo) bool {
	hostname, _ := os.Hostname()
	return info.PID == os.Getpid() && info.Hostname == hostname
}

// isHeldByThisInstance checks if the lock is held by this specific FileLock instance
func (l *FileLock) isHeldByThisInstance(info *LockInfo) bool {
	if l.info == nil {
		return false
	}
	return l.isHeldByCurrentProcess(info) &&
		l.info.StartTime.Equal(info.StartTime) &&
		l.info.Scope == info.Scope
}

// LockError represents an error when the lock cannot be acquired
type LockError struct {
	Holder *LockInfo
	Reason string
}

func (e *LockError) Error() string {
	if e.Holder != nil {
		return fmt.Sprintf("cannot acquire lock: %s (held by PID %d on %s since %s, scope: %s)",
			e.Reason,
			e.Holder.PID,
			e.Holder.Hostname,
			e.Holder.StartTime.Format(time.RFC3339),
			e.Holder.Scope,
		)
	}
	return fmt.Sprintf("cannot acquire lock: %s", e.Reason)
}

// IsLockError checks if an error is a LockError
func IsLockError(err error) bool {
	_, ok := err.(*LockError)
	return ok
}
