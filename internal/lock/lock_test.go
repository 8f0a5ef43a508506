package lock

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"snapdiff/internal/testutil"
)

func newTestLock(t *testing.T, scope string) *FileLock {
	t.Helper()

	l, err := NewFileLock(t.TempDir(), scope)
	if err != nil {
		t.Fatalf("NewFileLock failed: %v", err)
	}
	return l
}

func TestFileLock_AcquireRelease(t *testing.T) {
	l := newTestLock(t, "/from:/to")

	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if !l.IsLocked() {
		t.Error("lock should be held after Acquire")
	}

	holder, err := l.GetHolder()
	if err != nil {
		t.Fatalf("GetHolder failed: %v", err)
	}
	if holder.PID != os.Getpid() {
		t.Errorf("holder PID = %d, want %d", holder.PID, os.Getpid())
	}
	if holder.Scope != "/from:/to" {
		t.Errorf("holder scope = %q, want %q", holder.Scope, "/from:/to")
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if l.IsLocked() {
		t.Error("lock should not be held after Release")
	}
}

func TestFileLock_ReacquireByHolder(t *testing.T) {
	l := newTestLock(t, "scope")

	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer l.Release()

	// Re-acquisition by the same instance is a no-op
	if err := l.Acquire(); err != nil {
		t.Errorf("re-acquire by holder failed: %v", err)
	}
}

func TestFileLock_ConflictSameScope(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileLock(dir, "scope")
	if err != nil {
		t.Fatalf("NewFileLock failed: %v", err)
	}
	second, err := NewFileLock(dir, "scope")
	if err != nil {
		t.Fatalf("NewFileLock failed: %v", err)
	}

	if err := first.Acquire(); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	err = second.Acquire()
	if err == nil {
		second.Release()
		t.Fatal("second Acquire should fail while first holds the lock")
	}
	if !IsLockError(err) {
		t.Errorf("error = %v, want LockError", err)
	}
}

func TestFileLock_DifferentScopesDoNotConflict(t *testing.T) {
	dir := t.TempDir()

	a, err := NewFileLock(dir, "/etc:/srv")
	if err != nil {
		t.Fatalf("NewFileLock failed: %v", err)
	}
	b, err := NewFileLock(dir, testutil.RandomString(16))
	if err != nil {
		t.Fatalf("NewFileLock failed: %v", err)
	}

	if a.Path() == b.Path() {
		t.Fatal("different scopes should map to different lock files")
	}

	if err := a.Acquire(); err != nil {
		t.Fatalf("Acquire a failed: %v", err)
	}
	defer a.Release()

	if err := b.Acquire(); err != nil {
		t.Errorf("Acquire b failed: %v", err)
	}
	defer b.Release()
}

func TestFileLock_StaleDeadProcess(t *testing.T) {
	l := newTestLock(t, "scope")

	hostname, _ := os.Hostname()
	stale := LockInfo{
		PID:       999999999, // No such process
		Hostname:  hostname,
		StartTime: time.Now().Add(-time.Hour),
		Scope:     "scope",
	}
	data, _ := json.Marshal(stale)
	if err := os.WriteFile(l.Path(), data, 0644); err != nil {
		t.Fatal(err)
	}

	if l.IsLocked() {
		t.Error("lock from a dead process should be stale")
	}

	// Acquire removes the stale lock and takes over
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire over stale lock failed: %v", err)
	}
	defer l.Release()
}

func TestFileLock_RemoteHostTimeout(t *testing.T) {
	l := newTestLock(t, "scope")
	l.SetStaleTimeout(time.Minute)

	remote := LockInfo{
		PID:       1,
		Hostname:  "some-other-host",
		StartTime: time.Now().Add(-30 * time.Second),
		Scope:     "scope",
	}
	data, _ := json.Marshal(remote)
	if err := os.WriteFile(l.Path(), data, 0644); err != nil {
		t.Fatal(err)
	}

	// Within the timeout the remote lock is honored
	if err := l.Acquire(); err == nil {
		l.Release()
		t.Fatal("Acquire should fail while remote lock is fresh")
	}

	remote.StartTime = time.Now().Add(-2 * time.Minute)
	data, _ = json.Marshal(remote)
	if err := os.WriteFile(l.Path(), data, 0644); err != nil {
		t.Fatal(err)
	}

	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire over expired remote lock failed: %v", err)
	}
	defer l.Release()
}

func TestFileLock_ForceRelease(t *testing.T) {
	l := newTestLock(t, "scope")

	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if err := l.ForceRelease(); err != nil {
		t.Fatalf("ForceRelease failed: %v", err)
	}

	if l.IsLocked() {
		t.Error("lock should not be held after ForceRelease")
	}
}

func TestFileLock_ReleaseWithoutAcquire(t *testing.T) {
	l := newTestLock(t, "scope")

	if err := l.Release(); err != nil {
		t.Errorf("Release without Acquire should be a no-op, got %v", err)
	}
}

func TestFileLock_InvalidLockFile(t *testing.T) {
	l := newTestLock(t, "scope")

	if err := os.WriteFile(l.Path(), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if l.IsLocked() {
		t.Error("corrupt lock file should not report as locked")
	}
	if _, err := l.GetHolder(); err == nil {
		t.Error("GetHolder should fail on a corrupt lock file")
	}
}

func TestIsLockError(t *testing.T) {
	if !IsLockError(&LockError{Reason: "held"}) {
		t.Error("IsLockError should recognize LockError")
	}
	if IsLockError(os.ErrNotExist) {
		t.Error("IsLockError should reject other errors")
	}
}
