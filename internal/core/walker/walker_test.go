package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"snapdiff/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "etc", "fstab"), "UUID=abc / ext4 defaults 0 0\n")
	writeFile(t, filepath.Join(root, "etc", "hosts"), "127.0.0.1 localhost\n")
	writeFile(t, filepath.Join(root, "var", "log", "messages"), "boot\n")
	if err := os.Symlink("fstab", filepath.Join(root, "etc", "fstab.link")); err != nil {
		t.Fatal(err)
	}
	return root
}

func walk(t *testing.T, root string, opts domain.DiffOptions) *Result {
	t.Helper()
	w, err := New(root, opts, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	result, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return result
}

func TestWalk_CapturesTree(t *testing.T) {
	root := buildTree(t)
	result := walk(t, root, domain.DefaultOptions())

	for _, path := range []string{"/etc", "/etc/fstab", "/etc/hosts", "/etc/fstab.link", "/var/log/messages"} {
		if _, ok := result.Entries[path]; !ok {
			t.Errorf("missing entry %s", path)
		}
	}
	if _, ok := result.Entries["/"]; ok {
		t.Error("root itself must not be an entry")
	}

	fstab := result.Entries["/etc/fstab"]
	if fstab.Kind != domain.KindRegular {
		t.Errorf("fstab kind = %v, want regular", fstab.Kind)
	}
	if fstab.Size == 0 {
		t.Error("fstab size not captured")
	}
	if fstab.ContentHash != "" {
		t.Error("walk must not hash content")
	}

	dir := result.Entries["/etc"]
	if dir.Kind != domain.KindDirectory {
		t.Errorf("/etc kind = %v, want directory", dir.Kind)
	}
	if dir.Size != 0 {
		t.Errorf("directory size = %d, want 0", dir.Size)
	}
}

func TestWalk_SymlinkNotFollowed(t *testing.T) {
	root := buildTree(t)
	result := walk(t, root, domain.DefaultOptions())

	link := result.Entries["/etc/fstab.link"]
	if link == nil {
		t.Fatal("missing symlink entry")
	}
	if link.Kind != domain.KindSymlink {
		t.Fatalf("link kind = %v, want symlink", link.Kind)
	}
	if link.SymlinkTarget != "fstab" {
		t.Errorf("link target = %q, want fstab", link.SymlinkTarget)
	}
	if link.BrokenSymlink {
		t.Error("healthy link marked broken")
	}
}

func TestWalk_BrokenSymlink(t *testing.T) {
	root := t.TempDir()
	if err := os.Symlink("missing-target", filepath.Join(root, "dangling")); err != nil {
		t.Fatal(err)
	}

	result := walk(t, root, domain.DefaultOptions())
	link := result.Entries["/dangling"]
	if link == nil {
		t.Fatal("missing dangling entry")
	}
	if !link.BrokenSymlink {
		t.Error("dangling link not marked broken")
	}
}

func TestWalk_ExcludePatterns(t *testing.T) {
	root := buildTree(t)
	opts := domain.DefaultOptions()
	opts.ExcludePatterns = []string{"/var/*"}

	result := walk(t, root, opts)
	if _, ok := result.Entries["/var/log/messages"]; ok {
		t.Error("excluded path still present")
	}
	if _, ok := result.Entries["/etc/fstab"]; !ok {
		t.Error("non-excluded path missing")
	}
	if result.Excluded == 0 {
		t.Error("excluded count not incremented")
	}
}

func TestWalk_ExcludedUnreadablePathOmitted(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission errors cannot be simulated as root")
	}

	root := buildTree(t)
	locked := filepath.Join(root, "var", "private")
	if err := os.MkdirAll(locked, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(locked, "secret"), "x\n")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	opts := domain.DefaultOptions()
	opts.ExcludePatterns = []string{"/var/private"}

	result := walk(t, root, opts)
	// an unreadable path that matches an exclude must not surface as a
	// degraded entry
	if _, ok := result.Entries["/var/private"]; ok {
		t.Error("excluded unreadable path still present")
	}
	if result.Excluded == 0 {
		t.Error("excluded count not incremented")
	}
}

func TestWalk_ExcludeCrossesSeparators(t *testing.T) {
	root := buildTree(t)
	opts := domain.DefaultOptions()
	opts.ExcludePatterns = []string{"*.link"}

	result := walk(t, root, opts)
	if _, ok := result.Entries["/etc/fstab.link"]; ok {
		t.Error("*.link did not match a nested path")
	}
}

func TestWalk_IncludePatterns(t *testing.T) {
	root := buildTree(t)
	opts := domain.DefaultOptions()
	opts.IncludePatterns = []string{"/etc/*"}

	result := walk(t, root, opts)
	if _, ok := result.Entries["/etc/fstab"]; !ok {
		t.Error("included path missing")
	}
	if _, ok := result.Entries["/var/log/messages"]; ok {
		t.Error("non-included file still present")
	}
	// directories survive include filtering so the tree stays connected
	if _, ok := result.Entries["/var"]; !ok {
		t.Error("directory dropped by include filter")
	}
}

func TestWalk_FromPath(t *testing.T) {
	root := buildTree(t)
	opts := domain.DefaultOptions()
	opts.FromPath = "/etc"

	result := walk(t, root, opts)
	if _, ok := result.Entries["/etc/fstab"]; !ok {
		t.Error("subtree entry missing")
	}
	if _, ok := result.Entries["/var/log/messages"]; ok {
		t.Error("entry outside subtree present")
	}
	// keys stay rooted at the tree root, not the subtree
	if _, ok := result.Entries["/fstab"]; ok {
		t.Error("keys were re-rooted at the subtree")
	}
}

func TestWalk_FromPathMissingIsEmpty(t *testing.T) {
	root := buildTree(t)
	opts := domain.DefaultOptions()
	opts.FromPath = "/no/such/subtree"

	result := walk(t, root, opts)
	if len(result.Entries) != 0 {
		t.Errorf("expected empty snapshot, got %d entries", len(result.Entries))
	}
}

func TestNew_RejectsMissingRoot(t *testing.T) {
	_, err := New("/does/not/exist", domain.DefaultOptions(), nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("New() error = %v, want ErrNotFound", err)
	}
}

func TestNew_RejectsFileRoot(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "file")
	writeFile(t, path, "x")

	_, err := New(path, domain.DefaultOptions(), nil)
	if !errors.Is(err, domain.ErrNotDirectory) {
		t.Errorf("New() error = %v, want ErrNotDirectory", err)
	}
}

func TestNew_RejectsBadPattern(t *testing.T) {
	opts := domain.DefaultOptions()
	opts.ExcludePatterns = []string{"[unclosed"}

	_, err := New(t.TempDir(), opts, nil)
	if !errors.Is(err, domain.ErrOptionConflict) {
		t.Errorf("New() error = %v, want ErrOptionConflict", err)
	}
}

func TestWalk_Cancellation(t *testing.T) {
	root := buildTree(t)
	w, err := New(root, domain.DefaultOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = w.Walk(ctx)
	if err != context.Canceled {
		t.Errorf("Walk() error = %v, want context.Canceled", err)
	}
}

func TestWalk_OwnershipCaptured(t *testing.T) {
	root := buildTree(t)
	result := walk(t, root, domain.DefaultOptions())

	entry := result.Entries["/etc/fstab"]
	if entry.UID != uint32(os.Getuid()) {
		t.Errorf("uid = %d, want %d", entry.UID, os.Getuid())
	}
	if entry.GID != uint32(os.Getgid()) {
		t.Errorf("gid = %d, want %d", entry.GID, os.Getgid())
	}
}
