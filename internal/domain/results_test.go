package domain

import (
	"testing"
	"time"
)

func fileEntry(path string, size int64) *FsEntry {
	return &FsEntry{
		Path: path,
		Kind: KindRegular,
		Size: size,
	}
}

func moveRecords(from, to string, size int64) []FsDiffRecord {
	entry := fileEntry(from, size)
	moved := fileEntry(to, size)
	return []FsDiffRecord{
		{Path: from, Kind: ChangeMovedFrom, PairPath: to, OldEntry: entry},
		{Path: to, Kind: ChangeMovedTo, PairPath: from, OldEntry: entry, NewEntry: moved},
	}
}

func TestNewResults_Counts(t *testing.T) {
	records := []FsDiffRecord{
		{Path: "/a", Kind: ChangeAdded, NewEntry: fileEntry("/a", 100)},
		{Path: "/b", Kind: ChangeRemoved, OldEntry: fileEntry("/b", 40)},
		{
			Path:        "/c",
			Kind:        ChangeModified,
			OldEntry:    fileEntry("/c", 10),
			NewEntry:    fileEntry("/c", 30),
			Changes:     []MetaChange{{Type: MetaContent}},
			ContentDiff: &ContentDiff{Kind: ContentDiffUnified, Added: 1, Removed: 1},
		},
		{Path: "/d", Kind: ChangeTypeChanged, OldEntry: fileEntry("/d", 5), NewEntry: fileEntry("/d", 5)},
	}
	records = append(records, moveRecords("/old", "/new", 7)...)

	res := NewResults(records, "/from", "/to", time.Now(), WalkStats{Moves: 1})

	if res.Counts.Added != 1 || res.Counts.Removed != 1 || res.Counts.Modified != 1 {
		t.Errorf("counts = %+v", res.Counts)
	}
	if res.Counts.Moved != 2 {
		t.Errorf("Moved = %d, want 2 (both halves)", res.Counts.Moved)
	}
	if res.Counts.TypeChanged != 1 {
		t.Errorf("TypeChanged = %d, want 1", res.Counts.TypeChanged)
	}
	if res.Counts.WithDiff != 1 {
		t.Errorf("WithDiff = %d, want 1", res.Counts.WithDiff)
	}

	// added 100, removed -40, modified +20, type change 0, move pair 0
	if res.SizeDelta != 80 {
		t.Errorf("SizeDelta = %d, want 80", res.SizeDelta)
	}

	if res.Len() != 6 {
		t.Errorf("Len = %d, want 6", res.Len())
	}
}

func TestNewResults_MovePairDeltaCountedOnce(t *testing.T) {
	// A pure move contributes no net size change; only the destination
	// half carries the delta so a rename does not double-count.
	res := NewResults(moveRecords("/old", "/new", 128), "/from", "/to", time.Now(), WalkStats{})
	if res.SizeDelta != 0 {
		t.Errorf("SizeDelta = %d, want 0 for a pure move", res.SizeDelta)
	}
}

func TestResults_PathsAndByKind(t *testing.T) {
	records := []FsDiffRecord{
		{Path: "/a", Kind: ChangeAdded},
		{Path: "/b", Kind: ChangeRemoved},
		{Path: "/c", Kind: ChangeAdded},
	}
	res := NewResults(records, "/from", "/to", time.Now(), WalkStats{})

	paths := res.Paths()
	if len(paths) != 3 || paths[0] != "/a" || paths[2] != "/c" {
		t.Errorf("Paths = %v", paths)
	}

	added := res.ByKind(ChangeAdded)
	if len(added) != 2 {
		t.Errorf("ByKind(added) = %d records, want 2", len(added))
	}
	if len(res.ByKind(ChangeModified)) != 0 {
		t.Error("ByKind(modified) should be empty")
	}
}

func TestRecord_Helpers(t *testing.T) {
	rec := FsDiffRecord{
		Path:     "/etc/motd",
		Kind:     ChangeModified,
		OldEntry: fileEntry("/etc/motd", 10),
		NewEntry: fileEntry("/etc/motd", 25),
		Changes: []MetaChange{
			{Type: MetaContent},
			{Type: MetaTimestamps},
		},
	}

	if rec.SizeDelta() != 15 {
		t.Errorf("SizeDelta = %d, want 15", rec.SizeDelta())
	}
	if !rec.ContentChanged() {
		t.Error("ContentChanged should be true")
	}
	if !rec.MetadataChanged() {
		t.Error("MetadataChanged should be true")
	}
	if rec.Entry() != rec.NewEntry {
		t.Error("Entry should prefer the new entry")
	}

	removed := FsDiffRecord{Kind: ChangeRemoved, OldEntry: fileEntry("/gone", 8)}
	if removed.Entry() != removed.OldEntry {
		t.Error("Entry should fall back to the old entry")
	}
	if removed.SizeDelta() != -8 {
		t.Errorf("SizeDelta = %d, want -8", removed.SizeDelta())
	}
	if removed.ContentChanged() {
		t.Error("ContentChanged should be false without a content change")
	}
}

func TestChangeKind_Predicates(t *testing.T) {
	if !ChangeMovedFrom.IsMove() || !ChangeMovedTo.IsMove() {
		t.Error("move halves should report IsMove")
	}
	if ChangeModified.IsMove() {
		t.Error("modified is not a move")
	}
	if !ChangeAdded.IsValid() || ChangeKind("renamed").IsValid() {
		t.Error("IsValid misclassified a kind")
	}
}

func TestXattrsEqual(t *testing.T) {
	a := map[string][]byte{"user.origin": []byte("x"), "security.selinux": []byte("y")}
	b := map[string][]byte{"security.selinux": []byte("y"), "user.origin": []byte("x")}
	if !XattrsEqual(a, b) {
		t.Error("order must not matter")
	}

	b["user.origin"] = []byte("z")
	if XattrsEqual(a, b) {
		t.Error("differing values should not compare equal")
	}
	if XattrsEqual(a, map[string][]byte{"user.origin": []byte("x")}) {
		t.Error("differing sizes should not compare equal")
	}
	if !XattrsEqual(nil, map[string][]byte{}) {
		t.Error("nil and empty should compare equal")
	}
}
