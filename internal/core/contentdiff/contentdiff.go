package contentdiff

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"snapdiff/internal/domain"
	"snapdiff/internal/memory"
)

// binaryProbeSize is how much of a file is inspected for NUL bytes
const binaryProbeSize = 8192

// Differ produces content-level comparisons for changed files.
// Every failure degrades to an "unavailable" diff; the caller's
// classification of the record is never affected.
type Differ struct {
	guard        *memory.Guard
	maxSize      int64
	contextLines int
}

// New builds a differ honoring the comparison options
func New(guard *memory.Guard, opts domain.DiffOptions) *Differ {
	maxSize := opts.MaxContentDiffSize
	if maxSize <= 0 {
		maxSize = domain.DefaultMaxContentDiffSize
	}
	contextLines := opts.ContextLines
	if contextLines < 0 {
		contextLines = domain.DefaultContextLines
	}
	return &Differ{
		guard:        guard,
		maxSize:      maxSize,
		contextLines: contextLines,
	}
}

// File compares the content at oldPath and newPath, either of which
// may be empty to represent a missing side (added or removed files).
// relPath labels the diff headers.
func (d *Differ) File(ctx context.Context, relPath, oldPath, newPath string) *domain.ContentDiff {
	select {
	case <-ctx.Done():
		return unavailable(ctx.Err().Error())
	default:
	}

	oldSize, err := sideSize(oldPath)
	if err != nil {
		return unavailable(err.Error())
	}
	newSize, err := sideSize(newPath)
	if err != nil {
		return unavailable(err.Error())
	}

	if oldSize > d.maxSize || newSize > d.maxSize {
		return unavailable(fmt.Sprintf("content exceeds maximum diff size (%d bytes)", d.maxSize))
	}

	// both sides are held in memory while diffing
	if err := d.guard.Allow(uint64(oldSize + newSize)); err != nil {
		return unavailable(err.Error())
	}

	oldContent, err := readSide(oldPath)
	if err != nil {
		return unavailable(err.Error())
	}
	newContent, err := readSide(newPath)
	if err != nil {
		return unavailable(err.Error())
	}

	if isBinary(oldContent) || isBinary(newContent) {
		return &domain.ContentDiff{
			Kind: domain.ContentDiffBinary,
			Summary: fmt.Sprintf("binary content differs (%d -> %d bytes)",
				oldSize, newSize),
		}
	}

	return d.unified(relPath, oldPath, newPath, oldContent, newContent)
}

// unified renders a git-style unified diff between two text bodies
func (d *Differ) unified(relPath, oldPath, newPath string, oldContent, newContent []byte) *domain.ContentDiff {
	fromFile := "a" + relPath
	toFile := "b" + relPath
	if oldPath == "" {
		fromFile = "/dev/null"
	}
	if newPath == "" {
		toFile = "/dev/null"
	}

	body, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(oldContent)),
		B:        difflib.SplitLines(string(newContent)),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  d.contextLines,
	})
	if err != nil {
		return unavailable(fmt.Sprintf("%v: %v", domain.ErrContentDiff, err))
	}

	added, removed := countChanges(body)
	return &domain.ContentDiff{
		Kind:    domain.ContentDiffUnified,
		Body:    body,
		Added:   added,
		Removed: removed,
		Summary: fmt.Sprintf("+%d -%d", added, removed),
	}
}

// countChanges counts changed lines, skipping the file header lines
func countChanges(body string) (added, removed int) {
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

// sideSize returns the size of one side; a missing side is empty
func sideSize(path string) (int64, error) {
	if path == "" {
		return 0, nil
	}
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// readSide loads one side's content; a missing side is empty
func readSide(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// isBinary reports whether content looks binary (NUL in the head)
func isBinary(content []byte) bool {
	probe := content
	if len(probe) > binaryProbeSize {
		probe = probe[:binaryProbeSize]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

func unavailable(reason string) *domain.ContentDiff {
	return &domain.ContentDiff{
		Kind:   domain.ContentDiffUnavailable,
		Reason: reason,
	}
}
