package domain

// ChangeKind classifies a single reported change
type ChangeKind string

const (
	ChangeAdded       ChangeKind = "added"
	ChangeRemoved     ChangeKind = "removed"
	ChangeModified    ChangeKind = "modified"
	ChangeMovedFrom   ChangeKind = "moved_from"
	ChangeMovedTo     ChangeKind = "moved_to"
	ChangeTypeChanged ChangeKind = "type_changed"
	ChangeUnchanged   ChangeKind = "unchanged"
)

// IsValid checks if the change kind is a known value
func (k ChangeKind) IsValid() bool {
	switch k {
	case ChangeAdded, ChangeRemoved, ChangeModified, ChangeMovedFrom,
		ChangeMovedTo, ChangeTypeChanged, ChangeUnchanged:
		return true
	}
	return false
}

// IsMove returns true for either half of a move pair
func (k ChangeKind) IsMove() bool {
	return k == ChangeMovedFrom || k == ChangeMovedTo
}

// MetaChangeType identifies which attribute of an entry changed
type MetaChangeType string

const (
	MetaContent       MetaChangeType = "content"
	MetaPermissions   MetaChangeType = "permissions"
	MetaOwnership     MetaChangeType = "ownership"
	MetaTimestamps    MetaChangeType = "timestamps"
	MetaXattrs        MetaChangeType = "extended_attributes"
	MetaSymlinkTarget MetaChangeType = "symlink_target"
)

// MetaChange records one attribute delta between two entries
type MetaChange struct {
	Type        MetaChangeType `json:"change_type"`
	OldValue    string         `json:"old_value"`
	NewValue    string         `json:"new_value"`
	Description string         `json:"description"`
}

// ContentDiffKind describes the form a content comparison took
type ContentDiffKind string

const (
	// ContentDiffUnified is a textual unified diff
	ContentDiffUnified ContentDiffKind = "unified"
	// ContentDiffBinary marks binary content that changed without a textual diff
	ContentDiffBinary ContentDiffKind = "binary"
	// ContentDiffUnavailable marks a comparison skipped due to an error
	// or the memory guard; the record's classification is unaffected
	ContentDiffUnavailable ContentDiffKind = "unavailable"
)

// ContentDiff is the content-level comparison of two entries
type ContentDiff struct {
	Kind ContentDiffKind `json:"kind"`

	// Body holds the unified diff text for ContentDiffUnified
	Body string `json:"body,omitempty"`

	// Added and Removed are line counts for ContentDiffUnified
	Added   int `json:"added,omitempty"`
	Removed int `json:"removed,omitempty"`

	// Summary is a one-line human readable description
	Summary string `json:"summary,omitempty"`

	// Reason explains why the diff is unavailable
	Reason string `json:"reason,omitempty"`
}

// FsDiffRecord represents one reported filesystem change
type FsDiffRecord struct {
	// Path is the changed path, relative to the compared roots
	Path string `json:"path"`

	// Kind is the change classification
	Kind ChangeKind `json:"kind"`

	// PairPath is the other half of a move: the destination for
	// ChangeMovedFrom and the origin for ChangeMovedTo
	PairPath string `json:"pair_path,omitempty"`

	// OldEntry and NewEntry reference the compared entries as applicable
	OldEntry *FsEntry `json:"old_entry,omitempty"`
	NewEntry *FsEntry `json:"new_entry,omitempty"`

	// Changes summarizes which attributes differ
	Changes []MetaChange `json:"changes,omitempty"`

	// ContentDiff is the optional content-level comparison
	ContentDiff *ContentDiff `json:"content_diff,omitempty"`

	// FileType and FileTypeDesc describe the detected file type
	FileType     string `json:"file_type"`
	FileTypeDesc string `json:"file_type_desc"`
}

// Entry returns the most relevant entry for type and size reporting
func (r *FsDiffRecord) Entry() *FsEntry {
	if r.NewEntry != nil {
		return r.NewEntry
	}
	return r.OldEntry
}

// SizeOld returns the original size, or 0 when there is no old entry
func (r *FsDiffRecord) SizeOld() int64 {
	if r.OldEntry == nil {
		return 0
	}
	return r.OldEntry.Size
}

// SizeNew returns the updated size, or 0 when there is no new entry
func (r *FsDiffRecord) SizeNew() int64 {
	if r.NewEntry == nil {
		return 0
	}
	return r.NewEntry.Size
}

// SizeDelta returns the size change contributed by this record
func (r *FsDiffRecord) SizeDelta() int64 {
	return r.SizeNew() - r.SizeOld()
}

// ContentChanged reports whether a content attribute delta was detected
func (r *FsDiffRecord) ContentChanged() bool {
	for _, chg := range r.Changes {
		if chg.Type == MetaContent {
			return true
		}
	}
	return false
}

// MetadataChanged reports whether any non-content delta was detected
func (r *FsDiffRecord) MetadataChanged() bool {
	for _, chg := range r.Changes {
		if chg.Type != MetaContent {
			return true
		}
	}
	return false
}
