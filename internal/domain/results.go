package domain

import "time"

// WalkStats carries per-comparison accounting from the walk and
// move-detection phases
type WalkStats struct {
	ScannedFrom int `json:"scanned_from"`
	ScannedTo   int `json:"scanned_to"`
	Excluded    int `json:"excluded"`
	Moves       int `json:"moves"`
}

// Summary holds the per-kind record counts for a result set
type Summary struct {
	Added       int `json:"added"`
	Removed     int `json:"removed"`
	Modified    int `json:"modified"`
	Moved       int `json:"moved"`
	TypeChanged int `json:"type_changed"`
	WithDiff    int `json:"with_diff"`
}

// FsDiffResults is the aggregate outcome of one tree comparison.
// It is immutable once produced and is the sole unit stored in and
// retrieved from the diff cache.
type FsDiffResults struct {
	// Records is the ordered collection of reported changes
	Records []FsDiffRecord `json:"records"`

	// FromRoot and ToRoot identify the compared roots
	FromRoot string `json:"from_root"`
	ToRoot   string `json:"to_root"`

	// Timestamp is the computation time
	Timestamp time.Time `json:"timestamp"`

	// Counts summarizes records per change kind
	Counts Summary `json:"counts"`

	// SizeDelta is the total byte delta across all records
	SizeDelta int64 `json:"size_delta"`

	// Stats carries walk and move-detection accounting
	Stats WalkStats `json:"stats"`
}

// NewResults assembles an FsDiffResults from classified records,
// computing the summary counts and total size delta.
func NewResults(records []FsDiffRecord, fromRoot, toRoot string, ts time.Time, stats WalkStats) *FsDiffResults {
	res := &FsDiffResults{
		Records:   records,
		FromRoot:  fromRoot,
		ToRoot:    toRoot,
		Timestamp: ts,
		Stats:     stats,
	}
	for i := range records {
		rec := &records[i]
		switch rec.Kind {
		case ChangeAdded:
			res.Counts.Added++
		case ChangeRemoved:
			res.Counts.Removed++
		case ChangeModified:
			res.Counts.Modified++
		case ChangeMovedFrom, ChangeMovedTo:
			res.Counts.Moved++
		case ChangeTypeChanged:
			res.Counts.TypeChanged++
		}
		if rec.ContentDiff != nil && rec.ContentDiff.Kind != ContentDiffUnavailable {
			res.Counts.WithDiff++
		}
		// Count each move pair's delta once, on the destination side
		if rec.Kind != ChangeMovedFrom {
			res.SizeDelta += rec.SizeDelta()
		}
	}
	return res
}

// Len returns the number of change records
func (r *FsDiffResults) Len() int {
	return len(r.Records)
}

// Paths returns the changed paths in record order
func (r *FsDiffResults) Paths() []string {
	paths := make([]string, 0, len(r.Records))
	for i := range r.Records {
		paths = append(paths, r.Records[i].Path)
	}
	return paths
}

// ByKind returns the records matching the given change kind
func (r *FsDiffResults) ByKind(kind ChangeKind) []FsDiffRecord {
	var out []FsDiffRecord
	for i := range r.Records {
		if r.Records[i].Kind == kind {
			out = append(out, r.Records[i])
		}
	}
	return out
}
