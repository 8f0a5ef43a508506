package engine

import (
	"context"
	"sort"
	"strings"

	"snapdiff/internal/domain"
	"snapdiff/internal/progress"
)

// detectMoves rewrites matching added/removed file pairs as move pairs.
// A pair matches on identical content hash; candidates are prefiltered
// by size so hashing stays lazy. Returns the updated records and the
// number of detected moves.
func (e *Engine) detectMoves(ctx context.Context, records []domain.FsDiffRecord) ([]domain.FsDiffRecord, int, error) {
	var removed []*domain.FsDiffRecord
	addedBySize := make(map[int64][]*domain.FsDiffRecord)

	for i := range records {
		rec := &records[i]
		switch rec.Kind {
		case domain.ChangeRemoved:
			if isMoveCandidate(rec.OldEntry) {
				removed = append(removed, rec)
			}
		case domain.ChangeAdded:
			if isMoveCandidate(rec.NewEntry) {
				addedBySize[rec.NewEntry.Size] = append(addedBySize[rec.NewEntry.Size], rec)
			}
		}
	}

	if len(removed) == 0 || len(addedBySize) == 0 {
		return records, 0, nil
	}

	e.reporter.StartPhase(progress.PhaseMoves, len(removed))
	defer e.reporter.EndPhase(progress.PhaseMoves)

	// deterministic pairing: sources in path order, each dest used once
	sort.Slice(removed, func(i, j int) bool { return removed[i].Path < removed[j].Path })

	type pair struct {
		from *domain.FsDiffRecord
		to   *domain.FsDiffRecord
	}
	var pairs []pair
	used := make(map[string]struct{})

	for _, src := range removed {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}
		e.reporter.Step(src.Path)

		candidates := addedBySize[src.OldEntry.Size]
		if len(candidates) == 0 {
			continue
		}

		srcHash, err := e.hashEntry(ctx, src.OldEntry)
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			continue
		}

		var matches []*domain.FsDiffRecord
		for _, dst := range candidates {
			if _, taken := used[dst.Path]; taken {
				continue
			}
			dstHash, err := e.hashEntry(ctx, dst.NewEntry)
			if err != nil {
				if ctx.Err() != nil {
					return nil, 0, ctx.Err()
				}
				continue
			}
			if dstHash == srcHash {
				matches = append(matches, dst)
			}
		}
		if len(matches) == 0 {
			continue
		}

		best := pickDestination(src.Path, matches)
		used[best.Path] = struct{}{}
		pairs = append(pairs, pair{from: src, to: best})
	}

	if len(pairs) == 0 {
		return records, 0, nil
	}

	paired := make(map[string]struct{}, len(pairs)*2)
	for _, p := range pairs {
		paired[p.from.Path] = struct{}{}
		paired[p.to.Path] = struct{}{}
	}

	result := make([]domain.FsDiffRecord, 0, len(records))
	for i := range records {
		rec := records[i]
		if rec.Kind == domain.ChangeRemoved || rec.Kind == domain.ChangeAdded {
			if _, ok := paired[rec.Path]; ok {
				continue
			}
		}
		result = append(result, rec)
	}

	for _, p := range pairs {
		movedFrom := e.newRecord(p.from.Path, domain.ChangeMovedFrom, p.from.OldEntry, nil, nil)
		movedFrom.PairPath = p.to.Path
		movedTo := e.newRecord(p.to.Path, domain.ChangeMovedTo, p.from.OldEntry, p.to.NewEntry, nil)
		movedTo.PairPath = p.from.Path
		result = append(result, movedFrom, movedTo)
	}

	return result, len(pairs), nil
}

// isMoveCandidate limits move detection to hashable regular files.
// Empty files are skipped: all of them share one hash.
func isMoveCandidate(entry *domain.FsEntry) bool {
	return entry != nil && !entry.Unavailable && entry.IsFile() && entry.Size > 0
}

// pickDestination selects the destination sharing the longest common
// parent with the source; ties go to the lexicographically smallest
// path so pairing is stable across runs
func pickDestination(srcPath string, matches []*domain.FsDiffRecord) *domain.FsDiffRecord {
	best := matches[0]
	bestScore := commonParentDepth(srcPath, best.Path)
	for _, m := range matches[1:] {
		score := commonParentDepth(srcPath, m.Path)
		if score > bestScore || (score == bestScore && m.Path < best.Path) {
			best = m
			bestScore = score
		}
	}
	return best
}

// commonParentDepth counts the shared leading directory components
func commonParentDepth(a, b string) int {
	aParts := strings.Split(parentDir(a), "/")
	bParts := strings.Split(parentDir(b), "/")
	depth := 0
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if aParts[i] != bParts[i] {
			break
		}
		depth++
	}
	return depth
}

func parentDir(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}
