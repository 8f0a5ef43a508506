package engine

import (
	"context"
	"fmt"

	"snapdiff/internal/domain"
)

// compare inspects a path present in both trees and returns its record
// together with whether anything reportable changed
func (e *Engine) compare(ctx context.Context, path string, oldEntry, newEntry *domain.FsEntry) (domain.FsDiffRecord, bool, error) {
	// degraded entries cannot be compared attribute by attribute
	if oldEntry.Unavailable || newEntry.Unavailable {
		rec := e.newRecord(path, domain.ChangeModified, oldEntry, newEntry, []domain.MetaChange{{
			Type:        domain.MetaContent,
			Description: "entry metadata unavailable",
		}})
		return rec, true, nil
	}

	// a node that changed type short-circuits attribute comparison
	if oldEntry.Kind != newEntry.Kind {
		rec := e.newRecord(path, domain.ChangeTypeChanged, oldEntry, newEntry, []domain.MetaChange{{
			Type:        domain.MetaContent,
			OldValue:    oldEntry.Kind.String(),
			NewValue:    newEntry.Kind.String(),
			Description: fmt.Sprintf("%s became %s", oldEntry.Kind.Description(), newEntry.Kind.Description()),
		}})
		return rec, true, nil
	}

	var changes []domain.MetaChange

	contentChanged, err := e.contentChanged(ctx, oldEntry, newEntry)
	if err != nil {
		return domain.FsDiffRecord{}, false, err
	}
	if contentChanged {
		changes = append(changes, domain.MetaChange{
			Type:        domain.MetaContent,
			OldValue:    fmt.Sprintf("%d", oldEntry.Size),
			NewValue:    fmt.Sprintf("%d", newEntry.Size),
			Description: "content differs",
		})
	}

	if oldEntry.IsSymlink() && oldEntry.SymlinkTarget != newEntry.SymlinkTarget {
		changes = append(changes, domain.MetaChange{
			Type:        domain.MetaSymlinkTarget,
			OldValue:    oldEntry.SymlinkTarget,
			NewValue:    newEntry.SymlinkTarget,
			Description: "symlink target differs",
		})
	}

	if e.opts.ContentOnly {
		if len(changes) == 0 {
			return domain.FsDiffRecord{}, false, nil
		}
		rec := e.newRecord(path, domain.ChangeModified, oldEntry, newEntry, changes)
		return rec, true, nil
	}

	if !e.opts.IgnorePermissions && oldEntry.Mode.Perm() != newEntry.Mode.Perm() {
		changes = append(changes, domain.MetaChange{
			Type:        domain.MetaPermissions,
			OldValue:    fmt.Sprintf("%04o", oldEntry.Mode.Perm()),
			NewValue:    fmt.Sprintf("%04o", newEntry.Mode.Perm()),
			Description: "permissions differ",
		})
	}

	if !e.opts.IgnoreOwnership && (oldEntry.UID != newEntry.UID || oldEntry.GID != newEntry.GID) {
		changes = append(changes, domain.MetaChange{
			Type:        domain.MetaOwnership,
			OldValue:    oldEntry.Owner(),
			NewValue:    newEntry.Owner(),
			Description: "ownership differs",
		})
	}

	if !e.opts.IgnoreTimestamps && !oldEntry.ModTime.Equal(newEntry.ModTime) {
		changes = append(changes, domain.MetaChange{
			Type:        domain.MetaTimestamps,
			OldValue:    oldEntry.ModTime.UTC().Format("2006-01-02T15:04:05.999999999Z"),
			NewValue:    newEntry.ModTime.UTC().Format("2006-01-02T15:04:05.999999999Z"),
			Description: "modification time differs",
		})
	}

	if !domain.XattrsEqual(oldEntry.Xattrs, newEntry.Xattrs) {
		changes = append(changes, domain.MetaChange{
			Type:        domain.MetaXattrs,
			Description: "extended attributes differ",
		})
	}

	if len(changes) == 0 {
		return domain.FsDiffRecord{}, false, nil
	}

	rec := e.newRecord(path, domain.ChangeModified, oldEntry, newEntry, changes)
	return rec, true, nil
}

// contentChanged decides whether two same-kind entries differ in
// content. Same-size pairs are always settled by hash comparison;
// files over the hash size cap carry no hash on either side and so
// never register a content change on size alone.
func (e *Engine) contentChanged(ctx context.Context, oldEntry, newEntry *domain.FsEntry) (bool, error) {
	if !oldEntry.IsFile() {
		return false, nil
	}

	if oldEntry.Size != newEntry.Size {
		return true, nil
	}

	if e.opts.MaxContentHashSize > 0 && oldEntry.Size > e.opts.MaxContentHashSize {
		return false, nil
	}

	oldHash, err := e.hashEntry(ctx, oldEntry)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		e.log.Debug("hash failed", "path", oldEntry.Path, "error", err)
		return e.mtimeFallback(oldEntry, newEntry), nil
	}
	newHash, err := e.hashEntry(ctx, newEntry)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		e.log.Debug("hash failed", "path", newEntry.Path, "error", err)
		return e.mtimeFallback(oldEntry, newEntry), nil
	}

	return oldHash != newHash, nil
}

// mtimeFallback is the conservative verdict when a hash cannot be
// computed: a moved modification time suggests new content, unless
// timestamps are ignored
func (e *Engine) mtimeFallback(oldEntry, newEntry *domain.FsEntry) bool {
	return !e.opts.IgnoreTimestamps && !oldEntry.ModTime.Equal(newEntry.ModTime)
}
