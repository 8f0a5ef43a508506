package domain

import (
	"fmt"
	"io/fs"
	"time"
)

// NodeKind represents the type of a filesystem entry
type NodeKind int

const (
	KindRegular NodeKind = iota
	KindDirectory
	KindSymlink
	KindBlock
	KindChar
	KindSocket
	KindFifo
)

// String returns a short identifier for the node kind
func (k NodeKind) String() string {
	switch k {
	case KindRegular:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindBlock:
		return "block"
	case KindChar:
		return "char"
	case KindSocket:
		return "socket"
	case KindFifo:
		return "fifo"
	default:
		return "unknown"
	}
}

// Description returns a human-readable description of the node kind
func (k NodeKind) Description() string {
	switch k {
	case KindRegular:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symbolic link"
	case KindBlock:
		return "block device"
	case KindChar:
		return "char device"
	case KindSocket:
		return "socket"
	case KindFifo:
		return "FIFO"
	default:
		return "other"
	}
}

// KindFromMode maps a stat mode to a NodeKind
func KindFromMode(mode fs.FileMode) NodeKind {
	switch {
	case mode.IsRegular():
		return KindRegular
	case mode.IsDir():
		return KindDirectory
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode&fs.ModeDevice != 0 && mode&fs.ModeCharDevice != 0:
		return KindChar
	case mode&fs.ModeDevice != 0:
		return KindBlock
	case mode&fs.ModeSocket != 0:
		return KindSocket
	case mode&fs.ModeNamedPipe != 0:
		return KindFifo
	default:
		return KindRegular
	}
}

// FsEntry represents one path's metadata snapshot within one tree.
// Entries are immutable once captured; the content hash is the only
// field filled in later, and only once, by the diff engine.
type FsEntry struct {
	// Path is the path relative to the tree root, always "/"-rooted
	Path string `json:"path"`

	// FullPath is the absolute path from the host perspective
	FullPath string `json:"full_path"`

	// Kind indicates the node type
	Kind NodeKind `json:"kind"`

	// Size in bytes (0 for directories)
	Size int64 `json:"size"`

	// Mode holds the full stat mode; Perm() extracts permission bits
	Mode fs.FileMode `json:"mode"`

	// UID and GID are the owner and group identifiers
	UID uint32 `json:"uid"`
	GID uint32 `json:"gid"`

	// ModTime is the last modification time
	ModTime time.Time `json:"mtime"`

	// Xattrs holds extended attributes; order is irrelevant
	Xattrs map[string][]byte `json:"xattrs,omitempty"`

	// SymlinkTarget is the link target for symlinks, empty otherwise
	SymlinkTarget string `json:"symlink_target,omitempty"`

	// BrokenSymlink marks symlinks whose target does not exist
	BrokenSymlink bool `json:"broken_symlink,omitempty"`

	// Unavailable marks entries whose metadata could not be read
	// (permission denied, vanished file); the walk continues past them
	Unavailable bool `json:"unavailable,omitempty"`

	// ContentHash is the content hash, empty until computed on demand
	ContentHash string `json:"content_hash,omitempty"`
}

// IsFile returns true if this is a regular file
func (e *FsEntry) IsFile() bool {
	return e.Kind == KindRegular
}

// IsDir returns true if this is a directory
func (e *FsEntry) IsDir() bool {
	return e.Kind == KindDirectory
}

// IsSymlink returns true if this is a symbolic link
func (e *FsEntry) IsSymlink() bool {
	return e.Kind == KindSymlink
}

// Owner returns the "uid:gid" form used in reports
func (e *FsEntry) Owner() string {
	return fmt.Sprintf("%d:%d", e.UID, e.GID)
}

// XattrsEqual compares extended attribute sets ignoring order
func XattrsEqual(a, b map[string][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || string(av) != string(bv) {
			return false
		}
	}
	return true
}
