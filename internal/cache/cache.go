package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"snapdiff/internal/domain"
	"snapdiff/internal/logger"
)

// formatVersion identifies the on-disk entry layout. Entries written
// by other versions are treated as misses and removed.
const formatVersion = 1

// fileSuffix terminates every cache entry file name
const fileSuffix = ".cache"

// identityNamespace seeds the version-5 UUIDs naming compared roots
var identityNamespace = uuid.MustParse("8f9d3b52-6c1e-4a70-9dd1-66f29a64c8da")

// header is the plaintext first line of every cache entry
type header struct {
	Version      int    `json:"version"`
	Codec        string `json:"codec"`
	FromIdentity string `json:"from_identity"`
	ToIdentity   string `json:"to_identity"`
	OptionsHash  string `json:"options_hash"`
	Created      int64  `json:"created"`
}

// trailer closes the compressed record stream; a missing or wrong
// count marks the entry corrupt
type trailer struct {
	Count int `json:"count"`
}

// meta carries the result fields that are not records
type meta struct {
	FromRoot  string           `json:"from_root"`
	ToRoot    string           `json:"to_root"`
	Timestamp time.Time        `json:"timestamp"`
	Stats     domain.WalkStats `json:"stats"`
}

// Store caches comparison results on disk, one file per root pair and
// option set. Entries are self-describing and safe to delete at any
// time; every failure mode degrades to a recompute.
type Store struct {
	dir   string
	codec string
	log   logger.Logger

	// now is replaceable for TTL tests
	now func() time.Time
}

// New opens (creating if needed) a cache store rooted at dir
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: cache directory cannot be empty", domain.ErrOptionConflict)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{
		dir:   dir,
		codec: probeCodec(),
		log:   logger.With("component", "cache", "dir", dir),
		now:   time.Now,
	}, nil
}

// Dir returns the store's directory
func (s *Store) Dir() string {
	return s.dir
}

// rootIdentity fingerprints a root directory as a version-5 UUID over
// its device, inode and modification time. Any change to the root
// invalidates every entry naming it.
func rootIdentity(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", fmt.Errorf("no stat identity for %s", root)
	}
	name := fmt.Sprintf("%d:%d:%d.%d", st.Dev, st.Ino, info.ModTime().Unix(), info.ModTime().Nanosecond())
	return uuid.NewSHA1(identityNamespace, []byte(name)).String(), nil
}

// optionsHash fingerprints the option set that shaped a result
func optionsHash(opts domain.DiffOptions) string {
	sum := xxhash.Sum64String(opts.Fingerprint())
	return hex.EncodeToString([]byte{
		byte(sum >> 56), byte(sum >> 48), byte(sum >> 40), byte(sum >> 32),
		byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum),
	})
}

// entryName builds the file name for an entry written now
func (s *Store) entryName(fromID, toID, optsHash string) string {
	return fmt.Sprintf("%s.%s.%s.%d%s", fromID, toID, optsHash, s.now().Unix(), fileSuffix)
}

// entryPrefix is the invariant part of an entry's name
func entryPrefix(fromID, toID, optsHash string) string {
	return fmt.Sprintf("%s.%s.%s.", fromID, toID, optsHash)
}

// entryTimestamp parses the creation time out of an entry file name
func entryTimestamp(name, prefix string) (int64, bool) {
	rest := strings.TrimPrefix(name, prefix)
	rest = strings.TrimSuffix(rest, fileSuffix)
	ts, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// Load returns the newest fresh entry for the given roots and options,
// or domain.ErrCacheMiss. Corrupt and stale entries are removed.
func (s *Store) Load(ctx context.Context, fromRoot, toRoot string, opts domain.DiffOptions) (*domain.FsDiffResults, error) {
	fromID, err := rootIdentity(fromRoot)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}
	toID, err := rootIdentity(toRoot)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}

	prefix := entryPrefix(fromID, toID, optionsHash(opts))
	candidates, err := s.matching(prefix)
	if err != nil || len(candidates) == 0 {
		return nil, domain.ErrCacheMiss
	}

	// newest first
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] > candidates[j] })

	for _, name := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		path := filepath.Join(s.dir, name)

		// CacheExpires 0 disables expiry
		if opts.CacheMode != domain.CacheModeAlways && opts.CacheExpires > 0 {
			if ts, ok := entryTimestamp(name, prefix); ok {
				age := s.now().Unix() - ts
				if age > int64(opts.CacheExpires) {
					s.log.Debug("removing expired entry", "entry", name, "age", age)
					s.remove(path)
					continue
				}
			}
		}

		results, err := s.read(path)
		if err != nil {
			s.log.Warn("removing unreadable entry", "entry", name, "error", err)
			s.remove(path)
			continue
		}
		return results, nil
	}
	return nil, domain.ErrCacheMiss
}

// Save writes a new entry atomically. A cancelled save leaves nothing
// behind.
func (s *Store) Save(ctx context.Context, results *domain.FsDiffResults, opts domain.DiffOptions) error {
	fromID, err := rootIdentity(results.FromRoot)
	if err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	toID, err := rootIdentity(results.ToRoot)
	if err != nil {
		return fmt.Errorf("cache save: %w", err)
	}

	optsHash := optionsHash(opts)
	name := s.entryName(fromID, toID, optsHash)
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	hdr := header{
		Version:      formatVersion,
		Codec:        s.codec,
		FromIdentity: fromID,
		ToIdentity:   toID,
		OptionsHash:  optsHash,
		Created:      s.now().Unix(),
	}
	if err := s.write(ctx, tmp, hdr, results); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache save: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cache save: %w", err)
	}

	// older entries for this pairing are superseded
	s.pruneOlder(entryPrefix(fromID, toID, optsHash), name)
	return nil
}

// Prune removes every entry older than the given TTL in seconds
func (s *Store) Prune(ttl int) (int, error) {
	names, err := s.matching("")
	if err != nil {
		return 0, err
	}
	removed := 0
	cutoff := s.now().Unix() - int64(ttl)
	for _, name := range names {
		idx := strings.LastIndex(strings.TrimSuffix(name, fileSuffix), ".")
		if idx < 0 {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimSuffix(name, fileSuffix)[idx+1:], 10, 64)
		if err != nil {
			continue
		}
		if ts < cutoff {
			s.remove(filepath.Join(s.dir, name))
			removed++
		}
	}
	return removed, nil
}

// matching lists entry names carrying the given prefix
func (s *Store) matching(prefix string) ([]string, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, d := range dirents {
		name := d.Name()
		if !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *Store) pruneOlder(prefix, keep string) {
	names, err := s.matching(prefix)
	if err != nil {
		return
	}
	for _, name := range names {
		if name != keep {
			s.remove(filepath.Join(s.dir, name))
		}
	}
}

func (s *Store) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Debug("entry removal failed", "path", path, "error", err)
	}
}

// write serializes header and compressed record stream into w
func (s *Store) write(ctx context.Context, w *os.File, hdr header, results *domain.FsDiffResults) error {
	headerLine, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	if _, err := w.Write(append(headerLine, '\n')); err != nil {
		return fmt.Errorf("cache save: %w", err)
	}

	zw, err := newCompressor(w, hdr.Codec)
	if err != nil {
		return fmt.Errorf("cache save: %w", err)
	}

	enc := json.NewEncoder(zw)
	if err := enc.Encode(meta{
		FromRoot:  results.FromRoot,
		ToRoot:    results.ToRoot,
		Timestamp: results.Timestamp,
		Stats:     results.Stats,
	}); err != nil {
		zw.Close()
		return fmt.Errorf("cache save: %w", err)
	}

	for i := range results.Records {
		select {
		case <-ctx.Done():
			zw.Close()
			return ctx.Err()
		default:
		}
		if err := enc.Encode(&results.Records[i]); err != nil {
			zw.Close()
			return fmt.Errorf("cache save: %w", err)
		}
	}

	if err := enc.Encode(trailer{Count: len(results.Records)}); err != nil {
		zw.Close()
		return fmt.Errorf("cache save: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	return nil
}

// read parses one entry file, verifying version and record count
func (s *Store) read(path string) (*domain.FsDiffResults, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	headerLine, rest, err := splitHeader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheCorrupt, err)
	}

	var hdr header
	if err := json.Unmarshal(headerLine, &hdr); err != nil {
		return nil, fmt.Errorf("%w: bad header: %v", domain.ErrCacheCorrupt, err)
	}
	if hdr.Version != formatVersion {
		return nil, fmt.Errorf("%w: unknown version %d", domain.ErrCacheCorrupt, hdr.Version)
	}

	zr, err := newDecompressor(hdr.Codec, rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheCorrupt, err)
	}
	defer zr.Close()

	dec := json.NewDecoder(zr)

	var m meta
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: bad metadata: %v", domain.ErrCacheCorrupt, err)
	}

	// records stream until the trailer object shows up
	var records []domain.FsDiffRecord
	count := -1
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: truncated stream: %v", domain.ErrCacheCorrupt, err)
		}

		var probe struct {
			Path  *string `json:"path"`
			Count *int    `json:"count"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("%w: bad stream object: %v", domain.ErrCacheCorrupt, err)
		}
		if probe.Path == nil && probe.Count != nil {
			count = *probe.Count
			break
		}

		var rec domain.FsDiffRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: bad record: %v", domain.ErrCacheCorrupt, err)
		}
		records = append(records, rec)
	}

	if count != len(records) {
		return nil, fmt.Errorf("%w: record count %d, trailer says %d",
			domain.ErrCacheCorrupt, len(records), count)
	}

	return domain.NewResults(records, m.FromRoot, m.ToRoot, m.Timestamp, m.Stats), nil
}
