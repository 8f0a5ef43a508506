package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"snapdiff/internal/domain"
)

// Manager persists comparison history
type Manager struct {
	db *sql.DB
}

// ComparisonRecord represents one completed tree comparison
type ComparisonRecord struct {
	ID        int64
	FromRoot  string
	ToRoot    string
	Started   time.Time
	Duration  time.Duration
	Added     int
	Removed   int
	Modified  int
	Moved     int
	Different int
	WithDiff  int
	SizeDelta int64
	Scanned   int
	CacheHit  bool
}

// NewManager creates a new history manager backed by a sqlite database
// under dataDir
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "snapdiff.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit connection pool to prevent "database is locked" errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Enable WAL mode for better concurrency and set busy timeout
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}

	// Initialize schema
	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

// initSchema creates the database schema
func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS comparisons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_root TEXT NOT NULL,
		to_root TEXT NOT NULL,
		started TIMESTAMP NOT NULL,
		duration_ms INTEGER NOT NULL,
		added INTEGER DEFAULT 0,
		removed INTEGER DEFAULT 0,
		modified INTEGER DEFAULT 0,
		moved INTEGER DEFAULT 0,
		different INTEGER DEFAULT 0,
		with_diff INTEGER DEFAULT 0,
		size_delta INTEGER DEFAULT 0,
		scanned INTEGER DEFAULT 0,
		cache_hit INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_comparisons_roots_time ON comparisons(from_root, to_root, started DESC);
	CREATE INDEX IF NOT EXISTS idx_comparisons_time ON comparisons(started DESC);
	`

	_, err := m.db.Exec(schema)
	return err
}

// RecordFromResults builds a ComparisonRecord from a result set
func RecordFromResults(res *domain.FsDiffResults, started time.Time, duration time.Duration, cacheHit bool) ComparisonRecord {
	return ComparisonRecord{
		FromRoot:  res.FromRoot,
		ToRoot:    res.ToRoot,
		Started:   started,
		Duration:  duration,
		Added:     res.Counts.Added,
		Removed:   res.Counts.Removed,
		Modified:  res.Counts.Modified,
		Moved:     res.Counts.Moved,
		Different: res.Counts.TypeChanged,
		WithDiff:  res.Counts.WithDiff,
		SizeDelta: res.SizeDelta,
		Scanned:   res.Stats.ScannedFrom + res.Stats.ScannedTo,
		CacheHit:  cacheHit,
	}
}

// SaveComparison records a completed comparison
func (m *Manager) SaveComparison(record ComparisonRecord) error {
	if record.FromRoot == "" || record.ToRoot == "" {
		return fmt.Errorf("comparison roots cannot be empty")
	}

	query := `
		INSERT INTO comparisons (from_root, to_root, started, duration_ms,
			added, removed, modified, moved, different, with_diff,
			size_delta, scanned, cache_hit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := m.db.Exec(query,
		record.FromRoot,
		record.ToRoot,
		record.Started,
		record.Duration.Milliseconds(),
		record.Added,
		record.Removed,
		record.Modified,
		record.Moved,
		record.Different,
		record.WithDiff,
		record.SizeDelta,
		record.Scanned,
		record.CacheHit,
	)

	if err != nil {
		return fmt.Errorf("failed to save comparison record: %w", err)
	}

	return nil
}

const selectColumns = `
	SELECT id, from_root, to_root, started, duration_ms,
		added, removed, modified, moved, different, with_diff,
		size_delta, scanned, cache_hit
	FROM comparisons
`

func scanRecord(rows *sql.Rows) (ComparisonRecord, error) {
	var (
		record     ComparisonRecord
		durationMs int64
	)
	err := rows.Scan(
		&record.ID,
		&record.FromRoot,
		&record.ToRoot,
		&record.Started,
		&durationMs,
		&record.Added,
		&record.Removed,
		&record.Modified,
		&record.Moved,
		&record.Different,
		&record.WithDiff,
		&record.SizeDelta,
		&record.Scanned,
		&record.CacheHit,
	)
	record.Duration = time.Duration(durationMs) * time.Millisecond
	return record, err
}

func (m *Manager) queryRecords(query string, args ...any) ([]ComparisonRecord, error) {
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []ComparisonRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// GetHistory retrieves comparison history for a root pair
func (m *Manager) GetHistory(fromRoot, toRoot string, limit int) ([]ComparisonRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := selectColumns + `
		WHERE from_root = ? AND to_root = ?
		ORDER BY started DESC
		LIMIT ?
	`
	return m.queryRecords(query, fromRoot, toRoot, limit)
}

// GetAllHistory retrieves comparison history across all root pairs
func (m *Manager) GetAllHistory(limit int) ([]ComparisonRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := selectColumns + `
		ORDER BY started DESC
		LIMIT ?
	`
	return m.queryRecords(query, limit)
}

// GetLast retrieves the most recent comparison for a root pair, or nil
// when the pair has never been compared
func (m *Manager) GetLast(fromRoot, toRoot string) (*ComparisonRecord, error) {
	records, err := m.GetHistory(fromRoot, toRoot, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
