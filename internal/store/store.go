// Package store provides the durable local cache of points of interest.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/timectx"
)

// ErrStorage wraps every failure of the storage engine. Callers treat it as
// "no cached data available".
var ErrStorage = errors.New("storage unavailable")

// KeyLastSync is the metadata key holding the last successful sync (epoch ms).
const KeyLastSync = "last_sync"

// SchemaVersion is bumped whenever the hotspots table changes shape.
const SchemaVersion = 1

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db    *sql.DB
	mu    sync.RWMutex
	clock timectx.Clock
}

var memSeq atomic.Int64

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Named shared-cache DB so every pooled connection sees the same data,
		// and separate Opens in one process stay isolated.
		connStr = fmt.Sprintf("file:hotspot-mem-%d?mode=memory&cache=shared", memSeq.Add(1))
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, storageErr("open database", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storageErr("ping database", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, storageErr("enable WAL mode", err)
		}
	}

	s := &Store{db: db, clock: timectx.SystemClock{}}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, storageErr("create tables", err)
	}

	return s, nil
}

// SetClock replaces the clock used to stamp synced_at.
func (s *Store) SetClock(c timectx.Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = c
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS hotspots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		category TEXT NOT NULL,
		peak_hours TEXT,
		is_safe_zone INTEGER DEFAULT 1,
		verified INTEGER DEFAULT 0,
		upvotes INTEGER DEFAULT 0,
		tips TEXT,
		area TEXT,
		provenance TEXT NOT NULL,
		origin TEXT,
		synced_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_hotspots_category ON hotspots(category);
	CREATE INDEX IF NOT EXISTS idx_hotspots_area ON hotspots(area);
	CREATE INDEX IF NOT EXISTS idx_hotspots_synced ON hotspots(synced_at);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion))
	return err
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// UpsertAll writes every record in one transaction, replacing any row with
// the same id and stamping synced_at with the current time. Either all
// records are written or none are.
func (s *Store) UpsertAll(records []model.PointOfInterest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	syncedAt := s.clock.Now().UnixMilli()

	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO hotspots (
			id, name, description, lat, lon, category, peak_hours,
			is_safe_zone, verified, upvotes, tips, area, provenance, origin, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			lat = excluded.lat,
			lon = excluded.lon,
			category = excluded.category,
			peak_hours = excluded.peak_hours,
			is_safe_zone = excluded.is_safe_zone,
			verified = excluded.verified,
			upvotes = excluded.upvotes,
			tips = excluded.tips,
			area = excluded.area,
			provenance = excluded.provenance,
			origin = excluded.origin,
			synced_at = excluded.synced_at
	`)
	if err != nil {
		return storageErr("prepare upsert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		peaks, err := json.Marshal(r.PeakHours)
		if err != nil {
			return storageErr("encode peak hours", err)
		}
		origin := r.Origin
		if origin == "" {
			origin = r.Provenance
		}
		_, err = stmt.Exec(
			r.ID, r.Name, r.Description, r.Lat, r.Lon, string(r.Category), string(peaks),
			boolToInt(r.IsSafeZone), boolToInt(r.Verified), r.Upvotes, r.Tips, r.Area,
			string(r.Provenance), string(origin), syncedAt,
		)
		if err != nil {
			return storageErr("upsert "+r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

// GetAll returns every cached record in insertion order.
func (s *Store) GetAll() ([]model.CacheRecord, error) {
	return s.query(`SELECT ` + columns + ` FROM hotspots ORDER BY rowid`)
}

// GetByCategory returns cached records of one category.
func (s *Store) GetByCategory(c model.Category) ([]model.CacheRecord, error) {
	return s.query(`SELECT `+columns+` FROM hotspots WHERE category = ? ORDER BY rowid`, string(c))
}

// GetByArea returns cached records tagged with area.
func (s *Store) GetByArea(area string) ([]model.CacheRecord, error) {
	return s.query(`SELECT `+columns+` FROM hotspots WHERE area = ? ORDER BY rowid`, area)
}

// Clear removes every cached record and all metadata.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM hotspots`); err != nil {
		return storageErr("clear hotspots", err)
	}
	if _, err := tx.Exec(`DELETE FROM metadata`); err != nil {
		return storageErr("clear metadata", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

// Count returns the number of cached records.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM hotspots`).Scan(&n); err != nil {
		return 0, storageErr("count hotspots", err)
	}
	return n, nil
}

// HasOfflineData reports whether any record is cached. Storage failures read as false.
func (s *Store) HasOfflineData() bool {
	n, err := s.Count()
	return err == nil && n > 0
}

// GetMetadata returns the value stored under key. ok is false when the key is absent.
func (s *Store) GetMetadata(key string) (value string, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	err = s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get metadata "+key, err)
	}
	return value, true, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.clock.Now().UnixMilli())
	if err != nil {
		return storageErr("set metadata "+key, err)
	}
	return nil
}

// LastSync returns the time of the last successful sync, or the zero time.
func (s *Store) LastSync() (time.Time, error) {
	v, ok, err := s.GetMetadata(KeyLastSync)
	if err != nil || !ok {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, storageErr("parse last_sync", err)
	}
	return time.UnixMilli(ms), nil
}

// SetLastSync records t as the last successful sync.
func (s *Store) SetLastSync(t time.Time) error {
	return s.SetMetadata(KeyLastSync, strconv.FormatInt(t.UnixMilli(), 10))
}

const columns = `id, name, description, lat, lon, category, peak_hours,
	is_safe_zone, verified, upvotes, tips, area, provenance, origin, synced_at`

func (s *Store) query(query string, args ...any) ([]model.CacheRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query hotspots", err)
	}
	defer rows.Close()

	var records []model.CacheRecord
	for rows.Next() {
		var (
			r                    model.CacheRecord
			description, tips    sql.NullString
			area, origin, peaks  sql.NullString
			category, provenance string
			safe, verified       int
		)
		if err := rows.Scan(
			&r.ID, &r.Name, &description, &r.Lat, &r.Lon, &category, &peaks,
			&safe, &verified, &r.Upvotes, &tips, &area, &provenance, &origin, &r.SyncedAt,
		); err != nil {
			return nil, storageErr("scan hotspot", err)
		}
		r.Description = description.String
		r.Tips = tips.String
		r.Area = area.String
		r.Category = model.Category(category)
		r.IsSafeZone = safe != 0
		r.Verified = verified != 0
		r.Provenance = model.Provenance(provenance)
		r.Origin = model.Provenance(origin.String)
		if peaks.Valid && peaks.String != "" && peaks.String != "null" {
			if err := json.Unmarshal([]byte(peaks.String), &r.PeakHours); err != nil {
				return nil, storageErr("decode peak hours for "+r.ID, err)
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate hotspots", err)
	}
	return records, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// boolToInt converts a boolean to an integer for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
