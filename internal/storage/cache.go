/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	CacheFileName = "cache.sqlite"

	// schemaVersion tracks the cache schema. Bump this when you perform
	// breaking schema changes and add migrations.
	schemaVersion = 3
)

// ErrCacheMiss is returned by Get when no artifact is stored under a key.
var ErrCacheMiss = errors.New("cache miss")

// CachePath returns the database path inside dir.
func CachePath(dir string) string { return filepath.Join(dir, CacheFileName) }

// Cache is the SQLite-backed artifact cache. It is safe for concurrent use.
type Cache struct {
	db   *sql.DB
	path string
	log  *slog.Logger
	now  func() time.Time
}

// OpenCache creates dir if needed, opens the database, enables WAL mode and
// brings the schema up to date.
func OpenCache(dir string) (*Cache, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "cache_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create cache dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	path := CachePath(dir)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureCacheSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure cache schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("cache ready", slog.String("path", path))
	return &Cache{db: db, path: path, log: applog.WithComponent("storage"), now: time.Now}, nil
}

// Close closes the database.
func (c *Cache) Close() error { return c.db.Close() }

// Path returns the database file path.
func (c *Cache) Path() string { return c.path }

// language=SQL
// dialect=SQLite
const selectArtifactSQL = `SELECT data FROM artifacts WHERE key = ?`

// language=SQL
// dialect=SQLite
const touchArtifactSQL = `UPDATE artifacts SET accessed_at = ? WHERE key = ?`

// language=SQL
// dialect=SQLite
const upsertArtifactSQL = `INSERT INTO artifacts(key, size, data, created_at, accessed_at) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET size = excluded.size, data = excluded.data, accessed_at = excluded.accessed_at`

// Get returns the artifact stored under key or ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx, selectArtifactSQL, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	data, err := decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("decompress artifact: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, touchArtifactSQL, c.stamp(), key); err != nil {
		c.log.Warn("touch artifact failed", slog.Any("err", err))
	}
	return data, nil
}

// Put stores data under key, replacing any previous value.
func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	blob, err := compress(data)
	if err != nil {
		return fmt.Errorf("compress artifact: %w", err)
	}
	now := c.stamp()
	if _, err := c.db.ExecContext(ctx, upsertArtifactSQL, key, len(data), blob, now, now); err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	return nil
}

// language=SQL
// dialect=SQLite
const pruneByAgeSQL = `DELETE FROM artifacts WHERE accessed_at < ?`

// language=SQL
// dialect=SQLite
const pruneByCountSQL = `DELETE FROM artifacts WHERE key NOT IN (
	SELECT key FROM artifacts ORDER BY accessed_at DESC LIMIT ?
)`

// Prune drops artifacts not accessed within maxAge (when > 0) and then keeps
// at most maxEntries most recently used ones (when > 0). It returns the number
// of removed artifacts.
func (c *Cache) Prune(ctx context.Context, maxEntries int, maxAge time.Duration) (int64, error) {
	var removed int64
	if maxAge > 0 {
		res, err := c.db.ExecContext(ctx, pruneByAgeSQL, c.now().Add(-maxAge).UnixNano())
		if err != nil {
			return removed, fmt.Errorf("prune by age: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	if maxEntries > 0 {
		res, err := c.db.ExecContext(ctx, pruneByCountSQL, maxEntries)
		if err != nil {
			return removed, fmt.Errorf("prune by count: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	if removed > 0 {
		c.log.Info("cache pruned", slog.Int64("removed", removed))
	}
	return removed, nil
}

// Stats returns the number of stored artifacts and their uncompressed size.
func (c *Cache) Stats(ctx context.Context) (entries int, size int64, err error) {
	err = c.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM artifacts`).Scan(&entries, &size)
	if err != nil {
		return 0, 0, fmt.Errorf("cache stats: %w", err)
	}
	return entries, size, nil
}

// stamp is the current time in unix nanoseconds; timestamps are stored as
// INTEGER so they order correctly within a second.
func (c *Cache) stamp() int64 { return c.now().UnixNano() }

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(blob []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// cacheDDL creates the current tables and indexes. Timestamps are unix
// nanoseconds.
var cacheDDL = []string{
	`CREATE TABLE IF NOT EXISTS artifacts (
		key         TEXT    PRIMARY KEY,
		size        INTEGER NOT NULL,
		data        BLOB    NOT NULL,
		created_at  INTEGER NOT NULL,
		accessed_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS exports (
		id       INTEGER PRIMARY KEY,
		ts       INTEGER NOT NULL,
		digest   TEXT    NOT NULL,
		format   TEXT    NOT NULL,
		filename TEXT    NOT NULL,
		size     INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_artifacts_accessed ON artifacts(accessed_at);`,
	`CREATE INDEX IF NOT EXISTS idx_exports_ts ON exports(ts);`,
}

func ensureCacheSchema(ctx context.Context, db *sql.DB) error {
	for _, q := range cacheDDL {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create cache schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_artifacts_accessed ON artifacts(accessed_at);`,
				`CREATE INDEX IF NOT EXISTS idx_exports_ts ON exports(ts);`,
			}
		case 3:
			// TEXT timestamps become INTEGER nanoseconds. Cached artifacts are
			// disposable; export history is converted at second precision.
			stmts = []string{
				`DROP INDEX IF EXISTS idx_artifacts_accessed;`,
				`DROP INDEX IF EXISTS idx_exports_ts;`,
				`DROP TABLE IF EXISTS artifacts;`,
				`ALTER TABLE exports RENAME TO exports_v2;`,
			}
			stmts = append(stmts, cacheDDL...)
			stmts = append(stmts,
				`INSERT INTO exports(id, ts, digest, format, filename, size)
					SELECT id, COALESCE(CAST(strftime('%s', ts) AS INTEGER), 0) * 1000000000, digest, format, filename, size
					FROM exports_v2;`,
				`DROP TABLE exports_v2;`,
			)
		}
		stmts = append(stmts, fmt.Sprintf(`UPDATE version SET schema=%d, updated_at=datetime('now') WHERE id=1;`, next))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}
