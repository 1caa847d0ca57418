/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"fmt"
	"time"
)

// ExportRecord is one written export artifact.
type ExportRecord struct {
	ID       int64
	TS       time.Time
	Digest   string
	Format   string
	Filename string
	Size     int64
}

// language=SQL
// dialect=SQLite
const insertExportSQL = `INSERT INTO exports(ts, digest, format, filename, size) VALUES (?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listExportsSQL = `SELECT id, ts, digest, format, filename, size FROM exports ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneExportsSQL = `DELETE FROM exports WHERE id NOT IN (SELECT id FROM exports ORDER BY ts DESC, id DESC LIMIT ?)`

// DefaultHistoryLimit is the number of export records kept.
const DefaultHistoryLimit = 200

// RecordExport appends rec to the export log and trims the log to
// DefaultHistoryLimit entries. A zero TS is set to now.
func (c *Cache) RecordExport(ctx context.Context, rec ExportRecord) (int64, error) {
	if rec.TS.IsZero() {
		rec.TS = c.now()
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	res, err := tx.ExecContext(ctx, insertExportSQL, rec.TS.UnixNano(), rec.Digest, rec.Format, rec.Filename, rec.Size)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert export: %w", err)
	}
	id, _ := res.LastInsertId()
	if _, err := tx.ExecContext(ctx, pruneExportsSQL, DefaultHistoryLimit); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prune exports: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// RecentExports returns up to limit export records, newest first.
func (c *Cache) RecentExports(ctx context.Context, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.QueryContext(ctx, listExportsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		var ts int64
		if err := rows.Scan(&rec.ID, &ts, &rec.Digest, &rec.Format, &rec.Filename, &rec.Size); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		rec.TS = time.Unix(0, ts).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
