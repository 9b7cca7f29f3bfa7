package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS extraction_runs (
	id           TEXT PRIMARY KEY,
	group_name   TEXT NOT NULL,
	files_total  INTEGER NOT NULL DEFAULT 0,
	files_ok     INTEGER NOT NULL DEFAULT 0,
	files_failed INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS extracted_values (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES extraction_runs(id),
	file_path  TEXT NOT NULL,
	field_name TEXT NOT NULL,
	value      TEXT NOT NULL,
	sheet      TEXT NOT NULL,
	cell       TEXT NOT NULL,
	match_tier INTEGER NOT NULL,
	confidence REAL NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_extraction_runs_group ON extraction_runs(group_name);
CREATE INDEX IF NOT EXISTS idx_extracted_values_run ON extracted_values(run_id);
CREATE INDEX IF NOT EXISTS idx_extracted_values_field ON extracted_values(field_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, groupName string, filesTotal int) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extraction_runs (id, group_name, files_total, status, started_at)
		 VALUES (?, ?, ?, 'running', ?)`,
		id, groupName, filesTotal, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert run")
	}
	return id, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, filesOK, filesFailed int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE extraction_runs
		 SET files_ok = ?, files_failed = ?, status = 'complete', completed_at = ?
		 WHERE id = ?`,
		filesOK, filesFailed, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}

// SaveValues persists one file's extracted values in a single transaction,
// carrying each field's mapping provenance alongside the value.
func (s *SQLiteStore) SaveValues(ctx context.Context, runID, filePath string, mapping *model.GroupReferenceMapping, values map[string]model.CellValue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	fields := make([]string, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	now := time.Now().UTC()
	for _, field := range fields {
		valueJSON, err := json.Marshal(values[field])
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal value %s", field)
		}
		sheet, cell, tier, confidence := "", "", 0, 0.0
		if m := mapping.MatchByField(field); m != nil {
			sheet, cell, tier, confidence = m.SourceSheet, m.SourceCell, m.MatchTier, m.Confidence
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO extracted_values (run_id, file_path, field_name, value, sheet, cell, match_tier, confidence, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, filePath, field, string(valueJSON), sheet, cell, tier, confidence, now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert value %s", field)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit values")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_name, files_total, files_ok, files_failed, status, started_at, completed_at
		 FROM extraction_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var completed sql.NullTime
		if err := rows.Scan(&r.ID, &r.GroupName, &r.FilesTotal, &r.FilesOK, &r.FilesFailed, &r.Status, &r.StartedAt, &completed); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if completed.Valid {
			r.CompletedAt = &completed.Time
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) ListValues(ctx context.Context, runID string) ([]ExtractedValue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, file_path, field_name, value, sheet, cell, match_tier, confidence, created_at
		 FROM extracted_values WHERE run_id = ? ORDER BY file_path, field_name`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list values for %s", runID)
	}
	defer rows.Close()

	var values []ExtractedValue
	for rows.Next() {
		var v ExtractedValue
		var valueJSON string
		if err := rows.Scan(&v.ID, &v.RunID, &v.FilePath, &v.FieldName, &valueJSON, &v.Sheet, &v.Cell, &v.MatchTier, &v.Confidence, &v.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan value")
		}
		if err := json.Unmarshal([]byte(valueJSON), &v.Value); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse value %s", v.FieldName)
		}
		values = append(values, v)
	}
	return values, eris.Wrap(rows.Err(), "sqlite: iterate values")
}
