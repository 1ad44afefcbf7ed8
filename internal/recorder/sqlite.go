package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"TradeTerminal/internal/logger"
	"TradeTerminal/internal/model"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists scanner history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read history while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id             TEXT PRIMARY KEY,
			timestamp      INTEGER NOT NULL,
			range_label    TEXT,
			provider       TEXT,
			provider_error TEXT,
			row_count      INTEGER,
			skipped        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON scan_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS scan_rows (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL REFERENCES scan_runs(id),
			timestamp  INTEGER NOT NULL,
			sector     TEXT,
			instrument TEXT,
			symbol     TEXT NOT NULL,
			price      REAL,
			change_pct REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rows_symbol_ts ON scan_rows(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan stores a run and its rows in one transaction.
func (r *SQLiteRecorder) RecordScan(rec *ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO scan_runs
		(id, timestamp, range_label, provider, provider_error, row_count, skipped)
		VALUES (?,?,?,?,?,?,?)`,
		rec.ID, ts.Unix(), rec.Range, rec.Provider, rec.ProviderError,
		len(rec.Rows), rec.Skipped,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO scan_rows
		(run_id, timestamp, sector, instrument, symbol, price, change_pct)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare rows: %w", err)
	}
	defer stmt.Close()

	for _, row := range rec.Rows {
		if _, err := stmt.Exec(rec.ID, ts.Unix(), row.Sector, row.Instrument,
			row.Symbol, row.Price, model.Finite(row.ChangePct)); err != nil {
			return fmt.Errorf("insert row %s: %w", row.Symbol, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns the newest runs first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, range_label, provider, provider_error, row_count, skipped
		FROM scan_runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s  RunSummary
			ts int64
		)
		if err := rows.Scan(&s.ID, &ts, &s.Range, &s.Provider, &s.ProviderError, &s.RowCount, &s.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// InstrumentHistory returns the newest recorded readings for symbol first.
func (r *SQLiteRecorder) InstrumentHistory(symbol string, limit int) ([]PricePoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, price, change_pct FROM scan_rows
		WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []PricePoint
	for rows.Next() {
		var (
			p  PricePoint
			ts int64
		)
		if err := rows.Scan(&ts, &p.Price, &p.ChangePct); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		p.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	logger.Info("closing sqlite recorder")
	return r.db.Close()
}
