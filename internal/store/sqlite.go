// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"chartscan/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Candles table for historical OHLCV data
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timeframe, timestamp)
	);

	-- Detected patterns from scan runs
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		scan_time DATETIME NOT NULL,
		pattern_type TEXT NOT NULL,
		status TEXT NOT NULL,
		confidence REAL NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME NOT NULL,
		breakout_at DATETIME,
		outcome TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Tracked symbols
	CREATE TABLE IF NOT EXISTS symbols (
		symbol TEXT NOT NULL,
		exchange TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (symbol, exchange)
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_candles_symbol_timeframe ON candles(symbol, timeframe);
	CREATE INDEX IF NOT EXISTS idx_candles_timestamp ON candles(timestamp);
	CREATE INDEX IF NOT EXISTS idx_scans_symbol ON scans(symbol);
	CREATE INDEX IF NOT EXISTS idx_scans_pattern_type ON scans(pattern_type);
	CREATE INDEX IF NOT EXISTS idx_scans_scan_time ON scans(scan_time);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCandles saves candles to the database.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, timeframe, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, symbol, timeframe, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetCandles retrieves candles from the database. Zero bounds mean
// unbounded.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error) {
	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND timeframe = ?`
	args := []interface{}{symbol, timeframe}
	if !from.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, to)
	}
	query += " ORDER BY timestamp ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candles: %w", err)
	}

	return candles, nil
}

// GetCandlesFreshness returns the timestamp of the most recent candle.
func (s *SQLiteStore) GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error) {
	var timestamp time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT timestamp FROM candles WHERE symbol = ? AND timeframe = ?
		ORDER BY timestamp DESC LIMIT 1
	`, symbol, timeframe).Scan(&timestamp)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get candles freshness: %w", err)
	}
	return timestamp, nil
}

// SaveScan persists the detected patterns of one scan run.
func (s *SQLiteStore) SaveScan(ctx context.Context, records []ScanRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scans (symbol, timeframe, scan_time, pattern_type, status, confidence, start_time, end_time, breakout_at, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var breakout interface{}
		if !r.BreakoutAt.IsZero() {
			breakout = r.BreakoutAt
		}
		_, err := stmt.ExecContext(ctx, r.Symbol, r.Timeframe, r.ScanTime, r.PatternType, r.Status, r.Confidence, r.StartTime, r.EndTime, breakout, r.Outcome)
		if err != nil {
			return fmt.Errorf("failed to insert scan record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetScans retrieves persisted scan results.
func (s *SQLiteStore) GetScans(ctx context.Context, filter ScanFilter) ([]ScanRecord, error) {
	query := "SELECT id, symbol, timeframe, scan_time, pattern_type, status, confidence, start_time, end_time, breakout_at, outcome FROM scans WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Timeframe != "" {
		query += " AND timeframe = ?"
		args = append(args, filter.Timeframe)
	}
	if filter.PatternType != "" {
		query += " AND pattern_type = ?"
		args = append(args, filter.PatternType)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if !filter.StartDate.IsZero() {
		query += " AND scan_time >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND scan_time <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY scan_time DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var r ScanRecord
		var breakout sql.NullTime
		var outcome sql.NullString
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Timeframe, &r.ScanTime, &r.PatternType, &r.Status, &r.Confidence, &r.StartTime, &r.EndTime, &breakout, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if breakout.Valid {
			r.BreakoutAt = breakout.Time
		}
		r.Outcome = outcome.String
		records = append(records, r)
	}

	return records, rows.Err()
}

// GetPatternStats aggregates historical outcomes per pattern type.
func (s *SQLiteStore) GetPatternStats(ctx context.Context, dateRange DateRange) ([]PatternStats, error) {
	query := `
		SELECT pattern_type,
			COUNT(*) AS total,
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS completed,
			SUM(CASE WHEN outcome = 'target_reached' THEN 1 ELSE 0 END) AS target_reached,
			SUM(CASE WHEN outcome = 'failure' THEN 1 ELSE 0 END) AS failed,
			AVG(confidence) AS avg_confidence
		FROM scans WHERE 1=1`
	args := []interface{}{}

	if !dateRange.Start.IsZero() {
		query += " AND scan_time >= ?"
		args = append(args, dateRange.Start)
	}
	if !dateRange.End.IsZero() {
		query += " AND scan_time <= ?"
		args = append(args, dateRange.End)
	}
	query += " GROUP BY pattern_type ORDER BY total DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern stats: %w", err)
	}
	defer rows.Close()

	var stats []PatternStats
	for rows.Next() {
		var st PatternStats
		if err := rows.Scan(&st.PatternType, &st.Total, &st.Completed, &st.TargetReached, &st.Failed, &st.AvgConfidence); err != nil {
			return nil, fmt.Errorf("failed to scan pattern stats: %w", err)
		}
		stats = append(stats, st)
	}

	return stats, rows.Err()
}

// AddSymbol registers a symbol for scanning.
func (s *SQLiteStore) AddSymbol(ctx context.Context, symbol, exchange string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO symbols (symbol, exchange) VALUES (?, ?)
	`, symbol, exchange)
	if err != nil {
		return fmt.Errorf("failed to add symbol: %w", err)
	}
	return nil
}

// ListSymbols returns all tracked symbols.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]models.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, exchange FROM symbols ORDER BY symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var out []models.Instrument
	for rows.Next() {
		var inst models.Instrument
		if err := rows.Scan(&inst.Symbol, &inst.Exchange); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		out = append(out, inst)
	}

	return out, rows.Err()
}
