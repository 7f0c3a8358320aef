package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/Bing4Ever/quant-trading-sub000/internal/backtest"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("store: run not found")

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// RunStore persists backtest runs.
type RunStore interface {
	SaveRun(ctx context.Context, results *backtest.Results) (int64, error)
	GetRun(ctx context.Context, id int64) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// RunRecord is a stored run with its full results.
type RunRecord struct {
	ID        int64             `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Results   *backtest.Results `json:"results"`
}

// RunSummary is the headline row shown when listing runs.
type RunSummary struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Strategy     string    `json:"strategy"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	FinalCapital float64   `json:"final_capital"`
	TotalReturn  float64   `json:"total_return"`
	SharpeRatio  float64   `json:"sharpe_ratio"`
	MaxDrawdown  float64   `json:"max_drawdown"`
	TotalTrades  int       `json:"total_trades"`
}

const schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at     TEXT NOT NULL,
	strategy       TEXT NOT NULL,
	start_date     TEXT NOT NULL,
	end_date       TEXT NOT NULL,
	final_capital  REAL NOT NULL,
	total_return   REAL NOT NULL,
	sharpe_ratio   REAL NOT NULL,
	max_drawdown   REAL NOT NULL,
	total_trades   INTEGER NOT NULL,
	results_json   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtest_runs_strategy ON backtest_runs (strategy);
`

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// schema and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun stores a finished run and returns its id. Non-finite metric
// values survive the round trip through the JSON results column.
func (s *SQLiteStore) SaveRun(ctx context.Context, results *backtest.Results) (int64, error) {
	if results == nil {
		return 0, errors.New("store: results are required")
	}
	payload, err := json.Marshal(sanitizeForJSON(results))
	if err != nil {
		return 0, fmt.Errorf("failed to encode results: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO backtest_runs
			(created_at, strategy, start_date, end_date, final_capital,
			 total_return, sharpe_ratio, max_drawdown, total_trades, results_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		results.Strategy,
		results.StartDate.Format(time.RFC3339),
		results.EndDate.Format(time.RFC3339),
		results.FinalCapital,
		results.TotalReturn,
		results.SharpeRatio,
		results.MaxDrawdown,
		results.TotalTrades,
		string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return res.LastInsertId()
}

// GetRun loads a stored run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	var createdAt, payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, results_json FROM backtest_runs WHERE id = ?`, id).
		Scan(&createdAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %d: %w", id, err)
	}

	record := &RunRecord{ID: id, Results: &backtest.Results{}}
	if record.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at for run %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(payload), record.Results); err != nil {
		return nil, fmt.Errorf("failed to decode results for run %d: %w", id, err)
	}
	restoreFromJSON(record.Results)
	return record, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, strategy, start_date, end_date,
		       final_capital, total_return, sharpe_ratio, max_drawdown, total_trades
		FROM backtest_runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var summary RunSummary
		var createdAt, start, end string
		if err := rows.Scan(&summary.ID, &createdAt, &summary.Strategy, &start, &end,
			&summary.FinalCapital, &summary.TotalReturn, &summary.SharpeRatio,
			&summary.MaxDrawdown, &summary.TotalTrades); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		summary.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		summary.StartDate, _ = time.Parse(time.RFC3339, start)
		summary.EndDate, _ = time.Parse(time.RFC3339, end)
		out = append(out, summary)
	}
	return out, rows.Err()
}
