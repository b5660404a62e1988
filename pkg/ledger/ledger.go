// Package ledger records per-request inference usage in SQLite for
// operator reporting. The ledger is an audit trail; budget admission is
// the tracker's job.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/riskline-ai/riskline/pkg/models"
)

// Ledger stores and queries usage records.
type Ledger struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS usage_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	case_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	model TEXT NOT NULL,
	tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	origin TEXT NOT NULL,
	latency_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_usage_case_time ON usage_records(case_id, created_at);
`

// New creates a Ledger and runs auto-migration.
func New(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger db: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Record stores a usage record.
func (l *Ledger) Record(ctx context.Context, rec models.UsageRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO usage_records (case_id, operation, model, tokens, cost_usd, origin, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CaseID, string(rec.Operation), rec.Model, rec.Tokens, rec.CostUSD, string(rec.Origin), rec.LatencyMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// TotalSince returns total tokens and cost recorded since a given time.
func (l *Ledger) TotalSince(ctx context.Context, since time.Time) (int64, float64, error) {
	var tokens int64
	var cost float64
	err := l.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(tokens), 0), COALESCE(SUM(cost_usd), 0) FROM usage_records WHERE created_at >= ?`,
		since,
	).Scan(&tokens, &cost)
	if err != nil {
		return 0, 0, fmt.Errorf("total usage: %w", err)
	}
	return tokens, cost, nil
}

// Summary returns aggregated usage grouped by operation and model.
func (l *Ledger) Summary(ctx context.Context) ([]models.UsageSummary, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT operation, model, COUNT(*), SUM(tokens), SUM(cost_usd)
		 FROM usage_records GROUP BY operation, model ORDER BY operation, model`,
	)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.UsageSummary
	for rows.Next() {
		var s models.UsageSummary
		var op string
		if err := rows.Scan(&op, &s.Model, &s.RequestCount, &s.TotalTokens, &s.TotalCostUSD); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.Operation = models.OperationKind(op)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Recent returns the most recent usage records, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]models.UsageRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, case_id, operation, model, tokens, cost_usd, origin, latency_ms, created_at
		 FROM usage_records ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent usage: %w", err)
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		var r models.UsageRecord
		var op, origin string
		if err := rows.Scan(&r.ID, &r.CaseID, &op, &r.Model, &r.Tokens, &r.CostUSD, &origin, &r.LatencyMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		r.Operation = models.OperationKind(op)
		r.Origin = models.ResultOrigin(origin)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}
