// Package analytics persists one row per physical backend attempt. Writes
// are best effort: a broken analytics store must never block or fail the
// serving path, so errors are logged and swallowed.
package analytics

// #region imports
import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"

	"github.com/pepper-tutor/go-brain/internal/dispatch"
)

// #endregion

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS usage_analytics (
    attempt_id   TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    backend_id   TEXT NOT NULL,
    model_id     TEXT NOT NULL,
    task         TEXT NOT NULL,
    started_at   TEXT NOT NULL,
    duration_ms  INTEGER NOT NULL,
    outcome      TEXT NOT NULL,
    response_len INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_user ON usage_analytics(user_id);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_analytics(model_id);
`

// #endregion

// #region recorder

// Recorder writes call records to a sqlite database. It satisfies
// dispatch.Sink.
type Recorder struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecorder opens (or creates) the analytics database at path.
func NewRecorder(path string, logger *zap.Logger) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply analytics schema: %w", err)
	}
	return &Recorder{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (r *Recorder) Close() error { return r.db.Close() }

// Record inserts one attempt row. Failures are logged, never returned.
func (r *Recorder) Record(ctx context.Context, rec dispatch.CallRecord) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO usage_analytics
		 (attempt_id, user_id, backend_id, model_id, task, started_at, duration_ms, outcome, response_len)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AttemptID,
		rec.UserID,
		rec.BackendID,
		rec.ModelID,
		string(rec.Task),
		rec.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		rec.Duration.Milliseconds(),
		string(rec.Outcome),
		rec.ResponseLen,
	)
	if err != nil {
		r.logger.Warn("analytics write failed",
			zap.String("attempt_id", rec.AttemptID),
			zap.Error(err))
	}
}

// #endregion

// #region queries

// UsageRow is one aggregated usage line for a model.
type UsageRow struct {
	ModelID    string  `json:"model_id"`
	Calls      int     `json:"calls"`
	Successes  int     `json:"successes"`
	AvgLatency float64 `json:"avg_latency_ms"`
}

// UsageByModel aggregates per-model call counts and mean latency, most
// called first.
func (r *Recorder) UsageByModel(ctx context.Context) ([]UsageRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT model_id,
		        COUNT(*),
		        SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END),
		        AVG(duration_ms)
		 FROM usage_analytics
		 GROUP BY model_id
		 ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var out []UsageRow
	for rows.Next() {
		var row UsageRow
		if err := rows.Scan(&row.ModelID, &row.Calls, &row.Successes, &row.AvgLatency); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// #endregion
