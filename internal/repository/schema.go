package repository

import (
	"context"
	"fmt"
)

const schema = `
	CREATE TABLE IF NOT EXISTS dashboards (
		name TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		position INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS charts (
		id TEXT PRIMARY KEY,
		dashboard TEXT NOT NULL REFERENCES dashboards(name) ON DELETE CASCADE,
		title TEXT NOT NULL,
		kind TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS chart_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chart_id TEXT NOT NULL REFERENCES charts(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		value REAL NOT NULL,
		student_id TEXT NOT NULL DEFAULT '',
		recorded_at TEXT,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chart_points_chart ON chart_points (chart_id, position);
	CREATE TABLE IF NOT EXISTS comparison_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chart_id TEXT NOT NULL REFERENCES charts(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		before_value REAL NOT NULL,
		after_value REAL NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		lower_is_better INTEGER NOT NULL DEFAULT 0,
		student_id TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_comparison_metrics_chart ON comparison_metrics (chart_id, position);
`

// EnsureSchema creates the fixture tables when missing.
func (r *ChartRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
