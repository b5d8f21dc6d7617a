package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godilite/insights-server/internal/repository/models"
)

// ErrChartNotFound is returned when no chart matches the requested id.
var ErrChartNotFound = errors.New("chart not found")

const timeLayout = time.RFC3339

type ChartRepository struct {
	db *sql.DB
}

func NewChartRepository(db *sql.DB) *ChartRepository {
	return &ChartRepository{db: db}
}

// ReplaceAll swaps the stored fixtures for dashboards in one transaction.
func (r *ChartRepository) ReplaceAll(ctx context.Context, dashboards []models.Dashboard) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ReplaceAll: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"comparison_metrics", "chart_points", "charts", "dashboards"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for di, d := range dashboards {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO dashboards (name, title, position) VALUES (?, ?, ?)`,
			d.Name, d.Title, di); err != nil {
			return fmt.Errorf("insert dashboard %q: %w", d.Name, err)
		}
		for ci, c := range d.Charts {
			if err = insertChart(ctx, tx, d.Name, ci, c); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ReplaceAll: %w", err)
	}
	return nil
}

func insertChart(ctx context.Context, tx *sql.Tx, dashboard string, position int, c models.Chart) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO charts (id, dashboard, title, kind, unit, position) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, dashboard, c.Title, string(c.Kind), c.Unit, position); err != nil {
		return fmt.Errorf("insert chart %q: %w", c.ID, err)
	}

	for i, p := range c.Points {
		var recordedAt sql.NullString
		if !p.RecordedAt.IsZero() {
			recordedAt = sql.NullString{String: p.RecordedAt.UTC().Format(timeLayout), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chart_points (chart_id, label, value, student_id, recorded_at, position) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, p.Label, p.Value, p.StudentID, recordedAt, i); err != nil {
			return fmt.Errorf("insert point for chart %q: %w", c.ID, err)
		}
	}

	for i, m := range c.Metrics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO comparison_metrics (chart_id, name, before_value, after_value, unit, lower_is_better, student_id, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, m.Name, m.Before, m.After, m.Unit, m.LowerIsBetter, m.StudentID, i); err != nil {
			return fmt.Errorf("insert metric for chart %q: %w", c.ID, err)
		}
	}
	return nil
}

// GetDashboardTitle returns the display title of a dashboard.
func (r *ChartRepository) GetDashboardTitle(ctx context.Context, name string) (string, error) {
	var title string
	err := r.db.QueryRowContext(ctx, `SELECT title FROM dashboards WHERE name = ?`, name).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query GetDashboardTitle: %w", err)
	}
	return title, nil
}

// ListCharts returns a dashboard's charts in fixture order, without data.
func (r *ChartRepository) ListCharts(ctx context.Context, dashboard string) ([]models.Chart, error) {
	const query = `
		SELECT id, dashboard, title, kind, unit
		FROM charts
		WHERE dashboard = ?
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, dashboard)
	if err != nil {
		return nil, fmt.Errorf("query ListCharts: %w", err)
	}
	defer rows.Close()

	var results []models.Chart
	for rows.Next() {
		var c models.Chart
		var kind string
		if err := rows.Scan(&c.ID, &c.Dashboard, &c.Title, &kind, &c.Unit); err != nil {
			return nil, fmt.Errorf("scan ListCharts row: %w", err)
		}
		c.Kind = models.ChartKind(kind)
		results = append(results, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListCharts: %w", err)
	}
	return results, nil
}

// GetChart returns chart metadata or ErrChartNotFound.
func (r *ChartRepository) GetChart(ctx context.Context, id string) (models.Chart, error) {
	const query = `SELECT id, dashboard, title, kind, unit FROM charts WHERE id = ?`

	var c models.Chart
	var kind string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Dashboard, &c.Title, &kind, &c.Unit)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chart{}, fmt.Errorf("%w: %q", ErrChartNotFound, id)
	}
	if err != nil {
		return models.Chart{}, fmt.Errorf("query GetChart: %w", err)
	}
	c.Kind = models.ChartKind(kind)
	return c, nil
}

// GetDistribution sums point values per label, in first-appearance order.
func (r *ChartRepository) GetDistribution(ctx context.Context, chartID string, f models.Filter) ([]models.LabelValue, error) {
	where, args := pointFilter(chartID, f)
	query := `
		SELECT label, SUM(value) AS total
		FROM chart_points
		WHERE ` + where + `
		GROUP BY label
		ORDER BY MIN(position), label
	`
	return r.queryLabelValues(ctx, "GetDistribution", query, args)
}

// GetSeries averages point values per label, in axis order.
func (r *ChartRepository) GetSeries(ctx context.Context, chartID string, f models.Filter) ([]models.LabelValue, error) {
	where, args := pointFilter(chartID, f)
	query := `
		SELECT label, AVG(value) AS average
		FROM chart_points
		WHERE ` + where + `
		GROUP BY label
		ORDER BY MIN(position), label
	`
	return r.queryLabelValues(ctx, "GetSeries", query, args)
}

func (r *ChartRepository) queryLabelValues(ctx context.Context, op, query string, args []any) ([]models.LabelValue, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", op, err)
	}
	defer rows.Close()

	var results []models.LabelValue
	for rows.Next() {
		var lv models.LabelValue
		if err := rows.Scan(&lv.Label, &lv.Value); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", op, err)
		}
		results = append(results, lv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}
	return results, nil
}

// GetComparisons averages before/after values per metric name. Comparison
// rows carry no timestamp, so the time range is ignored.
func (r *ChartRepository) GetComparisons(ctx context.Context, chartID string, f models.Filter) ([]models.ComparisonMetric, error) {
	conds := []string{"chart_id = ?"}
	args := []any{chartID}
	if f.StudentID != "" {
		conds = append(conds, "student_id = ?")
		args = append(args, f.StudentID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "name LIKE ? ESCAPE '\\'")
		args = append(args, likePattern(s))
	}

	query := `
		SELECT name, AVG(before_value), AVG(after_value), unit, MAX(lower_is_better)
		FROM comparison_metrics
		WHERE ` + strings.Join(conds, " AND ") + `
		GROUP BY name, unit
		ORDER BY MIN(position), name
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query GetComparisons: %w", err)
	}
	defer rows.Close()

	var results []models.ComparisonMetric
	for rows.Next() {
		var m models.ComparisonMetric
		if err := rows.Scan(&m.Name, &m.Before, &m.After, &m.Unit, &m.LowerIsBetter); err != nil {
			return nil, fmt.Errorf("scan GetComparisons row: %w", err)
		}
		results = append(results, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetComparisons: %w", err)
	}
	return results, nil
}

// pointFilter builds the WHERE clause for chart_points. Undated points are
// excluded once a time bound is set.
func pointFilter(chartID string, f models.Filter) (string, []any) {
	conds := []string{"chart_id = ?"}
	args := []any{chartID}

	if f.StudentID != "" {
		conds = append(conds, "student_id = ?")
		args = append(args, f.StudentID)
	}
	if !f.From.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, f.From.UTC().Format(timeLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, "recorded_at <= ?")
		args = append(args, f.To.UTC().Format(timeLayout))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "label LIKE ? ESCAPE '\\'")
		args = append(args, likePattern(s))
	}
	return strings.Join(conds, " AND "), args
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
