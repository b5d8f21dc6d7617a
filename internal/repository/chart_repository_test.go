package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/insights-server/internal/repository/models"
)

func newMockRepo(t *testing.T) (*ChartRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewChartRepository(db), mock
}

func TestPointFilter(t *testing.T) {
	t.Run("chart only", func(t *testing.T) {
		where, args := pointFilter("c1", models.Filter{})

		assert.Equal(t, "chart_id = ?", where)
		assert.Equal(t, []any{"c1"}, args)
	})

	t.Run("all predicates", func(t *testing.T) {
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		loc := time.FixedZone("WAT", 3600)
		to := time.Date(2025, 1, 31, 1, 0, 0, 0, loc)

		where, args := pointFilter("c1", models.Filter{StudentID: "s-9", From: from, To: to, Search: " math "})

		assert.Equal(t, `chart_id = ? AND student_id = ? AND recorded_at >= ? AND recorded_at <= ? AND label LIKE ? ESCAPE '\'`, where)
		assert.Equal(t, []any{"c1", "s-9", "2025-01-01T00:00:00Z", "2025-01-31T00:00:00Z", "%math%"}, args)
	})
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}

func TestChartRepository_QueryFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("GetDistribution query error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT label, SUM(value) AS total")).
			WithArgs("c1").
			WillReturnError(errors.New("disk I/O error"))

		rows, err := repo.GetDistribution(ctx, "c1", models.Filter{})

		assert.Nil(t, rows)
		assert.ErrorContains(t, err, "query GetDistribution")
		assert.ErrorContains(t, err, "disk I/O error")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetSeries scan error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT label, AVG(value) AS average")).
			WithArgs("c1").
			WillReturnRows(sqlmock.NewRows([]string{"label", "average"}).AddRow("Jan", "not-a-number"))

		rows, err := repo.GetSeries(ctx, "c1", models.Filter{})

		assert.Nil(t, rows)
		assert.ErrorContains(t, err, "scan GetSeries row")
	})

	t.Run("GetChart query error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dashboard, title, kind, unit FROM charts")).
			WithArgs("c1").
			WillReturnError(errors.New("locked"))

		_, err := repo.GetChart(ctx, "c1")

		assert.ErrorContains(t, err, "query GetChart")
		assert.NotErrorIs(t, err, ErrChartNotFound)
	})

	t.Run("ReplaceAll rolls back on insert failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		for _, table := range []string{"comparison_metrics", "chart_points", "charts", "dashboards"} {
			mock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dashboards")).
			WillReturnError(errors.New("constraint failed"))
		mock.ExpectRollback()

		err := repo.ReplaceAll(ctx, []models.Dashboard{{Name: "d", Title: "D"}})

		assert.ErrorContains(t, err, `insert dashboard "d"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
