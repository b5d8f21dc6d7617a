package service

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/godilite/insights-server/internal/fixtures"
	"github.com/godilite/insights-server/internal/repository"
	"github.com/godilite/insights-server/internal/repository/models"
	dbbuilder "github.com/godilite/insights-server/pkg/database"
)

func setupRealDB(tb testing.TB) *repository.ChartRepository {
	tb.Helper()

	db, err := dbbuilder.New(
		dbbuilder.WithDriver("sqlite3"),
		dbbuilder.WithDataSource(":memory:"),
	)
	if err != nil {
		tb.Fatalf("failed to create db pool via builder: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	repo := repository.NewChartRepository(db)
	ctx := context.Background()
	if err := repo.EnsureSchema(ctx); err != nil {
		tb.Fatalf("failed to create schema: %v", err)
	}

	bundle, err := fixtures.Default()
	if err != nil {
		tb.Fatalf("failed to decode fixtures: %v", err)
	}
	if err := repo.ReplaceAll(ctx, bundle.Models()); err != nil {
		tb.Fatalf("failed to seed db: %v", err)
	}
	return repo
}

// TestDashboardService_Fixtures runs every default dashboard through the real store.
func TestDashboardService_Fixtures(t *testing.T) {
	svc := NewDashboardService(setupRealDB(t), zap.NewNop())
	ctx := context.Background()

	for _, name := range []string{"parent-communication", "wellbeing", "multilingual", "learning-pathway", "student-voice", "student"} {
		d, err := svc.GetDashboard(ctx, name, models.Filter{}, ChartOptions{})
		if err != nil {
			t.Fatalf("GetDashboard(%q): %v", name, err)
		}
		if len(d.Charts) == 0 {
			t.Fatalf("GetDashboard(%q): no charts", name)
		}
		for _, c := range d.Charts {
			if c.Empty {
				t.Errorf("%s/%s is empty", name, c.Meta.ID)
			}
		}
	}

	pie, err := svc.GetPieChart(ctx, "sv-suggestions", models.Filter{}, ChartOptions{})
	if err != nil {
		t.Fatalf("GetPieChart: %v", err)
	}
	if got := pie.Slices[0].Label; got != 67 {
		t.Errorf("Implemented label = %d, want 67", got)
	}

	line, err := svc.GetLineChart(ctx, "wb-mood", models.Filter{StudentID: "stu-002"}, ChartOptions{})
	if err != nil {
		t.Fatalf("GetLineChart: %v", err)
	}
	if len(line.Points) != 3 || line.Points[0].Value != 7 {
		t.Errorf("unexpected per-child series: %+v", line.Points)
	}
}

func BenchmarkGetDashboard(b *testing.B) {
	svc := NewDashboardService(setupRealDB(b), zap.NewNop())

	b.ReportAllocs()

	for b.Loop() {
		_, _ = svc.GetDashboard(context.Background(), "student-voice", models.Filter{}, ChartOptions{})
	}
}

func BenchmarkRenderChartSVG(b *testing.B) {
	svc := NewDashboardService(setupRealDB(b), zap.NewNop())

	b.ReportAllocs()

	for b.Loop() {
		_, _ = svc.RenderChartSVG(context.Background(), "lp-mastery", models.Filter{}, ChartOptions{})
	}
}
