// Package fixtures decodes the dashboards' static chart data.
package fixtures

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/godilite/insights-server/internal/repository/models"
)

//go:embed default.json
var defaultFixtures []byte

var ErrInvalidFixture = errors.New("invalid fixture")

var validate = validator.New()

type Bundle struct {
	Dashboards []Dashboard `json:"dashboards" validate:"required,min=1,unique=Name,dive"`
}

type Dashboard struct {
	Name   string  `json:"name" validate:"required"`
	Title  string  `json:"title" validate:"required"`
	Charts []Chart `json:"charts" validate:"dive"`
}

type Chart struct {
	ID      string   `json:"id" validate:"required"`
	Title   string   `json:"title" validate:"required"`
	Kind    string   `json:"kind" validate:"required,oneof=pie donut bar line before_after"`
	Unit    string   `json:"unit"`
	Points  []Point  `json:"points" validate:"dive"`
	Metrics []Metric `json:"metrics" validate:"dive"`
}

type Point struct {
	Label      string     `json:"label" validate:"required"`
	Value      float64    `json:"value" validate:"gte=0"`
	StudentID  string     `json:"student_id"`
	RecordedAt *time.Time `json:"recorded_at"`
}

type Metric struct {
	Name          string  `json:"name" validate:"required"`
	Before        float64 `json:"before"`
	After         float64 `json:"after"`
	Unit          string  `json:"unit"`
	LowerIsBetter bool    `json:"lower_is_better"`
	StudentID     string  `json:"student_id"`
}

// Decode parses and validates a fixture bundle.
func Decode(r io.Reader) (Bundle, error) {
	var b Bundle
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return Bundle{}, fmt.Errorf("%w: decode: %v", ErrInvalidFixture, err)
	}
	if err := b.Validate(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// Validate checks field rules and cross-record constraints.
func (b Bundle) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}

	ids := make(map[string]string)
	for _, d := range b.Dashboards {
		for _, c := range d.Charts {
			if owner, dup := ids[c.ID]; dup {
				return fmt.Errorf("%w: chart id %q used by %q and %q", ErrInvalidFixture, c.ID, owner, d.Name)
			}
			ids[c.ID] = d.Name

			if models.ChartKind(c.Kind) == models.KindBeforeAfter {
				if len(c.Points) > 0 {
					return fmt.Errorf("%w: chart %q: before_after charts take metrics, not points", ErrInvalidFixture, c.ID)
				}
				continue
			}
			if len(c.Metrics) > 0 {
				return fmt.Errorf("%w: chart %q: %s charts take points, not metrics", ErrInvalidFixture, c.ID, c.Kind)
			}
		}
	}
	return nil
}

// Default returns the embedded fixture set.
func Default() (Bundle, error) {
	return Decode(bytes.NewReader(defaultFixtures))
}

// LoadFile reads a bundle from path, or the embedded set when path is empty.
func LoadFile(path string) (Bundle, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Models converts the bundle into repository records.
func (b Bundle) Models() []models.Dashboard {
	out := make([]models.Dashboard, 0, len(b.Dashboards))
	for _, d := range b.Dashboards {
		md := models.Dashboard{Name: d.Name, Title: d.Title}
		for _, c := range d.Charts {
			mc := models.Chart{
				ID:        c.ID,
				Dashboard: d.Name,
				Title:     c.Title,
				Kind:      models.ChartKind(c.Kind),
				Unit:      c.Unit,
			}
			for _, p := range c.Points {
				mp := models.ChartPoint{Label: p.Label, Value: p.Value, StudentID: p.StudentID}
				if p.RecordedAt != nil {
					mp.RecordedAt = *p.RecordedAt
				}
				mc.Points = append(mc.Points, mp)
			}
			for _, m := range c.Metrics {
				mc.Metrics = append(mc.Metrics, models.ComparisonMetric{
					Name:          m.Name,
					Before:        m.Before,
					After:         m.After,
					Unit:          m.Unit,
					LowerIsBetter: m.LowerIsBetter,
					StudentID:     m.StudentID,
				})
			}
			md.Charts = append(md.Charts, mc)
		}
		out = append(out, md)
	}
	return out
}
