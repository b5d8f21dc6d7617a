package geometry

// BeforeAfterBar is a before/after pair ready for width mapping on a 0–100
// scale. Values pass through unnormalised: raw counts and percentages share
// the same scale, so mixed units compare only qualitatively.
type BeforeAfterBar struct {
	Name      string  `json:"name"`
	BeforePct float64 `json:"before_pct"`
	AfterPct  float64 `json:"after_pct"`
	Unit      string  `json:"unit"`
	Delta     float64 `json:"delta"`
	Improved  bool    `json:"improved"`
}

// ComputeBeforeAfterBars passes each metric through as display percentages.
func ComputeBeforeAfterBars(metrics []BeforeAfterMetric) ([]BeforeAfterBar, error) {
	out := make([]BeforeAfterBar, len(metrics))
	for i, m := range metrics {
		if err := checkFinite(m.Name, m.Before, m.After); err != nil {
			return nil, err
		}
		delta := m.After - m.Before
		improved := delta > 0
		if m.LowerIsBetter {
			improved = delta < 0
		}
		out[i] = BeforeAfterBar{
			Name:      m.Name,
			BeforePct: m.Before,
			AfterPct:  m.After,
			Unit:      m.Unit,
			Delta:     delta,
			Improved:  improved,
		}
	}
	return out, nil
}

// ClampPct bounds a display percentage to [0, 100] for width mapping.
func ClampPct(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
