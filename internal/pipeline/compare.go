package pipeline

import (
	"math"

	"github.com/sander-remitly/plandash/internal/format"
	"github.com/sander-remitly/plandash/internal/models"
)

type metric struct {
	key     string
	value   func(models.Summary) *float64
	display func(f format.Formatter, v *float64) string
}

var comparedMetrics = []metric{
	{"totalCost", func(s models.Summary) *float64 { return s.TotalCost }, format.Formatter.Currency},
	{"avgCostPerTon", func(s models.Summary) *float64 { return s.AvgCostPerTon }, format.Formatter.Currency},
	{"actualProduction", func(s models.Summary) *float64 { return s.ActualProduction }, format.Formatter.Mass},
	{"successRate", func(s models.Summary) *float64 { return s.SuccessRate }, format.Formatter.Percent},
	{"fitness", func(s models.Summary) *float64 { return s.Fitness }, func(f format.Formatter, v *float64) string { return f.Number(v, 4) }},
}

// CompareSummaries computes candidate-minus-baseline deltas for the compared
// summary metrics. DeltaPercent is 0 when the baseline value is 0.
func CompareSummaries(f format.Formatter, baselineName string, baseline models.Summary, candidateName string, candidate models.Summary) models.ScenarioComparison {
	cmp := models.ScenarioComparison{
		Baseline:  baselineName,
		Candidate: candidateName,
		Metrics:   make([]models.MetricDelta, 0, len(comparedMetrics)),
	}

	for _, m := range comparedMetrics {
		b := models.Value(m.value(baseline))
		c := models.Value(m.value(candidate))
		delta := c - b

		var pct float64
		if b != 0 {
			pct = delta / math.Abs(b) * 100
		}

		cmp.Metrics = append(cmp.Metrics, models.MetricDelta{
			Metric:       m.key,
			Label:        format.Label(m.key),
			Baseline:     b,
			Candidate:    c,
			Delta:        delta,
			DeltaPercent: pct,
			Display:      m.display(f, &delta),
		})
	}

	return cmp
}
