package pipeline

import (
	"github.com/sander-remitly/plandash/internal/models"
)

// DateRange returns the earliest and latest non-empty date. ok is false when
// no date is present. Dates are compared as YYYY-MM-DD strings.
func DateRange(dates []string) (r models.DateRange, ok bool) {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if !ok {
			r = models.DateRange{Start: d, End: d}
			ok = true
			continue
		}
		if d < r.Start {
			r.Start = d
		}
		if d > r.End {
			r.End = d
		}
	}
	return r, ok
}

// Reconcile aligns actual records to the predicted series by exact date string.
// Every predicted point yields one output point; actual values are nil when
// the date has no record. Actual dates outside the predicted series are ignored.
// When several actual records share a date, the last one wins.
func Reconcile(predicted []models.InventoryPoint, actual []models.ActualInventoryRecord) []models.ReconciledPoint {
	byDate := make(map[string]models.ActualInventoryRecord, len(actual))
	for _, rec := range actual {
		byDate[rec.Date] = rec
	}

	points := make([]models.ReconciledPoint, 0, len(predicted))
	for _, p := range predicted {
		point := models.ReconciledPoint{InventoryPoint: p}
		if rec, ok := byDate[p.Date]; ok {
			point.ActualPulpA = copyFloat(rec.ActualPulpA)
			point.ActualPulpB = copyFloat(rec.ActualPulpB)
			point.ActualPulpC = copyFloat(rec.ActualPulpC)
			point.ActualEucalyptus = copyFloat(rec.ActualEucalyptus)
		}
		points = append(points, point)
	}
	return points
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
