package pipeline

import (
	"github.com/sander-remitly/plandash/internal/format"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/shopspring/decimal"
)

var (
	hundred        = decimal.NewFromInt(100)
	ratioTolerance = decimal.NewFromFloat(0.1)
)

// CheckRatios sums the three primary pulp ratios as a percentage and flags
// the composition valid when the sum is within 0.1 of 100. Eucalyptus and
// secondary materials are blended separately and are not part of the sum.
func CheckRatios(ratios map[string]float64) models.RatioCheck {
	sum := decimal.Zero
	for _, material := range []string{models.PulpA, models.PulpB, models.PulpC} {
		v := ratios[material]
		sum = sum.Add(decimal.NewFromFloat(models.Value(&v)))
	}
	sum = sum.Mul(hundred)

	valid := sum.Sub(hundred).Abs().LessThan(ratioTolerance)
	f, _ := sum.Float64()
	return models.RatioCheck{
		Sum:   f,
		Valid: valid,
		Label: format.Percent(&f),
	}
}

// Achievement returns quantity / target as a percentage, or 0 when target is
// zero or quantity is not positive.
func Achievement(quantity, target float64) float64 {
	if target <= 0 || quantity <= 0 {
		return 0
	}
	return quantity / target * 100
}
