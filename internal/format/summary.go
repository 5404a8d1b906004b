package format

import (
	"sort"

	"github.com/sander-remitly/plandash/internal/models"
)

// Summary converts optional summary metrics into display strings
func (f Formatter) Summary(s models.Summary) models.SummaryView {
	return models.SummaryView{
		TotalDays:        f.Number(s.TotalDays, 0),
		MaxPossibleDays:  f.Number(s.MaxPossibleDays, 0),
		TotalCost:        f.Currency(s.TotalCost),
		AvgCostPerTon:    f.Currency(s.AvgCostPerTon),
		ActualProduction: f.Mass(s.ActualProduction),
		TargetProduction: f.Mass(s.TargetProduction),
		OptimizationType: f.Text(s.OptimizationType),
		Fitness:          f.Number(s.Fitness, 4),
		SuccessRate:      f.Percent(s.SuccessRate),
		FinalInventory:   f.Materials(s.FinalInventory),
	}
}

// Materials turns a material -> quantity map into labeled rows. Known pulp
// types come first in display order, other materials follow alphabetically.
func (f Formatter) Materials(stock map[string]float64) []models.MaterialQuantity {
	rows := make([]models.MaterialQuantity, 0, len(stock))
	seen := make(map[string]bool, len(stock))

	for _, material := range models.PulpTypes() {
		if qty, ok := stock[material]; ok {
			rows = append(rows, f.material(material, qty))
			seen[material] = true
		}
	}

	rest := make([]string, 0, len(stock))
	for material := range stock {
		if !seen[material] {
			rest = append(rest, material)
		}
	}
	sort.Strings(rest)
	for _, material := range rest {
		rows = append(rows, f.material(material, stock[material]))
	}

	return rows
}

func (f Formatter) material(material string, qty float64) models.MaterialQuantity {
	q := models.Value(&qty)
	return models.MaterialQuantity{
		Material: material,
		Label:    MaterialLabel(material),
		Quantity: q,
		Display:  f.Mass(&q),
	}
}
