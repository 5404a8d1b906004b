package pipeline

import (
	"sort"

	"github.com/sander-remitly/plandash/internal/format"
	"github.com/sander-remitly/plandash/internal/models"
)

// BuildResultView derives every chart and table series of a result. A nil
// result yields an empty view rather than an error.
func BuildResultView(f format.Formatter, r *models.OptimizationResult) models.ResultView {
	view := models.ResultView{
		Summary:        f.Summary(models.Summary{}),
		Products:       []models.ProductProgress{},
		Plan:           []models.PlanRow{},
		Inventory:      []models.InventoryPoint{},
		Daily:          []models.DailyPoint{},
		FinalInventory: []models.MaterialQuantity{},
		Labels:         format.Labels(),
	}
	if r == nil {
		return view
	}

	view.ScenarioName = r.Name()
	view.Summary = f.Summary(r.Summary)
	view.Products = ProductProgress(f, r.Products, r.ProductionPlan)
	view.Plan = PlanRows(f, r.ProductionPlan)
	view.Inventory = InventorySeries(r.InventoryData)
	view.Daily = DailySeries(r.DataPerDay)
	view.FinalInventory = f.Materials(r.PulpInventoryFinal)
	if rng, ok := DateRange(r.InventoryDates()); ok {
		view.Range = &rng
	}
	return view
}

type progressKey struct {
	identity string
	formula  string
}

// ProductProgress builds one row per product in catalog order, followed by
// planned products that are missing from the product list.
func ProductProgress(f format.Formatter, products []models.Product, plan []models.ProductionPlanItem) []models.ProductProgress {
	type acc struct {
		quantity  float64
		maxTarget float64
	}
	totals := make(map[progressKey]*acc)
	var planOrder []progressKey
	planItem := make(map[progressKey]models.ProductionPlanItem)

	for _, item := range plan {
		key := progressKey{identity: item.Identity(), formula: item.Formula}
		a, ok := totals[key]
		if !ok {
			a = &acc{}
			totals[key] = a
			planOrder = append(planOrder, key)
			planItem[key] = item
		}
		if q := models.Value(item.Quantity); q > 0 {
			a.quantity += q
		}
		if t := models.Value(item.TargetQuantity); t > a.maxTarget {
			a.maxTarget = t
		}
	}

	rows := make([]models.ProductProgress, 0, len(products)+len(planOrder))
	listed := make(map[progressKey]bool, len(products))

	for _, p := range products {
		key := progressKey{identity: p.Identity(), formula: p.Formula}
		listed[key] = true

		var quantity, target float64
		if a, ok := totals[key]; ok {
			quantity = a.quantity
			target = a.maxTarget
		}
		if p.TargetQuantity != nil {
			target = models.Value(p.TargetQuantity)
		}

		rows = append(rows, progressRow(f, p, quantity, target))
	}

	for _, key := range planOrder {
		if listed[key] {
			continue
		}
		item := planItem[key]
		p := models.Product{
			Brand:        item.Brand,
			ProductGroup: item.ProductGroup,
			Thickness:    item.Thickness,
			Channel:      item.Channel,
			Formula:      item.Formula,
		}
		rows = append(rows, progressRow(f, p, totals[key].quantity, totals[key].maxTarget))
	}

	return rows
}

func progressRow(f format.Formatter, p models.Product, quantity, target float64) models.ProductProgress {
	achievement := Achievement(quantity, target)
	return models.ProductProgress{
		Brand:            p.Brand,
		ProductGroup:     p.ProductGroup,
		Thickness:        string(p.Thickness),
		Channel:          p.Channel,
		Formula:          p.Formula,
		Quantity:         quantity,
		TargetQuantity:   target,
		Achievement:      achievement,
		QuantityLabel:    f.Mass(&quantity),
		TargetLabel:      f.Mass(&target),
		AchievementLabel: f.Percent(&achievement),
		Ratios:           CheckRatios(p.Ratios),
	}
}

// PlanRows projects plan items in input order
func PlanRows(f format.Formatter, plan []models.ProductionPlanItem) []models.PlanRow {
	rows := make([]models.PlanRow, 0, len(plan))
	for _, item := range plan {
		quantity := models.Value(item.Quantity)
		target := models.Value(item.TargetQuantity)
		achievement := Achievement(quantity, target)
		rows = append(rows, models.PlanRow{
			Date:             item.Date,
			Product:          item.Identity(),
			Formula:          item.Formula,
			Quantity:         quantity,
			TargetQuantity:   target,
			Achievement:      achievement,
			AchievementLabel: f.Percent(&achievement),
		})
	}
	return rows
}

// DailySeries defaults missing fields; a missing day index becomes the 1-based position
func DailySeries(days []models.DataPerDay) []models.DailyPoint {
	points := make([]models.DailyPoint, 0, len(days))
	for i, d := range days {
		day := i + 1
		if d.Day != nil {
			day = *d.Day
		}
		points = append(points, models.DailyPoint{
			Day:        day,
			Date:       d.Date,
			Cost:       models.Value(d.Cost),
			Production: models.Value(d.Production),
			CostPerTon: models.Value(d.CostPerTon),
		})
	}
	return points
}

// PriceSeries defaults missing prices and orders rows by date
func PriceSeries(records []models.PriceRecord) []models.PricePoint {
	points := make([]models.PricePoint, 0, len(records))
	for _, rec := range records {
		points = append(points, models.PricePoint{
			Date:       rec.Date,
			PulpA:      models.Value(rec.PulpA),
			PulpB:      models.Value(rec.PulpB),
			PulpC:      models.Value(rec.PulpC),
			Eucalyptus: models.Value(rec.Eucalyptus),
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}

// CatalogOptions flattens the product catalog, sorted by brand then composite key
func CatalogOptions(catalog models.ProductsData) []models.CatalogOption {
	options := make([]models.CatalogOption, 0)
	for brand, entries := range catalog {
		for key, formulas := range entries {
			group, thickness, channel := models.SplitCompositeKey(key)
			options = append(options, models.CatalogOption{
				Key:          brand + "|" + key,
				Brand:        brand,
				ProductGroup: group,
				Thickness:    thickness,
				Channel:      channel,
				Formulas:     append([]string{}, formulas...),
			})
		}
	}
	sort.Slice(options, func(i, j int) bool {
		return options[i].Key < options[j].Key
	})
	return options
}
