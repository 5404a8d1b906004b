package pipeline

import (
	"github.com/sander-remitly/plandash/internal/models"
)

// DeliveryTotals is the per-material sum of one inventory item's deliveries
type DeliveryTotals struct {
	Eucalyptus float64
	PulpA      float64
	PulpB      float64
	PulpC      float64
}

// Total returns the sum over the four buckets
func (t DeliveryTotals) Total() float64 {
	return t.Eucalyptus + t.PulpA + t.PulpB + t.PulpC
}

// AggregateDeliveries sums amounts per pulp type. Unknown pulp types
// are skipped and absent amounts count as zero.
func AggregateDeliveries(deliveries []models.Delivery) DeliveryTotals {
	var totals DeliveryTotals
	for _, d := range deliveries {
		amount := models.Value(d.Amount)
		switch d.PulpType {
		case models.PulpEucalyptus:
			totals.Eucalyptus += amount
		case models.PulpA:
			totals.PulpA += amount
		case models.PulpB:
			totals.PulpB += amount
		case models.PulpC:
			totals.PulpC += amount
		}
	}
	return totals
}

// InventorySeries projects inventory items into chart rows, one per item in input order
func InventorySeries(items []models.InventoryItem) []models.InventoryPoint {
	points := make([]models.InventoryPoint, 0, len(items))
	for _, item := range items {
		points = append(points, InventoryPointOf(item))
	}
	return points
}

// InventoryPointOf defaults missing stock levels to zero and attaches delivery totals
func InventoryPointOf(item models.InventoryItem) models.InventoryPoint {
	totals := AggregateDeliveries(item.Deliveries)
	return models.InventoryPoint{
		Date:               item.Date,
		PulpA:              models.Value(item.PulpA),
		PulpB:              models.Value(item.PulpB),
		PulpC:              models.Value(item.PulpC),
		Eucalyptus:         models.Value(item.Eucalyptus),
		DeliveryEucalyptus: totals.Eucalyptus,
		DeliveryPulpA:      totals.PulpA,
		DeliveryPulpB:      totals.PulpB,
		DeliveryPulpC:      totals.PulpC,
	}
}
