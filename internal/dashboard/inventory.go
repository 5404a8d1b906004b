package dashboard

import (
	"context"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/pipeline"
	"go.uber.org/zap"
)

// ActualSource fetches measured inventory
type ActualSource interface {
	ActualInventory(ctx context.Context, start, end string) ([]models.ActualInventoryRecord, error)
}

// CompareInventory pairs the predicted inventory of result with measured
// stock over the predicted date range. No fetch is made when the result has
// no dates. A failed fetch is reported in ActualError and the points carry
// predicted values only.
func CompareInventory(ctx context.Context, source ActualSource, result *models.OptimizationResult, log *zap.Logger) models.InventoryComparison {
	if log == nil {
		log = zap.NewNop()
	}

	var items []models.InventoryItem
	if result != nil {
		items = result.InventoryData
	}
	predicted := pipeline.InventorySeries(items)

	cmp := models.InventoryComparison{}

	rng, ok := pipeline.DateRange(result.InventoryDates())
	if !ok {
		cmp.Points = pipeline.Reconcile(predicted, nil)
		return cmp
	}
	cmp.Range = &rng

	actual, err := source.ActualInventory(ctx, rng.Start, rng.End)
	if err != nil {
		log.Warn("Actual inventory unavailable, showing predicted only",
			zap.String("start", rng.Start),
			zap.String("end", rng.End),
			zap.Error(err),
		)
		cmp.ActualError = apperr.Message(err)
		actual = nil
	} else {
		cmp.ActualAvailable = true
	}

	cmp.Points = pipeline.Reconcile(predicted, actual)
	return cmp
}

// InventoryComparison compares the current result held by the loader
func (l *Loader) InventoryComparison(ctx context.Context) models.InventoryComparison {
	ov := l.Ensure(ctx)
	return CompareInventory(ctx, l.source, ov.Current, l.log)
}
