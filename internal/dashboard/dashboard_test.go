package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSource struct {
	mu          sync.Mutex
	current     *models.OptimizationResult
	warningsErr error
	actual      []models.ActualInventoryRecord
	actualErr   error
	actualCalls []models.DateRange
	block       chan struct{}
}

func (f *fakeSource) CurrentResult(ctx context.Context) (*models.OptimizationResult, error) {
	return f.current, nil
}

func (f *fakeSource) OriginalPlan(ctx context.Context) (*models.OptimizationResult, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, apperr.Network("gateway.OriginalPlan", ctx.Err())
		}
	}
	return &models.OptimizationResult{}, nil
}

func (f *fakeSource) ProductCatalog(ctx context.Context) (models.ProductsData, error) {
	return models.ProductsData{"Acme": {"Board|3|Retail": {"F1"}}}, nil
}

func (f *fakeSource) ListScenarios(ctx context.Context) ([]string, error) {
	return []string{"base"}, nil
}

func (f *fakeSource) Warnings(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.warningsErr != nil {
		return nil, f.warningsErr
	}
	return []string{"Low stock"}, nil
}

func (f *fakeSource) ActualInventory(ctx context.Context, start, end string) ([]models.ActualInventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actualCalls = append(f.actualCalls, models.DateRange{Start: start, End: end})
	return f.actual, f.actualErr
}

func resultWithDates(dates ...string) *models.OptimizationResult {
	result := &models.OptimizationResult{}
	for _, d := range dates {
		result.InventoryData = append(result.InventoryData, models.InventoryItem{Date: d, PulpA: models.Float(1)})
	}
	return result
}

func TestLoadAll_PartialFailure(t *testing.T) {
	src := &fakeSource{
		current:     resultWithDates("2024-01-01"),
		warningsErr: apperr.Network("gateway.Warnings", errors.New("refused")),
	}
	loader := NewLoader(src, zaptest.NewLogger(t))

	ov := loader.LoadAll(context.Background())

	assert.True(t, ov.AllLoaded)
	assert.NotNil(t, ov.Current)
	assert.NotNil(t, ov.Original)
	assert.Equal(t, []string{"base"}, ov.Scenarios)
	assert.Contains(t, ov.Catalog, "Acme")
	assert.Empty(t, ov.Warnings)

	assert.True(t, ov.Sections[SectionCurrent].Loaded)
	warnings := ov.Sections[SectionWarnings]
	assert.False(t, warnings.Loaded)
	assert.Equal(t, apperr.KindNetwork, warnings.Kind)
	assert.Equal(t, []Section{SectionWarnings}, ov.FailedSections())
}

func TestRetry_SingleSection(t *testing.T) {
	src := &fakeSource{warningsErr: errors.New("boom")}
	loader := NewLoader(src, zaptest.NewLogger(t))
	ctx := context.Background()

	loader.LoadAll(ctx)

	src.mu.Lock()
	src.warningsErr = nil
	src.mu.Unlock()

	ov, err := loader.Retry(ctx, SectionWarnings)
	require.NoError(t, err)
	assert.Equal(t, []string{"Low stock"}, ov.Warnings)
	assert.Empty(t, ov.FailedSections())

	_, err = loader.Retry(ctx, Section("bogus"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLoadAll_SlowSectionDoesNotBlockOthers(t *testing.T) {
	src := &fakeSource{block: make(chan struct{})}
	loader := NewLoader(src, zaptest.NewLogger(t))

	done := make(chan Overview, 1)
	go func() {
		done <- loader.LoadAll(context.Background())
	}()

	require.Eventually(t, func() bool {
		return loader.Snapshot().Sections[SectionWarnings].Loaded
	}, time.Second, 5*time.Millisecond)

	snap := loader.Snapshot()
	assert.False(t, snap.AllLoaded)
	assert.True(t, snap.Sections[SectionOriginal].Loading)

	close(src.block)
	ov := <-done
	assert.True(t, ov.AllLoaded)
}

func TestEnsure_SkipsLoadedSections(t *testing.T) {
	src := &fakeSource{current: resultWithDates("2024-01-01")}
	loader := NewLoader(src, zaptest.NewLogger(t))
	ctx := context.Background()

	first := loader.Ensure(ctx)
	require.True(t, first.AllLoaded)

	src.current = resultWithDates("2024-02-01")
	second := loader.Ensure(ctx)
	assert.Equal(t, "2024-01-01", second.Current.InventoryData[0].Date)

	loader.Invalidate(SectionCurrent)
	third := loader.Ensure(ctx)
	assert.Equal(t, "2024-02-01", third.Current.InventoryData[0].Date)
}

func TestCompareInventory(t *testing.T) {
	src := &fakeSource{actual: []models.ActualInventoryRecord{
		{Date: "2024-01-02", ActualPulpA: models.Float(10)},
	}}

	cmp := CompareInventory(context.Background(), src, resultWithDates("2024-01-02", "2024-01-01"), zaptest.NewLogger(t))

	require.Len(t, src.actualCalls, 1)
	assert.Equal(t, models.DateRange{Start: "2024-01-01", End: "2024-01-02"}, src.actualCalls[0])
	assert.True(t, cmp.ActualAvailable)
	require.Len(t, cmp.Points, 2)
	assert.Equal(t, "2024-01-02", cmp.Points[0].Date)
	require.NotNil(t, cmp.Points[0].ActualPulpA)
	assert.Equal(t, 10.0, *cmp.Points[0].ActualPulpA)
	assert.Nil(t, cmp.Points[1].ActualPulpA)
}

func TestCompareInventory_NoPredictedDatesSkipsFetch(t *testing.T) {
	src := &fakeSource{}

	cmp := CompareInventory(context.Background(), src, &models.OptimizationResult{}, zaptest.NewLogger(t))
	assert.Empty(t, src.actualCalls)
	assert.Empty(t, cmp.Points)
	assert.Nil(t, cmp.Range)

	cmp = CompareInventory(context.Background(), src, nil, zaptest.NewLogger(t))
	assert.Empty(t, src.actualCalls)
	assert.NotNil(t, cmp.Points)
}

func TestCompareInventory_FailedActualFetch(t *testing.T) {
	src := &fakeSource{actualErr: apperr.Server("gateway.ActualInventory", 500, "No measurements")}

	cmp := CompareInventory(context.Background(), src, resultWithDates("2024-01-01"), zaptest.NewLogger(t))

	assert.False(t, cmp.ActualAvailable)
	assert.Equal(t, "No measurements", cmp.ActualError)
	require.Len(t, cmp.Points, 1)
	assert.Equal(t, 1.0, cmp.Points[0].PulpA)
	assert.Nil(t, cmp.Points[0].ActualPulpA)
}
