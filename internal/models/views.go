package models

import "time"

// InventoryPoint is one chart row of the inventory view
type InventoryPoint struct {
	Date               string  `json:"date"`
	PulpA              float64 `json:"pulp_a"`
	PulpB              float64 `json:"pulp_b"`
	PulpC              float64 `json:"pulp_c"`
	Eucalyptus         float64 `json:"eucalyptus"`
	DeliveryEucalyptus float64 `json:"delivery_eucalyptus"`
	DeliveryPulpA      float64 `json:"delivery_pulp_a"`
	DeliveryPulpB      float64 `json:"delivery_pulp_b"`
	DeliveryPulpC      float64 `json:"delivery_pulp_c"`
}

// ReconciledPoint pairs a predicted inventory row with the actual record of the same date.
// Actual values are nil when no record exists for the date.
type ReconciledPoint struct {
	InventoryPoint
	ActualPulpA      *float64 `json:"actual_pulp_a"`
	ActualPulpB      *float64 `json:"actual_pulp_b"`
	ActualPulpC      *float64 `json:"actual_pulp_c"`
	ActualEucalyptus *float64 `json:"actual_eucalyptus"`
}

// DateRange is an inclusive YYYY-MM-DD range
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// InventoryComparison is the actual-vs-predicted chart payload
type InventoryComparison struct {
	Points          []ReconciledPoint `json:"points"`
	Range           *DateRange        `json:"range,omitempty"`
	ActualAvailable bool              `json:"actual_available"`
	ActualError     string            `json:"actual_error,omitempty"`
}

// RatioCheck is the outcome of the composition check of one product
type RatioCheck struct {
	Sum   float64 `json:"sum"`
	Valid bool    `json:"valid"`
	Label string  `json:"label"`
}

// ProductProgress is one row of the production table
type ProductProgress struct {
	Brand            string     `json:"brand"`
	ProductGroup     string     `json:"productGroup"`
	Thickness        string     `json:"thickness"`
	Channel          string     `json:"channel"`
	Formula          string     `json:"formula"`
	Quantity         float64    `json:"quantity"`
	TargetQuantity   float64    `json:"targetQuantity"`
	Achievement      float64    `json:"achievement"`
	QuantityLabel    string     `json:"quantity_label"`
	TargetLabel      string     `json:"target_label"`
	AchievementLabel string     `json:"achievement_label"`
	Ratios           RatioCheck `json:"ratios"`
}

// PlanRow is one (date, product) row of the production plan table
type PlanRow struct {
	Date             string  `json:"date"`
	Product          string  `json:"product"`
	Formula          string  `json:"formula"`
	Quantity         float64 `json:"quantity"`
	TargetQuantity   float64 `json:"targetQuantity"`
	Achievement      float64 `json:"achievement"`
	AchievementLabel string  `json:"achievement_label"`
}

// DailyPoint is one row of the daily cost/production chart
type DailyPoint struct {
	Day        int     `json:"day"`
	Date       string  `json:"date,omitempty"`
	Cost       float64 `json:"cost"`
	Production float64 `json:"production"`
	CostPerTon float64 `json:"costPerTon"`
}

// MaterialQuantity is a labeled stock figure
type MaterialQuantity struct {
	Material string  `json:"material"`
	Label    string  `json:"label"`
	Quantity float64 `json:"quantity"`
	Display  string  `json:"display"`
}

// SummaryView is the display form of Summary
type SummaryView struct {
	TotalDays        string             `json:"totalDays"`
	MaxPossibleDays  string             `json:"maxPossibleDays"`
	TotalCost        string             `json:"totalCost"`
	AvgCostPerTon    string             `json:"avgCostPerTon"`
	ActualProduction string             `json:"actualProduction"`
	TargetProduction string             `json:"targetProduction"`
	OptimizationType string             `json:"optimizationType"`
	Fitness          string             `json:"fitness"`
	SuccessRate      string             `json:"successRate"`
	FinalInventory   []MaterialQuantity `json:"finalInventory"`
}

// ResultView is the chart/table-ready projection of an OptimizationResult
type ResultView struct {
	ScenarioName   string             `json:"scenarioName,omitempty"`
	Summary        SummaryView        `json:"summary"`
	Products       []ProductProgress  `json:"products"`
	Plan           []PlanRow          `json:"plan"`
	Inventory      []InventoryPoint   `json:"inventory"`
	Daily          []DailyPoint       `json:"daily"`
	FinalInventory []MaterialQuantity `json:"finalInventory"`
	Range          *DateRange         `json:"range,omitempty"`
	Labels         map[string]string  `json:"labels"`
}

// MetricDelta compares one summary metric between a baseline and a candidate
type MetricDelta struct {
	Metric       string  `json:"metric"`
	Label        string  `json:"label"`
	Baseline     float64 `json:"baseline"`
	Candidate    float64 `json:"candidate"`
	Delta        float64 `json:"delta"`
	DeltaPercent float64 `json:"deltaPercent"`
	Display      string  `json:"display"`
}

// ScenarioComparison holds the deltas of one candidate scenario against the baseline
type ScenarioComparison struct {
	Baseline  string        `json:"baseline"`
	Candidate string        `json:"candidate"`
	Metrics   []MetricDelta `json:"metrics"`
}

// CatalogOption is one selectable product/formula
type CatalogOption struct {
	Key          string   `json:"key"`
	Brand        string   `json:"brand"`
	ProductGroup string   `json:"productGroup"`
	Thickness    string   `json:"thickness"`
	Channel      string   `json:"channel"`
	Formulas     []string `json:"formulas"`
}

// PricePoint is one row of the price chart
type PricePoint struct {
	Date       string  `json:"date"`
	PulpA      float64 `json:"pulp_a"`
	PulpB      float64 `json:"pulp_b"`
	PulpC      float64 `json:"pulp_c"`
	Eucalyptus float64 `json:"eucalyptus"`
}

// DeliverySet is the delivery grid with the fingerprint of the loaded rows
type DeliverySet struct {
	Range       DateRange     `json:"range"`
	Rows        []DeliveryRow `json:"rows"`
	Fingerprint string        `json:"fingerprint"`
}

// DeliverySaveRequest is the body of PUT /api/deliveries
type DeliverySaveRequest struct {
	Start    string        `json:"start"`
	End      string        `json:"end"`
	Rows     []DeliveryRow `json:"rows"`
	Baseline string        `json:"baseline,omitempty"`
}

// DeliverySaveResponse returns server truth after a sync
type DeliverySaveResponse struct {
	Inserted int         `json:"inserted"`
	Message  string      `json:"message,omitempty"`
	Current  DeliverySet `json:"current"`
}

// SelectionRequest is the body of a scenario selection change
type SelectionRequest struct {
	Scenarios []string `json:"scenarios"`
}

// RatioCheckRequest is the body of POST /api/ratios/check
type RatioCheckRequest struct {
	Ratios map[string]float64 `json:"ratios"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database,omitempty"`
	Optimizer string    `json:"optimizer,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SyncEntry is a journaled delivery sync
type SyncEntry struct {
	ID          int       `json:"id"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	Rows        int       `json:"rows"`
	Inserted    int       `json:"inserted"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
}

// RunEntry is a journaled optimization run
type RunEntry struct {
	ID               int       `json:"id"`
	ScenarioName     string    `json:"scenario_name"`
	SelectedProducts []string  `json:"selected_products"`
	Success          bool      `json:"success"`
	Message          string    `json:"message,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// HistoryResponse represents the API response for the journal
type HistoryResponse struct {
	Syncs []SyncEntry            `json:"syncs"`
	Runs  []RunEntry             `json:"runs"`
	Stats map[string]interface{} `json:"stats,omitempty"`
}

// CacheStatsResponse represents cache statistics
type CacheStatsResponse struct {
	Enabled    bool    `json:"enabled"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	TotalKeys  int64   `json:"total_keys"`
	MemoryUsed string  `json:"memory_used"`
	Uptime     string  `json:"uptime"`
}
