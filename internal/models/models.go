package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// Pulp type labels as the optimization service spells them
const (
	PulpEucalyptus = "Eucalyptus"
	PulpA          = "Pulp_A"
	PulpB          = "Pulp_B"
	PulpC          = "Pulp_C"
)

// PulpTypes returns the four tracked materials in display order
func PulpTypes() []string {
	return []string{PulpEucalyptus, PulpA, PulpB, PulpC}
}

// IsPulpType reports whether s is one of the four tracked materials
func IsPulpType(s string) bool {
	switch s {
	case PulpEucalyptus, PulpA, PulpB, PulpC:
		return true
	}
	return false
}

// Value dereferences an optional number. nil, NaN and ±Inf read as 0.
func Value(p *float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0
	}
	return *p
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// FlexString decodes a JSON string or number into a string
type FlexString string

// UnmarshalJSON accepts "1.2", 1.2 and null
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// OptimizationResult is one computed schedule for a date range
type OptimizationResult struct {
	ScenarioName       *string              `json:"scenarioName,omitempty"`
	Summary            Summary              `json:"summary"`
	Products           []Product            `json:"products"`
	ProductionPlan     []ProductionPlanItem `json:"productionPlan"`
	InventoryData      []InventoryItem      `json:"inventoryData"`
	DataPerDay         []DataPerDay         `json:"dataPerDay"`
	PulpInventoryFinal map[string]float64   `json:"pulpInventoryFinal,omitempty"`
}

// Name returns the scenario name or "" for ad-hoc runs
func (r *OptimizationResult) Name() string {
	if r == nil || r.ScenarioName == nil {
		return ""
	}
	return *r.ScenarioName
}

// InventoryDates returns the inventory dates in series order
func (r *OptimizationResult) InventoryDates() []string {
	if r == nil {
		return nil
	}
	dates := make([]string, 0, len(r.InventoryData))
	for _, item := range r.InventoryData {
		dates = append(dates, item.Date)
	}
	return dates
}

// Summary holds aggregate metrics. Any field may be absent.
type Summary struct {
	TotalDays        *float64           `json:"totalDays,omitempty"`
	MaxPossibleDays  *float64           `json:"maxPossibleDays,omitempty"`
	TotalCost        *float64           `json:"totalCost,omitempty"`
	AvgCostPerTon    *float64           `json:"avgCostPerTon,omitempty"`
	ActualProduction *float64           `json:"actualProduction,omitempty"`
	TargetProduction *float64           `json:"targetProduction,omitempty"`
	OptimizationType *string            `json:"optimizationType,omitempty"`
	Fitness          *float64           `json:"fitness,omitempty"`
	SuccessRate      *float64           `json:"successRate,omitempty"`
	FinalInventory   map[string]float64 `json:"finalInventory,omitempty"`
}

// Product is a catalog entry selected for a run
type Product struct {
	Brand          string             `json:"brand"`
	ProductGroup   string             `json:"productGroup"`
	Thickness      FlexString         `json:"thickness"`
	Channel        string             `json:"channel"`
	Formula        string             `json:"formula"`
	Ratios         map[string]float64 `json:"ratios,omitempty"`
	TargetQuantity *float64           `json:"targetQuantity,omitempty"`
}

// CompositeKey returns "productGroup|thickness|channel"
func (p Product) CompositeKey() string {
	return CompositeKey(p.ProductGroup, string(p.Thickness), p.Channel)
}

// Identity returns the full identity "brand|productGroup|thickness|channel"
func (p Product) Identity() string {
	return p.Brand + "|" + p.CompositeKey()
}

// CompositeKey joins the catalog key parts
func CompositeKey(productGroup, thickness, channel string) string {
	return strings.Join([]string{productGroup, thickness, channel}, "|")
}

// SplitCompositeKey is the inverse of CompositeKey. Missing parts are empty.
func SplitCompositeKey(key string) (productGroup, thickness, channel string) {
	parts := strings.SplitN(key, "|", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

// ProductionPlanItem is one (date, product) decision
type ProductionPlanItem struct {
	Date           string     `json:"date"`
	Brand          string     `json:"brand"`
	ProductGroup   string     `json:"productGroup"`
	Thickness      FlexString `json:"thickness"`
	Channel        string     `json:"channel"`
	Formula        string     `json:"formula"`
	Quantity       *float64   `json:"quantity,omitempty"`
	TargetQuantity *float64   `json:"targetQuantity,omitempty"`
}

// Identity matches Product.Identity
func (p ProductionPlanItem) Identity() string {
	return p.Brand + "|" + CompositeKey(p.ProductGroup, string(p.Thickness), p.Channel)
}

// InventoryItem is the stock snapshot of one calendar date
type InventoryItem struct {
	Date       string     `json:"date"`
	PulpA      *float64   `json:"pulp_a,omitempty"`
	PulpB      *float64   `json:"pulp_b,omitempty"`
	PulpC      *float64   `json:"pulp_c,omitempty"`
	Eucalyptus *float64   `json:"eucalyptus,omitempty"`
	Deliveries []Delivery `json:"deliveries,omitempty"`
}

// Delivery is a single material arrival
type Delivery struct {
	PulpType string   `json:"pulpType"`
	Amount   *float64 `json:"amount,omitempty"`
	Date     string   `json:"date,omitempty"`
}

// DataPerDay is the cost and production rollup of one day index
type DataPerDay struct {
	Day        *int     `json:"day,omitempty"`
	Date       string   `json:"date,omitempty"`
	Cost       *float64 `json:"cost,omitempty"`
	Production *float64 `json:"production,omitempty"`
	CostPerTon *float64 `json:"costPerTon,omitempty"`
}

// DeliveryRow is a user-authored delivery edited in the delivery grid
type DeliveryRow struct {
	Date     string  `json:"date"`
	PulpType string  `json:"pulpType"`
	Amount   float64 `json:"amount"`
}

// ProductsData maps brand -> "productGroup|thickness|channel" -> formula labels
type ProductsData map[string]map[string][]string

// ActualInventoryRecord is measured stock for one date
type ActualInventoryRecord struct {
	Date             string   `json:"date"`
	ActualPulpA      *float64 `json:"actual_pulp_a,omitempty"`
	ActualPulpB      *float64 `json:"actual_pulp_b,omitempty"`
	ActualPulpC      *float64 `json:"actual_pulp_c,omitempty"`
	ActualEucalyptus *float64 `json:"actual_eucalyptus,omitempty"`
}

// PriceRecord holds per-ton material prices for one date
type PriceRecord struct {
	Date       string   `json:"date"`
	PulpA      *float64 `json:"pulp_a,omitempty"`
	PulpB      *float64 `json:"pulp_b,omitempty"`
	PulpC      *float64 `json:"pulp_c,omitempty"`
	Eucalyptus *float64 `json:"eucalyptus,omitempty"`
}

// ScenarioInfo describes the scenario target percentages were computed for
type ScenarioInfo struct {
	Name      string `json:"name,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// TargetPercentagesData maps composite key -> material -> target percent
type TargetPercentagesData map[string]map[string]float64

// TargetPercentages is the decoded /get_target_percentages payload
type TargetPercentages struct {
	Data         TargetPercentagesData `json:"data"`
	ScenarioInfo *ScenarioInfo         `json:"scenario_info,omitempty"`
}

// SaveScenarioRequest is the body of /save_scenario
type SaveScenarioRequest struct {
	Scenario      map[string]interface{} `json:"scenario"`
	Products      []Product              `json:"products"`
	InventoryData []InventoryItem        `json:"inventoryData"`
}

// RunRequest is the body of /run_genetic_algorithm
type RunRequest struct {
	SelectedProducts []string `json:"selected_products"`
	ScenarioName     string   `json:"scenario_name"`
}

// RunResponse is the decoded optimization run outcome
type RunResponse struct {
	Success bool                `json:"success"`
	Result  *OptimizationResult `json:"json_result,omitempty"`
	Message string              `json:"message,omitempty"`
}

// SyncResponse is the decoded /sync_delivery outcome
type SyncResponse struct {
	Success  bool   `json:"success"`
	Inserted int    `json:"inserted"`
	Message  string `json:"message,omitempty"`
}

// ImportResponse is the decoded /import_excel outcome
type ImportResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
