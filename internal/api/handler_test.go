package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/dashboard"
	"github.com/sander-remitly/plandash/internal/gateway"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/repo"
	"github.com/sander-remitly/plandash/internal/validate"
	"go.uber.org/zap/zaptest"
)

// optimizer is an in-memory stand-in for the optimization service
type optimizer struct {
	mu          sync.Mutex
	scenarios   []string
	deliveries  []models.DeliveryRow
	warningsErr bool
	deleted     []string
	runs        int
	imports     int
}

func newOptimizer() *optimizer {
	return &optimizer{
		scenarios: []string{"base", "alt"},
		deliveries: []models.DeliveryRow{
			{Date: "2024-01-02", PulpType: models.PulpA, Amount: 5},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (o *optimizer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /time", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"summary":{"totalCost":1000},"inventoryData":[{"date":"2024-01-01","pulp_a":3},{"date":"2024-01-02","pulp_a":4}]}`)
	})
	mux.HandleFunc("GET /original_plan", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"summary":{"totalCost":1500}}`)
	})
	mux.HandleFunc("GET /get_formula", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"Acme":{"Board|3|Retail":["F1"]}}}`)
	})
	mux.HandleFunc("GET /get_warnings", func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		failing := o.warningsErr
		o.mu.Unlock()
		if failing {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Warnings unavailable"})
			return
		}
		io.WriteString(w, `{"data":{"warnings":["Low Pulp_B stock"]}}`)
	})
	mux.HandleFunc("GET /get_scenarios", func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		defer o.mu.Unlock()
		writeJSON(w, http.StatusOK, o.scenarios)
	})
	mux.HandleFunc("GET /get_scenario/{name}", func(w http.ResponseWriter, r *http.Request) {
		cost := 1000.0
		if r.PathValue("name") == "alt" {
			cost = 900
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"scenarioName": r.PathValue("name"),
			"summary":      map[string]float64{"totalCost": cost},
		})
	})
	mux.HandleFunc("DELETE /delete_scenario/{name}", func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		defer o.mu.Unlock()
		name := r.PathValue("name")
		o.deleted = append(o.deleted, name)
		kept := o.scenarios[:0]
		for _, s := range o.scenarios {
			if s != name {
				kept = append(kept, s)
			}
		}
		o.scenarios = kept
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	})
	mux.HandleFunc("GET /get_actual_inventory", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":[{"date":"2024-01-02","actual_pulp_a":10}]}`)
	})
	mux.HandleFunc("GET /get_delivery", func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		defer o.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": o.deliveries})
	})
	mux.HandleFunc("POST /sync_delivery", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Items []models.DeliveryRow `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		o.mu.Lock()
		o.deliveries = body.Items
		o.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "inserted": len(body.Items)})
	})
	mux.HandleFunc("POST /run_genetic_algorithm", func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		o.runs++
		o.mu.Unlock()
		io.WriteString(w, `{"success":true,"json_result":{"summary":{"totalCost":800}},"message":"Optimization complete"}`)
	})
	mux.HandleFunc("GET /export_excel", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", validate.SpreadsheetMIME)
		io.WriteString(w, "xlsx-bytes")
	})
	mux.HandleFunc("POST /import_excel", func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		o.imports++
		o.mu.Unlock()
		io.WriteString(w, `{"success":true,"message":"Imported"}`)
	})

	return mux
}

func setupTestHandler(t *testing.T, o *optimizer) (http.Handler, *repo.Repository) {
	t.Helper()

	server := httptest.NewServer(o.handler())
	t.Cleanup(server.Close)

	log := zaptest.NewLogger(t)
	client, err := gateway.New(gateway.Config{BaseURL: server.URL, Timeout: gateway.DefaultTimeout}, log)
	if err != nil {
		t.Fatalf("Failed to create gateway: %v", err)
	}

	repository, err := repo.New(filepath.Join(t.TempDir(), "plandash.db"), log)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() { repository.Close() })

	handler := NewHandler(client, repository, nil, log, Options{})
	return handler.SetupRouter(), repository
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestHandleHealth(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	w := do(t, h, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response models.HealthResponse
	decodeBody(t, w, &response)

	if response.Status != "ok" {
		t.Errorf("Expected status 'ok', got %s", response.Status)
	}
	if response.Database != "connected" {
		t.Errorf("Expected database 'connected', got %s", response.Database)
	}
	if response.Optimizer != "closed" {
		t.Errorf("Expected optimizer breaker 'closed', got %s", response.Optimizer)
	}
}

func TestHandleOverview_PartialFailure(t *testing.T) {
	o := newOptimizer()
	o.warningsErr = true
	h, _ := setupTestHandler(t, o)

	w := do(t, h, http.MethodGet, "/api/overview", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response OverviewResponse
	decodeBody(t, w, &response)

	if !response.AllLoaded {
		t.Error("Expected all sections to have finished")
	}
	if response.Current.Summary.TotalCost != "$1,000" {
		t.Errorf("Expected current total cost $1,000, got %s", response.Current.Summary.TotalCost)
	}
	if len(response.Scenarios) != 2 {
		t.Errorf("Expected 2 scenarios, got %d", len(response.Scenarios))
	}
	if len(response.Catalog) != 1 {
		t.Errorf("Expected 1 catalog option, got %d", len(response.Catalog))
	}

	warnings := response.Sections[dashboard.SectionWarnings]
	if warnings.Error != "Warnings unavailable" {
		t.Errorf("Expected warnings error, got %q", warnings.Error)
	}
	if len(response.Failed) != 1 || response.Failed[0] != dashboard.SectionWarnings {
		t.Errorf("Expected failed sections [warnings], got %v", response.Failed)
	}

	// The failed section recovers on its own retry
	o.mu.Lock()
	o.warningsErr = false
	o.mu.Unlock()

	w = do(t, h, http.MethodPost, "/api/overview/warnings/retry", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	decodeBody(t, w, &response)
	if len(response.Warnings) != 1 {
		t.Errorf("Expected 1 warning after retry, got %d", len(response.Warnings))
	}
	if len(response.Failed) != 0 {
		t.Errorf("Expected no failed sections after retry, got %v", response.Failed)
	}

	w = do(t, h, http.MethodPost, "/api/overview/bogus/retry", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown section, got %d", w.Code)
	}
}

func TestHandleInventoryCompare(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	w := do(t, h, http.MethodGet, "/api/inventory/compare", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response models.InventoryComparison
	decodeBody(t, w, &response)

	if len(response.Points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(response.Points))
	}
	if response.Points[0].ActualPulpA != nil {
		t.Error("Expected no actual value for 2024-01-01")
	}
	if response.Points[1].ActualPulpA == nil || *response.Points[1].ActualPulpA != 10 {
		t.Error("Expected actual value 10 for 2024-01-02")
	}
	if response.Range == nil || response.Range.Start != "2024-01-01" || response.Range.End != "2024-01-02" {
		t.Errorf("Unexpected range %+v", response.Range)
	}
}

func TestHandleRatioCheck(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	tests := []struct {
		name   string
		ratios map[string]float64
		valid  bool
	}{
		{"Exact", map[string]float64{"Pulp_A": 0.5, "Pulp_B": 0.3, "Pulp_C": 0.2}, true},
		{"Below tolerance", map[string]float64{"Pulp_A": 0.5, "Pulp_B": 0.3, "Pulp_C": 0.199}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/ratios/check", models.RatioCheckRequest{Ratios: tt.ratios})
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var response models.RatioCheck
			decodeBody(t, w, &response)
			if response.Valid != tt.valid {
				t.Errorf("Expected valid=%v, got %v (sum %v)", tt.valid, response.Valid, response.Sum)
			}
		})
	}
}

func TestHandleOptimize(t *testing.T) {
	o := newOptimizer()
	h, repository := setupTestHandler(t, o)

	w := do(t, h, http.MethodPost, "/api/optimize", models.RunRequest{SelectedProducts: []string{"Acme|Board|3|Retail"}, ScenarioName: "  q1  "})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response RunResponse
	decodeBody(t, w, &response)
	if response.Result.Summary.TotalCost != "$800" {
		t.Errorf("Expected total cost $800, got %s", response.Result.Summary.TotalCost)
	}

	runs, err := repository.Runs(10)
	if err != nil {
		t.Fatalf("Failed to read runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ScenarioName != "q1" || !runs[0].Success {
		t.Errorf("Unexpected journal %+v", runs)
	}
}

func TestHandleOptimize_ValidationSendsNothing(t *testing.T) {
	o := newOptimizer()
	h, _ := setupTestHandler(t, o)

	w := do(t, h, http.MethodPost, "/api/optimize", models.RunRequest{ScenarioName: "q1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	var response models.ErrorResponse
	decodeBody(t, w, &response)
	if response.Kind != string(apperr.KindValidation) {
		t.Errorf("Expected validation kind, got %s", response.Kind)
	}
	if o.runs != 0 {
		t.Errorf("Expected no run request, got %d", o.runs)
	}
}

func TestHandleInvalidJSON(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	req := httptest.NewRequest(http.MethodPost, "/api/optimize", strings.NewReader("invalid json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestScenarioView_SelectCompareDelete(t *testing.T) {
	o := newOptimizer()
	h, _ := setupTestHandler(t, o)

	w := do(t, h, http.MethodGet, "/api/views/compare/scenarios", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var view ViewResponse
	decodeBody(t, w, &view)
	if len(view.Candidates) != 2 || len(view.Selected) != 0 {
		t.Fatalf("Unexpected initial view %+v", view)
	}

	w = do(t, h, http.MethodPost, "/api/views/compare/selection", models.SelectionRequest{Scenarios: []string{"base", "alt"}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	decodeBody(t, w, &view)
	if len(view.Entries) != 2 || view.Entries[0].Result == nil {
		t.Fatalf("Expected 2 loaded entries, got %+v", view.Entries)
	}
	if len(view.Comparison) != 1 || view.Comparison[0].Candidate != "alt" {
		t.Fatalf("Expected alt compared against base, got %+v", view.Comparison)
	}

	// Deleting without confirmation sends nothing
	w = do(t, h, http.MethodDelete, "/api/views/compare/scenarios/base", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without confirmation, got %d", w.Code)
	}
	if len(o.deleted) != 0 {
		t.Errorf("Expected no delete request, got %v", o.deleted)
	}

	// Deleting a selected scenario resets the selection
	w = do(t, h, http.MethodDelete, "/api/views/compare/scenarios/base?confirm=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	decodeBody(t, w, &view)
	if len(view.Selected) != 0 || len(view.Entries) != 0 {
		t.Errorf("Expected empty selection, got %+v", view)
	}
	if len(view.Candidates) != 1 || view.Candidates[0] != "alt" {
		t.Errorf("Expected candidates [alt], got %v", view.Candidates)
	}
}

func TestScenarioView_EscapedName(t *testing.T) {
	o := newOptimizer()
	o.scenarios = []string{"Plan A+B", "100%", "alt"}
	h, _ := setupTestHandler(t, o)

	w := do(t, h, http.MethodPost, "/api/views/compare/selection", models.SelectionRequest{Scenarios: []string{"Plan A+B"}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	// Browsers escape "+" as %2B in path segments
	w = do(t, h, http.MethodGet, "/api/views/compare/scenarios/Plan%20A%2BB", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var result models.ResultView
	decodeBody(t, w, &result)
	if result.Summary.TotalCost != "$1,000" {
		t.Errorf("Expected total cost $1,000, got %s", result.Summary.TotalCost)
	}

	w = do(t, h, http.MethodPost, "/api/views/compare/scenarios/Plan%20A%2BB/refresh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var view ViewResponse
	decodeBody(t, w, &view)
	if len(view.Entries) != 1 || view.Entries[0].Name != "Plan A+B" || view.Entries[0].Result == nil {
		t.Fatalf("Expected Plan A+B reloaded, got %+v", view.Entries)
	}

	w = do(t, h, http.MethodDelete, "/api/views/compare/scenarios/Plan%20A%2BB?confirm=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	decodeBody(t, w, &view)
	if len(o.deleted) != 1 || o.deleted[0] != "Plan A+B" {
		t.Errorf("Expected Plan A+B deleted, got %v", o.deleted)
	}
	if len(view.Selected) != 0 || len(view.Entries) != 0 {
		t.Errorf("Expected empty selection, got %+v", view)
	}

	// A name whose only escape is the percent sign is matched on the decoded path
	w = do(t, h, http.MethodDelete, "/api/views/compare/scenarios/100%25?confirm=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(o.deleted) != 2 || o.deleted[1] != "100%" {
		t.Errorf("Expected 100%% deleted, got %v", o.deleted)
	}
}

func TestScenarioView_ResultNotLoaded(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	w := do(t, h, http.MethodGet, "/api/views/compare/scenarios/base", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandleViews(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	do(t, h, http.MethodGet, "/api/views/compare/scenarios", nil)
	do(t, h, http.MethodGet, "/api/views/dashboard/scenarios", nil)

	w := do(t, h, http.MethodGet, "/api/views", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response map[string][]string
	decodeBody(t, w, &response)
	views := response["views"]
	if len(views) != 2 || views[0] != "compare" || views[1] != "dashboard" {
		t.Errorf("Expected views [compare dashboard], got %v", views)
	}
}

func TestScenarioView_UnknownView(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	w := do(t, h, http.MethodGet, "/api/views/Not%20A%20View/scenarios", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestDeliveries_SaveReplacesRange(t *testing.T) {
	o := newOptimizer()
	h, repository := setupTestHandler(t, o)

	w := do(t, h, http.MethodGet, "/api/deliveries?start=2024-01-01&end=2024-01-31", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var loaded models.DeliverySet
	decodeBody(t, w, &loaded)

	rows := []models.DeliveryRow{
		{Date: "2024-01-03", PulpType: models.PulpB, Amount: 7},
		{Date: "2024-01-04", PulpType: models.PulpEucalyptus, Amount: 2},
	}
	w = do(t, h, http.MethodPut, "/api/deliveries", models.DeliverySaveRequest{
		Start: "2024-01-01", End: "2024-01-31", Rows: rows, Baseline: loaded.Fingerprint,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var saved models.DeliverySaveResponse
	decodeBody(t, w, &saved)
	if len(saved.Current.Rows) != len(rows) {
		t.Errorf("Expected %d rows after save, got %d", len(rows), len(saved.Current.Rows))
	}

	syncs, err := repository.Syncs(10)
	if err != nil {
		t.Fatalf("Failed to read syncs: %v", err)
	}
	if len(syncs) != 1 || syncs[0].Rows != 2 {
		t.Fatalf("Unexpected sync journal %+v", syncs)
	}

	w = do(t, h, http.MethodGet, "/api/history/syncs/"+strconv.Itoa(syncs[0].ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var journaled []models.DeliveryRow
	decodeBody(t, w, &journaled)
	if len(journaled) != 2 || journaled[0] != rows[0] || journaled[1] != rows[1] {
		t.Errorf("Expected journaled rows %+v, got %+v", rows, journaled)
	}

	// The old fingerprint no longer matches
	w = do(t, h, http.MethodPut, "/api/deliveries", models.DeliverySaveRequest{
		Start: "2024-01-01", End: "2024-01-31", Rows: rows, Baseline: loaded.Fingerprint,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestHandleSyncRows_InvalidID(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	for _, id := range []string{"abc", "0", "-3"} {
		w := do(t, h, http.MethodGet, "/api/history/syncs/"+id, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for id %q, got %d", id, w.Code)
		}
	}
}

func TestDeliveries_InvalidRow(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	w := do(t, h, http.MethodPut, "/api/deliveries", models.DeliverySaveRequest{
		Start: "2024-01-01", End: "2024-01-31",
		Rows: []models.DeliveryRow{{Date: "2024-1-3", PulpType: models.PulpA, Amount: 1}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleExport(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	w := do(t, h, http.MethodGet, "/api/spreadsheet/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != validate.SpreadsheetMIME {
		t.Errorf("Unexpected content type %s", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), gateway.DefaultExportFilename) {
		t.Errorf("Unexpected disposition %s", w.Header().Get("Content-Disposition"))
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Errorf("Unexpected body %q", w.Body.String())
	}
}

func uploadRequest(t *testing.T, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("Failed to create part: %v", err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/spreadsheet/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleImport(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		status      int
		imports     int
	}{
		{"Valid", "plan.xlsx", validate.SpreadsheetMIME, http.StatusOK, 1},
		{"Wrong extension", "plan.csv", validate.SpreadsheetMIME, http.StatusBadRequest, 0},
		{"Generic type", "plan.xlsx", "application/octet-stream", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOptimizer()
			h, _ := setupTestHandler(t, o)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, uploadRequest(t, tt.filename, tt.contentType, []byte("PK-data")))

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if o.imports != tt.imports {
				t.Errorf("Expected %d import requests, got %d", tt.imports, o.imports)
			}
		})
	}
}

func TestHandleHistoryAndClear(t *testing.T) {
	h, repository := setupTestHandler(t, newOptimizer())

	if err := repository.RecordRun("q1", []string{"A"}, true, "ok"); err != nil {
		t.Fatalf("Failed to record run: %v", err)
	}

	w := do(t, h, http.MethodGet, "/api/history", nil)
	var response models.HistoryResponse
	decodeBody(t, w, &response)
	if len(response.Runs) != 1 {
		t.Errorf("Expected 1 run, got %d", len(response.Runs))
	}
	if response.Stats["total_runs"] != float64(1) {
		t.Errorf("Expected total_runs 1, got %v", response.Stats["total_runs"])
	}

	w = do(t, h, http.MethodPost, "/api/history/clear", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/history", nil)
	decodeBody(t, w, &response)
	if len(response.Runs) != 0 {
		t.Errorf("Expected empty history, got %d runs", len(response.Runs))
	}
}

func TestHandleCacheStats_Disabled(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	w := do(t, h, http.MethodGet, "/api/cache/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response models.CacheStatsResponse
	decodeBody(t, w, &response)
	if response.Enabled {
		t.Error("Expected cache to be disabled")
	}
}

func TestCORSMiddleware(t *testing.T) {
	h, _ := setupTestHandler(t, newOptimizer())

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for OPTIONS, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header to be set")
	}
}
