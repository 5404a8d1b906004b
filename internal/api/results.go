package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/dashboard"
	"github.com/sander-remitly/plandash/internal/format"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/pipeline"
	"go.uber.org/zap"
)

// OverviewResponse is the initial dashboard payload
type OverviewResponse struct {
	Current   models.ResultView                            `json:"current"`
	Original  models.ResultView                            `json:"original"`
	Catalog   []models.CatalogOption                       `json:"catalog"`
	Scenarios []string                                     `json:"scenarios"`
	Warnings  []string                                     `json:"warnings"`
	Sections  map[dashboard.Section]dashboard.SectionState `json:"sections"`
	Failed    []dashboard.Section                          `json:"failed"`
	AllLoaded bool                                         `json:"all_loaded"`
	Labels    map[string]string                            `json:"labels"`
}

// RunResponse is the outcome of POST /api/optimize
type RunResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Result  models.ResultView `json:"result"`
}

// SaveScenarioResponse is the outcome of POST /api/scenarios/save
type SaveScenarioResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (h *Handler) overviewResponse(ov dashboard.Overview) OverviewResponse {
	return OverviewResponse{
		Current:   pipeline.BuildResultView(h.formatter, ov.Current),
		Original:  pipeline.BuildResultView(h.formatter, ov.Original),
		Catalog:   pipeline.CatalogOptions(ov.Catalog),
		Scenarios: ov.Scenarios,
		Warnings:  ov.Warnings,
		Sections:  ov.Sections,
		Failed:    ov.FailedSections(),
		AllLoaded: ov.AllLoaded,
		Labels:    format.Labels(),
	}
}

// HandleOverview loads every initial section not loaded yet. A failed
// section is reported in its state and does not fail the request.
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ov := h.overview.Ensure(r.Context())
	h.respondJSON(w, http.StatusOK, h.overviewResponse(ov))
}

// HandleRetrySection reloads a single initial section
func (h *Handler) HandleRetrySection(w http.ResponseWriter, r *http.Request) {
	section := dashboard.Section(chi.URLParam(r, "section"))

	ov, err := h.overview.Retry(r.Context(), section)
	if apperr.Is(err, apperr.KindValidation) {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, h.overviewResponse(ov))
}

// sectionError rebuilds the error recorded for a failed section
func sectionError(section dashboard.Section, st dashboard.SectionState) error {
	if st.Error == "" {
		return nil
	}
	return &apperr.Error{Kind: st.Kind, Op: "dashboard." + string(section), Message: st.Error}
}

func (h *Handler) sectionResult(w http.ResponseWriter, r *http.Request, section dashboard.Section, pick func(dashboard.Overview) *models.OptimizationResult) {
	var ov dashboard.Overview
	if r.URL.Query().Get("refresh") == "true" {
		ov, _ = h.overview.Retry(r.Context(), section)
	} else {
		ov = h.overview.Ensure(r.Context())
	}

	if err := sectionError(section, ov.Sections[section]); err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pipeline.BuildResultView(h.formatter, pick(ov)))
}

// HandleCurrentResult returns the view of the latest optimization result
func (h *Handler) HandleCurrentResult(w http.ResponseWriter, r *http.Request) {
	h.sectionResult(w, r, dashboard.SectionCurrent, func(ov dashboard.Overview) *models.OptimizationResult { return ov.Current })
}

// HandleOriginalPlan returns the view of the original plan
func (h *Handler) HandleOriginalPlan(w http.ResponseWriter, r *http.Request) {
	h.sectionResult(w, r, dashboard.SectionOriginal, func(ov dashboard.Overview) *models.OptimizationResult { return ov.Original })
}

// HandleInventoryCompare returns predicted stock paired with measured stock
func (h *Handler) HandleInventoryCompare(w http.ResponseWriter, r *http.Request) {
	ov := h.overview.Ensure(r.Context())
	if err := sectionError(dashboard.SectionCurrent, ov.Sections[dashboard.SectionCurrent]); err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dashboard.CompareInventory(r.Context(), h.gateway, ov.Current, h.log))
}

// HandlePrices returns the material price series of a date range
func (h *Handler) HandlePrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := h.gateway.Prices(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pipeline.PriceSeries(records))
}

// HandleTargets returns the target material percentages per product
func (h *Handler) HandleTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.gateway.TargetPercentages(r.Context())
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, targets)
}

// HandleCatalog returns the selectable products and their formulas
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.gateway.ProductCatalog(r.Context())
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pipeline.CatalogOptions(catalog))
}

// HandleRatioCheck validates the composition of edited ratios
func (h *Handler) HandleRatioCheck(w http.ResponseWriter, r *http.Request) {
	var req models.RatioCheckRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	h.respondJSON(w, http.StatusOK, pipeline.CheckRatios(req.Ratios))
}

// HandleOptimize runs the optimizer for the selected products. The outcome
// is journaled whether or not the run succeeds.
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req models.RunRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	req.ScenarioName = strings.TrimSpace(req.ScenarioName)

	resp, err := h.gateway.RunOptimization(r.Context(), req)
	if apperr.Is(err, apperr.KindValidation) {
		h.respondAppError(w, err)
		return
	}

	message := apperr.Message(err)
	if err == nil {
		message = resp.Message
	}
	if h.repo != nil {
		if jerr := h.repo.RecordRun(req.ScenarioName, req.SelectedProducts, err == nil, message); jerr != nil {
			h.log.Warn("Failed to journal optimization run", zap.Error(jerr))
		}
	}

	if err != nil {
		h.respondAppError(w, err)
		return
	}

	h.overview.Invalidate(dashboard.SectionCurrent, dashboard.SectionScenarios)

	h.respondJSON(w, http.StatusOK, RunResponse{
		Success: true,
		Message: resp.Message,
		Result:  pipeline.BuildResultView(h.formatter, resp.Result),
	})
}

// HandleInitOptimizer asks the service to reload its optimizer state
func (h *Handler) HandleInitOptimizer(w http.ResponseWriter, r *http.Request) {
	message, err := h.gateway.InitializeOptimizer(r.Context())
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	h.overview.Invalidate(dashboard.SectionCatalog)
	h.respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// HandleSaveScenario stores a scenario on the optimization service
func (h *Handler) HandleSaveScenario(w http.ResponseWriter, r *http.Request) {
	var req models.SaveScenarioRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	name, err := h.gateway.SaveScenario(r.Context(), req)
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	h.overview.Invalidate(dashboard.SectionScenarios)
	h.respondJSON(w, http.StatusOK, SaveScenarioResponse{Name: name, Message: "Scenario saved"})
}
