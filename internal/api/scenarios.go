package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/dashboard"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/pipeline"
	"github.com/sander-remitly/plandash/internal/scenario"
)

// ScenarioEntryView is one selected scenario with its chart-ready result
type ScenarioEntryView struct {
	scenario.EntrySnapshot
	Result *models.ResultView `json:"result,omitempty"`
}

// ViewResponse is the scenario state of one view
type ViewResponse struct {
	View             string                      `json:"view"`
	Candidates       []string                    `json:"candidates"`
	CandidatesStatus scenario.Status             `json:"candidates_status"`
	CandidatesError  string                      `json:"candidates_error,omitempty"`
	Selected         []string                    `json:"selected"`
	Entries          []ScenarioEntryView         `json:"entries"`
	Loading          bool                        `json:"loading"`
	Comparison       []models.ScenarioComparison `json:"comparison"`
}

func (h *Handler) viewResponse(store *scenario.Store) ViewResponse {
	snap := store.Snapshot()

	entries := make([]ScenarioEntryView, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		ev := ScenarioEntryView{EntrySnapshot: e}
		if e.Status == scenario.StatusLoaded && e.Result != nil {
			view := pipeline.BuildResultView(h.formatter, e.Result)
			ev.Result = &view
		}
		entries = append(entries, ev)
	}

	return ViewResponse{
		View:             snap.View,
		Candidates:       snap.Candidates,
		CandidatesStatus: snap.CandidatesStatus,
		CandidatesError:  snap.CandidatesError,
		Selected:         snap.Selected,
		Entries:          entries,
		Loading:          snap.Loading,
		Comparison:       store.Comparison(h.formatter),
	}
}

// store resolves the view named in the URL
func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*scenario.Store, bool) {
	store, err := h.scenarios.Store(chi.URLParam(r, "view"))
	if err != nil {
		h.respondAppError(w, err)
		return nil, false
	}
	return store, true
}

// respondView reports the view state. Fetch failures are part of the state,
// only rejected input fails the request.
func (h *Handler) respondView(w http.ResponseWriter, store *scenario.Store, err error) {
	if apperr.Is(err, apperr.KindValidation) {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, h.viewResponse(store))
}

// scenarioName returns the decoded scenario name of the URL. chi matches
// on the raw path when the request has one, and those parameters arrive
// still escaped.
func scenarioName(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, nil
	}
	name, err := url.PathUnescape(name)
	if err != nil {
		return "", apperr.Validation("api.scenarioName", "Invalid scenario name.")
	}
	return name, nil
}

// HandleViews lists the views that hold scenario state
func (h *Handler) HandleViews(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string][]string{"views": h.scenarios.Views()})
}

// HandleViewScenarios returns the scenario state of a view, fetching the
// candidate list on first use
func (h *Handler) HandleViewScenarios(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	h.respondView(w, store, store.EnsureCandidates(r.Context()))
}

// HandleRefreshCandidates refetches the candidate list of a view
func (h *Handler) HandleRefreshCandidates(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	h.respondView(w, store, store.RefreshCandidates(r.Context()))
}

// HandleSelect replaces the selection of a view and loads it
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var req models.SelectionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	h.respondView(w, store, store.Select(r.Context(), req.Scenarios))
}

// HandleRefreshScenario reloads one selected scenario
func (h *Handler) HandleRefreshScenario(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	name, err := scenarioName(r)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondView(w, store, store.Refresh(r.Context(), name))
}

// HandleScenarioResult returns the result of one loaded scenario of a view
func (h *Handler) HandleScenarioResult(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	name, err := scenarioName(r)
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	result := store.Result(name)
	if result == nil {
		h.respondError(w, http.StatusNotFound, "Scenario not loaded", nil)
		return
	}
	h.respondJSON(w, http.StatusOK, pipeline.BuildResultView(h.formatter, result))
}

// HandleDeleteScenario deletes a scenario. The request must carry confirm=true.
func (h *Handler) HandleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	name, err := scenarioName(r)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	confirmed := r.URL.Query().Get("confirm") == "true"

	if err := h.scenarios.Delete(r.Context(), view, name, confirmed); err != nil {
		h.respondAppError(w, err)
		return
	}

	h.overview.Invalidate(dashboard.SectionScenarios)

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, h.viewResponse(store))
}

// HandleComparison returns the metric deltas of the selected scenarios
func (h *Handler) HandleComparison(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, store.Comparison(h.formatter))
}
