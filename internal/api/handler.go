package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/cache"
	"github.com/sander-remitly/plandash/internal/dashboard"
	"github.com/sander-remitly/plandash/internal/delivery"
	"github.com/sander-remitly/plandash/internal/format"
	"github.com/sander-remitly/plandash/internal/gateway"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/repo"
	"github.com/sander-remitly/plandash/internal/scenario"
	"github.com/sander-remitly/plandash/internal/validate"
	"go.uber.org/zap"
)

// historyLimit is the number of journal entries returned per kind
const historyLimit = 20

// Options configures a Handler
type Options struct {
	Formatter      format.Formatter
	MaxUploadBytes int64
}

// Handler handles HTTP requests
type Handler struct {
	gateway   *gateway.Client
	repo      *repo.Repository
	cache     *cache.Cache
	log       *zap.Logger
	formatter format.Formatter
	maxUpload int64

	overview   *dashboard.Loader
	scenarios  *scenario.Registry
	deliveries *delivery.Service

	startTime time.Time
}

// NewHandler creates a new API handler. cacheInstance may be nil.
func NewHandler(gw *gateway.Client, repository *repo.Repository, cacheInstance *cache.Cache, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Formatter.CurrencySymbol == "" {
		opts.Formatter = format.Default
	}
	if opts.MaxUploadBytes <= 0 || opts.MaxUploadBytes > validate.MaxSpreadsheetBytes {
		opts.MaxUploadBytes = validate.MaxSpreadsheetBytes
	}

	var journal delivery.Journal
	if repository != nil {
		journal = repository
	}

	return &Handler{
		gateway:    gw,
		repo:       repository,
		cache:      cacheInstance,
		log:        log,
		formatter:  opts.Formatter,
		maxUpload:  opts.MaxUploadBytes,
		overview:   dashboard.NewLoader(gw, log.Named("dashboard")),
		scenarios:  scenario.NewRegistry(gw, log.Named("scenario")),
		deliveries: delivery.NewService(gw, journal, log.Named("delivery")),
		startTime:  time.Now(),
	}
}

// SetupRouter configures the Chi router with all routes
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)

		r.Get("/overview", h.HandleOverview)
		r.Post("/overview/{section}/retry", h.HandleRetrySection)

		r.Get("/results/current", h.HandleCurrentResult)
		r.Get("/results/original", h.HandleOriginalPlan)
		r.Get("/inventory/compare", h.HandleInventoryCompare)
		r.Get("/prices", h.HandlePrices)
		r.Get("/targets", h.HandleTargets)
		r.Get("/catalog", h.HandleCatalog)
		r.Post("/ratios/check", h.HandleRatioCheck)

		r.Post("/optimize", h.HandleOptimize)
		r.Post("/optimizer/init", h.HandleInitOptimizer)
		r.Post("/scenarios/save", h.HandleSaveScenario)

		r.Get("/views", h.HandleViews)
		r.Route("/views/{view}", func(r chi.Router) {
			r.Get("/scenarios", h.HandleViewScenarios)
			r.Post("/scenarios/refresh", h.HandleRefreshCandidates)
			r.Post("/selection", h.HandleSelect)
			r.Get("/scenarios/{name}", h.HandleScenarioResult)
			r.Post("/scenarios/{name}/refresh", h.HandleRefreshScenario)
			r.Delete("/scenarios/{name}", h.HandleDeleteScenario)
			r.Get("/comparison", h.HandleComparison)
		})

		r.Get("/deliveries", h.HandleGetDeliveries)
		r.Put("/deliveries", h.HandleSaveDeliveries)

		r.Get("/spreadsheet/export", h.HandleExport)
		r.Post("/spreadsheet/import", h.HandleImport)

		r.Get("/history", h.HandleHistory)
		r.Get("/history/syncs/{id}", h.HandleSyncRows)
		r.Post("/history/clear", h.HandleClearHistory)

		// Cache endpoints
		r.Get("/cache/stats", h.HandleCacheStats)
		r.Post("/cache/clear", h.HandleCacheClear)
	})

	return r
}

// HandleHealth returns service health status
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if h.repo == nil || h.repo.Ping() != nil {
		dbStatus = "disconnected"
	}

	uptime := time.Since(h.startTime).Round(time.Second).String()

	response := models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  dbStatus,
		Optimizer: h.gateway.BreakerState(),
		Uptime:    uptime,
	}

	h.respondJSON(w, http.StatusOK, response)
}

// HandleHistory returns the journal of delivery syncs and optimization runs
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.respondJSON(w, http.StatusOK, models.HistoryResponse{Syncs: []models.SyncEntry{}, Runs: []models.RunEntry{}})
		return
	}

	stats, err := h.repo.GetStats()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to get history", err)
		return
	}

	syncs, err := h.repo.Syncs(historyLimit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to get history", err)
		return
	}
	runs, err := h.repo.Runs(historyLimit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to get history", err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.HistoryResponse{Syncs: syncs, Runs: runs, Stats: stats})
}

// HandleSyncRows returns the rows submitted by one journaled sync
func (h *Handler) HandleSyncRows(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondAppError(w, apperr.Validation("api.syncRows", "Invalid sync id."))
		return
	}

	if h.repo == nil {
		h.respondJSON(w, http.StatusOK, []models.DeliveryRow{})
		return
	}

	rows, err := h.repo.SyncRows(id)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to get sync rows", err)
		return
	}
	h.respondJSON(w, http.StatusOK, rows)
}

// HandleClearHistory clears the journal
func (h *Handler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	if h.repo != nil {
		if err := h.repo.ClearHistory(); err != nil {
			h.respondError(w, http.StatusInternalServerError, "Failed to clear history", err)
			return
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"message": "History cleared"})
}

// HandleCacheStats returns cache statistics
func (h *Handler) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.respondJSON(w, http.StatusOK, models.CacheStatsResponse{})
		return
	}

	stats, err := h.cache.GetStats(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to get cache stats", err)
		return
	}

	response := models.CacheStatsResponse{
		Enabled:    h.cache.IsEnabled(),
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		HitRate:    stats.HitRate,
		TotalKeys:  stats.TotalKeys,
		MemoryUsed: stats.MemoryUsed,
		Uptime:     stats.Uptime,
	}

	h.respondJSON(w, http.StatusOK, response)
}

// HandleCacheClear clears all cache entries
func (h *Handler) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if err := h.cache.Clear(r.Context()); err != nil {
			h.respondError(w, http.StatusInternalServerError, "Failed to clear cache", err)
			return
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Cache cleared successfully"})
}

// Helper functions

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("Error encoding JSON response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.log.Error("Request error",
			zap.String("message", message),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	response := models.ErrorResponse{
		Error: message,
		Code:  status,
	}

	if err != nil {
		response.Message = err.Error()
	}

	h.respondJSON(w, status, response)
}

// respondAppError reports a tagged error with its user-facing copy
func (h *Handler) respondAppError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)

	if kind == apperr.KindValidation || kind == apperr.KindConflict {
		h.log.Info("Request rejected", zap.Int("status", status), zap.Error(err))
	} else {
		h.log.Error("Request error", zap.Int("status", status), zap.Error(err))
	}

	h.respondJSON(w, status, models.ErrorResponse{
		Error: apperr.Message(err),
		Kind:  string(kind),
		Code:  status,
	})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondAppError(w, &apperr.Error{
			Kind:    apperr.KindValidation,
			Op:      "api.decode",
			Message: "Invalid request body",
			Err:     err,
		})
		return false
	}
	return true
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
