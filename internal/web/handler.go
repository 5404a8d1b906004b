package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sander-remitly/plandash/internal/format"
	"github.com/sander-remitly/plandash/internal/models"
	"go.uber.org/zap"
)

//go:embed templates/* static/*
var content embed.FS

// DefaultView is the scenario view the dashboard page works on
const DefaultView = "dashboard"

type pageData struct {
	Title     string
	View      string
	Materials []string
	PulpTypes []string
}

// Handler handles web UI requests
type Handler struct {
	templates *template.Template
	static    fs.FS
	log       *zap.Logger
}

// NewHandler creates a new web handler
func NewHandler(log *zap.Logger) (*Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Parse templates
	tmpl, err := template.ParseFS(content, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	staticFS, err := fs.Sub(content, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to create static filesystem: %w", err)
	}

	return &Handler{
		templates: tmpl,
		static:    staticFS,
		log:       log,
	}, nil
}

// SetupRoutes adds web UI routes to the router
func (h *Handler) SetupRoutes(r chi.Router) {
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(h.static))))

	// Serve index page
	r.Get("/", h.HandleIndex)
}

// HandleIndex serves the main UI page
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:     "Production Plan Dashboard",
		View:      DefaultView,
		PulpTypes: models.PulpTypes(),
	}
	for _, p := range data.PulpTypes {
		data.Materials = append(data.Materials, format.MaterialLabel(p))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.log.Error("Error rendering template", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
