package api

import (
	"net/http"

	"github.com/sander-remitly/plandash/internal/models"
)

// HandleGetDeliveries returns the delivery rows of a date range
func (h *Handler) HandleGetDeliveries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	set, err := h.deliveries.Load(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, set)
}

// HandleSaveDeliveries replaces the delivery rows of a date range
func (h *Handler) HandleSaveDeliveries(w http.ResponseWriter, r *http.Request) {
	var req models.DeliverySaveRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.deliveries.Save(r.Context(), req)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}
