package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/dashboard"
	"go.uber.org/zap"
)

// multipartOverhead is the slack allowed on top of the file for form framing
const multipartOverhead = 1 << 20

// HandleExport streams the spreadsheet export of the optimization service
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.gateway.ExportSpreadsheet(r.Context())
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	defer sheet.Body.Close()

	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": sheet.Filename}))
	if sheet.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(sheet.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, sheet.Body); err != nil {
		h.log.Warn("Spreadsheet export interrupted", zap.Error(err))
	}
}

// HandleImport forwards an uploaded .xlsx file to the optimization service.
// Every cached and loaded section is dropped after a successful import.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.Import"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondAppError(w, apperr.Validation(op, h.uploadLimitMessage()))
			return
		}
		h.respondAppError(w, &apperr.Error{Kind: apperr.KindValidation, Op: op, Message: "Attach the spreadsheet as the \"file\" field.", Err: err})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondAppError(w, &apperr.Error{Kind: apperr.KindValidation, Op: op, Message: "Attach the spreadsheet as the \"file\" field.", Err: err})
		return
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		h.respondAppError(w, apperr.Validation(op, h.uploadLimitMessage()))
		return
	}

	resp, err := h.gateway.ImportSpreadsheet(r.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	h.overview.Invalidate(dashboard.Sections()...)
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) uploadLimitMessage() string {
	return fmt.Sprintf("The file exceeds the %d KB limit.", h.maxUpload/1024)
}
