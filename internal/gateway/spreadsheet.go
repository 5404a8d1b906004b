package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/validate"
)

// DefaultExportFilename is used when the service sends no filename
const DefaultExportFilename = "optimization_results.xlsx"

// Spreadsheet is a streamed export. The caller must close Body.
type Spreadsheet struct {
	Body          io.ReadCloser
	ContentType   string
	Filename      string
	ContentLength int64
}

// ExportSpreadsheet opens the spreadsheet export stream
func (c *Client) ExportSpreadsheet(ctx context.Context) (*Spreadsheet, error) {
	req := request{op: "gateway.ExportSpreadsheet", method: http.MethodGet, path: "/export_excel"}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = validate.SpreadsheetMIME
	}

	filename := DefaultExportFilename
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}

	return &Spreadsheet{
		Body:          resp.Body,
		ContentType:   contentType,
		Filename:      filename,
		ContentLength: resp.ContentLength,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// ImportSpreadsheet uploads an .xlsx file as the multipart field "file".
// The file is checked locally first; a violation sends no request.
func (c *Client) ImportSpreadsheet(ctx context.Context, filename, contentType string, size int64, r io.Reader) (*models.ImportResponse, error) {
	const op = "gateway.ImportSpreadsheet"

	if err := validate.Spreadsheet(op, filename, contentType, size); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", validate.SpreadsheetMIME)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, apperr.Validation(op, "Could not prepare the upload.")
	}

	n, err := io.Copy(part, io.LimitReader(r, validate.MaxSpreadsheetBytes+1))
	if err != nil {
		return nil, apperr.Validation(op, "Could not read the uploaded file.")
	}
	if err := validate.Spreadsheet(op, filename, contentType, n); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, apperr.Validation(op, "Could not prepare the upload.")
	}

	req := request{
		op:          op,
		method:      http.MethodPost,
		path:        "/import_excel",
		body:        &body,
		contentType: mw.FormDataContentType(),
	}

	var out models.ImportResponse
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, apperr.Server(op, http.StatusOK, out.Message)
	}

	c.invalidate(ctx, "")
	return &out, nil
}
