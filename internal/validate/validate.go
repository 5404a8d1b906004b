package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/models"
)

const (
	// DateLayout is the only date format the optimization service accepts
	DateLayout = "2006-01-02"

	// SpreadsheetExtension is the only accepted import extension
	SpreadsheetExtension = ".xlsx"

	// SpreadsheetMIME is the only accepted import content type
	SpreadsheetMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// MaxSpreadsheetBytes caps import uploads at 10 MiB
	MaxSpreadsheetBytes int64 = 10 * 1024 * 1024
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date checks that s is a YYYY-MM-DD calendar date
func Date(op, field, s string) error {
	if !datePattern.MatchString(s) {
		return apperr.Validation(op, fmt.Sprintf("%s must use the YYYY-MM-DD format, got %q", field, s))
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return apperr.Validation(op, fmt.Sprintf("%s is not a calendar date: %q", field, s))
	}
	return nil
}

// DateRange checks both bounds and their order
func DateRange(op, start, end string) error {
	if err := Date(op, "start", start); err != nil {
		return err
	}
	if err := Date(op, "end", end); err != nil {
		return err
	}
	// Lexical order equals calendar order for YYYY-MM-DD
	if start > end {
		return apperr.Validation(op, fmt.Sprintf("start %s is after end %s", start, end))
	}
	return nil
}

// ScenarioName rejects missing or blank names
func ScenarioName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation(op, "A scenario name is required.")
	}
	return nil
}

// DeliveryRow checks one row of the delivery grid. index is 1-based for messages.
func DeliveryRow(op string, index int, row models.DeliveryRow) error {
	if err := Date(op, fmt.Sprintf("row %d date", index), row.Date); err != nil {
		return err
	}
	if !models.IsPulpType(row.PulpType) {
		return apperr.Validation(op, fmt.Sprintf("row %d: unknown pulp type %q", index, row.PulpType))
	}
	if row.Amount < 0 {
		return apperr.Validation(op, fmt.Sprintf("row %d: amount must not be negative", index))
	}
	return nil
}

// DeliveryRows checks every row and stops at the first violation
func DeliveryRows(op string, rows []models.DeliveryRow) error {
	for i, row := range rows {
		if err := DeliveryRow(op, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

// Spreadsheet enforces the import constraints before any upload happens.
// contentType may carry parameters; an empty content type is rejected.
func Spreadsheet(op, filename, contentType string, size int64) error {
	if !strings.EqualFold(filepath.Ext(filename), SpreadsheetExtension) {
		return apperr.Validation(op, "Only .xlsx files can be imported.")
	}
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if !strings.EqualFold(mediaType, SpreadsheetMIME) {
		return apperr.Validation(op, fmt.Sprintf("Unsupported file type %q.", mediaType))
	}
	if size <= 0 {
		return apperr.Validation(op, "The selected file is empty.")
	}
	if size > MaxSpreadsheetBytes {
		return apperr.Validation(op, "The file exceeds the 10 MB limit.")
	}
	return nil
}

// SelectedProducts requires at least one product for an optimization run
func SelectedProducts(op string, products []string) error {
	for _, p := range products {
		if strings.TrimSpace(p) != "" {
			return nil
		}
	}
	return apperr.Validation(op, "Select at least one product.")
}
