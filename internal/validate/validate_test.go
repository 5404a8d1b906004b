package validate

import (
	"testing"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/models"
)

func TestDate(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr bool
	}{
		{"Valid", "2024-03-01", false},
		{"Leap day", "2024-02-29", false},
		{"Slashes", "2024/03/01", true},
		{"Short month", "2024-3-01", true},
		{"Trailing time", "2024-03-01T00:00:00Z", true},
		{"Month 13", "2024-13-01", true},
		{"Not a leap year", "2023-02-29", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Date("test", "date", tt.date)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Date(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
			if err != nil && !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestDateRange_Order(t *testing.T) {
	if err := DateRange("test", "2024-03-01", "2024-03-10"); err != nil {
		t.Errorf("Expected valid range, got %v", err)
	}
	if err := DateRange("test", "2024-03-01", "2024-03-01"); err != nil {
		t.Errorf("Expected single-day range to be valid, got %v", err)
	}
	if err := DateRange("test", "2024-03-10", "2024-03-01"); err == nil {
		t.Error("Expected reversed range to be rejected")
	}
}

func TestScenarioName(t *testing.T) {
	if err := ScenarioName("test", "baseline"); err != nil {
		t.Errorf("Expected valid name, got %v", err)
	}
	for _, name := range []string{"", "   ", "\t"} {
		if err := ScenarioName("test", name); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

func TestDeliveryRows(t *testing.T) {
	tests := []struct {
		name    string
		rows    []models.DeliveryRow
		wantErr bool
	}{
		{
			name: "Valid rows",
			rows: []models.DeliveryRow{
				{Date: "2024-01-01", PulpType: models.PulpA, Amount: 12.5},
				{Date: "2024-01-02", PulpType: models.PulpEucalyptus, Amount: 0},
			},
		},
		{
			name:    "Empty set",
			rows:    nil,
			wantErr: false,
		},
		{
			name:    "Bad date",
			rows:    []models.DeliveryRow{{Date: "01-01-2024", PulpType: models.PulpA, Amount: 1}},
			wantErr: true,
		},
		{
			name:    "Negative amount",
			rows:    []models.DeliveryRow{{Date: "2024-01-01", PulpType: models.PulpB, Amount: -1}},
			wantErr: true,
		},
		{
			name:    "Unknown pulp type",
			rows:    []models.DeliveryRow{{Date: "2024-01-01", PulpType: "Pulp_X", Amount: 1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DeliveryRows("test", tt.rows)
			if (err != nil) != tt.wantErr {
				t.Errorf("DeliveryRows() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpreadsheet(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"Valid", "plan.xlsx", SpreadsheetMIME, 1024, false},
		{"Upper-case extension", "PLAN.XLSX", SpreadsheetMIME, 1024, false},
		{"MIME with parameters", "plan.xlsx", SpreadsheetMIME + "; charset=binary", 1024, false},
		{"Exactly 10 MiB", "plan.xlsx", SpreadsheetMIME, MaxSpreadsheetBytes, false},
		{"Too large", "plan.xlsx", SpreadsheetMIME, MaxSpreadsheetBytes + 1, true},
		{"Legacy xls", "plan.xls", "application/vnd.ms-excel", 1024, true},
		{"Octet stream", "plan.xlsx", "application/octet-stream", 1024, true},
		{"Missing MIME", "plan.xlsx", "", 1024, true},
		{"CSV", "plan.csv", "text/csv", 1024, true},
		{"Empty", "plan.xlsx", SpreadsheetMIME, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Spreadsheet("test", tt.filename, tt.contentType, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("Spreadsheet() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSelectedProducts(t *testing.T) {
	if err := SelectedProducts("test", []string{"B1|G|3|C"}); err != nil {
		t.Errorf("Expected valid selection, got %v", err)
	}
	if err := SelectedProducts("test", nil); err == nil {
		t.Error("Expected empty selection to be rejected")
	}
	if err := SelectedProducts("test", []string{" ", ""}); err == nil {
		t.Error("Expected blank selection to be rejected")
	}
}
