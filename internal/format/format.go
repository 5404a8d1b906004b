// Package format maps raw numeric fields and series keys to display strings.
// Absent, NaN and infinite numbers always render as zero.
package format

import (
	"strings"

	"github.com/sander-remitly/plandash/internal/models"
	"github.com/shopspring/decimal"
)

const (
	// DefaultCurrencySymbol prefixes currency values
	DefaultCurrencySymbol = "$"

	// MassUnit suffixes tonnage values
	MassUnit = "t"

	// NotAvailable is shown for absent text fields
	NotAvailable = "N/A"
)

// Formatter holds the locale choices of the dashboard
type Formatter struct {
	CurrencySymbol string
}

// Default uses DefaultCurrencySymbol
var Default = Formatter{CurrencySymbol: DefaultCurrencySymbol}

// New returns a Formatter for the given symbol, falling back to the default symbol
func New(symbol string) Formatter {
	if strings.TrimSpace(symbol) == "" {
		symbol = DefaultCurrencySymbol
	}
	return Formatter{CurrencySymbol: symbol}
}

// Currency formats with the symbol prefix, thousands separators and no decimals (e.g. "-$1,235").
func (f Formatter) Currency(v *float64) string {
	d := decimal.NewFromFloat(models.Value(v)).Round(0)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + f.CurrencySymbol + group(d.StringFixed(0))
}

// Mass formats tons with two decimals and the unit suffix (e.g. "12.50 t").
func (f Formatter) Mass(v *float64) string {
	return decimal.NewFromFloat(models.Value(v)).StringFixed(2) + " " + MassUnit
}

// Percent formats an already-scaled percentage with one decimal (e.g. "85.3%").
func (f Formatter) Percent(v *float64) string {
	return decimal.NewFromFloat(models.Value(v)).StringFixed(1) + "%"
}

// Number formats a plain number with the given decimals
func (f Formatter) Number(v *float64, decimals int32) string {
	return decimal.NewFromFloat(models.Value(v)).StringFixed(decimals)
}

// Text dereferences an optional label
func (f Formatter) Text(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return NotAvailable
	}
	return *s
}

// group inserts thousands separators into an unsigned integer string
func group(intPart string) string {
	if len(intPart) <= 3 {
		return intPart
	}
	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	return builder.String()
}

// Currency formats with the default symbol
func Currency(v *float64) string { return Default.Currency(v) }

// Mass formats with the default unit
func Mass(v *float64) string { return Default.Mass(v) }

// Percent formats a percentage
func Percent(v *float64) string { return Default.Percent(v) }
