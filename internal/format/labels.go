package format

import (
	"strings"

	"github.com/sander-remitly/plandash/internal/models"
)

var seriesLabels = map[string]string{
	"eucalyptus":          "Eucalyptus stock",
	"pulp_a":              "Pulp A stock",
	"pulp_b":              "Pulp B stock",
	"pulp_c":              "Pulp C stock",
	"delivery_eucalyptus": "Eucalyptus delivery",
	"delivery_pulp_a":     "Pulp A delivery",
	"delivery_pulp_b":     "Pulp B delivery",
	"delivery_pulp_c":     "Pulp C delivery",
	"actual_eucalyptus":   "Eucalyptus stock (actual)",
	"actual_pulp_a":       "Pulp A stock (actual)",
	"actual_pulp_b":       "Pulp B stock (actual)",
	"actual_pulp_c":       "Pulp C stock (actual)",
	"price_eucalyptus":    "Eucalyptus price",
	"price_pulp_a":        "Pulp A price",
	"price_pulp_b":        "Pulp B price",
	"price_pulp_c":        "Pulp C price",
	"cost":                "Daily cost",
	"production":          "Daily production",
	"costPerTon":          "Cost per ton",
	"quantity":            "Scheduled quantity",
	"targetQuantity":      "Target quantity",
	"achievement":         "Achievement",
	"totalCost":           "Total cost",
	"avgCostPerTon":       "Average cost per ton",
	"actualProduction":    "Actual production",
	"targetProduction":    "Target production",
	"successRate":         "Success rate",
	"fitness":             "Fitness",
}

// Label returns the legend/tooltip label of a series key. Unknown keys are returned unchanged.
func Label(key string) string {
	if label, ok := seriesLabels[key]; ok {
		return label
	}
	return key
}

// Labels returns a copy of the whole table for the UI
func Labels() map[string]string {
	out := make(map[string]string, len(seriesLabels))
	for k, v := range seriesLabels {
		out[k] = v
	}
	return out
}

// MaterialLabel returns the display name of a material ("Pulp_A" -> "Pulp A")
func MaterialLabel(material string) string {
	switch material {
	case models.PulpEucalyptus:
		return "Eucalyptus"
	case models.PulpA:
		return "Pulp A"
	case models.PulpB:
		return "Pulp B"
	case models.PulpC:
		return "Pulp C"
	}
	return strings.ReplaceAll(material, "_", " ")
}
