package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/validate"
)

// envelope is the {success, data, message} wrapper of the range endpoints
type envelope[T any] struct {
	Success *bool  `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func rangeQuery(start, end string) url.Values {
	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)
	return q
}

// rangeGet fetches a {success, data, message} payload for a date range
func rangeGet[T any](ctx context.Context, c *Client, op, path, start, end string) (T, error) {
	var out envelope[T]
	if err := validate.DateRange(op, start, end); err != nil {
		return out.Data, err
	}

	req := request{op: op, method: http.MethodGet, path: path, query: rangeQuery(start, end)}
	if err := c.call(ctx, req, &out); err != nil {
		return out.Data, err
	}
	if out.Success != nil && !*out.Success {
		var zero T
		return zero, apperr.Server(op, http.StatusOK, out.Message)
	}
	return out.Data, nil
}

// Deliveries fetches the delivery rows of [start, end]
func (c *Client) Deliveries(ctx context.Context, start, end string) ([]models.DeliveryRow, error) {
	rows, err := rangeGet[[]models.DeliveryRow](ctx, c, "gateway.Deliveries", "/get_delivery", start, end)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.DeliveryRow{}
	}
	return rows, nil
}

// SyncDeliveries replaces the stored delivery rows with rows. Rows are
// validated first; an invalid row blocks the request.
func (c *Client) SyncDeliveries(ctx context.Context, rows []models.DeliveryRow) (*models.SyncResponse, error) {
	const op = "gateway.SyncDeliveries"

	if err := validate.DeliveryRows(op, rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.DeliveryRow{}
	}

	req, err := jsonRequest(op, http.MethodPost, "/sync_delivery", map[string]interface{}{"items": rows})
	if err != nil {
		return nil, apperr.Validation(op, err.Error())
	}

	var out models.SyncResponse
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, apperr.Server(op, http.StatusOK, out.Message)
	}
	return &out, nil
}

// ActualInventory fetches measured stock for [start, end]
func (c *Client) ActualInventory(ctx context.Context, start, end string) ([]models.ActualInventoryRecord, error) {
	records, err := rangeGet[[]models.ActualInventoryRecord](ctx, c, "gateway.ActualInventory", "/get_actual_inventory", start, end)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.ActualInventoryRecord{}
	}
	return records, nil
}

// Prices fetches per-ton material prices for [start, end]
func (c *Client) Prices(ctx context.Context, start, end string) ([]models.PriceRecord, error) {
	records, err := rangeGet[[]models.PriceRecord](ctx, c, "gateway.Prices", "/get_price", start, end)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.PriceRecord{}
	}
	return records, nil
}

// TargetPercentages fetches the target composition per product key
func (c *Client) TargetPercentages(ctx context.Context) (*models.TargetPercentages, error) {
	const op = "gateway.TargetPercentages"

	var out struct {
		Success      *bool                        `json:"success"`
		Data         models.TargetPercentagesData `json:"data"`
		ScenarioInfo *models.ScenarioInfo         `json:"scenario_info"`
		Message      string                       `json:"message"`
	}
	req := request{op: op, method: http.MethodGet, path: "/get_target_percentages"}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	if out.Success != nil && !*out.Success {
		return nil, apperr.Server(op, http.StatusOK, out.Message)
	}
	if out.Data == nil {
		out.Data = models.TargetPercentagesData{}
	}
	return &models.TargetPercentages{Data: out.Data, ScenarioInfo: out.ScenarioInfo}, nil
}
