package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/validate"
)

const (
	// CatalogCacheKey caches the product catalog
	CatalogCacheKey = "catalog"

	// ScenarioCachePrefix prefixes cached named scenarios
	ScenarioCachePrefix = "scenario:"

	msgDeleteForbidden = "You do not have permission to delete this scenario."
	msgDeleteNotFound  = "Scenario not found."
)

// ack is the generic acknowledgement of write endpoints
type ack struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func (a ack) failed() bool {
	return a.Success != nil && !*a.Success
}

// CurrentResult fetches the latest optimization result
func (c *Client) CurrentResult(ctx context.Context) (*models.OptimizationResult, error) {
	var result models.OptimizationResult
	req := request{op: "gateway.CurrentResult", method: http.MethodGet, path: "/time"}
	if err := c.call(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OriginalPlan fetches the unoptimized reference plan
func (c *Client) OriginalPlan(ctx context.Context) (*models.OptimizationResult, error) {
	var result models.OptimizationResult
	req := request{op: "gateway.OriginalPlan", method: http.MethodGet, path: "/original_plan"}
	if err := c.call(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListScenarios fetches the saved scenario names. The service answers with a bare array.
func (c *Client) ListScenarios(ctx context.Context) ([]string, error) {
	var names []string
	req := request{op: "gateway.ListScenarios", method: http.MethodGet, path: "/get_scenarios"}
	if err := c.call(ctx, req, &names); err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Scenario fetches one named scenario
func (c *Client) Scenario(ctx context.Context, name string) (*models.OptimizationResult, error) {
	const op = "gateway.Scenario"
	if err := validate.ScenarioName(op, name); err != nil {
		return nil, err
	}

	var result models.OptimizationResult
	req := request{op: op, method: http.MethodGet, path: "/get_scenario/" + url.PathEscape(name)}
	if err := c.cachedGet(ctx, ScenarioCachePrefix+name, req, &result); err != nil {
		return nil, err
	}
	if result.ScenarioName == nil {
		n := name
		result.ScenarioName = &n
	}
	return &result, nil
}

// DeleteScenario deletes a named scenario. Only HTTP 200 counts as success;
// 403 and 404 carry their own copy.
func (c *Client) DeleteScenario(ctx context.Context, name string) error {
	const op = "gateway.DeleteScenario"
	if err := validate.ScenarioName(op, name); err != nil {
		return err
	}

	req := request{op: op, method: http.MethodDelete, path: "/delete_scenario/" + url.PathEscape(name)}
	resp, err := c.do(ctx, req)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Kind == apperr.KindServer {
			switch appErr.StatusCode {
			case http.StatusForbidden:
				appErr.Message = msgDeleteForbidden
			case http.StatusNotFound:
				appErr.Message = msgDeleteNotFound
			}
		}
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.Server(op, resp.StatusCode, "")
	}

	c.invalidate(ctx, ScenarioCachePrefix)
	return nil
}

// SaveScenario persists the current result under a scenario name
func (c *Client) SaveScenario(ctx context.Context, body models.SaveScenarioRequest) (string, error) {
	const op = "gateway.SaveScenario"

	if err := validate.ScenarioName(op, ScenarioNameOf(body)); err != nil {
		return "", err
	}

	req, err := jsonRequest(op, http.MethodPost, "/save_scenario", body)
	if err != nil {
		return "", apperr.Validation(op, err.Error())
	}

	var out ack
	if err := c.call(ctx, req, &out); err != nil {
		return "", err
	}
	if out.failed() {
		return "", apperr.Server(op, http.StatusOK, out.Message)
	}

	c.invalidate(ctx, ScenarioCachePrefix)
	return out.Message, nil
}

// ScenarioNameOf returns the name carried in a save request's scenario object
func ScenarioNameOf(body models.SaveScenarioRequest) string {
	for _, key := range []string{"name", "scenario_name"} {
		if name, ok := body.Scenario[key].(string); ok && name != "" {
			return name
		}
	}
	return ""
}

// ProductCatalog fetches the brand/product/formula catalog
func (c *Client) ProductCatalog(ctx context.Context) (models.ProductsData, error) {
	var envelope struct {
		Data models.ProductsData `json:"data"`
	}
	req := request{op: "gateway.ProductCatalog", method: http.MethodGet, path: "/get_formula"}
	if err := c.cachedGet(ctx, CatalogCacheKey, req, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		envelope.Data = models.ProductsData{}
	}
	return envelope.Data, nil
}

// Warnings fetches the optimizer warnings
func (c *Client) Warnings(ctx context.Context) ([]string, error) {
	var envelope struct {
		Data struct {
			Warnings []string `json:"warnings"`
		} `json:"data"`
	}
	req := request{op: "gateway.Warnings", method: http.MethodGet, path: "/get_warnings"}
	if err := c.call(ctx, req, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data.Warnings == nil {
		return []string{}, nil
	}
	return envelope.Data.Warnings, nil
}

// RunOptimization starts an optimization run for the selected products
func (c *Client) RunOptimization(ctx context.Context, body models.RunRequest) (*models.RunResponse, error) {
	const op = "gateway.RunOptimization"

	if err := validate.SelectedProducts(op, body.SelectedProducts); err != nil {
		return nil, err
	}
	if err := validate.ScenarioName(op, body.ScenarioName); err != nil {
		return nil, err
	}

	req, err := jsonRequest(op, http.MethodPost, "/run_genetic_algorithm", body)
	if err != nil {
		return nil, apperr.Validation(op, err.Error())
	}

	var raw struct {
		Success    bool            `json:"success"`
		JSONResult json.RawMessage `json:"json_result"`
		Message    string          `json:"message"`
	}
	if err := c.call(ctx, req, &raw); err != nil {
		return nil, err
	}

	c.invalidate(ctx, ScenarioCachePrefix)

	if !raw.Success {
		return nil, apperr.Server(op, http.StatusOK, raw.Message)
	}

	result, err := decodeResult(op, raw.JSONResult)
	if err != nil {
		return nil, err
	}
	return &models.RunResponse{Success: true, Result: result, Message: raw.Message}, nil
}

// InitializeOptimizer asks the service to reload its optimizer state
func (c *Client) InitializeOptimizer(ctx context.Context) (string, error) {
	const op = "gateway.InitializeOptimizer"

	var out ack
	req := request{op: op, method: http.MethodPost, path: "/initialize_optimizer"}
	if err := c.call(ctx, req, &out); err != nil {
		return "", err
	}
	if out.failed() {
		return "", apperr.Server(op, http.StatusOK, out.Message)
	}

	c.invalidate(ctx, CatalogCacheKey)
	return out.Message, nil
}

// decodeResult accepts json_result as an embedded object or as a JSON-encoded string
func decodeResult(op string, raw json.RawMessage) (*models.OptimizationResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := decode(op, raw, &encoded); err != nil {
			return nil, err
		}
		raw = []byte(encoded)
	}

	var result models.OptimizationResult
	if err := decode(op, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
