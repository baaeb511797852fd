// Package platform is the HTTP client for the remote raster compute
// platform. It submits serialized evaluation graphs and fetches the
// coefficient feature tables exported there.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/etstream/ssebop-tcorr-etl/internal/observability"
	"github.com/etstream/ssebop-tcorr-etl/internal/tcorr"
)

// Client talks to the compute platform's evaluation and table endpoints.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a compute platform client.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// Evaluate submits a serialized graph and returns the reduced band values,
// e.g. {"tcorr_p5": 0.9738, "count": 4821} for a Tcorr statistics graph.
func (c *Client) Evaluate(ctx context.Context, graph []byte) (map[string]float64, error) {
	reqID := uuid.NewString()

	body, err := json.Marshal(evaluateRequest{
		RequestID: reqID,
		Graph:     json.RawMessage(graph),
	})
	if err != nil {
		return nil, fmt.Errorf("encode evaluate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	timer := prometheus.NewTimer(c.metrics.PlatformAPIDuration.WithLabelValues("evaluate"))
	resp, err := c.httpClient.Do(req)
	timer.ObserveDuration()
	if err != nil {
		c.metrics.PlatformRequests.WithLabelValues("evaluate", "error").Inc()
		return nil, fmt.Errorf("evaluate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.PlatformRequests.WithLabelValues("evaluate", "error").Inc()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("platform API error: status %d: %s", resp.StatusCode, respBody)
	}

	var evalResp evaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&evalResp); err != nil {
		c.metrics.PlatformRequests.WithLabelValues("evaluate", "error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.metrics.PlatformRequests.WithLabelValues("evaluate", "success").Inc()
	c.logger.Debug("graph evaluated", "request_id", reqID, "values", len(evalResp.Values))
	return evalResp.Values, nil
}

// FetchSceneTable downloads the per-scene coefficient feature table.
func (c *Client) FetchSceneTable(ctx context.Context, ref string) (tcorr.MapSceneTable, error) {
	body, err := c.fetchTable(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return tcorr.ReadSceneTable(body)
}

// FetchClimatology downloads the monthly climatology feature table.
func (c *Client) FetchClimatology(ctx context.Context, ref string) (tcorr.MapClimatologyTable, error) {
	body, err := c.fetchTable(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return tcorr.ReadClimatologyTable(body)
}

func (c *Client) fetchTable(ctx context.Context, ref string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/tables/"+ref, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	timer := prometheus.NewTimer(c.metrics.PlatformAPIDuration.WithLabelValues("tables"))
	resp, err := c.httpClient.Do(req)
	timer.ObserveDuration()
	if err != nil {
		c.metrics.PlatformRequests.WithLabelValues("tables", "error").Inc()
		return nil, fmt.Errorf("fetch table %q: %w", ref, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.PlatformRequests.WithLabelValues("tables", "error").Inc()
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("platform API error: status %d: %s", resp.StatusCode, respBody)
	}

	c.metrics.PlatformRequests.WithLabelValues("tables", "success").Inc()
	return resp.Body, nil
}

// Platform API request/response types.

type evaluateRequest struct {
	RequestID string          `json:"request_id"`
	Graph     json.RawMessage `json:"graph"`
}

type evaluateResponse struct {
	Values map[string]float64 `json:"values"`
}
