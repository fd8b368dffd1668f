package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/retrofit-advisor/internal/domain"
	"github.com/couchcryptid/retrofit-advisor/internal/observability"
)

// maxErrorBody bounds how much of a non-2xx body is kept in the error.
const maxErrorBody = 512

// Client implements domain.Analyzer against the structural analysis service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an analysis-service client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// Analyze posts cfg to /analyze and decodes the reply without sanitizing it.
func (c *Client) Analyze(ctx context.Context, cfg domain.BuildingConfiguration) (domain.RawAnalysisResult, error) {
	start := time.Now()
	raw, err := c.doRequest(ctx, cfg)
	c.metrics.PredictorDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.PredictorRequests.WithLabelValues("error").Inc()
		return domain.RawAnalysisResult{}, err
	}
	c.metrics.PredictorRequests.WithLabelValues("success").Inc()
	c.logger.Debug("analysis service responded",
		"typology", cfg.Typology,
		"duration", time.Since(start),
	)
	return raw, nil
}

func (c *Client) doRequest(ctx context.Context, cfg domain.BuildingConfiguration) (domain.RawAnalysisResult, error) {
	body, err := json.Marshal(cfg)
	if err != nil {
		return domain.RawAnalysisResult{}, fmt.Errorf("encode configuration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return domain.RawAnalysisResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RawAnalysisResult{}, fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.RawAnalysisResult{}, fmt.Errorf("analysis service error: status %d: %s", resp.StatusCode, msg)
	}

	var raw domain.RawAnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.RawAnalysisResult{}, fmt.Errorf("decode response: %w", err)
	}
	return raw, nil
}
