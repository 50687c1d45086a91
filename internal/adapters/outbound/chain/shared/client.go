package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	apperrors "paycore/internal/shared_kernel/errors"

	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout       = 10 * time.Second
	defaultRequestsPerSecond = 4
	defaultBurst             = 2
	maxErrorBodyBytes        = 1024
)

type Config struct {
	BaseURL           string
	APIKeyHeader      string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client wraps a chain data provider endpoint with a request budget.
// Every call waits on the limiter before touching the network so a
// tight watch loop cannot exhaust a provider quota.
type Client struct {
	baseURL      string
	apiKeyHeader string
	apiKey       string
	http         *nethttp.Client
	limiter      *rate.Limiter
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKeyHeader: strings.TrimSpace(cfg.APIKeyHeader),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		http:         &nethttp.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON issues a GET against path (joined to the base URL) and
// decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) *apperrors.AppError {
	return c.do(ctx, nethttp.MethodGet, path, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes the response.
func (c *Client) PostJSON(ctx context.Context, path string, body any, out any) *apperrors.AppError {
	encoded, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewInternal(
			"provider_request_encode_failed",
			"failed to encode provider request body",
			map[string]any{"error": err.Error()},
		)
	}
	return c.do(ctx, nethttp.MethodPost, path, encoded, out)
}

func (c *Client) do(ctx context.Context, method string, path string, body []byte, out any) *apperrors.AppError {
	if c == nil || c.http == nil {
		return apperrors.NewInternal(
			"provider_client_not_configured",
			"provider client is not configured",
			nil,
		)
	}
	if c.baseURL == "" {
		return apperrors.NewInternal(
			"provider_url_missing",
			"provider base url is missing",
			nil,
		)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NewTransient(
			"provider_rate_wait_canceled",
			"canceled while waiting for provider request budget",
			map[string]any{"error": err.Error()},
		)
	}

	url := c.baseURL
	if path != "" {
		url += "/" + strings.TrimLeft(path, "/")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := nethttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return apperrors.NewInternal(
			"provider_request_build_failed",
			"failed to build provider request",
			map[string]any{"error": err.Error()},
		)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")
	if c.apiKeyHeader != "" && c.apiKey != "" {
		request.Header.Set(c.apiKeyHeader, c.apiKey)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return apperrors.NewTransient(
			"provider_unreachable",
			"failed to reach chain data provider",
			map[string]any{"error": err.Error()},
		)
	}
	defer response.Body.Close()

	if response.StatusCode == nethttp.StatusTooManyRequests || response.StatusCode >= 500 {
		return apperrors.NewTransient(
			"provider_unavailable",
			"chain data provider returned a retriable status",
			map[string]any{
				"status_code": response.StatusCode,
				"body":        previewBody(response.Body),
			},
		)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return apperrors.NewInternal(
			"provider_rejected_request",
			"chain data provider rejected the request",
			map[string]any{
				"status_code": response.StatusCode,
				"body":        previewBody(response.Body),
			},
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return apperrors.NewInternal(
			"provider_response_decode_failed",
			"failed to decode provider response",
			map[string]any{"error": err.Error()},
		)
	}
	return nil
}

func previewBody(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
