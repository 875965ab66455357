package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
)

const defaultHTTPTimeout = 30 * time.Second

// apiClient is the JSON-over-HTTP plumbing shared by the adapters.
type apiClient struct {
	provider   domain.ProviderName
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func newAPIClient(provider domain.ProviderName, baseURL string, httpClient *http.Client, logger *slog.Logger) *apiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &apiClient{
		provider:   provider,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// do sends in as JSON (when non-nil) and decodes a 2xx body into out (when
// non-nil). The raw body is returned whenever one was read.
func (c *apiClient) do(ctx context.Context, op, method, path string, header http.Header, in, out any) (json.RawMessage, error) {
	timer := prometheus.NewTimer(courierRequestDuration.WithLabelValues(c.provider.String(), op))
	defer timer.ObserveDuration()

	var body io.Reader
	var reqBytes []byte
	if in != nil {
		var err error
		reqBytes, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %w", c.provider, err)
		}
		body = bytes.NewReader(reqBytes)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request for %s: %w", c.provider, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	c.logger.DebugContext(ctx, "Sending courier request", "op", op, "method", method, "url", url, "body", string(reqBytes))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		courierRequestsTotal.WithLabelValues(c.provider.String(), op, "transport_error").Inc()
		c.logger.ErrorContext(ctx, "Courier request failed", "op", op, "error", err)
		return nil, fmt.Errorf("failed to send request to %s: %w", c.provider, err)
	}
	defer httpResp.Body.Close()

	respBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		courierRequestsTotal.WithLabelValues(c.provider.String(), op, "transport_error").Inc()
		return nil, fmt.Errorf("%s request failed (status %d), and reading the body failed: %w", c.provider, httpResp.StatusCode, err)
	}
	c.logger.DebugContext(ctx, "Received courier response", "op", op, "status_code", httpResp.StatusCode, "body", string(respBytes))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		courierRequestsTotal.WithLabelValues(c.provider.String(), op, "http_error").Inc()
		apiErr := &APIError{
			Provider:   c.provider,
			StatusCode: httpResp.StatusCode,
			Message:    errorMessage(respBytes, httpResp.StatusCode),
			Body:       respBytes,
		}
		c.logger.WarnContext(ctx, "Courier returned error status", "op", op, "status_code", httpResp.StatusCode, "message", apiErr.Message)
		return respBytes, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			courierRequestsTotal.WithLabelValues(c.provider.String(), op, "decode_error").Inc()
			return respBytes, fmt.Errorf("failed to decode %s response: %w", c.provider, err)
		}
	}
	courierRequestsTotal.WithLabelValues(c.provider.String(), op, "ok").Inc()
	return respBytes, nil
}

// declaredFailure builds the error for a 2xx response whose body says the
// call failed.
func (c *apiClient) declaredFailure(status int, message string, raw []byte) *APIError {
	if message == "" {
		message = fmt.Sprintf("%s rejected the request", c.provider.DisplayName())
	}
	return &APIError{Provider: c.provider, StatusCode: status, Message: message, Body: raw}
}

// errorMessage extracts a human-readable message from an error body, falling
// back to "HTTP <status>: <statusText>".
func errorMessage(body []byte, status int) string {
	fallback := fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fallback
	}
	for _, key := range []string{"message", "error"} {
		raw, ok := parsed[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return fallback
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
