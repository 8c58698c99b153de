package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/logger"
	"beacon/pkg/metrics"
)

// HTTPTransport posts event documents to the collector endpoint. Transient
// failures are retried by the underlying client.
type HTTPTransport struct {
	client   *retryablehttp.Client
	endpoint string
	logger   logger.Logger
}

func NewHTTPTransport(cfg config.HTTPCollectorConfig, log logger.Logger) *HTTPTransport {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	if client.HTTPClient.Timeout == 0 {
		client.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	}
	if cfg.Retry.MaxAttempts > 0 {
		client.RetryMax = cfg.Retry.MaxAttempts - 1
	}
	if cfg.Retry.InitialInterval > 0 {
		client.RetryWaitMin = cfg.Retry.InitialInterval
	}
	if cfg.Retry.MaxInterval > 0 {
		client.RetryWaitMax = cfg.Retry.MaxInterval
	}
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			metrics.RetryAttemptsTotal.WithLabelValues("dispatch", "collector_http").Inc()
		}
	}

	return &HTTPTransport{
		client:   client,
		endpoint: cfg.Endpoint,
		logger:   log,
	}
}

func (t *HTTPTransport) Deliver(ctx context.Context, eventType string, body []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build collector request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("collector request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}

	t.logger.DebugwCtx(ctx, "Event delivered to collector",
		"event_type", eventType,
		"status", resp.StatusCode,
	)
	return nil
}

func (t *HTTPTransport) Close() error {
	t.client.HTTPClient.CloseIdleConnections()
	return nil
}
