// Package client provides the outbound HTTP client for target calls.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"cors-relay-go/internal/config"
	"cors-relay-go/internal/metrics"
	"cors-relay-go/internal/model"
)

// TargetClient sends requests to arbitrary target URLs. Redirects are
// followed by the default http.Client policy (up to 10 hops).
type TargetClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewTargetClient creates a TargetClient with connection pooling.
// target.timeout_seconds = 0 leaves the outbound call unbounded.
// The metrics parameter is optional; pass nil to disable target metrics recording.
func NewTargetClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *TargetClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Target.IdleConnections,
		MaxIdleConnsPerHost: cfg.Target.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &TargetClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Target.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "target_client"),
		metrics: m,
	}
}

// Do executes an HTTP request against the target and returns the raw response.
// The caller is responsible for closing the response body.
func (c *TargetClient) Do(req *http.Request) (*model.RelayResponse, error) {
	c.logger.Debug("target request",
		"method", req.Method,
		"host", req.URL.Host,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via RelayResponse
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.TargetDuration.WithLabelValues(method).Observe(duration)
		}
		return nil, fmt.Errorf("target request: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.TargetDuration.WithLabelValues(method).Observe(duration)
		c.metrics.TargetResponses.WithLabelValues(method, status).Inc()
	}

	return &model.RelayResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// DoStream executes a request and returns the response body as a stream.
// The caller is responsible for closing the returned ReadCloser.
// The provided context controls the lifetime of the outbound request:
// when the context is canceled (e.g. client disconnects), the outbound
// request is also canceled.
func (c *TargetClient) DoStream(ctx context.Context, method, url string, header http.Header, body io.Reader) (*model.RelayResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build target request: %w", err)
	}
	req.Header = header

	return c.Do(req)
}
