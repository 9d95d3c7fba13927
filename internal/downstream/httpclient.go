package downstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mybaseweek/weekstats/internal/domain"
	"github.com/mybaseweek/weekstats/internal/logger"
	"github.com/mybaseweek/weekstats/middleware"
)

var (
	ErrTimeout     = fmt.Errorf("downstream_timeout: %w", domain.ErrUpstreamUnavailable)
	ErrUnavailable = fmt.Errorf("downstream_unavailable: %w", domain.ErrUpstreamUnavailable)
)

// StatusError is returned for any non-2xx upstream response.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("downstream error [%d] from %s", e.StatusCode, e.Endpoint)
}

func (e *StatusError) Unwrap() error {
	return domain.ErrUpstreamUnavailable
}

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 5 * time.Second

// Client is the shared HTTP wrapper for upstream calls. It
//  1. forwards X-Request-Id from the context
//  2. bounds every call with a per-request timeout
//  3. maps transport failures to ErrTimeout / ErrUnavailable
//  4. logs and records metrics per endpoint
type Client struct {
	baseClient *http.Client
	timeout    time.Duration
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseClient: &http.Client{
			// per-request timeouts are set on the context
			Timeout:   0,
			Transport: &middleware.TracingTransport{},
		},
		timeout: timeout,
	}
}

// Do executes req. The per-request timeout stays armed until the response
// body is closed.
func (c *Client) Do(ctx context.Context, endpoint string, req *http.Request) (*http.Response, error) {
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set(middleware.HeaderXRequestID, reqID)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	req = req.WithContext(ctx)

	log := logger.Ctx(ctx).With().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Logger()

	start := time.Now()
	resp, err := c.baseClient.Do(req)
	duration := time.Since(start)
	upstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())

	if err != nil {
		cancel()
		upstreamRequests.WithLabelValues(endpoint, "error").Inc()
		log.Warn().
			Err(err).
			Dur("duration", duration).
			Msg("downstream_request_failed")
		return nil, mapError(err)
	}

	upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("downstream_request_completed")

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// Get is a convenience method for GET requests.
func (c *Client) Get(ctx context.Context, endpoint, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(ctx, endpoint, req)
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// mapError classifies a transport failure. Cancellation by the caller is
// passed through: it is not an upstream fault.
func mapError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return context.Canceled
	case errors.Is(err, ErrBlockedAddress):
		return fmt.Errorf("%w: %w", ErrBlockedAddress, ErrUnavailable)
	}
	// connection refused, DNS errors, TLS failures
	return ErrUnavailable
}
