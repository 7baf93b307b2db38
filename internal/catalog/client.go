// Package catalog provides HTTP access to the addon catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/KalleV/WSAddonUpdater/internal/common/logger"
	"github.com/KalleV/WSAddonUpdater/internal/common/version"
)

// Error variables for HTTP client errors
var (
	// ErrRequestTimeout is returned when a request exceeds the configured timeout
	ErrRequestTimeout = errors.New("request timeout")
	// ErrUnexpectedStatus is returned for responses outside the 2xx range
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// DefaultTimeout bounds every catalog and archive request.
const DefaultTimeout = 10 * time.Second

// Fetcher retrieves the raw body behind a URL.
// Implementations must honor context cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ClientConfig holds configuration for the HTTP client.
type ClientConfig struct {
	// Timeout is the timeout for each individual request (default: 10s)
	Timeout time.Duration
	// UserAgent is sent with every request
	UserAgent string
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:   DefaultTimeout,
		UserAgent: "wsaddon/" + version.Short(),
	}
}

// HTTPClient fetches catalog pages and archives with a fixed per-request
// timeout. Failed requests are not retried.
type HTTPClient struct {
	client *http.Client
	config ClientConfig
	// defaultHeaders are headers applied to all requests
	defaultHeaders map[string]string
}

// NewHTTPClient creates a client with the default configuration.
func NewHTTPClient() *HTTPClient {
	return NewHTTPClientWithConfig(DefaultClientConfig())
}

// NewHTTPClientWithConfig creates a client with a custom configuration.
func NewHTTPClientWithConfig(config ClientConfig) *HTTPClient {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// SetHTTPClient sets a custom underlying HTTP client (useful for testing).
func (c *HTTPClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// SetDefaultHeaders sets headers applied to every request.
func (c *HTTPClient) SetDefaultHeaders(headers map[string]string) {
	c.defaultHeaders = headers
}

// Config returns the client configuration.
func (c *HTTPClient) Config() ClientConfig {
	return c.config
}

// Fetch performs a GET request and returns the response body.
// Timeouts are reported as ErrRequestTimeout and non-2xx responses as
// ErrUnexpectedStatus.
func (c *HTTPClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	logger.Debug("GET %s", url)
	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrRequestTimeout, url, err)
		}
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeoutError(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrRequestTimeout, url, err)
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func (c *HTTPClient) applyHeaders(req *http.Request) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
}

// isTimeoutError checks if an error is a timeout error.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	type timeoutError interface {
		Timeout() bool
	}
	var te timeoutError
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}
