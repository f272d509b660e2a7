package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// sensor responses hold a few snapshots; anything past 1MB is cut off
const maxResponseBodySize = 1 << 20

// one sensor API host, sequential requests
const (
	defaultMaxIdleConns        = 4
	defaultMaxIdleConnsPerHost = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

// Response is what one sensor GET produced.
type Response struct {
	// Body is the (possibly truncated) sensor payload.
	Body []byte

	// StatusCode is 0 when no response arrived.
	StatusCode int

	Latency time.Duration

	// Error is set for transport and read failures only. A 404 or 500 is a
	// StatusCode, not an Error.
	Error error
}

// Client fetches sensor payloads. Deadlines come from the caller per request.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient returns a [Client] sending userAgent, or Go's default when empty.
// HTTP(S)_PROXY from the environment is honoured.
func NewClient(userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		userAgent: userAgent,
	}
}

// Get fetches url, giving up after timeout. Failures end up in
// [Response.Error]; there is no separate error return.
func (c *Client) Get(ctx context.Context, url string, timeout time.Duration) (res Response) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() { res.Latency = time.Since(start) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{Error: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{Error: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	res.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		res.Body = nil
		res.Error = fmt.Errorf("failed to read response body: %w", err)
	}
	return res
}

// Close drops idle keep-alive connections. The client stays usable, and a
// nil Client is fine.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
