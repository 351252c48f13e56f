package linkcheck

import (
	"context"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single HTTP check
const DefaultTimeout = 10 * time.Second

// 🌐 HTTPChecker checks URLs with HEAD, falling back to GET for servers
// that refuse HEAD
type HTTPChecker struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

// 🏭 NewHTTPChecker creates a checker that gives up on a URL after timeout
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPChecker{
		Client:    &http.Client{},
		Timeout:   timeout,
		UserAgent: "htmlfix-linkcheck",
	}
}

func (c *HTTPChecker) Check(ctx context.Context, url string) Result {
	status, err := c.do(ctx, http.MethodHead, url)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = c.do(ctx, http.MethodGet, url)
	}
	if err != nil {
		return Result{URL: url, Status: 0, Err: err.Error()}
	}
	return Result{URL: url, Status: status}
}

func (c *HTTPChecker) do(ctx context.Context, method, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}
