package validation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"discharge_backend/core"
)

// ConnectivityResult represents the result of a connectivity check.
type ConnectivityResult struct {
	Reachable  bool
	StatusCode int
	Message    string
	Latency    time.Duration
	Error      error
}

// ConnectivityChecker verifies that the model endpoint answers at all.
// Any HTTP response counts as reachable; 4xx from an unauthenticated HEAD is normal.
type ConnectivityChecker struct {
	timeout time.Duration
	client  *http.Client
}

// NewConnectivityChecker creates a checker using the TLS settings of cfg.
func NewConnectivityChecker(cfg *core.Config, timeout time.Duration) *ConnectivityChecker {
	return &ConnectivityChecker{
		timeout: timeout,
		client:  core.GetHTTPClient(cfg, timeout),
	}
}

// Check sends a HEAD request to serverURL.
func (c *ConnectivityChecker) Check(ctx context.Context, serverURL string) ConnectivityResult {
	if err := ValidateServerURL(serverURL); err != nil {
		return ConnectivityResult{
			Message: "Invalid URL format",
			Error:   core.ErrInvalidServerURL(serverURL, err.Error()),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, serverURL, nil)
	if err != nil {
		return ConnectivityResult{Message: "Failed to create request", Error: err}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		msg := "Connection failed"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = fmt.Sprintf("Connection timed out after %v", c.timeout)
		}
		return ConnectivityResult{Message: msg, Latency: latency, Error: err}
	}
	defer resp.Body.Close()

	return ConnectivityResult{
		Reachable:  true,
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Endpoint reachable (status: %d)", resp.StatusCode),
		Latency:    latency,
	}
}
