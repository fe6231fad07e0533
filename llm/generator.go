// Package llm turns extracted PDF text into a raw JSON record by prompting
// an external generation endpoint.
//
// The package is layered the same way as the rest of the service:
//   - prompt.go, json_parsing.go: pure helpers
//   - gemini.go, openai.go: Generator backends, one HTTP call each
//   - client.go: JSONClient, which adds timeouts, retries and JSON location
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Generator sends one prompt to a model and returns the raw text answer.
// Implementations make exactly one request per call; retrying is the
// caller's concern.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}

// ErrMalformedEnvelope is returned when the response body does not have the
// expected envelope shape.
var ErrMalformedEnvelope = errors.New("malformed response envelope")

// StatusError reports a non-2xx response from the endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("endpoint returned status %d: %s", e.StatusCode, e.Body)
}
