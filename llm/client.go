package llm

import (
	"context"
	"errors"
	"time"

	"discharge_backend/core"

	"go.uber.org/zap"
)

// Attempt outcomes reported to an AttemptObserver.
const (
	OutcomeSuccess     = "success"
	OutcomeTimeout     = "timeout"
	OutcomeTransport   = "transport"
	OutcomeStatus      = "status"
	OutcomeEnvelope    = "envelope"
	OutcomeNoJSON      = "no_json"
	OutcomeInvalidJSON = "invalid_json"
)

// ClientConfig holds the retry policy of a JSONClient.
type ClientConfig struct {
	// MaxRetries is the total number of attempts (default: 3)
	MaxRetries int

	// RetryDelay is the pause between attempts (default: 2s)
	RetryDelay time.Duration

	// RequestTimeout bounds each attempt (default: 20s)
	RequestTimeout time.Duration
}

// DefaultClientConfig returns the standard retry policy.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxRetries:     core.DefaultMaxRetries,
		RetryDelay:     core.DefaultRetryDelay,
		RequestTimeout: core.DefaultRequestTimeout,
	}
}

// AttemptObserver is notified after every model call.
type AttemptObserver interface {
	ObserveAttempt(backend, outcome string, duration time.Duration)
}

// JSONClient asks a Generator for a JSON object and retries until one parses.
// A response is trusted whole or not at all: an unparsable object fails the
// attempt and no field of it is kept.
type JSONClient struct {
	gen      Generator
	config   ClientConfig
	logger   *zap.Logger
	observer AttemptObserver

	// wait pauses between attempts; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewJSONClient creates a JSONClient. Zero config fields take the defaults.
//
// Example:
//
//	client := llm.NewJSONClient(generator, llm.DefaultClientConfig(), logger)
//	raw, err := client.Extract(ctx, llm.BuildExtractionPrompt(text))
func NewJSONClient(gen Generator, config ClientConfig, logger *zap.Logger) *JSONClient {
	defaults := DefaultClientConfig()
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONClient{
		gen:    gen,
		config: config,
		logger: logger,
		wait:   sleepContext,
	}
}

// WithObserver attaches an observer for per-attempt metrics.
func (c *JSONClient) WithObserver(o AttemptObserver) *JSONClient {
	c.observer = o
	return c
}

// Config returns the effective retry policy.
func (c *JSONClient) Config() ClientConfig {
	return c.config
}

// Extract sends prompt and returns the parsed JSON object from the reply.
// Transport errors, non-2xx statuses, malformed envelopes, replies with no
// {...} span and invalid JSON all fail the attempt. After MaxRetries failed
// attempts it returns a *core.ExtractionFailure wrapping the last error.
func (c *JSONClient) Extract(ctx context.Context, prompt string) (map[string]interface{}, error) {
	logger := c.logger.With(
		zap.String("backend", c.gen.Name()),
		zap.String("correlation_id", core.CorrelationID(ctx)))

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		start := time.Now()
		data, err := c.attempt(ctx, prompt)
		elapsed := time.Since(start)
		c.observe(classify(err), elapsed)

		if err == nil {
			logger.Info("model returned JSON",
				zap.Int("attempt", attempt),
				zap.Int("fields", len(data)),
				zap.Duration("duration", elapsed))
			return data, nil
		}

		lastErr = err
		logger.Warn("model attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.config.MaxRetries),
			zap.String("outcome", classify(err)),
			zap.Error(err))

		if attempt == c.config.MaxRetries {
			break
		}
		if err := c.wait(ctx, c.config.RetryDelay); err != nil {
			return nil, &core.ExtractionFailure{Stage: core.StageModel, Attempts: attempt, Err: err}
		}
	}

	return nil, &core.ExtractionFailure{
		Stage:    core.StageModel,
		Attempts: c.config.MaxRetries,
		Err:      lastErr,
	}
}

func (c *JSONClient) attempt(ctx context.Context, prompt string) (map[string]interface{}, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	text, err := c.gen.Generate(attemptCtx, prompt)
	if err != nil {
		return nil, err
	}
	return ExtractJSONObject(text)
}

func (c *JSONClient) observe(outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveAttempt(c.gen.Name(), outcome, d)
	}
}

// classify maps an attempt error to an outcome label.
func classify(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.As(err, &statusErr):
		return OutcomeStatus
	case errors.Is(err, ErrMalformedEnvelope):
		return OutcomeEnvelope
	case errors.Is(err, ErrNoJSONFound):
		return OutcomeNoJSON
	case errors.Is(err, ErrInvalidJSON):
		return OutcomeInvalidJSON
	default:
		return OutcomeTransport
	}
}

// sleepContext waits for d or until ctx is done, without holding any lock.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
