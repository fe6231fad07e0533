package llm

import (
	"discharge_backend/core"

	"go.uber.org/zap"
)

// NewGenerator builds the Generator selected by cfg.Provider. The API key is
// checked first, so a missing credential is reported as a
// *core.ConfigurationError before any network call is possible.
func NewGenerator(cfg *core.Config) (Generator, error) {
	apiKey, err := cfg.LLMAPIKey()
	if err != nil {
		return nil, err
	}

	// Per-attempt deadlines come from the request context.
	httpClient := core.GetHTTPClient(cfg, 0)

	switch cfg.Provider {
	case core.ProviderOpenAI:
		return NewOpenAIGenerator(apiKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, httpClient), nil
	case core.ProviderGemini, "":
		return NewGeminiGenerator(cfg.GeminiBaseURL, cfg.GeminiModel, apiKey, httpClient), nil
	default:
		return nil, core.ErrUnknownProvider(cfg.Provider)
	}
}

// NewJSONClientFromConfig builds the Generator for cfg and wraps it with the
// configured retry policy.
func NewJSONClientFromConfig(cfg *core.Config, logger *zap.Logger) (*JSONClient, error) {
	gen, err := NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return NewJSONClient(gen, ClientConfig{
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
		RequestTimeout: cfg.RequestTimeout,
	}, logger), nil
}
