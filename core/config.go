package core

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Supported LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Defaults for the model call. The retry count, delay and per-attempt timeout
// bound the worst-case latency of one extraction.
const (
	DefaultMaxRetries     = 3
	DefaultRetryDelay     = 2 * time.Second
	DefaultRequestTimeout = 20 * time.Second

	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.0-flash"
	DefaultOpenAIModel   = "gpt-4o-mini"

	DefaultTemplatePath   = "template.docx"
	DefaultPort           = 8000
	DefaultMaxUploadBytes = 16 << 20
	DefaultSessionTTL     = 60 * time.Minute
)

// Config holds all configuration values
type Config struct {
	// Model provider
	Provider      string
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Model call policy
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration

	// Rendering
	TemplatePath        string
	TemplateAliasesFile string

	// Server
	Port                 int
	MaxUploadBytes       int64
	SessionTTL           time.Duration
	AllowSelfSignedCerts bool

	// UploadsPerMinute limits uploads per client address; 0 disables the limit.
	UploadsPerMinute int
}

// LoadConfig reads configuration from the environment. Callers load .env
// beforehand. The model API key is not required here; it is checked by
// LLMAPIKey when a model client is built, so rendering works without one.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Provider:      strings.ToLower(GetEnvOrDefault("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL: strings.TrimRight(GetEnvOrDefault("GEMINI_BASE_URL", DefaultGeminiBaseURL), "/"),
		GeminiModel:   GetEnvOrDefault("GEMINI_MODEL", DefaultGeminiModel),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   GetEnvOrDefault("OPENAI_MODEL", DefaultOpenAIModel),

		MaxRetries:     ParseIntEnv("MAX_RETRIES", DefaultMaxRetries),
		RetryDelay:     ParseDurationEnv("RETRY_DELAY", DefaultRetryDelay, time.Second),
		RequestTimeout: ParseDurationEnv("REQUEST_TIMEOUT", DefaultRequestTimeout, time.Second),

		TemplatePath:        GetEnvOrDefault("TEMPLATE_PATH", DefaultTemplatePath),
		TemplateAliasesFile: os.Getenv("TEMPLATE_ALIASES_FILE"),

		Port:                 ParseIntEnv("PORT", DefaultPort),
		MaxUploadBytes:       ParseInt64Env("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		SessionTTL:           ParseDurationEnv("SESSION_TTL", DefaultSessionTTL, time.Minute),
		AllowSelfSignedCerts: ParseBoolEnv("ALLOW_SELF_SIGNED_CERTS", false),
		UploadsPerMinute:     ParseIntEnv("UPLOADS_PER_MINUTE", DefaultUploadsPerWindow),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return ErrUnknownProvider(c.Provider)
	}
	if c.MaxRetries < 1 {
		return ErrInvalidConfig("MAX_RETRIES", "must be at least 1")
	}
	if c.RetryDelay < 0 {
		return ErrInvalidConfig("RETRY_DELAY", "must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidConfig("REQUEST_TIMEOUT", "must be positive")
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidConfig("PORT", "must be between 1 and 65535")
	}
	if c.MaxUploadBytes <= 0 {
		return ErrInvalidConfig("MAX_UPLOAD_BYTES", "must be positive")
	}
	if c.UploadsPerMinute < 0 {
		return ErrInvalidConfig("UPLOADS_PER_MINUTE", "must not be negative")
	}
	if c.SessionTTL <= 0 {
		return ErrInvalidConfig("SESSION_TTL", "must be positive")
	}
	if _, err := url.ParseRequestURI(c.GeminiBaseURL); err != nil {
		return ErrInvalidServerURL(c.GeminiBaseURL, err.Error())
	}
	return nil
}

// LLMAPIKey returns the API key of the configured provider, or a
// ConfigurationError naming the variable to set.
func (c *Config) LLMAPIKey() (string, error) {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return "", ErrMissingAuth("OPENAI_API_KEY")
		}
		return c.OpenAIAPIKey, nil
	case ProviderGemini, "":
		if c.GeminiAPIKey == "" {
			return "", ErrMissingAuth("GEMINI_API_KEY")
		}
		return c.GeminiAPIKey, nil
	default:
		return "", ErrUnknownProvider(c.Provider)
	}
}

// LLMEndpoint returns the base URL of the configured provider.
func (c *Config) LLMEndpoint() string {
	if c.Provider == ProviderOpenAI {
		if c.OpenAIBaseURL == "" {
			return "https://api.openai.com/v1"
		}
		return c.OpenAIBaseURL
	}
	return c.GeminiBaseURL
}

// GetHTTPClient returns an HTTP client configured with TLS settings based on AllowSelfSignedCerts.
// A zero timeout leaves the deadline to the request context.
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	if cfg != nil && cfg.AllowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client
}
