package core

import (
	"errors"
	"fmt"
)

// ConfigurationError represents a configuration problem with an actionable
// instruction for the operator. A missing API credential is the common case.
type ConfigurationError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigurationError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeMissingAuth      = "MISSING_AUTH"
	ErrCodeInvalidConfig    = "INVALID_CONFIG"
	ErrCodeTemplateMissing  = "TEMPLATE_MISSING"
	ErrCodeUnknownProvider  = "UNKNOWN_PROVIDER"
	ErrCodeInvalidServerURL = "INVALID_SERVER_URL"
)

// ErrMissingAuth returns an error for a missing model API key.
func ErrMissingAuth(envVar string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeMissingAuth,
		Message: fmt.Sprintf("Missing API key: %s is not set", envVar),
		Action:  fmt.Sprintf("Set %s in your environment or .env file", envVar),
	}
}

// ErrInvalidConfig returns an error for a configuration value out of range.
func ErrInvalidConfig(varName, reason string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeInvalidConfig,
		Message: fmt.Sprintf("Invalid %s: %s", varName, reason),
		Action:  fmt.Sprintf("Correct %s in your .env file", varName),
	}
}

// ErrTemplateMissing returns an error when the document template cannot be found.
func ErrTemplateMissing(path string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeTemplateMissing,
		Message: fmt.Sprintf("Template not found: %s", path),
		Action:  "Set TEMPLATE_PATH to an existing .docx or .xlsx template",
	}
}

// ErrUnknownProvider returns an error for an unsupported LLM_PROVIDER value.
func ErrUnknownProvider(provider string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeUnknownProvider,
		Message: fmt.Sprintf("Unknown LLM provider %q", provider),
		Action:  "Set LLM_PROVIDER to gemini or openai",
	}
}

// ErrInvalidServerURL returns an error for a malformed endpoint URL.
func ErrInvalidServerURL(url string, reason string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeInvalidServerURL,
		Message: fmt.Sprintf("Invalid endpoint URL '%s': %s", url, reason),
		Action:  "Set the base URL to a valid http(s) URL",
	}
}

// Extraction stages reported by ExtractionFailure.
const (
	StagePDF   = "pdf"
	StageModel = "model"
)

// ExtractionFailure is returned when a PDF cannot be read or the model call
// failed on every attempt.
type ExtractionFailure struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *ExtractionFailure) Error() string {
	switch e.Stage {
	case StagePDF:
		return fmt.Sprintf("unreadable PDF: %v", e.Err)
	default:
		return fmt.Sprintf("model extraction failed after %d attempt(s): %v", e.Attempts, e.Err)
	}
}

func (e *ExtractionFailure) Unwrap() error {
	return e.Err
}

// ValidationError reports the first mandatory field missing from a record.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// IsConfigurationError checks if an error is a ConfigurationError and returns it if so.
func IsConfigurationError(err error) (*ConfigurationError, bool) {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error if it's a ConfigurationError
func GetErrorCode(err error) string {
	if cfgErr, ok := IsConfigurationError(err); ok {
		return cfgErr.Code
	}
	return ""
}

// UserMessage converts a pipeline error into the message shown to the person
// operating the upload/review screens. The second return value says which
// step should be retried: "upload" or "review".
func UserMessage(err error) (string, string) {
	var extErr *ExtractionFailure
	var valErr *ValidationError
	var cfgErr *ConfigurationError

	switch {
	case err == nil:
		return "", ""
	case errors.As(err, &cfgErr):
		return "Service is not configured: " + cfgErr.Error(), "upload"
	case errors.As(err, &extErr):
		if extErr.Stage == StagePDF {
			return "The PDF could not be read. Please upload a text-based PDF.", "upload"
		}
		return "Could not extract the discharge summary. Please upload the PDF again.", "upload"
	case errors.As(err, &valErr):
		return fmt.Sprintf("The summary is missing %s. Please correct it and submit again.", valErr.Field), "review"
	default:
		return "Unexpected error: " + err.Error(), "upload"
	}
}
