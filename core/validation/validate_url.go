package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateServerURL checks that a URL has an http or https scheme and a host.
func ValidateServerURL(serverURL string) error {
	serverURL = strings.TrimSpace(serverURL)
	if serverURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme, got: %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}
