package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder is the string used to replace sensitive data
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns match credentials that can leak into log values, most
// notably the Gemini key carried in the request URL query string.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),                // Google API keys
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),                // OpenAI keys (sk-, sk-proj-)
	regexp.MustCompile(`(?i)([?&]key=)[^&\s"']+`),              // key= query parameter
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),     // Authorization headers
	regexp.MustCompile(`(?i)api_?key\s*[:=]\s*[^\s,;&"']{8,}`), // api_key=... assignments
}

// sensitiveKeys are field names whose values are never logged. Besides
// credentials this covers the patient's phone number.
var sensitiveKeys = []string{
	"API_KEY",
	"APIKEY",
	"SECRET",
	"PASSWORD",
	"AUTHORIZATION",
	"MOB",
	"MOBILE",
	"PHONE",
}

// RedactSensitiveData replaces every credential found in value.
//
// Example:
//
//	RedactSensitiveData("POST https://host/v1beta/models/m:generateContent?key=AIza...")
//	// "POST https://host/v1beta/models/m:generateContent?key=[REDACTED]"
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}
	result := value
	for _, pattern := range sensitivePatterns {
		if pattern.NumSubexp() > 0 {
			result = pattern.ReplaceAllString(result, "${1}"+RedactedPlaceholder)
			continue
		}
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// IsSensitiveField reports whether values logged under fieldName must be hidden.
// Matching is on underscore-separated words, so "mob" and "patient_mobile"
// match while "mobility" does not.
func IsSensitiveField(fieldName string) bool {
	upper := strings.ToUpper(fieldName)
	for _, key := range sensitiveKeys {
		if upper == key || strings.HasSuffix(upper, "_"+key) || strings.HasPrefix(upper, key+"_") {
			return true
		}
	}
	return strings.Contains(upper, "API_KEY")
}

// ContainsSensitiveData returns true if the value contains a credential pattern.
func ContainsSensitiveData(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}
