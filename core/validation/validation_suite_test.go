package validation

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"discharge_backend/core"
)

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.docx")
	if err := os.WriteFile(path, []byte("PK"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func validConfig(t *testing.T) *core.Config {
	return &core.Config{
		Provider:      core.ProviderGemini,
		GeminiAPIKey:  "AIzaTestKey",
		GeminiBaseURL: core.DefaultGeminiBaseURL,
		TemplatePath:  writeTemplate(t),
	}
}

func TestStepStatus_String(t *testing.T) {
	tests := []struct {
		status   StepStatus
		expected string
	}{
		{StepPending, "pending"},
		{StepRunning, "running"},
		{StepPassed, "passed"},
		{StepFailed, "failed"},
		{StepSkipped, "skipped"},
		{StepStatus(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.status.String(); got != tt.expected {
				t.Errorf("StepStatus(%d).String() = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestSuite_ValidConfig(t *testing.T) {
	var buf bytes.Buffer
	result := NewSuite(validConfig(t)).WithOutput(&buf).Validate(context.Background())

	if !result.Success {
		t.Fatalf("expected success, got %s (first error: %v)", result.Summary(), result.FirstError())
	}
	if result.PassedSteps != 3 {
		t.Errorf("PassedSteps = %d, want 3", result.PassedSteps)
	}
	if len(result.Steps) != 5 {
		t.Errorf("len(Steps) = %d, want 5", len(result.Steps))
	}
	if !strings.Contains(buf.String(), "Validation Passed") {
		t.Errorf("output missing summary: %s", buf.String())
	}
}

func TestSuite_MissingKey(t *testing.T) {
	cfg := validConfig(t)
	cfg.GeminiAPIKey = ""

	result := NewSuite(cfg).WithShowProgress(false).Validate(context.Background())
	if result.Success {
		t.Fatal("expected failure without API key")
	}
	if code := core.GetErrorCode(result.FirstError()); code != core.ErrCodeMissingAuth {
		t.Errorf("first error code = %q, want %q", code, core.ErrCodeMissingAuth)
	}
}

func TestSuite_FailFast(t *testing.T) {
	cfg := validConfig(t)
	cfg.GeminiAPIKey = ""

	result := NewSuite(cfg).WithShowProgress(false).WithFailFast(true).Validate(context.Background())
	if len(result.Steps) != 1 {
		t.Errorf("len(Steps) = %d, want 1 with fail-fast", len(result.Steps))
	}
}

func TestSuite_MissingTemplate(t *testing.T) {
	cfg := validConfig(t)
	cfg.TemplatePath = filepath.Join(t.TempDir(), "missing.docx")

	var buf bytes.Buffer
	result := NewSuite(cfg).WithOutput(&buf).Validate(context.Background())
	if result.Success {
		t.Fatal("expected failure for missing template")
	}
	if !strings.Contains(buf.String(), "missing.docx") {
		t.Errorf("output should name the template: %s", buf.String())
	}
}

func TestSuite_ConnectivityProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := validConfig(t)
	cfg.GeminiBaseURL = server.URL

	result := NewSuite(cfg).WithShowProgress(false).WithConnectivityProbe(true).Validate(context.Background())
	if !result.Success {
		t.Fatalf("expected success, got %v", result.FirstError())
	}
	last := result.Steps[len(result.Steps)-1]
	if last.Status != StepPassed {
		t.Errorf("connectivity step status = %s, want passed", last.Status)
	}
}
