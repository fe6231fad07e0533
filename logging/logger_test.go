package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RedactsSensitiveFields(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromCore(obs)

	logger.Info("record stored",
		zap.String("mob", "9876543210"),
		zap.String("name", "John Smith"),
		zap.String("url", "https://host/v1beta/models/m:generateContent?key=secret-value"),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["mob"] != RedactedPlaceholder {
		t.Errorf("mob = %v, want redacted", fields["mob"])
	}
	if fields["name"] != "John Smith" {
		t.Errorf("name = %v, should be untouched", fields["name"])
	}
	if strings.Contains(fields["url"].(string), "secret-value") {
		t.Errorf("url leaked key: %v", fields["url"])
	}
}

func TestLogger_ZapLoggerAlsoRedacts(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	z := NewFromCore(obs).Named("llm").Zap()

	z.Warn("attempt failed", zap.Error(errors.New(`Post "https://h/x?key=abc123": timeout`)))

	entry := logs.All()[0]
	if entry.LoggerName != "llm" {
		t.Errorf("LoggerName = %q", entry.LoggerName)
	}
	got, ok := entry.ContextMap()["error"].(string)
	if !ok {
		t.Fatalf("error field type = %T, want string after redaction", entry.ContextMap()["error"])
	}
	if strings.Contains(got, "abc123") {
		t.Errorf("error field leaked key: %q", got)
	}
}

func TestLogger_RedactsMessageAndWith(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromCore(obs).With(zap.String("GEMINI_API_KEY", "AIza-whatever"))

	logger.Infow("calling https://h/x?key=abc", "phone", "12345")

	entry := logs.All()[0]
	if strings.Contains(entry.Message, "key=abc") {
		t.Errorf("message leaked key: %q", entry.Message)
	}
	ctx := entry.ContextMap()
	if ctx["GEMINI_API_KEY"] != RedactedPlaceholder {
		t.Errorf("With field not redacted: %v", ctx["GEMINI_API_KEY"])
	}
	if ctx["phone"] != RedactedPlaceholder {
		t.Errorf("sugared field not redacted: %v", ctx["phone"])
	}
}

func TestNew_WritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "discharge.log")

	logger, err := New(Options{
		Development: true,
		FilePath:    path,
		Console:     zapcore.AddSync(&console),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !logger.IsDevelopment() || logger.LogFilePath() != path {
		t.Errorf("unexpected logger settings")
	}

	logger.Debug("pdf extracted", zap.Int("pages", 2))
	if err := logger.Sync(); err != nil {
		t.Logf("Sync() error = %v", err)
	}

	if !strings.Contains(console.String(), "pdf extracted") {
		t.Errorf("console missing entry: %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"pages":2`) {
		t.Errorf("file missing JSON entry: %q", data)
	}
}

func TestNew_LevelOverride(t *testing.T) {
	var console bytes.Buffer
	level := zapcore.WarnLevel

	logger, err := New(Options{Development: true, Level: &level, Console: zapcore.AddSync(&console)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(console.String(), "hidden") || !strings.Contains(console.String(), "shown") {
		t.Errorf("level override not applied: %q", console.String())
	}
}

func TestNew_BadFilePath(t *testing.T) {
	_, err := New(Options{FilePath: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	if err == nil {
		t.Error("expected error for unwritable log path")
	}
}

func TestLogger_SyncNil(t *testing.T) {
	var l *Logger
	if err := l.Sync(); err != nil {
		t.Errorf("nil Sync() = %v", err)
	}
}
