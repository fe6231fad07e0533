package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewMultiCore_TeesToBothWriters(t *testing.T) {
	var console, file bytes.Buffer
	core := NewMultiCore(zapcore.InfoLevel, zapcore.AddSync(&console), zapcore.AddSync(&file), true)
	logger := zap.New(core)

	logger.Info("record extracted", zap.Int("medications", 4))
	logger.Debug("below level")

	if !strings.Contains(console.String(), "record extracted") {
		t.Errorf("console missing entry: %q", console.String())
	}
	if strings.Contains(console.String(), "below level") {
		t.Error("debug entry should be filtered at info level")
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(file.Bytes()), &entry); err != nil {
		t.Fatalf("file output is not JSON: %v (%q)", err, file.String())
	}
	if entry[FieldMessage] != "record extracted" {
		t.Errorf("message = %v", entry[FieldMessage])
	}
	if entry[FieldLevel] != "info" {
		t.Errorf("level = %v", entry[FieldLevel])
	}
}

func TestNewMultiCore_ProductionConsoleIsJSON(t *testing.T) {
	var console bytes.Buffer
	logger := zap.New(NewMultiCore(zapcore.InfoLevel, zapcore.AddSync(&console), nil, false))

	logger.Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(console.Bytes()), &entry); err != nil {
		t.Fatalf("console output is not JSON in production mode: %v", err)
	}
}
