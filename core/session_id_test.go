package core

import (
	"encoding/base64"
	"testing"
)

func TestGenerateSessionID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateSessionID()
		if err != nil {
			t.Fatalf("GenerateSessionID() error = %v", err)
		}
		if len(id) != 43 {
			t.Errorf("len(id) = %d, want 43", len(id))
		}
		decoded, err := base64.RawURLEncoding.DecodeString(id)
		if err != nil {
			t.Errorf("token %q is not URL-safe base64: %v", id, err)
		}
		if len(decoded) != TokenBytes {
			t.Errorf("decoded length = %d, want %d", len(decoded), TokenBytes)
		}
		if seen[id] {
			t.Fatalf("duplicate token %q", id)
		}
		seen[id] = true
	}
}
