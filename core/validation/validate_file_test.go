package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "template.docx")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"existing file", file, ""},
		{"empty path", "", "cannot be empty"},
		{"missing file", filepath.Join(dir, "nope.docx"), "file not found"},
		{"directory", dir, "is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFileExists(tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var fe *FileExistsError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FileExistsError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckTemplateFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.docx", "b.XLSX", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := CheckTemplateFile(filepath.Join(dir, "a.docx")); err != nil {
		t.Errorf("docx rejected: %v", err)
	}
	if err := CheckTemplateFile(filepath.Join(dir, "b.XLSX")); err != nil {
		t.Errorf("xlsx rejected: %v", err)
	}
	if err := CheckTemplateFile(filepath.Join(dir, "c.txt")); err == nil {
		t.Error("txt template should be rejected")
	}
}
