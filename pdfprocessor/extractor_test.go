package pdfprocessor

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"discharge_backend/core"
	"discharge_backend/pdfprocessor/pdftest"

	"go.uber.org/zap/zaptest"
)

func TestExtractor_ExtractBytes(t *testing.T) {
	tests := []struct {
		name          string
		pages         []string
		wantText      []string
		wantExtracted int
		wantSkipped   int
	}{
		{
			name:          "single page",
			pages:         []string{"DISCHARGE SUMMARY\nName: John Smith"},
			wantText:      []string{"DISCHARGE SUMMARY", "Name: John Smith"},
			wantExtracted: 1,
		},
		{
			name:          "empty page skipped",
			pages:         []string{"Diagnosis: Fever", "", "Course: uneventful"},
			wantText:      []string{"Diagnosis: Fever", "Course: uneventful"},
			wantExtracted: 2,
			wantSkipped:   1,
		},
		{
			name:          "whitespace-only page skipped",
			pages:         []string{"   ", "Vitals: stable"},
			wantText:      []string{"Vitals: stable"},
			wantExtracted: 1,
			wantSkipped:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(DefaultExtractorConfig(), zaptest.NewLogger(t))
			result, err := e.ExtractBytes(pdftest.Build(tt.pages...))
			if err != nil {
				t.Fatalf("ExtractBytes() error = %v", err)
			}

			for _, want := range tt.wantText {
				if !strings.Contains(result.Text, want) {
					t.Errorf("Text = %q, want it to contain %q", result.Text, want)
				}
			}
			if result.TotalPages != len(tt.pages) {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, len(tt.pages))
			}
			if result.ExtractedPages != tt.wantExtracted {
				t.Errorf("ExtractedPages = %d, want %d", result.ExtractedPages, tt.wantExtracted)
			}
			if result.SkippedPages != tt.wantSkipped {
				t.Errorf("SkippedPages = %d, want %d", result.SkippedPages, tt.wantSkipped)
			}
			if result.EstimatedTokens != EstimateTokenCount(result.Text) {
				t.Errorf("EstimatedTokens = %d", result.EstimatedTokens)
			}
		})
	}
}

func TestExtractor_PagesJoinedByNewline(t *testing.T) {
	e := NewExtractor(DefaultExtractorConfig(), nil)
	result, err := e.ExtractBytes(pdftest.Build("first", "", "second"))
	if err != nil {
		t.Fatalf("ExtractBytes() error = %v", err)
	}

	if result.Text != "first\nsecond" {
		t.Errorf("Text = %q, want %q", result.Text, "first\nsecond")
	}
	if len(result.Pages) != 2 || result.Pages[1].PageNumber != 3 {
		t.Errorf("Pages = %+v, want pages 1 and 3", result.Pages)
	}
}

func TestExtractor_MaxPages(t *testing.T) {
	e := NewExtractor(ExtractorConfig{MaxPages: 1}, nil)
	result, err := e.ExtractBytes(pdftest.Build("keep", "drop"))
	if err != nil {
		t.Fatalf("ExtractBytes() error = %v", err)
	}
	if strings.Contains(result.Text, "drop") {
		t.Errorf("Text = %q, second page should not be read", result.Text)
	}
}

func TestExtractor_Failures(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty input", nil, ErrEmptyPDF},
		{"not a pdf", []byte(strings.Repeat("this is plain text, not a PDF. ", 10)), nil},
		{"truncated pdf", pdftest.Build("text")[:60], nil},
		{"no text at all", pdftest.Build("", ""), ErrNoPDFContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(DefaultExtractorConfig(), nil)
			result, err := e.ExtractBytes(tt.data)
			if err == nil {
				t.Fatalf("expected error, got result %+v", result)
			}

			var failure *core.ExtractionFailure
			if !errors.As(err, &failure) {
				t.Fatalf("expected *core.ExtractionFailure, got %T: %v", err, err)
			}
			if failure.Stage != core.StagePDF {
				t.Errorf("Stage = %q, want %q", failure.Stage, core.StagePDF)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtractor_ExtractReaderAndFile(t *testing.T) {
	data := pdftest.Build("Chief complaints: fever")
	e := NewExtractor(DefaultExtractorConfig(), nil)

	fromReader, err := e.ExtractReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ExtractReader() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "summary.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	fromFile, err := e.ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}

	if fromReader.Text != fromFile.Text {
		t.Errorf("reader text %q != file text %q", fromReader.Text, fromFile.Text)
	}

	if _, err := e.ExtractFile(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}
