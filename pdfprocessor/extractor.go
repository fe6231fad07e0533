package pdfprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"discharge_backend/core"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// ErrNoPDFContent is returned when a PDF contains no extractable text.
var ErrNoPDFContent = errors.New("no text content found in PDF")

// ErrEmptyPDF is returned for a zero-length upload.
var ErrEmptyPDF = errors.New("empty PDF data")

// PageResult represents extracted text from a single PDF page.
type PageResult struct {
	PageNumber int // 1-indexed
	Text       string
}

// ExtractionResult contains the joined text and per-page details.
type ExtractionResult struct {
	Text            string
	TotalPages      int
	ExtractedPages  int
	SkippedPages    int
	EstimatedTokens int
	Pages           []PageResult
}

// ExtractorConfig holds configuration for PDF text extraction.
type ExtractorConfig struct {
	// PageSeparator joins the text of non-empty pages. Defaults to "\n".
	PageSeparator string

	// MaxPages limits extraction to the first N pages (0 for all pages).
	MaxPages int
}

// DefaultExtractorConfig returns the configuration used for discharge summaries.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{PageSeparator: "\n"}
}

// Extractor pulls plain text out of PDF documents, page by page.
// Every failure is reported as a *core.ExtractionFailure with stage "pdf";
// there is no OCR fallback for scanned pages.
type Extractor struct {
	config ExtractorConfig
	logger *zap.Logger
}

// NewExtractor creates an Extractor. A nil logger disables logging.
func NewExtractor(config ExtractorConfig, logger *zap.Logger) *Extractor {
	if config.PageSeparator == "" {
		config.PageSeparator = "\n"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{config: config, logger: logger}
}

// ExtractBytes extracts text from an in-memory PDF.
//
// Example:
//
//	result, err := extractor.ExtractBytes(upload)
//	if err != nil {
//	    return err // *core.ExtractionFailure
//	}
//	prompt := llm.BuildExtractionPrompt(result.Text)
func (e *Extractor) ExtractBytes(data []byte) (*ExtractionResult, error) {
	if len(data) == 0 {
		return nil, pdfFailure(ErrEmptyPDF)
	}
	return e.ExtractReader(bytes.NewReader(data), int64(len(data)))
}

// ExtractReader extracts text from a random-access PDF source of the given size.
func (e *Extractor) ExtractReader(r io.ReaderAt, size int64) (result *ExtractionResult, err error) {
	if size <= 0 {
		return nil, pdfFailure(ErrEmptyPDF)
	}

	// The pdf package panics on some malformed structures.
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = pdfFailure(fmt.Errorf("malformed PDF: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, pdfFailure(fmt.Errorf("failed to open PDF: %w", err))
	}
	return e.extract(reader)
}

// ExtractFile extracts text from the PDF at path.
func (e *Extractor) ExtractFile(path string) (*ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdfFailure(fmt.Errorf("failed to read %s: %w", path, err))
	}
	return e.ExtractBytes(data)
}

func (e *Extractor) extract(r *pdf.Reader) (*ExtractionResult, error) {
	totalPages := r.NumPage()
	pagesToProcess := totalPages
	if e.config.MaxPages > 0 && e.config.MaxPages < totalPages {
		pagesToProcess = e.config.MaxPages
	}

	result := &ExtractionResult{
		TotalPages: totalPages,
		Pages:      make([]PageResult, 0, pagesToProcess),
	}

	texts := make([]string, 0, pagesToProcess)
	for pageIndex := 1; pageIndex <= pagesToProcess; pageIndex++ {
		text, err := extractPage(r, pageIndex)
		if err != nil {
			return nil, pdfFailure(fmt.Errorf("page %d: %w", pageIndex, err))
		}
		if text == "" {
			result.SkippedPages++
			e.logger.Debug("skipping empty page", zap.Int("page", pageIndex))
			continue
		}
		result.ExtractedPages++
		result.Pages = append(result.Pages, PageResult{PageNumber: pageIndex, Text: text})
		texts = append(texts, text)
	}

	result.Text = strings.Join(texts, e.config.PageSeparator)
	if result.Text == "" {
		return nil, pdfFailure(ErrNoPDFContent)
	}
	result.EstimatedTokens = EstimateTokenCount(result.Text)

	e.logger.Info("extracted PDF text",
		zap.Int("total_pages", result.TotalPages),
		zap.Int("extracted_pages", result.ExtractedPages),
		zap.Int("skipped_pages", result.SkippedPages),
		zap.Int("estimated_tokens", result.EstimatedTokens))

	return result, nil
}

func extractPage(r *pdf.Reader, pageIndex int) (string, error) {
	p := r.Page(pageIndex)
	if p.V.IsNull() {
		return "", nil
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func pdfFailure(err error) error {
	return &core.ExtractionFailure{Stage: core.StagePDF, Attempts: 1, Err: err}
}
