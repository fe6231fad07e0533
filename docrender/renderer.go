package docrender

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"discharge_backend/core"

	"go.uber.org/zap"
)

// Document mimetypes.
const (
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrUnsupportedTemplate is returned for template files that are neither
// .docx nor .xlsx.
var ErrUnsupportedTemplate = errors.New("unsupported template type")

// Renderer fills one template with a context.
type Renderer interface {
	// Render writes the filled document to w.
	Render(w io.Writer, values Context) error
	// Placeholders lists the keys the template refers to, sorted.
	Placeholders() ([]string, error)
	// Extension is the output file extension, including the dot.
	Extension() string
	MimeType() string
}

// Document is a rendered file ready to be sent or saved.
type Document struct {
	Filename string
	MimeType string
	Data     []byte
}

// NewRenderer loads the template at path and picks the renderer by file
// extension. A missing file is a *core.ConfigurationError.
func NewRenderer(path string) (Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.ErrTemplateMissing(path)
		}
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return NewDOCXRenderer(data)
	case ".xlsx":
		return NewXLSXRenderer(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTemplate, filepath.Ext(path))
	}
}

// OutputFilename builds Discharge_<name>_<YYYYMMDD_HHMMSS><ext>, with spaces
// in name replaced by underscores.
func OutputFilename(name, ext string, at time.Time) string {
	return fmt.Sprintf("Discharge_%s_%s%s",
		strings.ReplaceAll(name, " ", "_"), at.Format("20060102_150405"), ext)
}

// MissingKeys returns the placeholders that values does not provide, sorted
// and without repeats.
func MissingKeys(placeholders []string, values Context) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, key := range placeholders {
		if _, ok := values[key]; ok || seen[key] {
			continue
		}
		seen[key] = true
		missing = append(missing, key)
	}
	sort.Strings(missing)
	return missing
}

// Engine renders contexts into named documents.
type Engine struct {
	renderer Renderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine wraps renderer.
func NewEngine(renderer Renderer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for output filenames.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Render fills the template with values and names the result after the
// context's "name" key. Template keys missing from values are logged at
// debug level and rendered empty.
func (e *Engine) Render(values Context) (*Document, error) {
	if placeholders, err := e.renderer.Placeholders(); err != nil {
		e.logger.Warn("template variable scan failed", zap.Error(err))
	} else if missing := MissingKeys(placeholders, values); len(missing) > 0 {
		e.logger.Debug("template variables without a value", zap.Strings("missing", missing))
	}

	var buf bytes.Buffer
	if err := e.renderer.Render(&buf, values); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}

	return &Document{
		Filename: OutputFilename(values["name"], e.renderer.Extension(), e.now()),
		MimeType: e.renderer.MimeType(),
		Data:     buf.Bytes(),
	}, nil
}
