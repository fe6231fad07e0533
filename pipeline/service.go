// Package pipeline wires the discharge-summary stages together: PDF text
// extraction, the model call, normalization, review merge and rendering.
package pipeline

import (
	"context"
	"errors"
	"time"

	"discharge_backend/core"
	"discharge_backend/docrender"
	"discharge_backend/llm"
	"discharge_backend/metrics"
	"discharge_backend/pdfprocessor"
	"discharge_backend/summary"

	"go.uber.org/zap"
)

// ErrNoRenderer is returned by Review when the service was built without a
// document renderer.
var ErrNoRenderer = errors.New("no document renderer configured")

// TextExtractor reads the text of a PDF.
type TextExtractor interface {
	ExtractBytes(data []byte) (*pdfprocessor.ExtractionResult, error)
	ExtractFile(path string) (*pdfprocessor.ExtractionResult, error)
}

// ModelClient returns the JSON object a model produced for a prompt.
type ModelClient interface {
	Extract(ctx context.Context, prompt string) (map[string]interface{}, error)
}

// DocumentRenderer turns a template context into a document.
type DocumentRenderer interface {
	Render(values docrender.Context) (*docrender.Document, error)
}

// Deps are the collaborators of a Service. Renderer and Recorder are
// optional.
type Deps struct {
	Extractor TextExtractor
	Model     ModelClient
	Store     *RecordStore
	Builder   *docrender.ContextBuilder
	Renderer  DocumentRenderer
	Recorder  metrics.Recorder
	Logger    *zap.Logger
}

// Extraction is the result of a successful upload.
type Extraction struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Record    *summary.Record `json:"record"`
}

// Service runs the pipeline. Each call is independent; the record store is
// the only state shared between calls.
type Service struct {
	extractor TextExtractor
	model     ModelClient
	store     *RecordStore
	builder   *docrender.ContextBuilder
	renderer  DocumentRenderer
	recorder  metrics.Recorder
	logger    *zap.Logger
}

// NewService creates a Service from deps.
func NewService(deps Deps) *Service {
	if deps.Store == nil {
		deps.Store = NewRecordStore(core.DefaultSessionTTL)
	}
	if deps.Builder == nil {
		deps.Builder = docrender.NewContextBuilder(nil)
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.Nop
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Service{
		extractor: deps.Extractor,
		model:     deps.Model,
		store:     deps.Store,
		builder:   deps.Builder,
		renderer:  deps.Renderer,
		recorder:  deps.Recorder,
		logger:    deps.Logger,
	}
}

// Store returns the record store.
func (s *Service) Store() *RecordStore {
	return s.store
}

// Extract reads pdf, asks the model for a record, normalizes it and stores
// it for review.
func (s *Service) Extract(ctx context.Context, pdf []byte) (ext *Extraction, err error) {
	ctx = ensureCorrelationID(ctx)
	start := time.Now()
	defer func() { s.observe(ctx, metrics.StageExtract, start, err) }()

	rec, err := s.ExtractRecord(ctx, pdf)
	if err != nil {
		return nil, err
	}

	session, err := s.store.Put(rec)
	if err != nil {
		return nil, err
	}
	s.recorder.SetActiveRecords(s.store.Count())

	return &Extraction{Token: session.Token, ExpiresAt: session.ExpiresAt, Record: rec}, nil
}

// ExtractRecord runs extraction without storing the result.
func (s *Service) ExtractRecord(ctx context.Context, pdf []byte) (*summary.Record, error) {
	return s.extractRecord(ctx, func() (*pdfprocessor.ExtractionResult, error) {
		return s.extractor.ExtractBytes(pdf)
	})
}

// ExtractRecordFile is ExtractRecord for a PDF on disk. A file that cannot be
// read fails at the pdf stage.
func (s *Service) ExtractRecordFile(ctx context.Context, path string) (*summary.Record, error) {
	return s.extractRecord(ctx, func() (*pdfprocessor.ExtractionResult, error) {
		return s.extractor.ExtractFile(path)
	})
}

func (s *Service) extractRecord(ctx context.Context, read func() (*pdfprocessor.ExtractionResult, error)) (*summary.Record, error) {
	ctx = ensureCorrelationID(ctx)
	logger := s.logger.With(zap.String("correlation_id", core.CorrelationID(ctx)))

	text, err := read()
	if err != nil {
		logger.Warn("PDF extraction failed", zap.Error(err))
		return nil, err
	}
	logger.Info("PDF text extracted",
		zap.Int("pages", text.TotalPages),
		zap.Int("skipped_pages", text.SkippedPages),
		zap.Int("estimated_tokens", text.EstimatedTokens))

	raw, err := s.model.Extract(ctx, llm.BuildExtractionPrompt(text.Text))
	if err != nil {
		logger.Warn("model extraction failed", zap.Error(err))
		return nil, err
	}

	rec, err := summary.Normalize(raw)
	if err != nil {
		logger.Warn("extracted record rejected", zap.Error(err))
		return nil, err
	}
	return rec, nil
}

// Lookup returns the stored record for token.
func (s *Service) Lookup(token string) (*summary.Record, error) {
	return s.store.Get(token)
}

// Review merges edits into the record stored under token and renders it.
// The token is released only after a successful render, so a failed review
// can be resubmitted.
func (s *Service) Review(ctx context.Context, token string, edits summary.Edits) (doc *docrender.Document, err error) {
	ctx = ensureCorrelationID(ctx)
	start := time.Now()
	defer func() { s.observe(ctx, metrics.StageReview, start, err) }()

	rec, err := s.store.Get(token)
	if err != nil {
		return nil, err
	}

	doc, err = s.Render(ctx, rec, edits)
	if err != nil {
		return nil, err
	}

	s.store.Delete(token)
	s.recorder.SetActiveRecords(s.store.Count())
	return doc, nil
}

// Render merges edits into rec and renders the result without touching the
// store.
func (s *Service) Render(ctx context.Context, rec *summary.Record, edits summary.Edits) (doc *docrender.Document, err error) {
	ctx = ensureCorrelationID(ctx)
	start := time.Now()
	defer func() { s.observe(ctx, metrics.StageRender, start, err) }()

	if s.renderer == nil {
		return nil, ErrNoRenderer
	}

	final := summary.Merge(rec, edits)
	if err := final.Record.Validate(); err != nil {
		return nil, err
	}

	doc, err = s.renderer.Render(s.builder.Build(final))
	if err != nil {
		return nil, err
	}

	s.logger.Info("document rendered",
		zap.String("correlation_id", core.CorrelationID(ctx)),
		zap.String("filename", doc.Filename),
		zap.Int("bytes", len(doc.Data)),
		zap.Int("medications", len(final.Record.Medications)))
	return doc, nil
}

func (s *Service) observe(ctx context.Context, stage string, start time.Time, err error) {
	rec := metrics.StageRecord{
		Stage:         stage,
		Status:        metrics.StatusSuccess,
		CorrelationID: core.CorrelationID(ctx),
		StartTime:     start,
		Duration:      time.Since(start),
	}
	if err != nil {
		rec.Status = metrics.StatusError
		rec.ErrorMsg, _ = core.UserMessage(err)
	}
	s.recorder.ObserveStage(rec)
}

func ensureCorrelationID(ctx context.Context) context.Context {
	if core.CorrelationID(ctx) != "" {
		return ctx
	}
	return core.WithCorrelationID(ctx, core.NewCorrelationID())
}
