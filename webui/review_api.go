package webui

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"discharge_backend/core"
	"discharge_backend/pdfprocessor"
	"discharge_backend/pipeline"
	"discharge_backend/summary"

	"go.uber.org/zap"
)

// uploadField is the multipart field carrying the PDF.
const uploadField = "pdf"

// maxReviewFormBytes caps the in-memory part of a review form.
const maxReviewFormBytes = 1 << 20

// ErrorResponse is the JSON body of every failed request. Retry names the
// step to repeat: "upload" or "review".
type ErrorResponse struct {
	Error string `json:"error"`
	Retry string `json:"retry,omitempty"`
}

// ReviewResponse is the body of GET /review/{token}.
type ReviewResponse struct {
	Token  string          `json:"token"`
	Record *summary.Record `json:"record"`
	// Form holds the review form's initial values.
	Form summary.Edits `json:"form"`
}

// handleUpload handles POST /upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "The PDF is larger than " + strconv.FormatInt(s.config.MaxUploadBytes, 10) + " bytes.",
				Retry: "upload",
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "No PDF file was uploaded.", Retry: "upload"})
		return
	}
	defer file.Close()

	filename := pdfprocessor.SanitizeFilename(header.Filename)
	if !pdfprocessor.IsPDFFilename(filename) {
		writeJSON(w, http.StatusUnsupportedMediaType, ErrorResponse{Error: "Only PDF files are accepted.", Retry: "upload"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("PDF uploaded",
		zap.String("filename", filename),
		zap.Int("bytes", len(data)))

	ext, err := s.service.Extract(r.Context(), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ext)
}

// handleGetReview handles GET /review/{token}.
func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	rec, err := s.service.Lookup(token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReviewResponse{
		Token:  token,
		Record: rec,
		Form:   summary.FormValues(rec),
	})
}

// handlePostReview handles POST /review/{token}. Form fields are taken as
// reviewer edits; a field that is absent keeps the stored value.
func (s *Server) handlePostReview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxReviewFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "The review form could not be read.", Retry: "review"})
		return
	}

	edits := make(summary.Edits, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			edits[key] = values[0]
		}
	}

	doc, err := s.service.Review(r.Context(), r.PathValue("token"), edits)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		s.logger.Warn("failed to write document", zap.Error(err))
	}
}

// writeError maps a pipeline error to a status code and a JSON body with
// the user-facing message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("route", routeLabel(r)), zap.Error(err))
	}
	writeJSON(w, status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, pipeline.ErrRecordNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "This review was not found. Please upload the PDF again.", Retry: "upload"}
	case errors.Is(err, pipeline.ErrRecordExpired):
		return http.StatusGone, ErrorResponse{Error: "This review has expired. Please upload the PDF again.", Retry: "upload"}
	case errors.Is(err, pipeline.ErrNoRenderer):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Document rendering is not configured.", Retry: "review"}
	}

	message, retry := core.UserMessage(err)
	body := ErrorResponse{Error: message, Retry: retry}

	var extErr *core.ExtractionFailure
	var valErr *core.ValidationError
	switch {
	case errors.As(err, &extErr):
		if extErr.Stage == core.StagePDF {
			return http.StatusUnprocessableEntity, body
		}
		return http.StatusBadGateway, body
	case errors.As(err, &valErr):
		return http.StatusUnprocessableEntity, body
	default:
		return http.StatusInternalServerError, body
	}
}
