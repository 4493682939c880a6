package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/juriscorrect/juriscorrect-api/internal/dto"
	"github.com/juriscorrect/juriscorrect-api/internal/middleware"
	"github.com/juriscorrect/juriscorrect-api/internal/models"
	"github.com/juriscorrect/juriscorrect-api/internal/repository"
	"github.com/juriscorrect/juriscorrect-api/pkg/extract"
)

// SubmissionService exposes assignment intake operations.
type SubmissionService interface {
	Create(ctx context.Context, payload dto.SubmissionCreateRequest, document *multipart.FileHeader) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id string) (dto.SubmissionResponse, error)
}

// ErrBodyTooShort indicates the submitted text is below the minimum length.
var ErrBodyTooShort = errors.New("submission body is too short")

// ErrNoContent indicates neither body text nor a readable document was provided.
var ErrNoContent = errors.New("submission has no content")

// ErrDocumentUnreadable indicates text extraction from the upload failed.
var ErrDocumentUnreadable = errors.New("document could not be read")

// ErrDocumentTooLarge indicates the upload exceeds the configured limit.
var ErrDocumentTooLarge = errors.New("document exceeds maximum allowed size")

// DocumentArchiver stores the original upload and returns a retrieval URL.
type DocumentArchiver interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionConfig describes intake validation knobs.
type SubmissionConfig struct {
	// MinBodyChars applies to the direct-text entry point only; the document
	// path relies on extraction instead.
	MinBodyChars int
	MaxUploadMB  int64
}

type submissionService struct {
	submissions repository.SubmissionRepository
	dispatcher  CorrectionDispatcher
	archiver    DocumentArchiver
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	config      SubmissionConfig
}

// NewSubmissionService constructs the intake service.
func NewSubmissionService(submissions repository.SubmissionRepository, dispatcher CorrectionDispatcher, archiver DocumentArchiver, validate *validator.Validate, logger zerolog.Logger, cfg SubmissionConfig) SubmissionService {
	if cfg.MinBodyChars <= 0 {
		cfg.MinBodyChars = 30
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}

	return &submissionService{
		submissions: submissions,
		dispatcher:  dispatcher,
		archiver:    archiver,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/juriscorrect/juriscorrect-api/internal/service/submission"),
		config:      cfg,
	}
}

// Create validates and persists a new submission, then dispatches correction
// generation without waiting for it. The submission row is committed before
// the dispatch so the orchestrator's lookup cannot race its own creation.
func (s *submissionService) Create(ctx context.Context, payload dto.SubmissionCreateRequest, document *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "submissions.create", trace.WithAttributes(
		attribute.String("exercise_kind", payload.ExerciseKind),
	))
	defer span.End()

	subject := strings.TrimSpace(s.sanitizer.Sanitize(payload.Subject))
	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	documentURL := ""

	if document != nil {
		extracted, archivedURL, err := s.readDocument(spanCtx, document)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		body = extracted
		documentURL = archivedURL
	} else {
		if body == "" {
			return dto.SubmissionResponse{}, ErrNoContent
		}
		if len([]rune(body)) < s.config.MinBodyChars {
			return dto.SubmissionResponse{}, ErrBodyTooShort
		}
	}

	submission := models.Submission{
		ID:           uuid.NewString(),
		ExerciseKind: payload.ExerciseKind,
		Subject:      subject,
		Body:         body,
		DocumentURL:  documentURL,
		UserID:       middleware.UserIDFromContext(ctx),
		Status:       models.SubmissionStatusReceived,
	}

	if err := s.submissions.Create(spanCtx, &submission); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	s.dispatcher.Dispatch(spanCtx, submission.ID)

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, id string) (dto.SubmissionResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dto.SubmissionResponse{}, ErrSubmissionIDRequired
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// readDocument sniffs, extracts and archives an uploaded document. Archive
// failures are logged but never fail the intake; the extracted text is what
// matters for correction.
func (s *submissionService) readDocument(ctx context.Context, document *multipart.FileHeader) (string, string, error) {
	if document.Size > s.config.MaxUploadMB*1024*1024 {
		return "", "", ErrDocumentTooLarge
	}

	file, err := document.Open()
	if err != nil {
		return "", "", fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return "", "", fmt.Errorf("read document: %w", err)
	}

	detected := mimetype.Detect(raw)
	text, err := extract.Text(raw, detected.String())
	if err != nil {
		s.logger.Warn().Err(err).Str("filename", document.Filename).Msg("document extraction failed")
		return "", "", ErrDocumentUnreadable
	}

	documentURL := ""
	if s.archiver != nil {
		url, err := s.archiver.Upload(ctx, document.Filename, bytes.NewReader(raw))
		if err != nil {
			s.logger.Warn().Err(err).Str("filename", document.Filename).Msg("document archive failed")
		} else {
			documentURL = url
		}
	}

	return strings.TrimSpace(text), documentURL, nil
}
