package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/juriscorrect/juriscorrect-api/internal/dto"
	"github.com/juriscorrect/juriscorrect-api/internal/models"
	"github.com/juriscorrect/juriscorrect-api/internal/observability"
	"github.com/juriscorrect/juriscorrect-api/internal/repository"
	"github.com/juriscorrect/juriscorrect-api/pkg/ai"
)

// CorrectionService orchestrates correction generation and status polling.
type CorrectionService interface {
	Generate(ctx context.Context, submissionID string) (dto.GenerateResponse, error)
	Status(ctx context.Context, submissionID string) (dto.CorrectionStatusResponse, error)
}

// ErrSubmissionIDRequired indicates the caller passed an empty submission id.
var ErrSubmissionIDRequired = errors.New("submission id is required")

// ErrSubmissionNotFound indicates no submission exists for the given id.
var ErrSubmissionNotFound = errors.New("submission not found")

const fallbackExcerptChars = 400

// CorrectionConfig describes orchestration knobs.
type CorrectionConfig struct {
	// ProducerTimeout bounds the single blocking producer call.
	ProducerTimeout time.Duration
	// MaxSourceChars truncates the source text sent upstream.
	MaxSourceChars int
	// StatusCacheTTL controls how long ready payloads stay cached.
	StatusCacheTTL time.Duration
}

type correctionService struct {
	corrections repository.CorrectionRepository
	submissions repository.SubmissionRepository
	corrector   ai.Corrector
	cache       *redis.Client
	logger      zerolog.Logger
	tracer      trace.Tracer
	config      CorrectionConfig
}

// NewCorrectionService constructs the correction orchestrator.
func NewCorrectionService(corrections repository.CorrectionRepository, submissions repository.SubmissionRepository, corrector ai.Corrector, cache *redis.Client, logger zerolog.Logger, cfg CorrectionConfig) CorrectionService {
	if cfg.ProducerTimeout <= 0 {
		cfg.ProducerTimeout = 28 * time.Second
	}
	if cfg.MaxSourceChars <= 0 {
		cfg.MaxSourceChars = 12000
	}
	if cfg.StatusCacheTTL <= 0 {
		cfg.StatusCacheTTL = 5 * time.Minute
	}

	return &correctionService{
		corrections: corrections,
		submissions: submissions,
		corrector:   corrector,
		cache:       cache,
		logger:      logger.With().Str("component", "correction_service").Logger(),
		tracer:      otel.Tracer("github.com/juriscorrect/juriscorrect-api/internal/service/correction"),
		config:      cfg,
	}
}

// Generate runs the correction state machine for one submission. It is
// idempotent: while an active (running or ready) correction exists, repeated
// calls return that row and the producer is never re-invoked. Producer
// failures are absorbed into a degraded fallback payload; the only errors
// surfaced to the caller are missing input, an unknown submission and
// persistence failures.
func (s *correctionService) Generate(ctx context.Context, submissionID string) (dto.GenerateResponse, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return dto.GenerateResponse{}, ErrSubmissionIDRequired
	}

	spanCtx, span := s.tracer.Start(ctx, "corrections.generate", trace.WithAttributes(
		attribute.String("submission.id", submissionID),
	))
	defer span.End()

	if existing, err := s.corrections.LatestActive(spanCtx, submissionID); err == nil {
		observability.CorrectionOutcomes().WithLabelValues("idempotent_hit").Inc()
		return dto.NewGenerateResponse(existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.GenerateResponse{}, err
	}

	submission, err := s.submissions.GetByID(spanCtx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GenerateResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.GenerateResponse{}, err
	}

	// The running row is inserted before any producer call so concurrent
	// callers observe it through the idempotency check. The unique index on
	// (submission_id, active) makes the insert itself the arbiter: losing the
	// conflict means another caller already owns the active correction.
	correction := models.Correction{
		ID:           uuid.NewString(),
		SubmissionID: submission.ID,
		Status:       models.CorrectionStatusRunning,
		UserID:       submission.UserID,
	}

	created, err := s.corrections.CreateActive(spanCtx, &correction)
	if err != nil {
		span.RecordError(err)
		return dto.GenerateResponse{}, err
	}
	if !created {
		winner, err := s.corrections.LatestActive(spanCtx, submissionID)
		if err != nil {
			span.RecordError(err)
			return dto.GenerateResponse{}, err
		}
		observability.CorrectionOutcomes().WithLabelValues("race_lost").Inc()
		return dto.NewGenerateResponse(winner), nil
	}

	source := strings.TrimSpace(submission.Body)
	if source == "" {
		// Missing input is not a failure: the row finalizes ready with an
		// explicit in-payload marker so the UI only ever handles two terminal
		// shapes.
		result := placeholderResult()
		if err := s.finalize(spanCtx, &correction, result); err != nil {
			return dto.GenerateResponse{}, err
		}
		observability.CorrectionOutcomes().WithLabelValues("placeholder").Inc()
		return dto.NewGenerateResponse(correction), nil
	}

	result := s.produce(spanCtx, submission, source)
	if err := s.finalize(spanCtx, &correction, result); err != nil {
		return dto.GenerateResponse{}, err
	}

	outcome := "ready"
	if result.Degraded {
		outcome = "fallback"
	}
	observability.CorrectionOutcomes().WithLabelValues(outcome).Inc()

	return dto.NewGenerateResponse(correction), nil
}

// Status reports the latest correction state for a submission. Read-only and
// safe to poll; ready payloads are served from the redis cache when possible.
func (s *correctionService) Status(ctx context.Context, submissionID string) (dto.CorrectionStatusResponse, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return dto.CorrectionStatusResponse{}, ErrSubmissionIDRequired
	}

	cacheKey := statusCacheKey(submissionID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.CorrectionStatusResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read correction status cache")
		}
	}

	correction, err := s.corrections.Latest(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CorrectionStatusResponse{Status: dto.CorrectionStatusNone}, nil
		}
		return dto.CorrectionStatusResponse{}, err
	}

	// A failed row never reaches the UI as an error state; reporting none
	// lets the poller trigger a fresh generate.
	if correction.Status == models.CorrectionStatusFailed {
		return dto.CorrectionStatusResponse{Status: dto.CorrectionStatusNone}, nil
	}

	response := dto.NewCorrectionStatusResponse(correction)

	if s.cache != nil && correction.Status == models.CorrectionStatusReady {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.config.StatusCacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store correction status cache")
			}
		}
	}

	return response, nil
}

func (s *correctionService) produce(ctx context.Context, submission models.Submission, source string) ai.CorrectionResult {
	truncated := source
	if len(truncated) > s.config.MaxSourceChars {
		truncated = truncated[:s.config.MaxSourceChars]
	}

	producerCtx, cancel := context.WithTimeout(ctx, s.config.ProducerTimeout)
	defer cancel()

	result, err := s.corrector.Correct(producerCtx, ai.CorrectionInput{
		ExerciseKind: submission.ExerciseKind,
		Subject:      submission.Subject,
		SourceText:   truncated,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("producer failed, using fallback correction")
		observability.ProducerFallbacks().Inc()
		return fallbackResult(source)
	}

	result.InlineNotes = anchoredNotes(result.NormalizedBody, result.InlineNotes)
	return result
}

func (s *correctionService) finalize(ctx context.Context, correction *models.Correction, result ai.CorrectionResult) error {
	payload, err := json.Marshal(result.Document())
	if err != nil {
		return fmt.Errorf("encode correction result: %w", err)
	}

	if err := s.corrections.Finalize(ctx, correction.ID, datatypes.JSON(payload), result.Degraded); err != nil {
		if markErr := s.corrections.MarkFailed(ctx, correction.ID); markErr != nil {
			s.logger.Error().Err(markErr).Str("correction_id", correction.ID).Msg("failed to mark correction failed")
		}
		return err
	}

	correction.Status = models.CorrectionStatusReady
	correction.Result = datatypes.JSON(payload)
	correction.Degraded = result.Degraded

	return nil
}

// placeholderResult is the terminal payload written when no source text
// resolves. Ready with a zero score and an explicit marker, never failed.
func placeholderResult() ai.CorrectionResult {
	return ai.CorrectionResult{
		NormalizedBody: "",
		GlobalComment:  "Aucun texte n'a pu être extrait de votre copie. Merci de soumettre à nouveau votre devoir.",
		InlineNotes:    []ai.InlineNote{},
		Score:          ai.Score{Overall: 0, OutOf: 20},
		Error:          ai.ErrorNoTextFound,
		Degraded:       true,
	}
}

// fallbackResult synthesizes a deterministic correction from the source text
// when the producer times out or returns garbage. The user-facing contract is
// that a result always arrives within the wait budget.
func fallbackResult(source string) ai.CorrectionResult {
	excerpt := source
	if len(excerpt) > fallbackExcerptChars {
		excerpt = excerpt[:fallbackExcerptChars]
	}

	return ai.CorrectionResult{
		NormalizedBody: excerpt,
		GlobalComment:  "Votre copie a bien été reçue. La correction détaillée n'a pas pu être générée dans le délai imparti ; une relecture complète sera disponible prochainement.",
		InlineNotes:    []ai.InlineNote{},
		Score:          ai.Score{Overall: 10, OutOf: 20},
		Degraded:       true,
	}
}

// anchoredNotes drops notes whose non-empty quote is not a literal substring
// of the normalized body, since the paywall view cannot highlight them.
func anchoredNotes(body string, notes []ai.InlineNote) []ai.InlineNote {
	kept := make([]ai.InlineNote, 0, len(notes))
	for _, note := range notes {
		if note.Quote != "" && !strings.Contains(body, note.Quote) {
			continue
		}
		kept = append(kept, note)
	}
	return kept
}

func statusCacheKey(submissionID string) string {
	return fmt.Sprintf("correction:status:%s", submissionID)
}
