package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/juriscorrect/juriscorrect-api/internal/dto"
	"github.com/juriscorrect/juriscorrect-api/internal/models"
	"github.com/juriscorrect/juriscorrect-api/internal/observability"
	"github.com/juriscorrect/juriscorrect-api/internal/repository"
	"github.com/juriscorrect/juriscorrect-api/pkg/payments"
)

// PaymentService creates checkout sessions and records unlocks.
type PaymentService interface {
	CreateCheckout(ctx context.Context, payload dto.CheckoutCreateRequest) (dto.CheckoutResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	UnlockStatus(ctx context.Context, submissionID string) (dto.UnlockStatusResponse, error)
}

// ErrUnknownPlan indicates the requested plan has no configured price.
var ErrUnknownPlan = errors.New("unknown payment plan")

// ErrInvalidWebhook indicates the event signature could not be verified.
var ErrInvalidWebhook = errors.New("invalid webhook event")

// PaymentConfig maps plans to provider price identifiers and redirect URLs.
type PaymentConfig struct {
	PlanPrices map[string]string
	SuccessURL string
	CancelURL  string
}

type paymentService struct {
	payments    repository.PaymentRepository
	submissions repository.SubmissionRepository
	gateway     payments.Gateway
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	config      PaymentConfig
}

// NewPaymentService constructs the payment service.
func NewPaymentService(paymentRepo repository.PaymentRepository, submissions repository.SubmissionRepository, gateway payments.Gateway, validate *validator.Validate, logger zerolog.Logger, cfg PaymentConfig) PaymentService {
	return &paymentService{
		payments:    paymentRepo,
		submissions: submissions,
		gateway:     gateway,
		validator:   validate,
		logger:      logger.With().Str("component", "payment_service").Logger(),
		tracer:      otel.Tracer("github.com/juriscorrect/juriscorrect-api/internal/service/payment"),
		config:      cfg,
	}
}

func (s *paymentService) CreateCheckout(ctx context.Context, payload dto.CheckoutCreateRequest) (dto.CheckoutResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CheckoutResponse{}, err
	}

	priceID, ok := s.config.PlanPrices[payload.Plan]
	if !ok || priceID == "" {
		return dto.CheckoutResponse{}, ErrUnknownPlan
	}

	spanCtx, span := s.tracer.Start(ctx, "payments.create_checkout", trace.WithAttributes(
		attribute.String("plan", payload.Plan),
		attribute.String("submission.id", payload.SubmissionID),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(spanCtx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CheckoutResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.CheckoutResponse{}, err
	}

	session, err := s.gateway.CreateCheckoutSession(spanCtx, payments.CheckoutParams{
		PriceID:      priceID,
		SubmissionID: submission.ID,
		UserID:       submission.UserID,
		SuccessURL:   s.config.SuccessURL,
		CancelURL:    s.config.CancelURL,
	})
	if err != nil {
		span.RecordError(err)
		return dto.CheckoutResponse{}, err
	}

	unlock := models.PaymentUnlock{
		ID:                uuid.NewString(),
		SubmissionID:      submission.ID,
		UserID:            submission.UserID,
		CheckoutSessionID: session.ID,
		Plan:              payload.Plan,
		Status:            models.PaymentStatusPending,
	}

	if err := s.payments.Create(spanCtx, &unlock); err != nil {
		span.RecordError(err)
		return dto.CheckoutResponse{}, err
	}

	observability.CheckoutsCreated().WithLabelValues(payload.Plan).Inc()

	return dto.CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

// HandleWebhook verifies the event signature before trusting its payload.
// Unknown event types are acknowledged and ignored so the provider stops
// retrying them.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyEvent(payload, signature)
	if err != nil {
		s.logger.Warn().Err(err).Msg("webhook verification failed")
		return ErrInvalidWebhook
	}

	if event.Type != payments.EventCheckoutCompleted {
		s.logger.Debug().Str("type", event.Type).Msg("ignoring webhook event")
		return nil
	}

	if err := s.payments.MarkCompleted(ctx, event.SessionID, event.AmountTotal); err != nil {
		return err
	}

	observability.UnlocksCompleted().Inc()
	s.logger.Info().
		Str("session_id", event.SessionID).
		Str("submission_id", event.SubmissionID).
		Msg("correction unlocked")

	return nil
}

func (s *paymentService) UnlockStatus(ctx context.Context, submissionID string) (dto.UnlockStatusResponse, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return dto.UnlockStatusResponse{}, ErrSubmissionIDRequired
	}

	unlocked, err := s.payments.HasCompletedForSubmission(ctx, submissionID)
	if err != nil {
		return dto.UnlockStatusResponse{}, err
	}

	return dto.UnlockStatusResponse{SubmissionID: submissionID, Unlocked: unlocked}, nil
}
