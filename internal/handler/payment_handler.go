package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/juriscorrect/juriscorrect-api/internal/dto"
	"github.com/juriscorrect/juriscorrect-api/internal/service"
	"github.com/juriscorrect/juriscorrect-api/internal/utils"
)

// PaymentHandler manages checkout and webhook endpoints.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler builds a payment handler instance.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("component", "payment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *PaymentHandler) Register(router fiber.Router) {
	router.Post("/checkout", h.createCheckout)
	router.Post("/webhook", h.webhook)
	router.Get("/:submissionId/unlock", h.unlockStatus)
}

func (h *PaymentHandler) createCheckout(c *fiber.Ctx) error {
	var payload dto.CheckoutCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.CreateCheckout(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "checkout session created", response)
}

// webhook receives signed provider events. The raw body is passed through
// untouched because the signature covers the exact bytes.
func (h *PaymentHandler) webhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")

	if err := h.service.HandleWebhook(c.UserContext(), c.Body(), signature); err != nil {
		if errors.Is(err, service.ErrInvalidWebhook) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid webhook signature")
		}
		h.logger.Error().Err(err).Msg("webhook processing failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "webhook processing failed")
	}

	return utils.SendSuccess(c, "webhook processed", nil)
}

func (h *PaymentHandler) unlockStatus(c *fiber.Ctx) error {
	response, err := h.service.UnlockStatus(c.UserContext(), c.Params("submissionId"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "unlock status retrieved", response)
}

func (h *PaymentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, service.ErrUnknownPlan), errors.Is(err, service.ErrSubmissionIDRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
