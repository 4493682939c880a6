package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/juriscorrect/juriscorrect-api/internal/service"
	"github.com/juriscorrect/juriscorrect-api/internal/utils"
)

// CorrectionHandler manages correction generation and polling endpoints.
type CorrectionHandler struct {
	service service.CorrectionService
	logger  zerolog.Logger
}

// NewCorrectionHandler builds a correction handler instance.
func NewCorrectionHandler(service service.CorrectionService, logger zerolog.Logger) *CorrectionHandler {
	return &CorrectionHandler{
		service: service,
		logger:  logger.With().Str("component", "correction_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CorrectionHandler) Register(router fiber.Router) {
	router.Post("/:submissionId/generate", h.generate)
	router.Get("/:submissionId", h.status)
}

func (h *CorrectionHandler) generate(c *fiber.Ctx) error {
	response, err := h.service.Generate(c.UserContext(), c.Params("submissionId"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "correction generation acknowledged", response)
}

func (h *CorrectionHandler) status(c *fiber.Ctx) error {
	response, err := h.service.Status(c.UserContext(), c.Params("submissionId"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "correction status retrieved", response)
}

func (h *CorrectionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionIDRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
