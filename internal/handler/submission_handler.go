package handler

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/juriscorrect/juriscorrect-api/internal/dto"
	"github.com/juriscorrect/juriscorrect-api/internal/service"
	"github.com/juriscorrect/juriscorrect-api/internal/utils"
)

// SubmissionHandler manages submission intake endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
}

// create accepts either a JSON body or a multipart form carrying a document
// upload. The response returns immediately; correction generation runs in the
// background and is observed through the status endpoint.
func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest
	var document *multipart.FileHeader

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		payload.ExerciseKind = c.FormValue("exercise_kind")
		payload.Subject = c.FormValue("subject")
		payload.Body = c.FormValue("body")

		if file, err := c.FormFile("document"); err == nil {
			document = file
		}
	} else if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Create(c.UserContext(), payload, document)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "submission received", submission)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	submission, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, service.ErrBodyTooShort),
		errors.Is(err, service.ErrNoContent),
		errors.Is(err, service.ErrDocumentUnreadable),
		errors.Is(err, service.ErrDocumentTooLarge),
		errors.Is(err, service.ErrSubmissionIDRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
