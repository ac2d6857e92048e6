package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/middleware"
	"github.com/mentorloop/mentorloop-api/internal/observability"
	"github.com/mentorloop/mentorloop-api/internal/service"
	"github.com/mentorloop/mentorloop-api/internal/utils"
)

// SubmissionHandler manages the student submission endpoints.
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

// Register attaches the student routes. The extra middleware guards the
// write path only; the read path stays open to any authenticated user.
func (h *SubmissionHandler) Register(router fiber.Router, writeMiddleware ...fiber.Handler) {
	router.Post("", append(writeMiddleware, h.submit)...)
	router.Get("/mine", h.listMine)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.StudentID = middleware.UserID(c)

	// The file part is optional; text-only submissions are valid.
	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	submission, err := h.service.Submit(c.Context(), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.SubmissionOutcomes().WithLabelValues("accepted").Inc()

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission recorded", submission)
}

func (h *SubmissionHandler) listMine(c *fiber.Ctx) error {
	studentID := middleware.UserID(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unknown student")
	}

	submissions, err := h.service.ListMine(c.Context(), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var lockedErr *service.LockedError
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &lockedErr):
		observability.SubmissionOutcomes().WithLabelValues("locked").Inc()
		return utils.SendErrorReason(c, fiber.StatusLocked, lockedErr.Reason, "locked")
	case errors.Is(err, service.ErrNotAssigned):
		observability.SubmissionOutcomes().WithLabelValues("rejected").Inc()
		return utils.SendErrorReason(c, fiber.StatusForbidden, "task is not assigned to you", "not_assigned")
	case errors.Is(err, service.ErrTaskNotFound):
		return utils.SendErrorReason(c, fiber.StatusNotFound, "task not found", "not_found")
	case errors.Is(err, service.ErrTaskNotReleased):
		observability.SubmissionOutcomes().WithLabelValues("rejected").Inc()
		return utils.SendErrorReason(c, fiber.StatusBadRequest, "task is not released yet", "validation")
	case errors.Is(err, service.ErrEmptySubmission):
		observability.SubmissionOutcomes().WithLabelValues("rejected").Inc()
		return utils.SendErrorReason(c, fiber.StatusBadRequest, "submission requires text or a file", "validation")
	case errors.Is(err, service.ErrSubmissionConflict):
		return utils.SendErrorReason(c, fiber.StatusConflict, "submission was modified concurrently; retry", "conflict")
	case errors.As(err, &validationErrors):
		return utils.SendErrorReason(c, fiber.StatusBadRequest, validationErrors.Error(), "validation")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
