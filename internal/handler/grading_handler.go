package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/service"
	"github.com/mentorloop/mentorloop-api/internal/utils"
)

// GradingHandler manages the staff-facing submission listing and grading endpoints.
type GradingHandler struct {
	grading     service.GradingService
	submissions service.SubmissionService
	logger      zerolog.Logger
}

// NewGradingHandler builds a grading handler instance.
func NewGradingHandler(grading service.GradingService, submissions service.SubmissionService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading:     grading,
		submissions: submissions,
		logger:      logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches the staff routes. The extra middleware guards both the
// listing and the grade endpoint.
func (h *GradingHandler) Register(router fiber.Router, staffMiddleware ...fiber.Handler) {
	router.Get("", append(staffMiddleware, h.list)...)
	router.Post("/:id/grade", append(staffMiddleware, h.grade)...)
}

// list serves the staff projections: by task, batch or student. Exactly one
// selector is required.
func (h *GradingHandler) list(c *fiber.Ctx) error {
	taskID, err := parseQueryUint(c, "task_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	batchID, err := parseQueryUint(c, "batch_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var response dto.SubmissionListResponse
	switch {
	case taskID != nil:
		response, err = h.submissions.ListForTask(c.Context(), *taskID)
	case batchID != nil:
		response, err = h.submissions.ListForBatch(c.Context(), *batchID)
	case studentID != nil:
		response, err = h.submissions.ListForStudent(c.Context(), *studentID)
	default:
		return utils.SendError(c, fiber.StatusBadRequest, "one of task_id, batch_id or student_id is required")
	}
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", response)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.grading.Grade(c.Context(), id, payload, actorFrom(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendErrorReason(c, fiber.StatusNotFound, "submission not found", "not_found")
	case errors.Is(err, service.ErrMarksOutOfRange):
		return utils.SendErrorReason(c, fiber.StatusBadRequest, "marks outside the allowed range", "validation")
	case errors.Is(err, service.ErrSubmissionConflict):
		return utils.SendErrorReason(c, fiber.StatusConflict, "submission was modified concurrently; re-read and retry", "conflict")
	case errors.As(err, &validationErrors):
		return utils.SendErrorReason(c, fiber.StatusBadRequest, validationErrors.Error(), "validation")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
