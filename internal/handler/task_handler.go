package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/middleware"
	"github.com/mentorloop/mentorloop-api/internal/service"
	"github.com/mentorloop/mentorloop-api/internal/utils"
)

// TaskHandler manages the task management endpoints.
type TaskHandler struct {
	service service.TaskService
	logger  zerolog.Logger
}

// NewTaskHandler builds a task handler instance.
func NewTaskHandler(service service.TaskService, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger.With().Str("component", "task_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Deletion is
// gated behind adminMiddleware since it can orphan student submissions.
func (h *TaskHandler) Register(router fiber.Router, adminMiddleware ...fiber.Handler) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", append(adminMiddleware, h.delete)...)
}

func (h *TaskHandler) list(c *fiber.Ctx) error {
	courseID, err := parseQueryUint(c, "course_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	batchID, err := parseQueryUint(c, "batch_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	tasks, err := h.service.List(c.Context(), courseID, batchID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "tasks retrieved", tasks)
}

func (h *TaskHandler) create(c *fiber.Ctx) error {
	var payload dto.TaskCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	task, err := h.service.Create(c.Context(), payload, actorFrom(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "task created", task)
}

func (h *TaskHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TaskUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	task, err := h.service.Update(c.Context(), id, payload, actorFrom(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task updated", task)
}

func (h *TaskHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	force := parseQueryBool(c, "force")
	if err := h.service.Delete(c.Context(), id, force, actorFrom(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task deleted", nil)
}

func (h *TaskHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return utils.SendErrorReason(c, fiber.StatusNotFound, "task not found", "not_found")
	case errors.Is(err, service.ErrTaskHasSubmissions):
		return utils.SendErrorReason(c, fiber.StatusConflict, "task has submissions; pass force=true to orphan them", "conflict")
	case errors.Is(err, service.ErrBatchRequired),
		errors.Is(err, service.ErrBatchNotAllowed),
		errors.Is(err, service.ErrAssigneesRequired),
		errors.Is(err, service.ErrAssigneeNotEnrolled),
		errors.Is(err, service.ErrReleaseAfterDue):
		return utils.SendErrorReason(c, fiber.StatusBadRequest, err.Error(), "validation")
	case errors.As(err, &validationErrors):
		return utils.SendErrorReason(c, fiber.StatusBadRequest, validationErrors.Error(), "validation")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func actorFrom(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:   middleware.UserID(c),
		Role: middleware.UserRole(c),
	}
}
