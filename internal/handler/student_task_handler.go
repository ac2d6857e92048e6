package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentorloop/mentorloop-api/internal/middleware"
	"github.com/mentorloop/mentorloop-api/internal/service"
	"github.com/mentorloop/mentorloop-api/internal/utils"
)

// StudentTaskHandler serves the student-facing annotated task listing.
type StudentTaskHandler struct {
	service service.StudentTaskService
	logger  zerolog.Logger
}

// NewStudentTaskHandler builds a student task handler instance.
func NewStudentTaskHandler(service service.StudentTaskService, logger zerolog.Logger) *StudentTaskHandler {
	return &StudentTaskHandler{
		service: service,
		logger:  logger.With().Str("component", "student_task_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *StudentTaskHandler) Register(router fiber.Router) {
	router.Get("/me/tasks", h.listMine)
}

func (h *StudentTaskHandler) listMine(c *fiber.Ctx) error {
	studentID := middleware.UserID(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unknown student")
	}

	tasks, err := h.service.ListForStudent(c.Context(), studentID)
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "tasks retrieved", tasks)
}
