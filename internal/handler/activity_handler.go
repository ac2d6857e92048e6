package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/service"
	"github.com/mentorloop/mentorloop-api/internal/utils"
)

// ActivityHandler exposes the admin audit trail.
type ActivityHandler struct {
	activity service.ActivityService
	logger   zerolog.Logger
}

// NewActivityHandler builds an activity handler instance.
func NewActivityHandler(activity service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activity: activity,
		logger:   logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("/activity", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	actorID, err := parseQueryUint(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.ActivityListRequest{
		Page:       parseQueryInt(c, "page"),
		PageSize:   parseQueryInt(c, "page_size"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	if actorID != nil {
		req.ActorID = *actorID
	}

	response, err := h.activity.List(c.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "activity retrieved", response)
}
