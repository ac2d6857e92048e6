package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/middleware"
	"github.com/mentorloop/mentorloop-api/internal/service"
	"github.com/mentorloop/mentorloop-api/internal/utils"
)

// ReviewHandler serves the weekly review endpoints.
type ReviewHandler struct {
	reviews service.WeeklyReviewService
	logger  zerolog.Logger
}

// NewReviewHandler builds a review handler instance.
func NewReviewHandler(reviews service.WeeklyReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register attaches the keyed review routes. The extra middleware guards the
// write path only; reads filter by role instead.
func (h *ReviewHandler) Register(router fiber.Router, writeMiddleware ...fiber.Handler) {
	router.Get("/:batch/:student/:week", h.get)
	router.Put("/:batch/:student/:week", append(writeMiddleware, h.upsert)...)
}

// RegisterMentor attaches the mentor dashboard listing.
func (h *ReviewHandler) RegisterMentor(router fiber.Router) {
	router.Get("/me/reviews", h.listForMentor)
}

func (h *ReviewHandler) get(c *fiber.Ctx) error {
	batchID, studentID, week, err := reviewKey(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	// Students may only read their own record, and never the mentor channel.
	if middleware.UserRole(c) == middleware.RoleStudent && middleware.UserID(c) != studentID {
		return utils.SendErrorReason(c, fiber.StatusForbidden, "students can only read their own reviews", "not_assigned")
	}

	review, found, err := h.reviews.Get(c.Context(), batchID, studentID, week)
	if err != nil {
		return h.handleError(c, err)
	}
	if !found {
		return utils.SendErrorReason(c, fiber.StatusNotFound, "review not found", "not_found")
	}

	if middleware.UserRole(c) == middleware.RoleStudent {
		return utils.SendSuccess(c, "review retrieved", studentReviewView(review))
	}
	return utils.SendSuccess(c, "review retrieved", review)
}

func (h *ReviewHandler) upsert(c *fiber.Ctx) error {
	batchID, studentID, week, err := reviewKey(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.WeeklyReviewUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	review, err := h.reviews.Upsert(c.Context(), batchID, studentID, week, payload, actorFrom(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review saved", review)
}

func (h *ReviewHandler) listForMentor(c *fiber.Ctx) error {
	batches, err := h.reviews.ListForMentor(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "reviews retrieved", batches)
}

func (h *ReviewHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrWeekNumberInvalid):
		return utils.SendErrorReason(c, fiber.StatusBadRequest, err.Error(), "validation")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// reviewKey parses the (batch, student, week) path triplet.
func reviewKey(c *fiber.Ctx) (uint, uint, int, error) {
	batchID, err := parseUintParam(c, "batch")
	if err != nil {
		return 0, 0, 0, err
	}
	studentID, err := parseUintParam(c, "student")
	if err != nil {
		return 0, 0, 0, err
	}
	week, err := parseIntParam(c, "week")
	if err != nil {
		return 0, 0, 0, err
	}
	return batchID, studentID, week, nil
}

func studentReviewView(review dto.WeeklyReviewResponse) dto.StudentWeeklyReviewResponse {
	return dto.StudentWeeklyReviewResponse{
		BatchID:         review.BatchID,
		WeekNumber:      review.WeekNumber,
		StudentFeedback: review.StudentFeedback,
		ReviewedAt:      review.ReviewedAt,
	}
}
