package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/models"
	"github.com/mentorloop/mentorloop-api/internal/repository"
)

// ErrWeekNumberInvalid indicates a non-positive week number.
var ErrWeekNumberInvalid = errors.New("week number must be positive")

// WeeklyReviewService manages the per-(batch, student, week) feedback records.
type WeeklyReviewService interface {
	// Upsert creates or updates the review for the key. A nil feedback field
	// keeps the stored value; a supplied value, including the empty string,
	// replaces it.
	Upsert(ctx context.Context, batchID, studentID uint, weekNumber int, payload dto.WeeklyReviewUpsertRequest, actor Actor) (dto.WeeklyReviewResponse, error)
	// Get returns the review and whether it exists. Absence is a normal
	// state, not an error.
	Get(ctx context.Context, batchID, studentID uint, weekNumber int) (dto.WeeklyReviewResponse, bool, error)
	ListForMentor(ctx context.Context, mentorID uint) ([]dto.MentorReviewBatch, error)
}

type weeklyReviewService struct {
	reviews     repository.WeeklyReviewRepository
	enrollments repository.EnrollmentDirectory
	activity    ActivityRecorder
	events      EventPublisher
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewWeeklyReviewService constructs the weekly review service.
func NewWeeklyReviewService(reviews repository.WeeklyReviewRepository, enrollments repository.EnrollmentDirectory, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) WeeklyReviewService {
	return &weeklyReviewService{
		reviews:     reviews,
		enrollments: enrollments,
		activity:    activity,
		events:      events,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "weekly_review_service").Logger(),
		now:         time.Now,
	}
}

func (s *weeklyReviewService) Upsert(ctx context.Context, batchID, studentID uint, weekNumber int, payload dto.WeeklyReviewUpsertRequest, actor Actor) (dto.WeeklyReviewResponse, error) {
	if weekNumber < 1 {
		return dto.WeeklyReviewResponse{}, ErrWeekNumberInvalid
	}

	review, err := s.reviews.Get(ctx, batchID, studentID, weekNumber)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WeeklyReviewResponse{}, err
		}
		review = models.WeeklyReview{
			BatchID:    batchID,
			StudentID:  studentID,
			WeekNumber: weekNumber,
		}
	}

	if payload.MentorFeedback != nil {
		clean := strings.TrimSpace(s.sanitizer.Sanitize(*payload.MentorFeedback))
		review.MentorFeedback = &clean
	}
	if payload.StudentFeedback != nil {
		clean := strings.TrimSpace(s.sanitizer.Sanitize(*payload.StudentFeedback))
		review.StudentFeedback = &clean
	}
	review.ReviewedAt = s.now()

	if err := s.reviews.Save(ctx, &review); err != nil {
		return dto.WeeklyReviewResponse{}, err
	}

	if s.activity != nil {
		entityID := review.ID
		_ = s.activity.Record(ctx, ActivityEntry{
			Actor:      actor,
			Action:     "review.saved",
			EntityType: "weekly_review",
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"batch_id":    batchID,
				"student_id":  studentID,
				"week_number": weekNumber,
			},
		})
	}

	if s.events != nil {
		s.events.Publish(DomainEvent{
			Subject:   EventReviewSaved,
			EntityID:  review.ID,
			StudentID: studentID,
			Payload: map[string]interface{}{
				"batch_id":    batchID,
				"week_number": weekNumber,
			},
		})
	}

	s.logger.Info().Uint("batch_id", batchID).Uint("student_id", studentID).Int("week", weekNumber).Msg("weekly review saved")

	return dto.NewWeeklyReviewResponse(review), nil
}

func (s *weeklyReviewService) Get(ctx context.Context, batchID, studentID uint, weekNumber int) (dto.WeeklyReviewResponse, bool, error) {
	review, err := s.reviews.Get(ctx, batchID, studentID, weekNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WeeklyReviewResponse{}, false, nil
		}
		return dto.WeeklyReviewResponse{}, false, err
	}

	return dto.NewWeeklyReviewResponse(review), true, nil
}

func (s *weeklyReviewService) ListForMentor(ctx context.Context, mentorID uint) ([]dto.MentorReviewBatch, error) {
	batches, err := s.enrollments.BatchesForMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	batchIDs := make([]uint, 0, len(batches))
	for _, batch := range batches {
		batchIDs = append(batchIDs, batch.ID)
	}

	reviews, err := s.reviews.ListForBatches(ctx, batchIDs)
	if err != nil {
		return nil, err
	}

	grouped := make(map[uint][]dto.WeeklyReviewResponse, len(batches))
	for _, review := range reviews {
		grouped[review.BatchID] = append(grouped[review.BatchID], dto.NewWeeklyReviewResponse(review))
	}

	result := make([]dto.MentorReviewBatch, 0, len(batches))
	for _, batch := range batches {
		items := grouped[batch.ID]
		if items == nil {
			items = []dto.WeeklyReviewResponse{}
		}
		result = append(result, dto.MentorReviewBatch{
			BatchID:   batch.ID,
			BatchName: batch.Name,
			Reviews:   items,
		})
	}

	return result, nil
}
