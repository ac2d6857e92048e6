package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/repository"
)

// ErrMarksOutOfRange indicates marks outside [0, task.max_marks].
var ErrMarksOutOfRange = errors.New("marks outside the allowed range")

// GradingService encapsulates the grading workflow for mentors and admins.
type GradingService interface {
	Grade(ctx context.Context, submissionID uint, payload dto.GradeRequest, actor Actor) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	tasks       repository.TaskRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	events      EventPublisher
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(submissions repository.SubmissionRepository, tasks repository.TaskRepository, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		tasks:       tasks,
		validator:   validate,
		activity:    activity,
		events:      events,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/mentorloop/mentorloop-api/internal/service/grading"),
		now:         time.Now,
	}
}

func (s *gradingService) Grade(ctx context.Context, submissionID uint, payload dto.GradeRequest, actor Actor) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.grade", trace.WithAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	// An orphaned submission (task force-deleted) stays gradeable; without a
	// task there is no upper bound to enforce beyond non-negative.
	taskTitle := ""
	maxMarks := math.Inf(1)
	if task, err := s.tasks.GetByID(ctx, submission.TaskID); err == nil {
		taskTitle = task.Title
		maxMarks = task.MaxMarks
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	if payload.Marks < 0 || payload.Marks > maxMarks+1e-9 {
		span.SetStatus(codes.Error, "marks_out_of_range")
		return dto.SubmissionResponse{}, ErrMarksOutOfRange
	}

	feedback := submission.Feedback
	if payload.Feedback != nil {
		feedback = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Feedback))
	}
	internalNotes := submission.InternalNotes
	if payload.InternalNotes != nil {
		internalNotes = strings.TrimSpace(s.sanitizer.Sanitize(*payload.InternalNotes))
	}

	// Idempotent re-grade by the same grader leaves the record untouched.
	if submission.MarksObtained != nil &&
		math.Abs(*submission.MarksObtained-payload.Marks) < 1e-6 &&
		submission.Feedback == feedback &&
		submission.InternalNotes == internalNotes &&
		submission.GradedBy != nil && *submission.GradedBy == actor.ID {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		return dto.NewSubmissionResponse(submission, taskTitle), nil
	}

	marks := payload.Marks
	gradedAt := s.now()
	gradedBy := actor.ID
	submission.MarksObtained = &marks
	submission.Feedback = feedback
	submission.InternalNotes = internalNotes
	submission.GradedAt = &gradedAt
	submission.GradedBy = &gradedBy

	// The version check guarantees the grade applies to the content read
	// above: a resubmission landing in between wins the race and this grade
	// is rejected rather than attached to replaced content.
	if err := s.submissions.UpdateVersioned(ctx, &submission, submission.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			span.SetStatus(codes.Error, "version_conflict")
			return dto.SubmissionResponse{}, ErrSubmissionConflict
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if s.activity != nil {
		entityID := submission.ID
		_ = s.activity.Record(ctx, ActivityEntry{
			Actor:      actor,
			Action:     "submission.graded",
			EntityType: "submission",
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"task_id":    submission.TaskID,
				"student_id": submission.StudentID,
				"marks":      payload.Marks,
			},
		})
	}

	if s.events != nil {
		s.events.Publish(DomainEvent{
			Subject:   EventSubmissionGraded,
			EntityID:  submission.ID,
			StudentID: submission.StudentID,
			Payload: map[string]interface{}{
				"task_id": submission.TaskID,
				"marks":   payload.Marks,
			},
		})
	}

	span.SetAttributes(attribute.Float64("grading.marks", payload.Marks))
	s.logger.Info().Uint("submission_id", submission.ID).Float64("marks", payload.Marks).Msg("submission graded")

	return dto.NewSubmissionResponse(submission, taskTitle), nil
}
