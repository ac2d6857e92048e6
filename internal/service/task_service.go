package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/models"
	"github.com/mentorloop/mentorloop-api/internal/repository"
)

// ErrTaskNotFound indicates the task could not be located.
var ErrTaskNotFound = errors.New("task not found")

// ErrTaskHasSubmissions indicates a delete was refused because submissions
// reference the task and no force flag was passed.
var ErrTaskHasSubmissions = errors.New("task has submissions")

// ErrBatchRequired indicates a batch-scoped assignment mode without a batch.
var ErrBatchRequired = errors.New("batch is required for batch-scoped tasks")

// ErrBatchNotAllowed indicates a course-wide task carrying a batch reference.
var ErrBatchNotAllowed = errors.New("course-wide tasks must not reference a batch")

// ErrAssigneesRequired indicates a batch_subset task with an empty student set.
var ErrAssigneesRequired = errors.New("batch_subset tasks require at least one assignee")

// ErrAssigneeNotEnrolled indicates an assignee outside the target batch.
var ErrAssigneeNotEnrolled = errors.New("assignee is not enrolled in the target batch")

// ErrReleaseAfterDue indicates a release time scheduled past the deadline.
var ErrReleaseAfterDue = errors.New("release time must not be after the due time")

// TaskService exposes the task management use cases.
type TaskService interface {
	Create(ctx context.Context, payload dto.TaskCreateRequest, actor Actor) (dto.TaskResponse, error)
	Update(ctx context.Context, id uint, payload dto.TaskUpdateRequest, actor Actor) (dto.TaskResponse, error)
	List(ctx context.Context, courseID, batchID *uint) ([]dto.TaskResponse, error)
	Delete(ctx context.Context, id uint, force bool, actor Actor) error
}

type taskService struct {
	tasks       repository.TaskRepository
	submissions repository.SubmissionRepository
	enrollments repository.EnrollmentDirectory
	validator   *validator.Validate
	activity    ActivityRecorder
	logger      zerolog.Logger
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(tasks repository.TaskRepository, submissions repository.SubmissionRepository, enrollments repository.EnrollmentDirectory, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) TaskService {
	return &taskService{
		tasks:       tasks,
		submissions: submissions,
		enrollments: enrollments,
		validator:   validate,
		activity:    activity,
		logger:      logger.With().Str("component", "task_service").Logger(),
	}
}

func (s *taskService) Create(ctx context.Context, payload dto.TaskCreateRequest, actor Actor) (dto.TaskResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TaskResponse{}, err
	}

	dueAt, err := time.Parse(time.RFC3339, payload.DueAt)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	var releaseAt *time.Time
	if payload.ReleaseAt != nil {
		parsed, err := time.Parse(time.RFC3339, *payload.ReleaseAt)
		if err != nil {
			return dto.TaskResponse{}, err
		}
		releaseAt = &parsed
	}

	task := models.Task{
		Title:          payload.Title,
		Description:    payload.Description,
		CourseID:       payload.CourseID,
		BatchID:        payload.BatchID,
		AssignmentMode: payload.AssignmentMode,
		WeekNumber:     payload.WeekNumber,
		TaskOrder:      payload.TaskOrder,
		DueAt:          dueAt,
		ReleaseAt:      releaseAt,
		MaxMarks:       payload.MaxMarks,
		CreatedBy:      actor.ID,
	}

	if err := s.checkTargeting(ctx, task, payload.AssigneeIDs); err != nil {
		return dto.TaskResponse{}, err
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return dto.TaskResponse{}, err
	}

	if task.AssignmentMode == models.AssignmentModeBatchSubset {
		if err := s.tasks.ReplaceAssignees(ctx, task.ID, payload.AssigneeIDs); err != nil {
			return dto.TaskResponse{}, err
		}
	}

	created, err := s.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	s.record(ctx, actor, "task.created", created.ID, map[string]interface{}{
		"title":           created.Title,
		"assignment_mode": created.AssignmentMode,
		"week_number":     created.WeekNumber,
	})

	s.logger.Info().Uint("task_id", created.ID).Str("mode", created.AssignmentMode).Msg("task created")

	return dto.NewTaskResponse(created), nil
}

func (s *taskService) Update(ctx context.Context, id uint, payload dto.TaskUpdateRequest, actor Actor) (dto.TaskResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TaskResponse{}, err
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TaskResponse{}, ErrTaskNotFound
		}
		return dto.TaskResponse{}, err
	}

	if payload.Title != nil {
		task.Title = *payload.Title
	}
	if payload.Description != nil {
		task.Description = *payload.Description
	}
	if payload.CourseID != nil {
		task.CourseID = *payload.CourseID
	}
	if payload.BatchID != nil {
		task.BatchID = payload.BatchID
	}
	if payload.AssignmentMode != nil {
		task.AssignmentMode = *payload.AssignmentMode
	}
	if payload.WeekNumber != nil {
		task.WeekNumber = *payload.WeekNumber
	}
	if payload.TaskOrder != nil {
		task.TaskOrder = *payload.TaskOrder
	}
	if payload.DueAt != nil {
		dueAt, err := time.Parse(time.RFC3339, *payload.DueAt)
		if err != nil {
			return dto.TaskResponse{}, err
		}
		task.DueAt = dueAt
	}
	if payload.ReleaseAt != nil {
		releaseAt, err := time.Parse(time.RFC3339, *payload.ReleaseAt)
		if err != nil {
			return dto.TaskResponse{}, err
		}
		task.ReleaseAt = &releaseAt
	}
	if payload.MaxMarks != nil {
		task.MaxMarks = *payload.MaxMarks
	}

	if task.AssignmentMode == models.AssignmentModeCourseWide {
		task.BatchID = nil
	}

	assigneeIDs := payload.AssigneeIDs
	if assigneeIDs == nil {
		for _, assignee := range task.Assignees {
			assigneeIDs = append(assigneeIDs, assignee.StudentID)
		}
	}

	if err := s.checkTargeting(ctx, task, assigneeIDs); err != nil {
		return dto.TaskResponse{}, err
	}

	task.Assignees = nil
	if err := s.tasks.Update(ctx, &task); err != nil {
		return dto.TaskResponse{}, err
	}

	if task.AssignmentMode == models.AssignmentModeBatchSubset {
		if err := s.tasks.ReplaceAssignees(ctx, task.ID, assigneeIDs); err != nil {
			return dto.TaskResponse{}, err
		}
	} else if err := s.tasks.ReplaceAssignees(ctx, task.ID, nil); err != nil {
		return dto.TaskResponse{}, err
	}

	updated, err := s.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	s.record(ctx, actor, "task.updated", updated.ID, map[string]interface{}{
		"title": updated.Title,
	})

	return dto.NewTaskResponse(updated), nil
}

func (s *taskService) List(ctx context.Context, courseID, batchID *uint) ([]dto.TaskResponse, error) {
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{CourseID: courseID, BatchID: batchID})
	if err != nil {
		return nil, err
	}

	return dto.NewTaskResponseSlice(tasks), nil
}

func (s *taskService) Delete(ctx context.Context, id uint, force bool, actor Actor) error {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	count, err := s.submissions.CountForTask(ctx, id)
	if err != nil {
		return err
	}

	if count > 0 && !force {
		return ErrTaskHasSubmissions
	}

	// Submissions are retained on force delete; their task reference becomes
	// dangling and read projections surface a placeholder title.
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}

	s.record(ctx, actor, "task.deleted", id, map[string]interface{}{
		"title":                task.Title,
		"forced":               force,
		"orphaned_submissions": count,
	})

	s.logger.Info().Uint("task_id", id).Bool("forced", force).Int64("orphaned", count).Msg("task deleted")

	return nil
}

// checkTargeting enforces the assignment-mode invariants: course-wide tasks
// carry no batch, batch-scoped tasks require one, and subset assignees must be
// enrolled in the target batch at validation time.
func (s *taskService) checkTargeting(ctx context.Context, task models.Task, assigneeIDs []uint) error {
	switch task.AssignmentMode {
	case models.AssignmentModeCourseWide:
		if task.BatchID != nil {
			return ErrBatchNotAllowed
		}
	case models.AssignmentModeBatchAll:
		if task.BatchID == nil {
			return ErrBatchRequired
		}
	case models.AssignmentModeBatchSubset:
		if task.BatchID == nil {
			return ErrBatchRequired
		}
		if len(assigneeIDs) == 0 {
			return ErrAssigneesRequired
		}
		for _, studentID := range assigneeIDs {
			enrolled, err := s.enrollments.IsEnrolled(ctx, studentID, *task.BatchID)
			if err != nil {
				return err
			}
			if !enrolled {
				return ErrAssigneeNotEnrolled
			}
		}
	}

	if task.ReleaseAt != nil && task.ReleaseAt.After(task.DueAt) {
		return ErrReleaseAfterDue
	}

	return nil
}

func (s *taskService) record(ctx context.Context, actor Actor, action string, taskID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}

	entityID := taskID
	_ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "task",
		EntityID:   &entityID,
		Metadata:   metadata,
	})
}
