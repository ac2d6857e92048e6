package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/models"
	"github.com/mentorloop/mentorloop-api/internal/repository"
)

// StudentTaskService produces the student-facing annotated task listing.
type StudentTaskService interface {
	ListForStudent(ctx context.Context, studentID uint) ([]dto.StudentTaskResponse, error)
}

type studentTaskService struct {
	tasks       repository.TaskRepository
	submissions repository.SubmissionRepository
	enrollments repository.EnrollmentDirectory
	scope       string
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentTaskService builds the annotated listing service. scope selects
// whether progression ordering spans all of a student's tasks or is evaluated
// per course.
func NewStudentTaskService(tasks repository.TaskRepository, submissions repository.SubmissionRepository, enrollments repository.EnrollmentDirectory, scope string, logger zerolog.Logger) StudentTaskService {
	return &studentTaskService{
		tasks:       tasks,
		submissions: submissions,
		enrollments: enrollments,
		scope:       scope,
		logger:      logger.With().Str("component", "student_task_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentTaskService) ListForStudent(ctx context.Context, studentID uint) ([]dto.StudentTaskResponse, error) {
	assigned, err := loadAssignedTasks(ctx, s.tasks, s.enrollments, studentID)
	if err != nil {
		return nil, err
	}

	studentSubmissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}
	indexed := submissionsByTask(studentSubmissions)

	now := s.now()
	responses := make([]dto.StudentTaskResponse, 0, len(assigned))
	for _, task := range assigned {
		evaluation := EvaluateTask(task, assigned, indexed, now, s.scope)
		if !evaluation.Visible {
			continue
		}

		item := dto.StudentTaskResponse{
			ID:               task.ID,
			Title:            task.Title,
			Description:      task.Description,
			CourseID:         task.CourseID,
			BatchID:          task.BatchID,
			WeekNumber:       task.WeekNumber,
			TaskOrder:        task.TaskOrder,
			DueAt:            task.DueAt,
			MaxMarks:         task.MaxMarks,
			Locked:           evaluation.Locked,
			Overdue:          evaluation.Overdue,
			SubmissionStatus: evaluation.SubmissionStatus,
		}
		if evaluation.LockReason != "" {
			reason := evaluation.LockReason
			item.LockReason = &reason
		}
		if submission, ok := indexed[task.ID]; ok {
			submissionID := submission.ID
			submittedAt := submission.SubmittedAt
			item.SubmissionID = &submissionID
			item.SubmittedAt = &submittedAt
			item.MarksObtained = submission.MarksObtained
			item.Feedback = submission.Feedback
		}

		responses = append(responses, item)
	}

	return responses, nil
}

// loadAssignedTasks resolves a student's effective assignment from current
// batch membership, not membership at task-creation time.
func loadAssignedTasks(ctx context.Context, tasks repository.TaskRepository, enrollments repository.EnrollmentDirectory, studentID uint) ([]models.Task, error) {
	memberships, err := enrollments.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	batchIDs := make([]uint, 0, len(memberships))
	courseIDs := make([]uint, 0, len(memberships))
	seenCourses := make(map[uint]struct{}, len(memberships))
	for _, enrollment := range memberships {
		batchIDs = append(batchIDs, enrollment.BatchID)
		if _, ok := seenCourses[enrollment.Batch.CourseID]; !ok {
			seenCourses[enrollment.Batch.CourseID] = struct{}{}
			courseIDs = append(courseIDs, enrollment.Batch.CourseID)
		}
	}

	candidates, err := tasks.ListCandidates(ctx, courseIDs, batchIDs)
	if err != nil {
		return nil, err
	}

	return effectiveTasks(candidates, studentID), nil
}
