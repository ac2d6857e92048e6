package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/models"
	"github.com/mentorloop/mentorloop-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrEmptySubmission indicates neither text nor a file was supplied.
var ErrEmptySubmission = errors.New("submission requires text or a file")

// ErrNotAssigned indicates the student is outside the task's effective assignment.
var ErrNotAssigned = errors.New("task is not assigned to this student")

// ErrTaskNotReleased indicates the task is still outside its visibility window.
var ErrTaskNotReleased = errors.New("task is not released yet")

// ErrSubmissionConflict indicates a concurrent write collided; the caller
// should re-read current state and retry.
var ErrSubmissionConflict = errors.New("submission was modified concurrently")

// FileUploader abstracts the file storage collaborator. The engine only keeps
// the opaque URL it returns.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionService records student work and serves the read projections.
type SubmissionService interface {
	Submit(ctx context.Context, payload dto.SubmitRequest, file *multipart.FileHeader) (dto.StudentSubmissionResponse, error)
	ListMine(ctx context.Context, studentID uint) ([]dto.StudentSubmissionResponse, error)
	ListForTask(ctx context.Context, taskID uint) (dto.SubmissionListResponse, error)
	ListForBatch(ctx context.Context, batchID uint) (dto.SubmissionListResponse, error)
	ListForStudent(ctx context.Context, studentID uint) (dto.SubmissionListResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	tasks       repository.TaskRepository
	enrollments repository.EnrollmentDirectory
	validator   *validator.Validate
	uploader    FileUploader
	cache       *redis.Client
	cacheTTL    time.Duration
	events      EventPublisher
	scope       string
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, tasks repository.TaskRepository, enrollments repository.EnrollmentDirectory, validate *validator.Validate, uploader FileUploader, cache *redis.Client, cacheTTL time.Duration, events EventPublisher, scope string, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		tasks:       tasks,
		enrollments: enrollments,
		validator:   validate,
		uploader:    uploader,
		cache:       cache,
		cacheTTL:    cacheTTL,
		events:      events,
		scope:       scope,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/mentorloop/mentorloop-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, payload dto.SubmitRequest, file *multipart.FileHeader) (dto.StudentSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.Int64("submission.task_id", int64(payload.TaskID)),
		attribute.Int64("submission.student_id", int64(payload.StudentID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.StudentSubmissionResponse{}, err
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" && file == nil {
		return dto.StudentSubmissionResponse{}, ErrEmptySubmission
	}

	task, err := s.tasks.GetByID(ctx, payload.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentSubmissionResponse{}, ErrTaskNotFound
		}
		return dto.StudentSubmissionResponse{}, err
	}

	assigned, err := loadAssignedTasks(ctx, s.tasks, s.enrollments, payload.StudentID)
	if err != nil {
		return dto.StudentSubmissionResponse{}, err
	}
	if !containsTask(assigned, task.ID) {
		return dto.StudentSubmissionResponse{}, ErrNotAssigned
	}

	studentSubmissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &payload.StudentID})
	if err != nil {
		return dto.StudentSubmissionResponse{}, err
	}
	indexed := submissionsByTask(studentSubmissions)

	now := s.now()
	evaluation := EvaluateTask(task, assigned, indexed, now, s.scope)
	if !evaluation.Visible {
		return dto.StudentSubmissionResponse{}, ErrTaskNotReleased
	}
	if evaluation.Locked {
		span.SetStatus(codes.Error, "task_locked")
		return dto.StudentSubmissionResponse{}, &LockedError{Reason: evaluation.LockReason}
	}

	fileURL := ""
	if file != nil {
		if err := validateSubmissionFile(file); err != nil {
			return dto.StudentSubmissionResponse{}, err
		}
		reader, err := file.Open()
		if err != nil {
			return dto.StudentSubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
		}
		defer reader.Close()

		fileURL, err = s.uploader.Upload(ctx, file.Filename, reader)
		if err != nil {
			return dto.StudentSubmissionResponse{}, fmt.Errorf("failed to upload file: %w", err)
		}
	}

	existing, err := s.submissions.GetByTaskAndStudent(ctx, task.ID, payload.StudentID)
	switch {
	case err == nil:
		// Resubmission overwrites the single record. A grade issued for
		// the replaced content is invalidated together with its feedback;
		// ungraded feedback and internal notes are staff state and stay.
		existing.Text = text
		existing.FileURL = fileURL
		existing.SubmittedAt = now
		if existing.MarksObtained != nil {
			existing.MarksObtained = nil
			existing.Feedback = ""
			existing.GradedAt = nil
			existing.GradedBy = nil
		}

		if err := s.submissions.UpdateVersioned(ctx, &existing, existing.Version); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return dto.StudentSubmissionResponse{}, ErrSubmissionConflict
			}
			return dto.StudentSubmissionResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		existing = models.Submission{
			TaskID:      task.ID,
			StudentID:   payload.StudentID,
			SubmittedAt: now,
			Text:        text,
			FileURL:     fileURL,
		}
		if err := s.submissions.Create(ctx, &existing); err != nil {
			return dto.StudentSubmissionResponse{}, err
		}
	default:
		return dto.StudentSubmissionResponse{}, err
	}

	if s.events != nil {
		s.events.Publish(DomainEvent{
			Subject:   EventSubmissionSubmitted,
			EntityID:  existing.ID,
			StudentID: payload.StudentID,
			Payload: map[string]interface{}{
				"task_id":    task.ID,
				"task_title": task.Title,
			},
		})
	}

	s.logger.Info().Uint("submission_id", existing.ID).Uint("task_id", task.ID).Msg("submission recorded")

	return dto.NewStudentSubmissionResponse(existing, task.Title), nil
}

func (s *submissionService) ListMine(ctx context.Context, studentID uint) ([]dto.StudentSubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}

	titles, err := s.taskTitles(ctx, submissions)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.StudentSubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewStudentSubmissionResponse(submission, titles[submission.TaskID]))
	}

	return responses, nil
}

func (s *submissionService) ListForTask(ctx context.Context, taskID uint) (dto.SubmissionListResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{TaskID: &taskID})
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	return s.buildListResponse(ctx, submissions)
}

func (s *submissionService) ListForBatch(ctx context.Context, batchID uint) (dto.SubmissionListResponse, error) {
	cacheKey := fmt.Sprintf("submissions:batch:%d", batchID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.SubmissionListResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("batch_id", batchID).Msg("batch submissions cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read batch submissions cache")
		}
	}

	members, err := s.enrollments.BatchMembers(ctx, batchID)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}
	if len(members) == 0 {
		return dto.SubmissionListResponse{Items: []dto.SubmissionResponse{}}, nil
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentIDs: members})
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	response, err := s.buildListResponse(ctx, submissions)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store batch submissions cache")
			}
		}
	}

	return response, nil
}

func (s *submissionService) ListForStudent(ctx context.Context, studentID uint) (dto.SubmissionListResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	return s.buildListResponse(ctx, submissions)
}

func (s *submissionService) buildListResponse(ctx context.Context, submissions []models.Submission) (dto.SubmissionListResponse, error) {
	titles, err := s.taskTitles(ctx, submissions)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	items := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		items = append(items, dto.NewSubmissionResponse(submission, titles[submission.TaskID]))
	}

	return dto.SubmissionListResponse{
		Items: items,
		Stats: dto.NewSubmissionStats(submissions),
	}, nil
}

// taskTitles resolves titles for the tasks behind a submission set. Tasks that
// were force-deleted are simply absent; projections fall back to a placeholder.
func (s *submissionService) taskTitles(ctx context.Context, submissions []models.Submission) (map[uint]string, error) {
	seen := make(map[uint]struct{}, len(submissions))
	ids := make([]uint, 0, len(submissions))
	for _, submission := range submissions {
		if _, ok := seen[submission.TaskID]; ok {
			continue
		}
		seen[submission.TaskID] = struct{}{}
		ids = append(ids, submission.TaskID)
	}

	tasks, err := s.tasks.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	titles := make(map[uint]string, len(tasks))
	for _, task := range tasks {
		titles[task.ID] = task.Title
	}

	return titles, nil
}

func containsTask(tasks []models.Task, id uint) bool {
	for _, task := range tasks {
		if task.ID == id {
			return true
		}
	}
	return false
}

func validateSubmissionFile(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}
