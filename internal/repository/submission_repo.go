package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mentorloop/mentorloop-api/internal/models"
)

// ErrVersionConflict indicates a compare-and-swap update lost against a
// concurrent writer. Callers should re-read current state and retry.
var ErrVersionConflict = errors.New("submission version conflict")

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	TaskID     *uint
	StudentID  *uint
	StudentIDs []uint
	Ungraded   bool
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByTaskAndStudent(ctx context.Context, taskID, studentID uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	// UpdateVersioned persists the submission only if the stored row still
	// carries expectedVersion, bumping the version on success. A lost race
	// returns ErrVersionConflict.
	UpdateVersioned(ctx context.Context, submission *models.Submission, expectedVersion uint) error
	CountForTask(ctx context.Context, taskID uint) (int64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).Preload("Student")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.TaskID != nil {
		query = query.Where("task_id = ?", *filter.TaskID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if len(filter.StudentIDs) > 0 {
		query = query.Where("student_id IN ?", filter.StudentIDs)
	}

	if filter.Ungraded {
		query = query.Where("marks_obtained IS NULL")
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByTaskAndStudent(ctx context.Context, taskID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("task_id = ?", taskID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.Version == 0 {
		submission.Version = 1
	}
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) UpdateVersioned(ctx context.Context, submission *models.Submission, expectedVersion uint) error {
	submission.Version = expectedVersion + 1

	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND version = ?", submission.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(submission)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	return nil
}

func (r *submissionRepository) CountForTask(ctx context.Context, taskID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("task_id = ?", taskID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
