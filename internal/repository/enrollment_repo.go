package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mentorloop/mentorloop-api/internal/models"
)

// EnrollmentDirectory exposes the read-only membership facts the engine
// consumes. Registration and batch management own the underlying records.
type EnrollmentDirectory interface {
	IsEnrolled(ctx context.Context, studentID, batchID uint) (bool, error)
	BatchMembers(ctx context.Context, batchID uint) ([]uint, error)
	ListForStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error)
	BatchesForMentor(ctx context.Context, mentorID uint) ([]models.Batch, error)
}

type enrollmentDirectory struct {
	db *gorm.DB
}

// NewEnrollmentDirectory instantiates the directory over the shared database.
func NewEnrollmentDirectory(db *gorm.DB) EnrollmentDirectory {
	return &enrollmentDirectory{db: db}
}

func (r *enrollmentDirectory) IsEnrolled(ctx context.Context, studentID, batchID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ?", studentID).
		Where("batch_id = ?", batchID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *enrollmentDirectory) BatchMembers(ctx context.Context, batchID uint) ([]uint, error) {
	var studentIDs []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("batch_id = ?", batchID).
		Pluck("student_id", &studentIDs).Error; err != nil {
		return nil, err
	}

	return studentIDs, nil
}

func (r *enrollmentDirectory) ListForStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).
		Preload("Batch").
		Where("student_id = ?", studentID).
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentDirectory) BatchesForMentor(ctx context.Context, mentorID uint) ([]models.Batch, error) {
	var batches []models.Batch
	if err := r.db.WithContext(ctx).
		Where("mentor_id = ?", mentorID).
		Find(&batches).Error; err != nil {
		return nil, err
	}

	return batches, nil
}
