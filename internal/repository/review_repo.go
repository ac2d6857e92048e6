package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mentorloop/mentorloop-api/internal/models"
)

// WeeklyReviewRepository defines data operations for weekly reviews.
type WeeklyReviewRepository interface {
	Get(ctx context.Context, batchID, studentID uint, weekNumber int) (models.WeeklyReview, error)
	Save(ctx context.Context, review *models.WeeklyReview) error
	ListForBatches(ctx context.Context, batchIDs []uint) ([]models.WeeklyReview, error)
}

type weeklyReviewRepository struct {
	db *gorm.DB
}

// NewWeeklyReviewRepository instantiates the repository.
func NewWeeklyReviewRepository(db *gorm.DB) WeeklyReviewRepository {
	return &weeklyReviewRepository{db: db}
}

func (r *weeklyReviewRepository) Get(ctx context.Context, batchID, studentID uint, weekNumber int) (models.WeeklyReview, error) {
	var review models.WeeklyReview
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Where("student_id = ?", studentID).
		Where("week_number = ?", weekNumber).
		First(&review).Error; err != nil {
		return models.WeeklyReview{}, err
	}

	return review, nil
}

func (r *weeklyReviewRepository) Save(ctx context.Context, review *models.WeeklyReview) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *weeklyReviewRepository) ListForBatches(ctx context.Context, batchIDs []uint) ([]models.WeeklyReview, error) {
	if len(batchIDs) == 0 {
		return []models.WeeklyReview{}, nil
	}

	var reviews []models.WeeklyReview
	if err := r.db.WithContext(ctx).
		Where("batch_id IN ?", batchIDs).
		Order("batch_id ASC, student_id ASC, week_number ASC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}

	return reviews, nil
}
