package dto

import (
	"time"

	"github.com/mentorloop/mentorloop-api/internal/models"
)

// WeeklyReviewUpsertRequest carries the two feedback channels for one
// (batch, student, week) key. A nil field keeps the stored value; a supplied
// value, including the empty string, replaces it.
type WeeklyReviewUpsertRequest struct {
	MentorFeedback  *string `json:"mentor_feedback"`
	StudentFeedback *string `json:"student_feedback"`
}

// WeeklyReviewResponse is the staff projection carrying both channels.
type WeeklyReviewResponse struct {
	BatchID         uint      `json:"batch_id"`
	StudentID       uint      `json:"student_id"`
	WeekNumber      int       `json:"week_number"`
	MentorFeedback  *string   `json:"mentor_feedback"`
	StudentFeedback *string   `json:"student_feedback"`
	ReviewedAt      time.Time `json:"reviewed_at"`
}

// StudentWeeklyReviewResponse omits the staff-only mentor channel.
type StudentWeeklyReviewResponse struct {
	BatchID         uint      `json:"batch_id"`
	WeekNumber      int       `json:"week_number"`
	StudentFeedback *string   `json:"student_feedback"`
	ReviewedAt      time.Time `json:"reviewed_at"`
}

// MentorReviewBatch groups a batch's reviews for the mentor listing. Batches
// with no reviews yet still appear with an empty item list.
type MentorReviewBatch struct {
	BatchID   uint                   `json:"batch_id"`
	BatchName string                 `json:"batch_name"`
	Reviews   []WeeklyReviewResponse `json:"reviews"`
}

// NewWeeklyReviewResponse converts a model into the staff DTO.
func NewWeeklyReviewResponse(model models.WeeklyReview) WeeklyReviewResponse {
	return WeeklyReviewResponse{
		BatchID:         model.BatchID,
		StudentID:       model.StudentID,
		WeekNumber:      model.WeekNumber,
		MentorFeedback:  model.MentorFeedback,
		StudentFeedback: model.StudentFeedback,
		ReviewedAt:      model.ReviewedAt,
	}
}

// NewStudentWeeklyReviewResponse converts a model into the student DTO.
func NewStudentWeeklyReviewResponse(model models.WeeklyReview) StudentWeeklyReviewResponse {
	return StudentWeeklyReviewResponse{
		BatchID:         model.BatchID,
		WeekNumber:      model.WeekNumber,
		StudentFeedback: model.StudentFeedback,
		ReviewedAt:      model.ReviewedAt,
	}
}
