package models

import "time"

// WeeklyReview is an out-of-band feedback record keyed by
// (batch, student, week), independent of per-submission grading.
// MentorFeedback is staff-only; StudentFeedback is shown to the student.
type WeeklyReview struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BatchID         uint      `gorm:"not null;uniqueIndex:idx_batch_student_week" json:"batch_id"`
	StudentID       uint      `gorm:"not null;uniqueIndex:idx_batch_student_week" json:"student_id"`
	WeekNumber      int       `gorm:"not null;uniqueIndex:idx_batch_student_week" json:"week_number"`
	MentorFeedback  *string   `gorm:"type:text" json:"mentor_feedback"`
	StudentFeedback *string   `gorm:"type:text" json:"student_feedback"`
	ReviewedAt      time.Time `gorm:"not null" json:"reviewed_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
