package models

import "time"

// Submission statuses reported to clients. They are derived from the grading
// fields, never stored.
const (
	// SubmissionStatusPending indicates no submission exists yet.
	SubmissionStatusPending = "pending"
	// SubmissionStatusSubmitted indicates work was handed in but not graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates marks have been awarded.
	SubmissionStatusGraded = "graded"
)

// Submission is a student's single current answer to one task. A resubmission
// overwrites this record in place; there is never more than one row per
// (task, student) pair. TaskID intentionally carries no foreign key constraint
// so that force-deleting a task leaves its submissions queryable.
type Submission struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	TaskID        uint       `gorm:"not null;uniqueIndex:idx_task_student" json:"task_id"`
	StudentID     uint       `gorm:"not null;uniqueIndex:idx_task_student" json:"student_id"`
	SubmittedAt   time.Time  `gorm:"not null" json:"submitted_at"`
	Text          string     `gorm:"type:text" json:"text"`
	FileURL       string     `gorm:"size:512" json:"file_url"`
	MarksObtained *float64   `json:"marks_obtained"`
	Feedback      string     `gorm:"type:text" json:"feedback"`
	InternalNotes string     `gorm:"type:text" json:"internal_notes"`
	GradedAt      *time.Time `json:"graded_at"`
	GradedBy      *uint      `json:"graded_by"`
	Version       uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Student       Student    `json:"student"`
}

// IsGraded reports whether marks have been awarded for the current content.
func (s Submission) IsGraded() bool {
	return s.MarksObtained != nil
}

// Status derives the lifecycle state from the grading fields.
func (s Submission) Status() string {
	if s.IsGraded() {
		return SubmissionStatusGraded
	}
	return SubmissionStatusSubmitted
}
