package dto

import (
	"time"

	"github.com/mentorloop/mentorloop-api/internal/models"
)

// SubmitRequest captures a student handing work in. Text may be empty when a
// file accompanies the submission; at least one of the two must be present.
type SubmitRequest struct {
	TaskID    uint   `form:"task_id" json:"task_id" validate:"required"`
	StudentID uint   `json:"-" validate:"required"`
	Text      string `form:"text" json:"text"`
}

// GradeRequest captures a mentor or admin awarding marks.
type GradeRequest struct {
	Marks         float64 `json:"marks" validate:"min=0"`
	Feedback      *string `json:"feedback"`
	InternalNotes *string `json:"internal_notes"`
}

// SubmissionResponse is the staff projection of a submission, including the
// staff-only internal notes.
type SubmissionResponse struct {
	ID            uint       `json:"id"`
	TaskID        uint       `json:"task_id"`
	TaskTitle     string     `json:"task_title"`
	StudentID     uint       `json:"student_id"`
	StudentName   string     `json:"student_name,omitempty"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	Text          string     `json:"text"`
	FileURL       string     `json:"file_url"`
	Status        string     `json:"status"`
	MarksObtained *float64   `json:"marks_obtained"`
	Feedback      string     `json:"feedback"`
	InternalNotes string     `json:"internal_notes"`
	GradedAt      *time.Time `json:"graded_at"`
	GradedBy      *uint      `json:"graded_by"`
	Version       uint       `json:"version"`
}

// StudentSubmissionResponse is the student projection. It never carries
// internal notes or the grader identity.
type StudentSubmissionResponse struct {
	ID            uint       `json:"id"`
	TaskID        uint       `json:"task_id"`
	TaskTitle     string     `json:"task_title"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	Text          string     `json:"text"`
	FileURL       string     `json:"file_url"`
	Status        string     `json:"status"`
	MarksObtained *float64   `json:"marks_obtained"`
	Feedback      string     `json:"feedback"`
	GradedAt      *time.Time `json:"graded_at"`
}

// SubmissionStats aggregates grading progress over a submission set. Computed
// on every read, never persisted.
type SubmissionStats struct {
	Submitted    int     `json:"submitted"`
	Graded       int     `json:"graded"`
	Ungraded     int     `json:"ungraded"`
	AverageMarks float64 `json:"average_marks"`
}

// SubmissionListResponse pairs a projection with its derived statistics.
type SubmissionListResponse struct {
	Items []SubmissionResponse `json:"items"`
	Stats SubmissionStats      `json:"stats"`
}

// OrphanedTaskTitle is shown when a submission's task was force-deleted.
// Historical grading data stays accessible regardless.
const OrphanedTaskTitle = "Task removed"

// NewSubmissionResponse converts a model into the staff DTO. taskTitle may be
// empty when the task no longer exists.
func NewSubmissionResponse(model models.Submission, taskTitle string) SubmissionResponse {
	if taskTitle == "" {
		taskTitle = OrphanedTaskTitle
	}

	return SubmissionResponse{
		ID:            model.ID,
		TaskID:        model.TaskID,
		TaskTitle:     taskTitle,
		StudentID:     model.StudentID,
		StudentName:   model.Student.Name,
		SubmittedAt:   model.SubmittedAt,
		Text:          model.Text,
		FileURL:       model.FileURL,
		Status:        model.Status(),
		MarksObtained: model.MarksObtained,
		Feedback:      model.Feedback,
		InternalNotes: model.InternalNotes,
		GradedAt:      model.GradedAt,
		GradedBy:      model.GradedBy,
		Version:       model.Version,
	}
}

// NewStudentSubmissionResponse converts a model into the student DTO.
func NewStudentSubmissionResponse(model models.Submission, taskTitle string) StudentSubmissionResponse {
	if taskTitle == "" {
		taskTitle = OrphanedTaskTitle
	}

	return StudentSubmissionResponse{
		ID:            model.ID,
		TaskID:        model.TaskID,
		TaskTitle:     taskTitle,
		SubmittedAt:   model.SubmittedAt,
		Text:          model.Text,
		FileURL:       model.FileURL,
		Status:        model.Status(),
		MarksObtained: model.MarksObtained,
		Feedback:      model.Feedback,
		GradedAt:      model.GradedAt,
	}
}

// NewSubmissionStats derives aggregate counters from a submission set.
func NewSubmissionStats(submissions []models.Submission) SubmissionStats {
	stats := SubmissionStats{}
	var total float64
	for _, submission := range submissions {
		stats.Submitted++
		if submission.IsGraded() {
			stats.Graded++
			total += *submission.MarksObtained
		} else {
			stats.Ungraded++
		}
	}
	if stats.Graded > 0 {
		stats.AverageMarks = total / float64(stats.Graded)
	}

	return stats
}
