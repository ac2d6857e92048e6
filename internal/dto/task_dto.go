package dto

import (
	"time"

	"github.com/mentorloop/mentorloop-api/internal/models"
)

// TaskCreateRequest describes the payload for creating a new task.
type TaskCreateRequest struct {
	Title          string  `form:"title" json:"title" validate:"required,min=3"`
	Description    string  `form:"description" json:"description" validate:"required,min=3"`
	CourseID       uint    `json:"course_id" validate:"required"`
	BatchID        *uint   `json:"batch_id"`
	AssignmentMode string  `json:"assignment_mode" validate:"required,oneof=course_wide batch_all batch_subset"`
	AssigneeIDs    []uint  `json:"assignee_ids" validate:"omitempty,dive,required"`
	WeekNumber     int     `json:"week_number" validate:"required,min=1"`
	TaskOrder      int     `json:"task_order" validate:"min=0"`
	DueAt          string  `json:"due_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ReleaseAt      *string `json:"release_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MaxMarks       float64 `json:"max_marks" validate:"required,gt=0"`
}

// TaskUpdateRequest describes the payload for patching a task. Nil fields keep
// the stored value.
type TaskUpdateRequest struct {
	Title          *string  `json:"title" validate:"omitempty,min=3"`
	Description    *string  `json:"description" validate:"omitempty,min=3"`
	CourseID       *uint    `json:"course_id"`
	BatchID        *uint    `json:"batch_id"`
	AssignmentMode *string  `json:"assignment_mode" validate:"omitempty,oneof=course_wide batch_all batch_subset"`
	AssigneeIDs    []uint   `json:"assignee_ids" validate:"omitempty,dive,required"`
	WeekNumber     *int     `json:"week_number" validate:"omitempty,min=1"`
	TaskOrder      *int     `json:"task_order" validate:"omitempty,min=0"`
	DueAt          *string  `json:"due_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ReleaseAt      *string  `json:"release_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MaxMarks       *float64 `json:"max_marks" validate:"omitempty,gt=0"`
}

// TaskResponse is the raw task representation for the management surface.
type TaskResponse struct {
	ID             uint       `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	CourseID       uint       `json:"course_id"`
	BatchID        *uint      `json:"batch_id"`
	AssignmentMode string     `json:"assignment_mode"`
	AssigneeIDs    []uint     `json:"assignee_ids,omitempty"`
	WeekNumber     int        `json:"week_number"`
	TaskOrder      int        `json:"task_order"`
	DueAt          time.Time  `json:"due_at"`
	ReleaseAt      *time.Time `json:"release_at"`
	MaxMarks       float64    `json:"max_marks"`
	CreatedBy      uint       `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewTaskResponse converts a model into a DTO.
func NewTaskResponse(model models.Task) TaskResponse {
	var assigneeIDs []uint
	for _, assignee := range model.Assignees {
		assigneeIDs = append(assigneeIDs, assignee.StudentID)
	}

	return TaskResponse{
		ID:             model.ID,
		Title:          model.Title,
		Description:    model.Description,
		CourseID:       model.CourseID,
		BatchID:        model.BatchID,
		AssignmentMode: model.AssignmentMode,
		AssigneeIDs:    assigneeIDs,
		WeekNumber:     model.WeekNumber,
		TaskOrder:      model.TaskOrder,
		DueAt:          model.DueAt,
		ReleaseAt:      model.ReleaseAt,
		MaxMarks:       model.MaxMarks,
		CreatedBy:      model.CreatedBy,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewTaskResponseSlice converts a slice of models into DTOs.
func NewTaskResponseSlice(tasks []models.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, NewTaskResponse(task))
	}

	return responses
}

// StudentTaskResponse is the student-facing annotated projection. Unreleased
// tasks are never serialized at all.
type StudentTaskResponse struct {
	ID               uint       `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	CourseID         uint       `json:"course_id"`
	BatchID          *uint      `json:"batch_id"`
	WeekNumber       int        `json:"week_number"`
	TaskOrder        int        `json:"task_order"`
	DueAt            time.Time  `json:"due_at"`
	MaxMarks         float64    `json:"max_marks"`
	Locked           bool       `json:"locked"`
	LockReason       *string    `json:"lock_reason"`
	Overdue          bool       `json:"overdue"`
	SubmissionStatus string     `json:"submission_status"`
	SubmissionID     *uint      `json:"submission_id"`
	MarksObtained    *float64   `json:"marks_obtained"`
	Feedback         string     `json:"feedback,omitempty"`
	SubmittedAt      *time.Time `json:"submitted_at"`
}
