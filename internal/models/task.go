package models

import "time"

// Assignment modes determine which students are accountable for a task.
const (
	// AssignmentModeCourseWide targets every batch running under the course.
	AssignmentModeCourseWide = "course_wide"
	// AssignmentModeBatchAll targets every student enrolled in one batch.
	AssignmentModeBatchAll = "batch_all"
	// AssignmentModeBatchSubset targets an explicit set of students within one batch.
	AssignmentModeBatchSubset = "batch_subset"
)

// Task represents a unit of assigned work with a deadline, scheduling window
// and ordering key inside the weekly curriculum.
type Task struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	CourseID       uint           `gorm:"not null;index" json:"course_id"`
	BatchID        *uint          `gorm:"index" json:"batch_id"`
	AssignmentMode string         `gorm:"size:32;not null" json:"assignment_mode"`
	Assignees      []TaskAssignee `json:"assignees,omitempty"`
	WeekNumber     int            `gorm:"not null" json:"week_number"`
	TaskOrder      int            `gorm:"not null;default:0" json:"task_order"`
	DueAt          time.Time      `gorm:"not null" json:"due_at"`
	ReleaseAt      *time.Time     `json:"release_at"`
	MaxMarks       float64        `gorm:"not null" json:"max_marks"`
	CreatedBy      uint           `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TaskAssignee pins a batch_subset task to one student.
type TaskAssignee struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	TaskID    uint `gorm:"not null;uniqueIndex:idx_task_assignee" json:"task_id"`
	StudentID uint `gorm:"not null;uniqueIndex:idx_task_assignee" json:"student_id"`
}

// IsReleased reports whether the task is inside its visibility window.
func (t Task) IsReleased(reference time.Time) bool {
	return t.ReleaseAt == nil || !reference.Before(*t.ReleaseAt)
}

// IsPastDue reports whether the deadline has already passed.
func (t Task) IsPastDue(reference time.Time) bool {
	return reference.After(t.DueAt)
}

// OrderedBefore reports whether t precedes other in the progression sequence.
// The id is a stable tie-break for tasks sharing a week and order slot.
func (t Task) OrderedBefore(other Task) bool {
	if t.WeekNumber != other.WeekNumber {
		return t.WeekNumber < other.WeekNumber
	}
	if t.TaskOrder != other.TaskOrder {
		return t.TaskOrder < other.TaskOrder
	}
	return t.ID < other.ID
}

// HasAssignee reports whether the student appears in the explicit assignee set.
func (t Task) HasAssignee(studentID uint) bool {
	for _, assignee := range t.Assignees {
		if assignee.StudentID == studentID {
			return true
		}
	}
	return false
}
