package models

import "time"

// The directory entities below are read-mostly inputs maintained by the
// registration and course-management surfaces. The engine only consumes them.

// Student represents a learner enrolled into one or more batches.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Course groups batches under one curriculum.
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Batch is a cohort running a course under one mentor.
type Batch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	MentorID  uint      `gorm:"index" json:"mentor_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Enrollment joins a student to a batch. Membership is evaluated live: the
// engine never snapshots it at task-creation time.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BatchID   uint      `gorm:"not null;uniqueIndex:idx_batch_student" json:"batch_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_batch_student" json:"student_id"`
	Batch     Batch     `json:"batch"`
	CreatedAt time.Time `json:"created_at"`
}
