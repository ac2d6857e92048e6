package service

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mentorloop/mentorloop-api/internal/models"
	"github.com/mentorloop/mentorloop-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type memTaskRepo struct {
	mu     sync.Mutex
	tasks  map[uint]models.Task
	nextID uint
}

func newMemTaskRepo(tasks ...models.Task) *memTaskRepo {
	repo := &memTaskRepo{tasks: make(map[uint]models.Task), nextID: 1}
	for _, task := range tasks {
		if task.ID >= repo.nextID {
			repo.nextID = task.ID + 1
		}
		repo.tasks[task.ID] = task
	}
	return repo
}

func (r *memTaskRepo) sorted(tasks []models.Task) []models.Task {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].OrderedBefore(tasks[j]) })
	return tasks
}

func (r *memTaskRepo) List(_ context.Context, filter repository.TaskFilter) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.Task
	for _, task := range r.tasks {
		if filter.CourseID != nil && task.CourseID != *filter.CourseID {
			continue
		}
		if filter.BatchID != nil && (task.BatchID == nil || *task.BatchID != *filter.BatchID) {
			continue
		}
		result = append(result, task)
	}
	return r.sorted(result), nil
}

func (r *memTaskRepo) ListCandidates(_ context.Context, courseIDs, batchIDs []uint) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	courses := make(map[uint]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		courses[id] = struct{}{}
	}
	batches := make(map[uint]struct{}, len(batchIDs))
	for _, id := range batchIDs {
		batches[id] = struct{}{}
	}

	var result []models.Task
	for _, task := range r.tasks {
		switch task.AssignmentMode {
		case models.AssignmentModeCourseWide:
			if _, ok := courses[task.CourseID]; ok {
				result = append(result, task)
			}
		default:
			if task.BatchID == nil {
				continue
			}
			if _, ok := batches[*task.BatchID]; ok {
				result = append(result, task)
			}
		}
	}
	return r.sorted(result), nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id uint) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return models.Task{}, gorm.ErrRecordNotFound
	}
	return task, nil
}

func (r *memTaskRepo) ListByIDs(_ context.Context, ids []uint) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.Task
	for _, id := range ids {
		if task, ok := r.tasks[id]; ok {
			result = append(result, task)
		}
	}
	return result, nil
}

func (r *memTaskRepo) Create(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task.ID = r.nextID
	r.nextID++
	r.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) ReplaceAssignees(_ context.Context, taskID uint, studentIDs []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[taskID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	task.Assignees = nil
	for _, studentID := range studentIDs {
		task.Assignees = append(task.Assignees, models.TaskAssignee{TaskID: taskID, StudentID: studentID})
	}
	r.tasks[taskID] = task
	return nil
}

type memSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[uint]models.Submission
	nextID      uint
}

func newMemSubmissionRepo(submissions ...models.Submission) *memSubmissionRepo {
	repo := &memSubmissionRepo{submissions: make(map[uint]models.Submission), nextID: 1}
	for _, submission := range submissions {
		if submission.Version == 0 {
			submission.Version = 1
		}
		if submission.ID >= repo.nextID {
			repo.nextID = submission.ID + 1
		}
		repo.submissions[submission.ID] = submission
	}
	return repo
}

func (r *memSubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	students := make(map[uint]struct{}, len(filter.StudentIDs))
	for _, id := range filter.StudentIDs {
		students[id] = struct{}{}
	}

	var result []models.Submission
	for _, submission := range r.submissions {
		if filter.TaskID != nil && submission.TaskID != *filter.TaskID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if len(students) > 0 {
			if _, ok := students[submission.StudentID]; !ok {
				continue
			}
		}
		if filter.Ungraded && submission.MarksObtained != nil {
			continue
		}
		result = append(result, submission)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memSubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	submission, ok := r.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (r *memSubmissionRepo) GetByTaskAndStudent(_ context.Context, taskID, studentID uint) (models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, submission := range r.submissions {
		if submission.TaskID == taskID && submission.StudentID == studentID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (r *memSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if submission.Version == 0 {
		submission.Version = 1
	}
	submission.ID = r.nextID
	r.nextID++
	r.submissions[submission.ID] = *submission
	return nil
}

func (r *memSubmissionRepo) UpdateVersioned(_ context.Context, submission *models.Submission, expectedVersion uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.submissions[submission.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	submission.Version = expectedVersion + 1
	r.submissions[submission.ID] = *submission
	return nil
}

func (r *memSubmissionRepo) CountForTask(_ context.Context, taskID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, submission := range r.submissions {
		if submission.TaskID == taskID {
			count++
		}
	}
	return count, nil
}

type memEnrollments struct {
	enrollments []models.Enrollment
	batches     map[uint]models.Batch
}

func newMemEnrollments(batches []models.Batch, enrollments ...models.Enrollment) *memEnrollments {
	indexed := make(map[uint]models.Batch, len(batches))
	for _, batch := range batches {
		indexed[batch.ID] = batch
	}
	return &memEnrollments{enrollments: enrollments, batches: indexed}
}

func (d *memEnrollments) IsEnrolled(_ context.Context, studentID, batchID uint) (bool, error) {
	for _, enrollment := range d.enrollments {
		if enrollment.StudentID == studentID && enrollment.BatchID == batchID {
			return true, nil
		}
	}
	return false, nil
}

func (d *memEnrollments) BatchMembers(_ context.Context, batchID uint) ([]uint, error) {
	var members []uint
	for _, enrollment := range d.enrollments {
		if enrollment.BatchID == batchID {
			members = append(members, enrollment.StudentID)
		}
	}
	return members, nil
}

func (d *memEnrollments) ListForStudent(_ context.Context, studentID uint) ([]models.Enrollment, error) {
	var result []models.Enrollment
	for _, enrollment := range d.enrollments {
		if enrollment.StudentID != studentID {
			continue
		}
		enrollment.Batch = d.batches[enrollment.BatchID]
		result = append(result, enrollment)
	}
	return result, nil
}

func (d *memEnrollments) BatchesForMentor(_ context.Context, mentorID uint) ([]models.Batch, error) {
	ids := make([]uint, 0, len(d.batches))
	for id := range d.batches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []models.Batch
	for _, id := range ids {
		if d.batches[id].MentorID == mentorID {
			result = append(result, d.batches[id])
		}
	}
	return result, nil
}

type memReviewRepo struct {
	mu      sync.Mutex
	reviews map[uint]models.WeeklyReview
	nextID  uint
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{reviews: make(map[uint]models.WeeklyReview), nextID: 1}
}

func (r *memReviewRepo) Get(_ context.Context, batchID, studentID uint, weekNumber int) (models.WeeklyReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, review := range r.reviews {
		if review.BatchID == batchID && review.StudentID == studentID && review.WeekNumber == weekNumber {
			return review, nil
		}
	}
	return models.WeeklyReview{}, gorm.ErrRecordNotFound
}

func (r *memReviewRepo) Save(_ context.Context, review *models.WeeklyReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if review.ID == 0 {
		review.ID = r.nextID
		r.nextID++
	}
	r.reviews[review.ID] = *review
	return nil
}

func (r *memReviewRepo) ListForBatches(_ context.Context, batchIDs []uint) ([]models.WeeklyReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[uint]struct{}, len(batchIDs))
	for _, id := range batchIDs {
		wanted[id] = struct{}{}
	}

	var result []models.WeeklyReview
	for _, review := range r.reviews {
		if _, ok := wanted[review.BatchID]; ok {
			result = append(result, review)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type recordedActivity struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func (a *recordedActivity) Record(_ context.Context, entry ActivityEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (e *recordedEvents) Publish(event DomainEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://files.test/" + name, nil
}
