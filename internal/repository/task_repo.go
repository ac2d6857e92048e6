package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mentorloop/mentorloop-api/internal/models"
)

// TaskFilter narrows raw task queries for the management surface.
type TaskFilter struct {
	CourseID *uint
	BatchID  *uint
}

// TaskRepository defines data operations for tasks.
type TaskRepository interface {
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	// ListCandidates returns every task that could target a student enrolled
	// in the given batches: course-wide tasks of their courses plus batch
	// tasks of their batches. Subset membership is filtered by the caller.
	ListCandidates(ctx context.Context, courseIDs, batchIDs []uint) ([]models.Task, error)
	GetByID(ctx context.Context, id uint) (models.Task, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uint) error
	ReplaceAssignees(ctx context.Context, taskID uint, studentIDs []uint) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository instantiates the repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Task{}).Preload("Assignees")
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := r.baseQuery(ctx)

	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}

	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}

	var tasks []models.Task
	if err := query.Order("week_number ASC, task_order ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) ListCandidates(ctx context.Context, courseIDs, batchIDs []uint) ([]models.Task, error) {
	if len(courseIDs) == 0 && len(batchIDs) == 0 {
		return []models.Task{}, nil
	}

	query := r.baseQuery(ctx).Where(
		r.db.Where("assignment_mode = ? AND course_id IN ?", models.AssignmentModeCourseWide, courseIDs).
			Or("assignment_mode IN ? AND batch_id IN ?",
				[]string{models.AssignmentModeBatchAll, models.AssignmentModeBatchSubset}, batchIDs),
	)

	var tasks []models.Task
	if err := query.Order("week_number ASC, task_order ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (models.Task, error) {
	var task models.Task
	if err := r.baseQuery(ctx).First(&task, id).Error; err != nil {
		return models.Task{}, err
	}

	return task, nil
}

func (r *taskRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Task, error) {
	if len(ids) == 0 {
		return []models.Task{}, nil
	}

	var tasks []models.Task
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, id).Error
	})
}

func (r *taskRepository) ReplaceAssignees(ctx context.Context, taskID uint, studentIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}
		for _, studentID := range studentIDs {
			assignee := models.TaskAssignee{TaskID: taskID, StudentID: studentID}
			if err := tx.Create(&assignee).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
