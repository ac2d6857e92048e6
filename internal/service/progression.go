package service

import (
	"fmt"
	"time"

	"github.com/mentorloop/mentorloop-api/internal/config"
	"github.com/mentorloop/mentorloop-api/internal/models"
)

// LockedError reports that the progression gate blocks an action. Reason names
// the earliest prior task the student still has to hand in.
type LockedError struct {
	Reason string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("task locked: %s", e.Reason)
}

// TaskEvaluation is the computed verdict for one (student, task) pair. It is
// derived on every read from the current task and submission sets; nothing in
// it is ever persisted.
type TaskEvaluation struct {
	Visible          bool
	Locked           bool
	LockReason       string
	Overdue          bool
	SubmissionStatus string
}

// EvaluateTask decides visibility, locking and overdue state for a task. It is
// a pure function of the task, every task currently assigned to the student,
// the student's submissions indexed by task id, and the evaluation time.
//
// A task is locked when an earlier assigned task, ordered by
// (week_number, task_order), has no submission yet. Handing work in unlocks
// the successor; grading is allowed to lag. With scope per_course only tasks
// of the same course participate in the ordering.
func EvaluateTask(task models.Task, assigned []models.Task, submissions map[uint]models.Submission, now time.Time, scope string) TaskEvaluation {
	if !task.IsReleased(now) {
		return TaskEvaluation{}
	}

	evaluation := TaskEvaluation{
		Visible:          true,
		SubmissionStatus: models.SubmissionStatusPending,
	}

	submission, submitted := submissions[task.ID]
	if submitted {
		evaluation.SubmissionStatus = submission.Status()
	} else if task.IsPastDue(now) {
		evaluation.Overdue = true
	}

	var unmet *models.Task
	for i := range assigned {
		predecessor := assigned[i]
		if predecessor.ID == task.ID || !predecessor.OrderedBefore(task) {
			continue
		}
		if scope == config.ProgressionScopePerCourse && predecessor.CourseID != task.CourseID {
			continue
		}
		// A task still outside its release window cannot be handed in, so it
		// does not participate in the ordering yet.
		if !predecessor.IsReleased(now) {
			continue
		}
		if _, ok := submissions[predecessor.ID]; ok {
			continue
		}
		if unmet == nil || predecessor.OrderedBefore(*unmet) {
			unmet = &assigned[i]
		}
	}

	if unmet != nil {
		evaluation.Locked = true
		evaluation.LockReason = fmt.Sprintf("Complete: %s", unmet.Title)
	}

	return evaluation
}

// effectiveTasks filters candidate tasks down to the set the student is
// accountable for, resolving batch_subset membership against the explicit
// assignee rows.
func effectiveTasks(candidates []models.Task, studentID uint) []models.Task {
	assigned := make([]models.Task, 0, len(candidates))
	for _, task := range candidates {
		if task.AssignmentMode == models.AssignmentModeBatchSubset && !task.HasAssignee(studentID) {
			continue
		}
		assigned = append(assigned, task)
	}
	return assigned
}

// submissionsByTask indexes a student's submissions for evaluator lookups.
func submissionsByTask(submissions []models.Submission) map[uint]models.Submission {
	indexed := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		indexed[submission.TaskID] = submission
	}
	return indexed
}
