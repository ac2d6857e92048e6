package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mentorloop/mentorloop-api/internal/config"
	"github.com/mentorloop/mentorloop-api/internal/handler"
	"github.com/mentorloop/mentorloop-api/internal/models"
	"github.com/mentorloop/mentorloop-api/internal/repository"
	"github.com/mentorloop/mentorloop-api/internal/router"
	"github.com/mentorloop/mentorloop-api/internal/service"
)

type testUploader struct{}

func (testUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://files.test/" + name, nil
}

// testAuth binds identity from request headers so a single app instance can
// act as any user in any role.
func testAuth(c *fiber.Ctx) error {
	if raw := c.Get("X-Test-User"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			c.Locals("user_id", uint(id))
		}
	}
	if role := c.Get("X-Test-Role"); role != "" {
		c.Locals("user_role", role)
	}
	return c.Next()
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.Batch{},
		&models.Enrollment{},
		&models.Task{},
		&models.TaskAssignee{},
		&models.Submission{},
		&models.WeeklyReview{},
		&models.ActivityLog{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	reviewRepo := repository.NewWeeklyReviewRepository(db)
	enrollments := repository.NewEnrollmentDirectory(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	taskService := service.NewTaskService(taskRepo, submissionRepo, enrollments, validate, activityService, logger)
	studentTaskService := service.NewStudentTaskService(taskRepo, submissionRepo, enrollments, config.ProgressionScopeGlobal, logger)
	submissionService := service.NewSubmissionService(submissionRepo, taskRepo, enrollments, validate, testUploader{}, nil, time.Minute, nil, config.ProgressionScopeGlobal, logger)
	gradingService := service.NewGradingService(submissionRepo, taskRepo, validate, activityService, nil, logger)
	reviewService := service.NewWeeklyReviewService(reviewRepo, enrollments, activityService, nil, logger)

	app := fiber.New()
	router.Register(app, config.Config{
		AppName:          "Test",
		JWTSecret:        "secret",
		SubmitRateLimit:  100,
		SubmitRateWindow: time.Minute,
	}, router.Dependencies{
		TaskHandler:        handler.NewTaskHandler(taskService, logger),
		StudentTaskHandler: handler.NewStudentTaskHandler(studentTaskService, logger),
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:     handler.NewGradingHandler(gradingService, submissionService, logger),
		ReviewHandler:      handler.NewReviewHandler(reviewService, logger),
		ActivityHandler:    handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:      testAuth,
	})

	return app, db
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func asUser(req *http.Request, id uint, role string) *http.Request {
	req.Header.Set("X-Test-User", strconv.FormatUint(uint64(id), 10))
	req.Header.Set("X-Test-Role", role)
	return req
}

func decodeData(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
		Reason  string          `json:"reason"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	if target != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, target))
	}
}

func decodeReason(t *testing.T, resp *http.Response) string {
	t.Helper()

	var envelope struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Reason
}

// seedCohort creates a course, one batch under it and an enrolled student.
func seedCohort(t *testing.T, db *gorm.DB) (models.Course, models.Batch, models.Student) {
	t.Helper()

	course := models.Course{Name: "Go Fundamentals"}
	require.NoError(t, db.Create(&course).Error)

	batch := models.Batch{CourseID: course.ID, Name: "Batch A", MentorID: 20}
	require.NoError(t, db.Create(&batch).Error)

	student := models.Student{Name: "Jane", Email: fmt.Sprintf("jane+%s@example.com", t.Name())}
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, db.Create(&models.Enrollment{BatchID: batch.ID, StudentID: student.ID}).Error)

	return course, batch, student
}
