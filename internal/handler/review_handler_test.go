package handler_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/mentorloop/mentorloop-api/internal/dto"
)

func reviewPath(batchID, studentID uint, week int) string {
	return fmt.Sprintf("/api/v1/reviews/%d/%d/%d", batchID, studentID, week)
}

func TestReviewHandlerUpsertAndGet(t *testing.T) {
	app, db := setupApp(t)
	_, batch, student := seedCohort(t, db)

	feedback := "good pace this week"
	req := asUser(jsonRequest(t, fiber.MethodPut, reviewPath(batch.ID, student.ID, 3), dto.WeeklyReviewUpsertRequest{
		MentorFeedback: &feedback,
	}), 20, "mentor")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = asUser(jsonRequest(t, fiber.MethodGet, reviewPath(batch.ID, student.ID, 3), nil), 20, "mentor")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var review dto.WeeklyReviewResponse
	decodeData(t, resp, &review)
	require.NotNil(t, review.MentorFeedback)
	require.Equal(t, feedback, *review.MentorFeedback)
	require.Equal(t, 3, review.WeekNumber)
}

func TestReviewHandlerPartialUpdateKeepsOtherChannel(t *testing.T) {
	app, db := setupApp(t)
	_, batch, student := seedCohort(t, db)

	mentorNote := "good pace this week"
	req := asUser(jsonRequest(t, fiber.MethodPut, reviewPath(batch.ID, student.ID, 3), dto.WeeklyReviewUpsertRequest{
		MentorFeedback: &mentorNote,
	}), 20, "mentor")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	studentNote := "struggled with part two"
	req = asUser(jsonRequest(t, fiber.MethodPut, reviewPath(batch.ID, student.ID, 3), dto.WeeklyReviewUpsertRequest{
		StudentFeedback: &studentNote,
	}), 2, "admin")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var review dto.WeeklyReviewResponse
	decodeData(t, resp, &review)
	require.NotNil(t, review.MentorFeedback)
	require.Equal(t, mentorNote, *review.MentorFeedback)
	require.NotNil(t, review.StudentFeedback)
	require.Equal(t, studentNote, *review.StudentFeedback)
}

func TestReviewHandlerStudentViewOmitsMentorChannel(t *testing.T) {
	app, db := setupApp(t)
	_, batch, student := seedCohort(t, db)

	mentorNote := "needs closer supervision"
	studentNote := "keep practicing loops"
	req := asUser(jsonRequest(t, fiber.MethodPut, reviewPath(batch.ID, student.ID, 3), dto.WeeklyReviewUpsertRequest{
		MentorFeedback:  &mentorNote,
		StudentFeedback: &studentNote,
	}), 20, "mentor")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = asUser(jsonRequest(t, fiber.MethodGet, reviewPath(batch.ID, student.ID, 3), nil), student.ID, "student")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var raw map[string]json.RawMessage
	decodeData(t, resp, &raw)
	require.Contains(t, raw, "student_feedback")
	require.NotContains(t, raw, "mentor_feedback")
}

func TestReviewHandlerStudentCannotReadOthers(t *testing.T) {
	app, db := setupApp(t)
	_, batch, student := seedCohort(t, db)

	req := asUser(jsonRequest(t, fiber.MethodGet, reviewPath(batch.ID, student.ID+1, 3), nil), student.ID, "student")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReviewHandlerStudentCannotWrite(t *testing.T) {
	app, db := setupApp(t)
	_, batch, student := seedCohort(t, db)

	note := "I did great"
	req := asUser(jsonRequest(t, fiber.MethodPut, reviewPath(batch.ID, student.ID, 3), dto.WeeklyReviewUpsertRequest{
		StudentFeedback: &note,
	}), student.ID, "student")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReviewHandlerGetAbsent(t *testing.T) {
	app, db := setupApp(t)
	_, batch, student := seedCohort(t, db)

	req := asUser(jsonRequest(t, fiber.MethodGet, reviewPath(batch.ID, student.ID, 9), nil), 20, "mentor")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", decodeReason(t, resp))
}

func TestReviewHandlerInvalidWeek(t *testing.T) {
	app, db := setupApp(t)
	_, batch, student := seedCohort(t, db)

	note := "early feedback"
	req := asUser(jsonRequest(t, fiber.MethodPut, reviewPath(batch.ID, student.ID, 0), dto.WeeklyReviewUpsertRequest{
		MentorFeedback: &note,
	}), 20, "mentor")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReviewHandlerMentorDashboard(t *testing.T) {
	app, db := setupApp(t)
	_, batch, student := seedCohort(t, db)

	note := "keep it up"
	req := asUser(jsonRequest(t, fiber.MethodPut, reviewPath(batch.ID, student.ID, 1), dto.WeeklyReviewUpsertRequest{
		MentorFeedback: &note,
	}), 20, "mentor")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = asUser(jsonRequest(t, fiber.MethodGet, "/api/v1/mentors/me/reviews", nil), 20, "mentor")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var batches []dto.MentorReviewBatch
	decodeData(t, resp, &batches)
	require.Len(t, batches, 1)
	require.Equal(t, batch.ID, batches[0].BatchID)
	require.Len(t, batches[0].Reviews, 1)
}
