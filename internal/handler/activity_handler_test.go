package handler_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/mentorloop/mentorloop-api/internal/dto"
)

func TestActivityHandlerListsAuditTrail(t *testing.T) {
	app, db := setupApp(t)
	course, _, _ := seedCohort(t, db)

	req := asUser(jsonRequest(t, fiber.MethodPost, "/api/v1/tasks", taskPayload(course.ID)), 2, "admin")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	req = asUser(jsonRequest(t, fiber.MethodGet, "/api/v1/admin/activity", nil), 2, "admin")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result dto.ActivityListResponse
	decodeData(t, resp, &result)
	require.Len(t, result.Items, 1)
	require.Equal(t, "task.created", result.Items[0].Action)
	require.Equal(t, uint(2), result.Items[0].ActorID)
	require.EqualValues(t, 1, result.Pagination.TotalItems)
}

func TestActivityHandlerForbiddenForMentors(t *testing.T) {
	app, _ := setupApp(t)

	req := asUser(jsonRequest(t, fiber.MethodGet, "/api/v1/admin/activity", nil), 20, "mentor")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
