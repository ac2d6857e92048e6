package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mentorloop/mentorloop-api/internal/utils"
)

// Role names bound by the JWT middleware.
const (
	RoleAdmin   = "admin"
	RoleMentor  = "mentor"
	RoleStudent = "student"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// UserID extracts the authenticated user id bound by the JWT middleware.
func UserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("user_id").(uint); ok {
		return id
	}
	return 0
}

// UserRole extracts the authenticated role bound by the JWT middleware.
func UserRole(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return role
}
