package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mentorloop/mentorloop-api/internal/config"
	"github.com/mentorloop/mentorloop-api/internal/handler"
	"github.com/mentorloop/mentorloop-api/internal/middleware"
	"github.com/mentorloop/mentorloop-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	TaskHandler        *handler.TaskHandler
	StudentTaskHandler *handler.StudentTaskHandler
	SubmissionHandler  *handler.SubmissionHandler
	GradingHandler     *handler.GradingHandler
	ReviewHandler      *handler.ReviewHandler
	ActivityHandler    *handler.ActivityHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	staffOnly := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleMentor)

	// Task authoring and listing
	if deps.TaskHandler != nil {
		tasks := api.Group("/tasks", jwtMiddleware, staffOnly)
		deps.TaskHandler.Register(tasks, middleware.RequireRole(middleware.RoleAdmin))
	}

	// Student task board
	if deps.StudentTaskHandler != nil {
		students := api.Group("/students", jwtMiddleware, middleware.RequireRole(middleware.RoleStudent))
		deps.StudentTaskHandler.Register(students)
	}

	// Submissions: the student write path is rate limited, staff reads
	// and grading are not.
	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(
			submissions,
			middleware.RequireRole(middleware.RoleStudent),
			middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow),
		)

		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(submissions, staffOnly)
		}
	}

	// Weekly reviews
	if deps.ReviewHandler != nil {
		reviews := api.Group("/reviews", jwtMiddleware)
		deps.ReviewHandler.Register(reviews, staffOnly)

		mentors := api.Group("/mentors", jwtMiddleware, middleware.RequireRole(middleware.RoleMentor))
		deps.ReviewHandler.RegisterMentor(mentors)
	}

	// Admin audit trail
	if deps.ActivityHandler != nil {
		admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(middleware.RoleAdmin))
		deps.ActivityHandler.Register(admin)
	}
}
