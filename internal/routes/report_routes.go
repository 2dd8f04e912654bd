package routes

import (
	"studyroom-backend/internal/handler"
	"studyroom-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupReportRoutes(app *fiber.App, c *Container) {
	reports := handler.NewReportHandler(c.Weekly, c.Sync)
	dates := handler.NewDateAssignmentHandler(c.DateAssignments)

	admin := app.Group("/api/admin",
		middleware.Auth(c.Config.JWTSecret),
		middleware.Role(middleware.RoleAdmin, middleware.RoleStaff),
	)

	admin.Get("/reports/weekly", reports.Weekly)
	admin.Get("/sync/status", reports.SyncStatus)
	admin.Put("/date-assignments", dates.Upsert)
}
