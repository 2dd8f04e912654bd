package routes

import (
	"studyroom-backend/internal/handler"
	"studyroom-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupCronRoutes(app *fiber.App, c *Container) {
	hdl := handler.NewCronHandler(c.Sync, c.Weekly, c.Config.Jobs.Timeout)

	api := app.Group("/api/cron", middleware.CronSecret(c.Config.Jobs.CronSecret))

	api.Post("/sync-access", hdl.SyncAccess)
	api.Post("/weekly-goals", hdl.WeeklyGoals)
}
