package routes

import (
	"studyroom-backend/internal/handler"
	"studyroom-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupAttendanceRoutes(app *fiber.App, c *Container) {
	hdl := handler.NewAttendanceHandler(c.Attendance)

	api := app.Group("/api/attendance", middleware.Auth(c.Config.JWTSecret))

	api.Post("/events", middleware.Role(middleware.RoleAdmin, middleware.RoleStaff), hdl.CreateEvent)
	api.Get("/events", hdl.Events)
	api.Get("/study-time", hdl.StudyTime)
}
