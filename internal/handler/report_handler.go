package handler

import (
	"studyroom-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type ReportHandler struct {
	weekly *usecase.WeeklyGoalUsecase
	sync   *usecase.SyncUsecase
}

func NewReportHandler(weekly *usecase.WeeklyGoalUsecase, sync *usecase.SyncUsecase) *ReportHandler {
	return &ReportHandler{weekly: weekly, sync: sync}
}

// Weekly previews a student's goal and study time for a week without recording anything.
func (h *ReportHandler) Weekly(c *fiber.Ctx) error {
	studentID, ok := studentScope(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "student_id is required"})
	}
	weekStart, err := queryDate(c, "week_start")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "week_start must be YYYY-MM-DD"})
	}

	report, err := h.weekly.Preview(c.UserContext(), studentID, weekStart)
	switch {
	case errors.Is(err, usecase.ErrStudentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "student not found"})
	case errors.Is(err, usecase.ErrStudentIneligible):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to build report"})
	}
	return c.JSON(report)
}

// SyncStatus shows the latest sync-log rows and who holds the sync lease.
func (h *ReportHandler) SyncStatus(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	logs, lease, err := h.sync.Status(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load sync status"})
	}
	return c.JSON(fiber.Map{"logs": logs, "lease": lease})
}
