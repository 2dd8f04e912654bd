package handler

import (
	"context"
	"time"

	"studyroom-backend/internal/studyday"
	"studyroom-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type SyncRunner interface {
	Run(ctx context.Context) usecase.Summary
}

type WeeklyRunner interface {
	Run(ctx context.Context, weekStart studyday.Date) usecase.Summary
}

// CronHandler exposes the two batch jobs to an external scheduler.
type CronHandler struct {
	sync    SyncRunner
	weekly  WeeklyRunner
	timeout time.Duration
}

func NewCronHandler(sync SyncRunner, weekly WeeklyRunner, timeout time.Duration) *CronHandler {
	return &CronHandler{sync: sync, weekly: weekly, timeout: timeout}
}

// SyncAccess runs one reconciliation batch. The job is not tied to the request context so a
// dropped connection does not cut a batch in half.
func (h *CronHandler) SyncAccess(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	summary := h.sync.Run(ctx)
	return c.Status(summaryStatus(summary.Status)).JSON(summary)
}

// WeeklyGoals evaluates the previous week, or ?week_start=YYYY-MM-DD.
func (h *CronHandler) WeeklyGoals(c *fiber.Ctx) error {
	weekStart, err := queryDate(c, "week_start")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "week_start must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	summary := h.weekly.Run(ctx, weekStart)
	return c.Status(summaryStatus(summary.Status)).JSON(summary)
}

func summaryStatus(s usecase.JobStatus) int {
	switch s {
	case usecase.StatusSuccess, usecase.StatusPartial:
		return fiber.StatusOK
	case usecase.StatusLocked:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
