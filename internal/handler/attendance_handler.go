package handler

import (
	"time"

	"studyroom-backend/internal/model"
	"studyroom-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type AttendanceHandler struct {
	attendance *usecase.AttendanceUsecase
}

func NewAttendanceHandler(attendance *usecase.AttendanceUsecase) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

type CreateEventRequest struct {
	StudentID  uint       `json:"student_id" validate:"required"`
	Type       string     `json:"type" validate:"required,oneof=check_in check_out break_start break_end"`
	OccurredAt *time.Time `json:"occurred_at"`
}

// CreateEvent records a manual attendance event.
func (h *AttendanceHandler) CreateEvent(c *fiber.Ctx) error {
	var req CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	var occurredAt time.Time
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}
	event, err := h.attendance.RecordManual(c.UserContext(), req.StudentID, model.EventType(req.Type), occurredAt)
	if errors.Is(err, usecase.ErrStudentNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "student not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record event"})
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// StudyTime returns the study seconds of one study day (default: today).
func (h *AttendanceHandler) StudyTime(c *fiber.Ctx) error {
	studentID, ok := studentScope(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "student_id is required"})
	}
	date, err := queryDate(c, "date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}

	result, err := h.attendance.StudyTime(c.UserContext(), studentID, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to compute study time"})
	}
	return c.JSON(result)
}

// Events lists the canonical events of one study day.
func (h *AttendanceHandler) Events(c *fiber.Ctx) error {
	studentID, ok := studentScope(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "student_id is required"})
	}
	date, err := queryDate(c, "date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}

	events, err := h.attendance.DayEvents(c.UserContext(), studentID, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load events"})
	}
	if events == nil {
		events = []model.AttendanceEvent{}
	}
	return c.JSON(events)
}
