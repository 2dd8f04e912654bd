package handler

import (
	"studyroom-backend/internal/model"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/studyday"

	"github.com/gofiber/fiber/v2"
)

type DateAssignmentHandler struct {
	repo repository.DateAssignmentRepository
}

func NewDateAssignmentHandler(repo repository.DateAssignmentRepository) *DateAssignmentHandler {
	return &DateAssignmentHandler{repo: repo}
}

type DateAssignmentRequest struct {
	BranchID   uint   `json:"branch_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	DateTypeID uint   `json:"date_type_id" validate:"required"`
}

// Upsert sets the date type of one branch date.
func (h *DateAssignmentHandler) Upsert(c *fiber.Ctx) error {
	var req DateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	date, err := studyday.ParseDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}

	assignment := model.DateAssignment{BranchID: req.BranchID, Date: date.String(), DateTypeID: req.DateTypeID}
	if err := h.repo.Upsert(c.UserContext(), &assignment); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save date assignment"})
	}
	return c.JSON(assignment)
}
