package handler

import (
	"strconv"
	"strings"

	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/studyday"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// validationError maps validator field errors to {"field": "tag"}.
func validationError(c *fiber.Ctx, err error) error {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "fields": fields})
}

// queryDate parses an optional YYYY-MM-DD query parameter; empty yields the zero Date.
func queryDate(c *fiber.Ctx, key string) (studyday.Date, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return studyday.Date{}, nil
	}
	return studyday.ParseDate(raw)
}

// studentScope returns the student a request may look at. Students only ever see themselves.
func studentScope(c *fiber.Ctx) (uint, bool) {
	if role, _ := c.Locals("role").(string); role == middleware.RoleStudent {
		id, ok := c.Locals("student_id").(float64)
		if !ok || id <= 0 {
			return 0, false
		}
		return uint(id), true
	}
	id, err := strconv.ParseUint(c.Query("student_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
