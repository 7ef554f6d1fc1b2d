package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Isba24ha/Barliberty-vultr/internal/service"
)

// writeServiceError translates core errors into HTTP responses: validation
// and overpayment 400, missing records 404, conflicts and illegal
// transitions 409, everything else 500. The resource name only feeds the
// not-found message.
func writeServiceError(c *fiber.Ctx, resource string, err error) error {
	var (
		validation *service.ValidationError
		conflict   *service.ConflictError
		transition *service.InvalidTransitionError
		overpaid   *service.OverpaymentError
	)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": resource + " not found"})
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validation.Reason})
	case errors.As(err, &overpaid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": overpaid.Error()})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": conflict.Reason})
	case errors.As(err, &transition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": transition.Error()})
	default:
		log.Printf("Error handling %s request: %v", resource, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
