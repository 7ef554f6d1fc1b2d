package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
	"github.com/Isba24ha/Barliberty-vultr/internal/service"
)

type OpenSessionRequest struct {
	ShiftType models.ShiftType `json:"shift_type" validate:"required,oneof=morning afternoon"`
}

// GetActiveSession handles fetching the currently open shift session
func GetActiveSession(sessions *service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := sessions.Active()
		if err != nil {
			return writeServiceError(c, "active session", err)
		}
		return c.JSON(session)
	}
}

// GetSessionStats handles computing the dashboard figures for the open session
func GetSessionStats(sessions *service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := sessions.Active()
		if err != nil {
			return writeServiceError(c, "active session", err)
		}

		stats, err := sessions.ComputeStats(session)
		if err != nil {
			return writeServiceError(c, "session", err)
		}
		return c.JSON(stats)
	}
}

// GetSessionStatsByID handles recomputing the figures for any past session.
// For a closed session the window is frozen, so the numbers are stable no
// matter when they are asked for.
func GetSessionStatsByID(sessions *service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
		}

		session, err := sessions.Get(uint(id))
		if err != nil {
			return writeServiceError(c, "session", err)
		}

		stats, err := sessions.ComputeStats(session)
		if err != nil {
			return writeServiceError(c, "session", err)
		}
		return c.JSON(stats)
	}
}

// OpenSession handles opening a shift session at the register
func OpenSession(sessions *service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		var req OpenSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		session, err := sessions.Open(actor, req.ShiftType)
		if err != nil {
			return writeServiceError(c, "session", err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	}
}

// CloseSession handles closing the open shift session; the route is gated on
// the manager and admin roles
func CloseSession(sessions *service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		session, err := sessions.Close(actor)
		if err != nil {
			return writeServiceError(c, "session", err)
		}
		return c.JSON(session)
	}
}
