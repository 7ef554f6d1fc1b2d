package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Isba24ha/Barliberty-vultr/internal/service"
)

// GetTables handles fetching the floor plan with resolved occupancy.
// The payload carries computed_at plus max_age_ms so clients know how fresh
// the view is; anything older should be refetched before acting on it.
func GetTables(tables *service.TableService, maxAge time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snapshot, err := tables.Snapshot()
		if err != nil {
			log.Printf("Error resolving tables: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tables"})
		}

		rows := make([]fiber.Map, 0, len(snapshot.Tables))
		for _, t := range snapshot.Tables {
			view := snapshot.Views[t.ID]
			rows = append(rows, fiber.Map{
				"id":       t.ID,
				"number":   t.Number,
				"capacity": t.Capacity,
				"location": t.Location,
				"status":   view.Status,
				"addable":  view.Addable,
			})
		}

		return c.JSON(fiber.Map{
			"tables":      rows,
			"computed_at": snapshot.ComputedAt,
			"max_age_ms":  maxAge.Milliseconds(),
		})
	}
}

// GetTablePendingOrder handles selecting a table from the floor plan. It
// returns the open pending order, or a null order when the table is free and
// a new order should be started.
func GetTablePendingOrder(tables *service.TableService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid table ID"})
		}

		order, err := tables.SelectTable(uint(id))
		if err != nil {
			return writeServiceError(c, "table", err)
		}
		if order == nil {
			return c.JSON(fiber.Map{"order": nil})
		}
		return c.JSON(fiber.Map{"order": order})
	}
}
