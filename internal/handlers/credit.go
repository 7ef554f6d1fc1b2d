package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
	"github.com/Isba24ha/Barliberty-vultr/internal/service"
)

type CreateCreditClientRequest struct {
	Name string `json:"name" validate:"required"`
}

// RecordCreditPaymentRequest settles part or all of a client's balance.
type RecordCreditPaymentRequest struct {
	Amount decimal.Decimal      `json:"amount" validate:"required"`
	Method models.PaymentMethod `json:"method" validate:"required,oneof=cash mobile_money"`
}

// GetCreditClients handles listing credit accounts with their balances
func GetCreditClients(credit *service.CreditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clients, err := credit.ListClients()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch credit clients"})
		}
		return c.JSON(clients)
	}
}

// CreateCreditClient handles opening a new credit account
func CreateCreditClient(credit *service.CreditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateCreditClientRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		client, err := credit.CreateClient(req.Name)
		if err != nil {
			return writeServiceError(c, "credit client", err)
		}
		return c.Status(fiber.StatusCreated).JSON(client)
	}
}

// RecordCreditPayment handles a settlement against a credit account
func RecordCreditPayment(credit *service.CreditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid credit client ID"})
		}

		var req RecordCreditPaymentRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		client, err := credit.RecordPayment(actor, uint(id), req.Amount, req.Method)
		if err != nil {
			return writeServiceError(c, "credit client", err)
		}
		return c.JSON(client)
	}
}
