package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Isba24ha/Barliberty-vultr/internal/middleware"
	"github.com/Isba24ha/Barliberty-vultr/internal/models"
	"github.com/Isba24ha/Barliberty-vultr/internal/service"
)

// CreateOrderRequest is the wire shape for opening an order on a table.
// Prices are never accepted from the client; the server snapshots catalog
// prices when it commits the lines.
type CreateOrderRequest struct {
	TableID        uint                 `json:"table_id" validate:"required"`
	BillingMode    models.BillingMode   `json:"billing_mode" validate:"required,oneof=anonymous credit manager"`
	CreditClientID *uint                `json:"credit_client_id"`
	ClientName     string               `json:"client_name"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	Notes          string               `json:"notes"`
	Items          []service.CartLine   `json:"items" validate:"required"`
}

// MergeItemsRequest carries the absolute quantity per product to fold into a
// pending order.
type MergeItemsRequest struct {
	Items []service.CartLine `json:"items" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

func actorFromContext(c *fiber.Ctx) (service.Actor, error) {
	userID, role, err := middleware.GetUserFromContext(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserID: userID, Role: role}, nil
}

// GetOrders handles listing orders, newest first, optionally filtered by status
func GetOrders(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := db.Preload("Items").Preload("Items.Product").Preload("CreditClient").
			Order("created_at desc")

		if status := c.Query("status"); status != "" {
			if !models.OrderStatus(status).Valid() {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
			}
			query = query.Where("status = ?", status)
		}

		var orders []models.Order
		if err := query.Find(&orders).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch orders"})
		}
		return c.JSON(orders)
	}
}

// GetOrder handles fetching a single order with its items
func GetOrder(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order ID"})
		}

		var order models.Order
		if err := db.Preload("Items").Preload("Items.Product").Preload("CreditClient").
			First(&order, id).Error; err != nil {
			return writeServiceError(c, "order", err)
		}
		return c.JSON(order)
	}
}

// CreateOrder handles opening a new order on a free table
func CreateOrder(orders *service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		var req CreateOrderRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		order, err := orders.StartOrder(actor, service.StartOrderInput{
			TableID:        req.TableID,
			BillingMode:    req.BillingMode,
			CreditClientID: req.CreditClientID,
			ClientName:     req.ClientName,
			PaymentMethod:  req.PaymentMethod,
			Notes:          req.Notes,
			Cart:           req.Items,
		})
		if err != nil {
			return writeServiceError(c, "order", err)
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// AddOrderItems handles merging submitted quantities into a pending order.
// Submitting the order's current items unchanged is answered with a warning
// and the untouched order rather than an error.
func AddOrderItems(db *gorm.DB, orders *service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order ID"})
		}

		var req MergeItemsRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		order, err := orders.MergeItems(uint(id), req.Items)
		if errors.Is(err, service.ErrNothingToMerge) {
			var current models.Order
			if err := db.Preload("Items").Preload("Items.Product").
				First(&current, id).Error; err != nil {
				return writeServiceError(c, "order", err)
			}
			return c.JSON(fiber.Map{
				"warning": "no changes to apply",
				"order":   current,
			})
		}
		if err != nil {
			return writeServiceError(c, "order", err)
		}
		return c.JSON(order)
	}
}

// UpdateOrderStatus handles advancing an order through its lifecycle or
// cancelling it
func UpdateOrderStatus(orders *service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order ID"})
		}

		var req UpdateOrderStatusRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		order, err := orders.SetStatus(actor, uint(id), req.Status)
		if err != nil {
			return writeServiceError(c, "order", err)
		}
		return c.JSON(order)
	}
}
