package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Isba24ha/Barliberty-vultr/internal/middleware"
	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

// UpdateUserRequest defines the structure for updating a staff account
type UpdateUserRequest struct {
	Username string      `json:"username" validate:"required"`
	Password string      `json:"password,omitempty"` // Password is optional
	Role     models.Role `json:"role" validate:"required,oneof=admin manager cashier"`
}

// GetUsers handles fetching all staff accounts
func GetUsers(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := db.Order("username").Find(&users).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
		}
		// Password hashes never serialize (json:"-").
		return c.JSON(users)
	}
}

// UpdateUser handles updating a staff account's details
func UpdateUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
		}

		var req UpdateUserRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		switch req.Role {
		case models.RoleAdmin, models.RoleManager, models.RoleCashier:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Role must be admin, manager or cashier"})
		}

		var user models.User
		if err := db.First(&user, id).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}

		user.Username = req.Username
		user.Role = req.Role

		// If a new password is provided, hash and update it
		if req.Password != "" {
			hashedPassword, err := middleware.HashPassword(req.Password)
			if err != nil {
				log.Printf("Error hashing password: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error processing password"})
			}
			user.Password = hashedPassword
		}

		if err := db.Save(&user).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
		}

		return c.JSON(fiber.Map{"message": "User updated successfully"})
	}
}

// DeleteUser handles removing a staff account
func DeleteUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
		}

		result := db.Delete(&models.User{}, id)
		if result.Error != nil || result.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found or could not be deleted"})
		}

		return c.JSON(fiber.Map{"message": "User deleted successfully"})
	}
}
