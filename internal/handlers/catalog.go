package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

// GetCategories handles fetching all product categories
func GetCategories(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := db.Order("name").Find(&categories).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch categories"})
		}
		return c.JSON(categories)
	}
}

// GetProducts handles fetching the sellable catalog, optionally filtered by category
func GetProducts(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := db.Preload("Category").Order("name")
		if categoryID := c.QueryInt("category_id"); categoryID > 0 {
			query = query.Where("category_id = ?", categoryID)
		}

		var products []models.Product
		if err := query.Find(&products).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch products"})
		}
		return c.JSON(products)
	}
}

// GetProduct handles fetching a single product by ID
func GetProduct(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
		}

		var product models.Product
		if err := db.Preload("Category").First(&product, id).Error; err != nil {
			return writeServiceError(c, "product", err)
		}
		return c.JSON(product)
	}
}
