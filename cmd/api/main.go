package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/Isba24ha/Barliberty-vultr/internal/config"
	"github.com/Isba24ha/Barliberty-vultr/internal/database"
	"github.com/Isba24ha/Barliberty-vultr/internal/events"
	"github.com/Isba24ha/Barliberty-vultr/internal/handlers"
	"github.com/Isba24ha/Barliberty-vultr/internal/middleware"
	"github.com/Isba24ha/Barliberty-vultr/internal/models"
	"github.com/Isba24ha/Barliberty-vultr/internal/service"
)

func main() {
	// 1. Load .env first
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file found, using system environment")
	}

	cfg := config.Load()

	// 2. Connect database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 3. Order events are optional: without a broker the POS runs fine, it
	// just stops notifying kitchen displays.
	var publisher service.EventPublisher
	if cfg.RabbitURL != "" {
		pub, err := events.Dial(cfg.RabbitURL)
		if err != nil {
			log.Printf("Warning: AMQP broker unreachable, order events disabled: %v", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	orderSvc := service.NewOrderService(db, publisher)
	tableSvc := service.NewTableService(db)
	creditSvc := service.NewCreditService(db)
	sessionSvc := service.NewSessionService(db, tableSvc)

	app := fiber.New(fiber.Config{
		AppName: "barliberty-pos",
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New())

	authHandler := handlers.NewAuthHandler(db)

	api := app.Group("/api/v1")

	// === PUBLIC ROUTES ===
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "Running", "message": "API Ready"})
	})
	api.Post("/login", authHandler.Login)

	// === PROTECTED ROUTES (JWT) ===
	api.Use(middleware.JWTProtected())

	// User Profile
	api.Get("/me", authHandler.GetProfile)

	// Admin Routes
	admin := api.Group("/admin")
	admin.Use(middleware.RoleProtected(models.RoleAdmin))
	admin.Post("/register", authHandler.Register)
	admin.Get("/users", handlers.GetUsers(db))
	admin.Put("/users/:id", handlers.UpdateUser(db))
	admin.Delete("/users/:id", handlers.DeleteUser(db))

	// Catalog Routes
	api.Get("/categories", handlers.GetCategories(db))
	api.Get("/products", handlers.GetProducts(db))
	api.Get("/products/:id", handlers.GetProduct(db))

	// Floor Plan Routes
	api.Get("/tables", handlers.GetTables(tableSvc, cfg.TableViewMaxAge))
	api.Get("/tables/:id/pending-order", handlers.GetTablePendingOrder(tableSvc))

	// Order Routes
	api.Get("/orders", handlers.GetOrders(db))
	api.Get("/orders/:id", handlers.GetOrder(db))
	api.Post("/orders", handlers.CreateOrder(orderSvc))
	api.Post("/orders/:id/items", handlers.AddOrderItems(db, orderSvc))
	api.Put("/orders/:id/status", handlers.UpdateOrderStatus(orderSvc))

	// Credit Account Routes
	api.Get("/credit-clients", handlers.GetCreditClients(creditSvc))
	api.Post("/credit-clients", handlers.CreateCreditClient(creditSvc))
	api.Post("/credit-clients/:id/payments", handlers.RecordCreditPayment(creditSvc))

	// Session Routes. /active/stats must register before /:id/stats so the
	// literal segment wins.
	sessions := api.Group("/sessions")
	sessions.Get("/active", handlers.GetActiveSession(sessionSvc))
	sessions.Get("/active/stats", handlers.GetSessionStats(sessionSvc))
	sessions.Get("/:id/stats", handlers.GetSessionStatsByID(sessionSvc))
	sessions.Post("/open", handlers.OpenSession(sessionSvc))
	sessions.Post("/close",
		middleware.RoleProtected(models.RoleManager, models.RoleAdmin),
		handlers.CloseSession(sessionSvc))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server running on %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
