package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aidledger/internal/adapters/http/middleware"
	"aidledger/internal/adapters/http/routes"
	"aidledger/internal/adapters/persistence/models"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/config"
	"aidledger/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "aidledger/docs" // Swagger docs
)

// @title Aid Voucher Ledger API
// @version 1.0
// @description Disaster-relief aid voucher lifecycle ledger: zones, donations, vouchers, redemptions, proof verification and bulk payouts.

// @contact.name API Support

// @host localhost:3000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed default accounts
	if err := config.SeedAll(db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed default accounts: %v", err)
	}

	// Stale-proof scanner (hourly by default)
	staleAfter := time.Duration(cfg.Verification.StaleProofHours) * time.Hour
	cronService := services.NewCronService(
		repositories.NewProofRepository(db),
		staleAfter,
		cfg.Verification.ScanSchedule,
	)
	cronService.Start()
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Aid Voucher Ledger API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
