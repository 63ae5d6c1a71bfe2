package routes

import (
	"time"

	"aidledger/internal/adapters/http/handlers"
	"aidledger/internal/adapters/http/middleware"
	"aidledger/internal/adapters/persistence/repositories"
	"aidledger/internal/config"
	"aidledger/internal/core/services"
	"aidledger/internal/pkg/keylock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	zoneRepo := repositories.NewZoneRepository(db)
	donationRepo := repositories.NewDonationRepository(db)
	voucherRepo := repositories.NewVoucherRepository(db)
	redemptionRepo := repositories.NewRedemptionRepository(db)
	proofRepo := repositories.NewProofRepository(db)
	verificationRepo := repositories.NewVerificationRepository(db)
	payoutRepo := repositories.NewBulkPayoutRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Lock tables. Donation recording, voucher issuance and budget commits
	// on one zone share zoneLocks; redemption and revocation on one voucher
	// share voucherLocks.
	zoneLocks := keylock.New()
	voucherLocks := keylock.New()
	proofLocks := keylock.New()

	staleAfter := time.Duration(cfg.Verification.StaleProofHours) * time.Hour

	// Initialize services
	auditor := services.NewAuditor(auditRepo)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo, auditor)
	zoneService := services.NewZoneService(zoneRepo, auditor)
	donationService := services.NewDonationService(donationRepo, zoneRepo, zoneLocks, auditor)
	voucherService := services.NewVoucherService(voucherRepo, zoneRepo, zoneLocks, voucherLocks, auditor)
	redemptionService := services.NewRedemptionService(redemptionRepo, voucherRepo, voucherLocks, auditor)
	proofService := services.NewProofService(
		proofRepo, verificationRepo, redemptionRepo, voucherRepo, zoneRepo,
		zoneLocks, proofLocks, auditor, staleAfter,
	)
	payoutService := services.NewPayoutService(payoutRepo, redemptionRepo, zoneRepo, proofService, auditor)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	zoneHandler := handlers.NewZoneHandler(zoneService)
	donationHandler := handlers.NewDonationHandler(donationService)
	voucherHandler := handlers.NewVoucherHandler(voucherService, redemptionService)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService, voucherService)
	proofHandler := handlers.NewProofHandler(proofService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// User management routes (Admin only)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	// Ledger routes (all authenticated, write access per role)
	zoneRoutes := apiV1.Group("/zones")
	zoneRoutes.Use(middleware.AuthMiddleware(cfg))
	setupZoneRoutes(zoneRoutes, zoneHandler, donationHandler)

	donationRoutes := apiV1.Group("/donations")
	donationRoutes.Use(middleware.AuthMiddleware(cfg))
	donationRoutes.Post("/", middleware.DonorRoles(), donationHandler.Record)

	voucherRoutes := apiV1.Group("/vouchers")
	voucherRoutes.Use(middleware.AuthMiddleware(cfg))
	setupVoucherRoutes(voucherRoutes, voucherHandler)

	redemptionRoutes := apiV1.Group("/redemptions")
	redemptionRoutes.Use(middleware.AuthMiddleware(cfg))
	setupRedemptionRoutes(redemptionRoutes, redemptionHandler)

	proofRoutes := apiV1.Group("/proofs")
	proofRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProofRoutes(proofRoutes, proofHandler)

	payoutRoutes := apiV1.Group("/payouts")
	payoutRoutes.Use(middleware.AuthMiddleware(cfg))
	setupPayoutRoutes(payoutRoutes, payoutHandler)

	reportRoutes := apiV1.Group("/reports")
	reportRoutes.Use(middleware.AuthMiddleware(cfg))
	reportRoutes.Use(middleware.ReporterRoles())
	setupReportRoutes(reportRoutes, payoutHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes, tighter rate limit against credential stuffing
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Put("/:id/role", handler.SetRole)
	router.Put("/:id/active", handler.SetActive)
}

// setupZoneRoutes configures disaster zone routes
func setupZoneRoutes(router fiber.Router, handler *handlers.ZoneHandler, donationHandler *handlers.DonationHandler) {
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Get("/:id/donations", donationHandler.ListByZone)

	// Zone lifecycle (Government/Admin)
	router.Post("/", middleware.GovernmentOrAdmin(), handler.Create)
	router.Post("/:id/resolve", middleware.GovernmentOrAdmin(), handler.Resolve)
}

// setupVoucherRoutes configures voucher routes
func setupVoucherRoutes(router fiber.Router, handler *handlers.VoucherHandler) {
	router.Get("/", handler.List)
	router.Get("/:ref", handler.Get)
	router.Get("/:id/redemptions", handler.ListRedemptions)

	// Issuance and revocation (Government/Admin)
	router.Post("/", middleware.GovernmentOrAdmin(), handler.Issue)
	router.Post("/:id/revoke", middleware.GovernmentOrAdmin(), handler.Revoke)
}

// setupRedemptionRoutes configures redemption routes
func setupRedemptionRoutes(router fiber.Router, handler *handlers.RedemptionHandler) {
	router.Get("/", handler.ListByVendor)
	router.Get("/:id", handler.Get)

	// Vendors claim against vouchers
	router.Post("/", middleware.VendorOnly(), handler.Redeem)
}

// setupProofRoutes configures proof and verification routes
func setupProofRoutes(router fiber.Router, handler *handlers.ProofHandler) {
	// Registered before /:id so "stale" never parses as a proof ID
	router.Get("/stale", middleware.StaleProofRoles(), handler.ListStale)
	router.Get("/:id", handler.Get)

	// Vendors submit evidence, verifier roles decide
	router.Post("/", middleware.VendorOnly(), handler.Submit)
	router.Post("/:id/verify", middleware.VerifierOnly(), handler.Verify)
}

// setupPayoutRoutes configures bulk payout routes (Government/Admin)
func setupPayoutRoutes(router fiber.Router, handler *handlers.PayoutHandler) {
	router.Use(middleware.GovernmentOrAdmin())
	router.Post("/", handler.CreateBulk)
	router.Get("/:id", handler.Get)
}

// setupReportRoutes configures reporting routes
func setupReportRoutes(router fiber.Router, handler *handlers.PayoutHandler) {
	router.Get("/zones/:id/utilization", handler.ZoneUtilization)
	router.Get("/vendors/outstanding", handler.VendorOutstanding)
}
