package routes

import (
	"courseflow/internal/adapters/http/handlers"
	"courseflow/internal/adapters/http/middleware"
	"courseflow/internal/adapters/persistence/repositories"
	"courseflow/internal/config"
	"courseflow/internal/core/domain"
	"courseflow/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	recordRepo := repositories.NewApprovalRecordRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService()
	authService := services.NewAuthService(userRepo, cfg)
	userService := services.NewUserService(userRepo)
	approvalService := services.NewApprovalService(courseRepo, recordRepo, userRepo, notifyService)
	paymentService := services.NewPaymentService(paymentRepo, userRepo, notifyService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	courseHandler := handlers.NewCourseHandler(approvalService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Public routes
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Course workflow routes (authenticated; fine-grained authorization
	// happens against the transition table inside the service)
	courses := api.Group("/courses", middleware.AuthMiddleware(cfg))
	courses.Post("/", middleware.RoleMiddleware(domain.RoleDepartmentHead), courseHandler.Create)
	courses.Get("/", courseHandler.List)
	courses.Get("/:id", courseHandler.GetByID)
	courses.Get("/:id/history", courseHandler.GetHistory)
	courses.Get("/:id/flow", courseHandler.GetFlow)
	courses.Post("/:id/request", middleware.RoleMiddleware(domain.RoleInstructor), courseHandler.SelfAssign)
	courses.Post("/:id/decision", courseHandler.Decide)
	courses.Put("/:id/hours", middleware.RoleMiddleware(domain.RoleDepartmentHead), courseHandler.UpdateHours)

	// User administration
	users := api.Group("/users", middleware.AuthMiddleware(cfg), middleware.AdminOnly())
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Patch("/:id/status", userHandler.SetStatus)

	// Payment routes
	payments := api.Group("/payments", middleware.AuthMiddleware(cfg))
	payments.Post("/calculate", middleware.FinanceOnly(), paymentHandler.Calculate)
	payments.Get("/:instructorId", paymentHandler.GetByInstructor)
	payments.Get("/:id/history", paymentHandler.GetHistory)
}
