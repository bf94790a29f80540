package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"finboard/internal/config"
	"finboard/internal/database"
	"finboard/internal/events"
	"finboard/internal/handlers"
	"finboard/internal/logger"
	"finboard/internal/middleware"
	"finboard/internal/models"
	"finboard/internal/services"
	"finboard/internal/store"
	"finboard/internal/validator"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom validators
	validator.Register()

	// Change-event publisher: AMQP when configured, no-op otherwise
	publisher := events.Nop()
	if appConfig.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(appConfig.AMQPURL, appConfig.AMQPExchange)
		if err != nil {
			return fmt.Errorf("failed to connect change-event publisher: %w", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		log.Infow("Change-event publishing enabled", "exchange", appConfig.AMQPExchange)
	}

	// Initialize collections
	db := dbManager.DB()
	transactionStore := store.NewCollection(db, "transactions",
		func() *models.Transaction { return &models.Transaction{} }, store.WithPublisher(publisher))
	costStore := store.NewCollection(db, "marketing_costs",
		func() *models.MarketingCost { return &models.MarketingCost{} }, store.WithPublisher(publisher))
	planStore := store.NewCollection(db, "budget_plans",
		func() *models.BudgetPlan { return &models.BudgetPlan{} }, store.WithPublisher(publisher))
	settingsStore := store.NewCollection(db, "budget_settings",
		func() *models.BudgetSettings { return &models.BudgetSettings{} }, store.WithPublisher(publisher))

	// Initialize services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	marketingService := services.NewMarketingService(costStore)
	transactionService := services.NewTransactionService(transactionStore, costStore)
	budgetService := services.NewBudgetService(db, planStore, transactionService, marketingService)
	settingsService := services.NewSettingsService(db, settingsStore)
	analyticsService := services.NewAnalyticsService(transactionService, marketingService, budgetService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	marketingHandler := handlers.NewMarketingHandler(marketingService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, settingsService, auditService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	exportHandler := handlers.NewExportHandler(transactionService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/stream", transactionHandler.StreamTransactions)
	transactions.GET("/export", exportHandler.ExportTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Marketing cost routes
	costs := protected.Group("/marketing-costs")
	costs.POST("", marketingHandler.CreateCost)
	costs.GET("", marketingHandler.GetCosts)
	costs.GET("/stream", marketingHandler.StreamCosts)
	costs.GET("/:id", marketingHandler.GetCost)
	costs.PUT("/:id", marketingHandler.UpdateCost)
	costs.DELETE("/:id", marketingHandler.DeleteCost)

	// Budget routes
	budget := protected.Group("/budget")
	budget.GET("/plan", budgetHandler.GetPlan)
	budget.GET("/plan/stream", budgetHandler.StreamPlan)
	budget.POST("/categories", budgetHandler.AddCategory)
	budget.PUT("/categories/:id", budgetHandler.UpdateCategory)
	budget.PUT("/categories/:id/allocation", budgetHandler.UpdateCategoryBudget)
	budget.DELETE("/categories/:id", budgetHandler.DeleteCategory)
	budget.GET("/settings", budgetHandler.GetSettings)
	budget.PUT("/settings", budgetHandler.UpdateSettings)

	// Analytics routes
	analytics := protected.Group("/analytics")
	analytics.GET("/summary", analyticsHandler.GetSummary)
	analytics.GET("/monthly", analyticsHandler.GetMonthlySeries)
	analytics.GET("/categories", analyticsHandler.GetCategoryBreakdown)
	analytics.GET("/roi", analyticsHandler.GetMarketingROI)
	analytics.GET("/usage", analyticsHandler.GetBudgetUsage)

	log.Infof("Starting finboard backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
