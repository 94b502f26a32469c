package main

import (
	"context"
	"log"
	"os"

	_ "training-erp/api/swagger" // swagger docs
	"training-erp/internal/database"
	"training-erp/internal/handler"
	"training-erp/internal/middleware"
	"training-erp/internal/repository"
	"training-erp/internal/service"
	"training-erp/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Training Institute Costing API
// @version         1.0
// @description     Course costing backend: payment records, cost summaries, special case payments and student code generation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "3306"
	}
	if dbUser == "" {
		dbUser = "root"
	}
	if dbPassword == "" {
		dbPassword = "root"
	}
	if dbName == "" {
		dbName = "training_erp"
	}

	dsn := dbUser + ":" + dbPassword + "@tcp(" + dbHost + ":" + dbPort + ")/" + dbName +
		"?charset=utf8mb4&parseTime=True&loc=Local"

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to MySQL successfully.")

	// Permission checks read role permissions straight from the database
	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	costRepo := repository.NewCostComponentRepository(db)
	rateRepo := repository.NewRateRepository(db)
	summaryRepo := repository.NewCostSummaryRepository(db)
	revenueRepo := repository.NewRevenueSummaryRepository(db)
	specialCaseRepo := repository.NewSpecialCaseRepository(db)

	userService := service.NewUserService(userRepo)
	auditService := service.NewAuditService(auditRepo)
	roleService := service.NewRoleService(roleRepo, txManager)
	courseService := service.NewCourseService(courseRepo)
	studentService := service.NewStudentService(enrollmentRepo, courseRepo, auditRepo, txManager)
	paymentService := service.NewPaymentService(paymentRepo, costRepo, courseRepo, auditRepo, txManager)
	rateService := service.NewRateService(rateRepo, auditRepo)
	costSummaryService := service.NewCostSummaryService(
		paymentRepo, costRepo, rateRepo, summaryRepo, revenueRepo, auditRepo, txManager, wsHub)
	specialCaseService := service.NewSpecialCaseService(
		paymentRepo, specialCaseRepo, costRepo, rateRepo, auditRepo, txManager, wsHub)
	approvalService := service.NewApprovalService(paymentRepo, auditRepo, wsHub)
	componentService := service.NewCostComponentService(costRepo, paymentRepo, auditRepo, txManager)
	revenueService := service.NewRevenueService(revenueRepo, paymentRepo)
	statisticsService := service.NewStatisticsService(db)

	// Seed default roles and permissions
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Printf("WARNING: Failed to seed roles and permissions: %v", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	auditHandler := handler.NewAuditHandler(auditService)
	roleHandler := handler.NewRoleHandler(roleService)
	courseHandler := handler.NewCourseHandler(courseService)
	studentHandler := handler.NewStudentHandler(studentService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	rateHandler := handler.NewRateHandler(rateService)
	costSummaryHandler := handler.NewCostSummaryHandler(costSummaryService)
	specialCaseHandler := handler.NewSpecialCaseHandler(specialCaseService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	componentHandler := handler.NewCostComponentHandler(componentService)
	revenueHandler := handler.NewRevenueHandler(revenueService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	courseHandler.RegisterRoutes(router.Group(""))
	studentHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	rateHandler.RegisterRoutes(router.Group(""))
	costSummaryHandler.RegisterRoutes(router.Group(""))
	specialCaseHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	componentHandler.RegisterRoutes(router.Group(""))
	revenueHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
