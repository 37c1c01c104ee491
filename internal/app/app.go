package app

import (
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "opsdesk/docs"
	"opsdesk/internal/config"
	"opsdesk/internal/handlers"
	"opsdesk/internal/middleware"
	"opsdesk/internal/pdf"
	"opsdesk/internal/repositories"
	"opsdesk/internal/routes"
	"opsdesk/internal/services"
)

func Run() {
	cfg := config.LoadConfig()
	log := setupLogger(cfg.LogLevel)

	if cfg.Auth.JWTSecret != "" {
		middleware.JWTKey = []byte(cfg.Auth.JWTSecret)
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Errorf("database close failed: %v", err)
		}
	}()

	// === Repos ===
	roleRepo := repositories.NewRoleRepository(db)
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	leadRepo := repositories.NewLeadRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	quotationRepo := repositories.NewQuotationRequestRepository(db)
	poRepo := repositories.NewPORequestRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// === Services ===
	tgService, err := services.NewTelegramService(cfg.Telegram.BotToken)
	if err != nil {
		// бот опционален — работаем без него
		log.Warnf("telegram bot unavailable: %v", err)
		tgService = nil
	}

	var emailService services.EmailService
	if cfg.Email.SMTPHost != "" {
		emailService = services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
	}

	notifier := services.NewNotifier(notificationRepo, userRepo, tgService, log)
	activityService := services.NewActivityService(leadRepo, projectRepo, log)
	taskService := services.NewTaskService(taskRepo, quotationRepo, notifier, activityService, log)
	timerService := services.NewTimerService(taskRepo, notifier, activityService, log)
	approvalService := services.NewApprovalService(poRepo, quotationRepo, userRepo, notifier, activityService, emailService, log)
	poService := services.NewPORequestService(poRepo, projectRepo, userRepo, log)

	pdfGen := pdf.NewPORequestGenerator(cfg.Company.Name)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userRepo, log)
	taskHandler := handlers.NewTaskHandler(taskService, timerService, userRepo, roleRepo, log)
	poHandler := handlers.NewPORequestHandler(poService, approvalService, pdfGen, userRepo, roleRepo, log)
	quotationHandler := handlers.NewQuotationHandler(quotationRepo, approvalService, userRepo, roleRepo, log)
	leadHandler := handlers.NewLeadHandler(leadRepo, userRepo, roleRepo, log)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo, roleRepo, log)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		taskHandler,
		poHandler,
		quotationHandler,
		leadHandler,
		notificationHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Infof("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
