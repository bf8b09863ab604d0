package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/quantivue/backend/configs"
	"github.com/quantivue/backend/internal/api/handlers"
	"github.com/quantivue/backend/internal/api/middleware"
	"github.com/quantivue/backend/internal/apperr"
	"github.com/quantivue/backend/internal/gateway"
	job "github.com/quantivue/backend/internal/jobs"
	"github.com/quantivue/backend/internal/migrations"
	"github.com/quantivue/backend/internal/queue"
	"github.com/quantivue/backend/internal/repository"
	"github.com/quantivue/backend/internal/service"
	"github.com/quantivue/backend/internal/storage"
	"github.com/quantivue/backend/pkg/mailer"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := migrations.Run(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    1024 * 1024 * 1024, // multipart creation can carry up to 10 files of 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(apperr.Status(err)).JSON(fiber.Map{"detail": apperr.Message(err)})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return cfg.FrontendOrigin == "" || origin == cfg.FrontendOrigin
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Webhook-Secret",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	loginLogRepo := repository.NewLoginLogRepository(db)
	passwordResetRepo := repository.NewPasswordResetRepository(db)
	postRepo := repository.NewPostRepository(db)
	platformRepo := repository.NewPlatformRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	paymentMethodRepo := repository.NewPaymentMethodRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	contactRepo := repository.NewContactRepository(db)

	var store storage.MediaStore
	if cfg.MediaStorage == "r2" {
		store = storage.NewR2Store(cfg.R2)
	} else {
		store, err = storage.NewLocalStore(cfg.UploadsDir, cfg.BackendURL)
		if err != nil {
			log.Fatalf("Failed to prepare uploads directory: %v", err)
		}
	}

	sender := mailer.NewSender(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: "Quantivue",
	})

	n8nGateway := gateway.NewN8nGateway(*cfg)

	authService := service.NewAuthService(*cfg, userRepo, loginLogRepo, passwordResetRepo, sender)
	userService := service.NewUserService(userRepo)
	postService := service.NewPostService(db, postRepo, platformRepo, mediaRepo, approvalRepo, store, n8nGateway, client)
	adminService := service.NewAdminService(userRepo, loginLogRepo, paymentRepo, workflowRepo)
	billingService := service.NewBillingService(paymentRepo, paymentMethodRepo, subscriptionRepo)
	templateService := service.NewTemplateService(cfg.TemplatesDir)
	contactService := service.NewContactService(*cfg, contactRepo, sender)
	n8nService := service.NewN8nService(templateService, n8nGateway, workflowRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	health := handlers.NewHealthHandler(db)
	app.Get("/health", health.Health)

	if cfg.MediaStorage != "r2" {
		app.Static("/uploads/media", cfg.UploadsDir)
	}

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Post("/auth/signup", auth.Signup)
	app.Post("/auth/login", auth.Login)
	app.Post("/auth/signin", auth.Login)
	app.Get("/auth/google", auth.GoogleLogin)
	app.Get("/auth/google/callback", auth.GoogleCallback)
	app.Post("/auth/forgot-password", auth.ForgotPassword)
	app.Post("/auth/reset-password", auth.ResetPassword)

	admin := handlers.NewAdminHandler(authService, adminService)
	app.Post("/admin/login", admin.Login)
	adminGroup := app.Group("/admin", authMiddleware.RequireAdmin())
	adminGroup.Get("/metrics", admin.Metrics)
	adminGroup.Get("/users", admin.ListUsers)
	adminGroup.Get("/workflows", admin.ListWorkflows)

	api := app.Group("/api")

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/:id/webhook-status", authMiddleware.RequireWebhookSecret(), post.WebhookStatus)

	contact := handlers.NewContactHandler(contactService)
	api.Post("/contact", contact.Submit)
	api.Get("/contact/info", contact.Info)

	template := handlers.NewTemplateHandler(templateService)
	api.Get("/templates", template.ListTemplates)
	api.Get("/templates/:id", template.GetTemplate)
	api.Get("/templates/:id/download", template.DownloadTemplate)

	api.Use(authMiddleware.RequireUser())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Post("/posts/:id/approve", post.ApprovePost)
	api.Post("/posts/:id/reject", post.RejectPost)

	billing := handlers.NewBillingHandler(billingService)
	api.Get("/billing/payment-history", billing.PaymentHistory)
	api.Get("/billing/payment-methods", billing.PaymentMethods)
	api.Post("/billing/payment-methods", billing.AddPaymentMethod)
	api.Get("/billing/subscriptions", billing.Subscriptions)

	n8n := handlers.NewN8nHandler(n8nService)
	api.Post("/n8n/import/:templateId", n8n.ImportTemplate)
	api.Get("/n8n/test", n8n.Test)

	// cron jobs
	resetPurgeJob := job.NewResetPurgeJob(passwordResetRepo)

	// queue worker
	queueW := queue.NewQueue(postRepo, platformRepo, mediaRepo, store, n8nGateway)

	c := cron.New()
	c.AddFunc("@every 01h00m00s", resetPurgeJob.PurgeExpired)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeDispatchDue, queueW.HandleDispatchDueTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
