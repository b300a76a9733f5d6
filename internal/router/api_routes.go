package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"payroll-web/internal/config"
	"payroll-web/internal/handler"
	"payroll-web/internal/middleware"
	"payroll-web/internal/repository"
	"payroll-web/internal/service"
)

func SetupAPIRoutes(
	router fiber.Router,
	db *sqlx.DB,
	redisClient *redis.Client,
	cfg *config.Config,
) {
	// Repositories
	userRepo := repository.NewUserRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	paymentTypeRepo := repository.NewPaymentTypeRepository(db)
	bankAccountRepo := repository.NewBankAccountRepository(db)
	sessionRepo := repository.NewImportSessionRepository(db)
	salaryRepo := repository.NewSalaryRepository(db, cfg.DocumentDir, cfg.RollbackOnError)

	// Services
	authService := service.NewAuthService(userRepo, cfg)
	enricher := service.NewEnricher(employeeRepo, paymentTypeRepo, bankAccountRepo)
	matcher := service.NewPDFMatcher(cfg.ImportWorkDir)
	importService := service.NewImportService(
		service.NewParser(),
		service.NewValidator(),
		enricher,
		matcher,
		salaryRepo,
	)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.AsynqRedisAddr,
		Password: cfg.AsynqRedisPassword,
		DB:       cfg.AsynqRedisDB,
	})

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	importHandler := handler.NewImportHandler(sessionRepo, importService, asynqClient, redisClient, cfg)
	dictionaryHandler := handler.NewDictionaryHandler(paymentTypeRepo, bankAccountRepo)

	// Public routes
	auth := router.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/register", authHandler.Register)
	auth.Post("/logout", authHandler.Logout)

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/auth/me", authHandler.Me)

	imports := protected.Group("/imports")
	imports.Post("/", importHandler.Upload)
	imports.Get("/", importHandler.GetSessions)
	imports.Get("/progress/:code", importHandler.Progress)
	imports.Get("/:id", importHandler.GetSession)
	imports.Post("/:id/confirm", importHandler.Confirm)
	imports.Delete("/:id", importHandler.Delete)

	protected.Get("/payment-types", dictionaryHandler.GetPaymentTypes)
	protected.Get("/bank-accounts", dictionaryHandler.GetBankAccounts)
}
