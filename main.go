package main

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/radcool22/meditrack/ai"
	"github.com/radcool22/meditrack/config"
	"github.com/radcool22/meditrack/database"
	"github.com/radcool22/meditrack/handlers"
	"github.com/radcool22/meditrack/middleware"
	"github.com/radcool22/meditrack/repositories"
	"github.com/radcool22/meditrack/sms"
)

const otpCleanupInterval = time.Hour

func main() {
	cfg := config.Load()

	logCfg := zap.NewProductionConfig()
	if !cfg.IsProduction() {
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}
	logger.Info("database ready", zap.String("dsn", cfg.DatabaseDSN))

	userRepo := repositories.NewUserRepository(db)
	otpRepo := repositories.NewOtpRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	var sender sms.Sender
	if cfg.TwilioConfigured() {
		sender = sms.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
		logger.Info("Twilio SMS service configured")
	} else {
		sender = &sms.LogSender{Logger: logger}
		logger.Warn("Twilio not configured, OTP codes will be logged")
	}

	orchestrator := ai.NewOrchestrator(ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel))

	authHandlers := handlers.NewAuthHandlers(userRepo, otpRepo, sender, cfg.IsProduction(), logger)
	reportHandlers := handlers.NewReportHandlers(reportRepo, cfg.UploadDir, logger)
	aiHandlers := handlers.NewAIHandlers(reportRepo, orchestrator, logger)

	app := fiber.New(fiber.Config{
		// Leave headroom above the 10MB upload cap so the handler can
		// report the violation itself instead of a bare 413.
		BodyLimit: 11 * 1024 * 1024,
	})

	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowCredentials: true,
	}))

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "message": "MediTrack API is running"})
	})

	auth := api.Group("/auth")
	auth.Post("/send-otp", authHandlers.SendOTP)
	auth.Post("/verify-otp", authHandlers.VerifyOTP)
	auth.Get("/me", middleware.RequireAuth, authHandlers.Me)
	auth.Post("/logout", middleware.RequireAuth, authHandlers.Logout)

	reports := api.Group("/reports", middleware.RequireAuth)
	reports.Post("/upload", reportHandlers.Upload)
	reports.Get("/", reportHandlers.List)
	reports.Get("/categories", reportHandlers.Categories)
	reports.Get("/:id", reportHandlers.Get)
	reports.Get("/:id/file", reportHandlers.File)
	reports.Get("/:id/text", reportHandlers.Text)
	reports.Delete("/:id", reportHandlers.Delete)

	aiGroup := api.Group("/ai", middleware.RequireAuth)
	aiGroup.Post("/explain", aiHandlers.Explain)
	aiGroup.Post("/chat", aiHandlers.Chat)

	go runOtpCleanup(otpRepo, logger)

	logger.Info("MediTrack API listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// runOtpCleanup sweeps expired OTP records on a fixed interval. Failures
// are logged and the next tick tries again.
func runOtpCleanup(otps *repositories.OtpRepository, logger *zap.Logger) {
	ticker := time.NewTicker(otpCleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := otps.DeleteExpired(time.Now()); err != nil {
			logger.Error("OTP cleanup failed", zap.Error(err))
		}
	}
}
