package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "devicereg/docs"
	"devicereg/internal/authz"
	"devicereg/internal/config"
	"devicereg/internal/handlers"
	"devicereg/internal/middleware"
	"devicereg/internal/pdf"
	"devicereg/internal/realtime"
	"devicereg/internal/repositories"
	"devicereg/internal/routes"
	"devicereg/internal/services"
)

type App struct {
	cfg    *config.Config
	db     *sql.DB
	router *gin.Engine
	logger *slog.Logger
}

// New opens the store and wires repositories, services and handlers.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// === DB ===
	db, err := repositories.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// === Repos ===
	accountRepo := repositories.NewAccountRepository(db, cfg.Database.Driver)

	// === Services ===
	registrants := authz.NewRegistrants(cfg.Registrants)
	authService := services.NewAuthService(cfg.Security.BcryptCost)

	var emailService services.EmailService
	if cfg.Email.Enabled() {
		emailService = services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
	}

	var alerts services.AlertService
	if cfg.Telegram.Enabled() {
		alerts, err = services.NewTelegramAlertService(cfg.Telegram.BotToken, cfg.Telegram.Chats)
		if err != nil {
			// alerts are optional; keep serving without them
			logger.Warn("[app] telegram alerts disabled", "err", err)
			alerts = nil
		}
	}

	statusHub := realtime.NewStatusHub()
	accountService := services.NewAccountService(accountRepo, registrants, authService, emailService, alerts, statusHub)
	pdfGen := pdf.NewReportGenerator(cfg.Reports.FontPath)

	// === Handlers ===
	metricSet := metrics.NewSet()
	authHandler := handlers.NewAuthHandler(accountService)
	selfDestructHandler := handlers.NewSelfDestructHandler(accountService)
	statusStreamHandler := handlers.NewStatusStreamHandler(accountService, statusHub)
	utmHandler := handlers.NewUTMHandler(accountService)
	deviceHandler := handlers.NewDeviceHandler(accountService)
	reportHandler := handlers.NewReportHandler(accountService, pdfGen)
	systemHandler := handlers.NewSystemHandler(db, metricSet)

	// === Gin ===
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
	router.Use(middleware.Metrics(metricSet))
	router.Use(corsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		registrants,
		authHandler,
		selfDestructHandler,
		statusStreamHandler,
		utmHandler,
		deviceHandler,
		reportHandler,
		systemHandler,
	)

	logger.Info("[app] wired",
		"driver", cfg.Database.Driver,
		"registrants", registrants.IDs(),
		"email", cfg.Email.Enabled(),
		"telegram", alerts != nil,
	)

	return &App{cfg: cfg, db: db, router: router, logger: logger}, nil
}

func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("[app] listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() error {
	return a.db.Close()
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
