package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sjperalta/car-ledger-api/docs"
	"github.com/sjperalta/car-ledger-api/internal/config"
	"github.com/sjperalta/car-ledger-api/internal/database"
	"github.com/sjperalta/car-ledger-api/internal/handlers"
	"github.com/sjperalta/car-ledger-api/internal/jobs"
	"github.com/sjperalta/car-ledger-api/internal/middleware"
	"github.com/sjperalta/car-ledger-api/internal/repository"
	"github.com/sjperalta/car-ledger-api/internal/services"
	"github.com/sjperalta/car-ledger-api/internal/storage"
	"github.com/sjperalta/car-ledger-api/pkg/logger"
)

const healthPath = "/api/v1/health"

// @title CAR Ledger API
// @version 1.0
// @description Back-office API for a credit union ledger: member balances, interest, retroactive edits and the RON to EUR conversion

// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Setup(cfg.Environment, cfg.LogLevel)

	if err := run(cfg); err != nil {
		logger.Error("API stopped with an error", "error", err)
		os.Exit(1)
	}
	logger.Info("API stopped")
}

func run(cfg *config.Config) error {
	flush := initSentry(cfg)
	defer flush()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.OperatorPasswordHash == "" {
		logger.Warn("OPERATOR_PASSWORD_HASH not set, operator login is disabled")
	}

	dbs, err := database.OpenSet(cfg)
	if err != nil {
		return fmt.Errorf("open ledger databases: %w", err)
	}
	defer dbs.Close()

	store, err := storage.NewLocalStorage(cfg.DataDir, cfg.ExportDir)
	if err != nil {
		return fmt.Errorf("prepare storage: %w", err)
	}

	// Shutdown cancels a running conversion at its next stage boundary, so
	// it must come before the databases are closed.
	worker := jobs.NewWorker(cfg.WorkerCount)
	defer worker.Shutdown()

	svcs, err := services.NewServices(repository.NewRepositories(dbs), worker, store, cfg)
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	// finished conversion runs are kept in memory for a day
	worker.ScheduleEvery("prune-conversion-runs", time.Hour, svcs.Conversion.PruneRuns)

	logger.Info("Ledger ready", "data_dir", cfg.DataDir, "workers", cfg.WorkerCount)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(handlers.NewHandlers(svcs), cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return serve(server)
}

// serve blocks until SIGINT or SIGTERM, then drains open requests
func serve(server *http.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown requested, draining requests")
	drain, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(drain)
}

// initSentry enables error reporting when a DSN is configured and returns
// the function that flushes pending events.
func initSentry(cfg *config.Config) func() {
	if cfg.SentryDSN == "" {
		return func() {}
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		logger.Error("Sentry initialization failed", "error", err)
		return func() {}
	}
	return func() { sentry.Flush(5 * time.Second) }
}

func newRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(healthPath),
		middleware.CORS(cfg.AllowedOrigins),
		gzip.Gzip(gzip.DefaultCompression),
	)

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	v1.GET("/health", h.Health.Index)
	v1.POST("/auth/login", h.Auth.Login)

	api := v1.Group("", middleware.Auth(cfg.JWTSecret))

	member := api.Group("/members/:id")
	member.GET("", h.Ledger.GetMember)
	member.GET("/history", h.Ledger.History)
	member.GET("/opening_balances", h.Ledger.OpeningBalances)
	member.PUT("/ledger/:year/:month", h.Ledger.SubmitEdit)
	member.POST("/ledger/:year/:month/recalculate", h.Ledger.Recalculate)
	member.GET("/interest_preview", h.Interest.Preview)
	member.GET("/payoff_preview", h.Interest.PayoffPreview)

	api.GET("/registry/inactive", h.Ledger.ListInactive)
	api.GET("/installments/estimate", h.Interest.EstimateInstallments)

	conversion := api.Group("/conversion")
	conversion.GET("/status", h.Conversion.Status)
	conversion.GET("/preview", h.Conversion.Preview)
	conversion.POST("/runs", h.Conversion.Start)
	conversion.GET("/runs/:run_id", h.Conversion.GetRun)
	conversion.DELETE("/runs/:run_id", h.Conversion.CancelRun)
	conversion.GET("/runs/:run_id/report", h.Conversion.Report)

	api.POST("/benefits/distribute", h.Benefit.Distribute)
	api.POST("/benefits/transfer", h.Benefit.Transfer)
	api.GET("/benefits/last", h.Benefit.Last)
	api.GET("/jobs/status", h.Job.Status)

	return router
}
