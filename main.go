package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LovationAdmin/bizpanel/config"
	"github.com/LovationAdmin/bizpanel/handlers"
	"github.com/LovationAdmin/bizpanel/middleware"
	"github.com/LovationAdmin/bizpanel/routes"
	"github.com/LovationAdmin/bizpanel/services"
	"github.com/LovationAdmin/bizpanel/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := utils.InitLogger(os.Stdout, cfg.LogLevel, cfg.IsProduction())
	if envErr != nil {
		logger.Info("No .env file found, using environment variables")
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	registry, err := services.NewPageRegistry(config.PagesConfig)
	if err != nil {
		logger.Error("Invalid page configuration", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to open budget store", "backend", cfg.DataBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	events := openPublisher(cfg, logger)
	defer events.Close()

	budgets := services.NewBudgetService(store, events)
	ws := handlers.NewWSHandler(budgets)
	defer ws.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer limiter.Stop()

	router := routes.NewRouter(routes.Deps{
		Registry:       registry,
		Budgets:        budgets,
		WS:             ws,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: []string{cfg.FrontendURL},
		Limiter:        limiter,
		Version:        version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "port", cfg.Port, "backend", cfg.DataBackend,
			"pages", registry.Len(), "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func openStore(cfg *config.Config) (services.BudgetStore, func(), error) {
	if cfg.DataBackend != "postgres" {
		return services.NewMemoryBudgetStore(), func() {}, nil
	}

	db, err := config.InitDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := config.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	slog.Info("Database connected and migrated")

	store, err := services.NewPostgresBudgetStore(db, cfg.DataEncryptionKey)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

// openPublisher falls back to dropping events when the broker is unreachable.
func openPublisher(cfg *config.Config, logger *slog.Logger) services.EventPublisher {
	if cfg.AMQPURL == "" {
		return services.NopPublisher{}
	}
	pub, err := services.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Warn("AMQP unavailable, budget events disabled", "error", err)
		return services.NopPublisher{}
	}
	return pub
}
