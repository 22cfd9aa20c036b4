package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jmanzanog/holdings-valuer/internal/application"
	"github.com/jmanzanog/holdings-valuer/internal/bootstrap"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/config"
	httpHandler "github.com/jmanzanog/holdings-valuer/internal/interfaces/http"
)

// setupLogger configures and returns a structured logger with source information
func setupLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     bootstrap.ParseLevel(level),
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	return logger
}

// buildServer creates and configures the HTTP server with all routes and handlers
func buildServer(cfg *config.Config, logger *slog.Logger, service httpHandler.ValuationService) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery(), httpHandler.RequestLogger(logger))

	handler := httpHandler.NewHandler(service)
	httpHandler.SetupRoutes(router, handler, httpHandler.RouteOptions{
		AdminToken:      cfg.AdminToken,
		FrontendOrigins: cfg.FrontendOrigins,
		RateLimit:       cfg.APIRateLimit,
		RateWindow:      cfg.APIRateWindow,
	})

	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// App wraps the application components for easier testing
type App struct {
	Server *http.Server
	// Updater is nil when the background refresh is disabled.
	Updater       *application.DefaultsUpdater
	CancelContext context.CancelFunc
	CloseStore    func() error
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application...")

	if a.Updater != nil {
		a.Updater.Stop()
	}
	a.CancelContext()

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if a.CloseStore != nil {
		if err := a.CloseStore(); err != nil {
			errs = append(errs, fmt.Errorf("closing holdings store: %w", err))
		}
	}

	return errors.Join(errs...)
}

// run contains the main application logic without os.Exit calls
func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("Using holdings store", "driver", cfg.StoreDriver)

	service, err := bootstrap.NewService(cfg, repo)
	if err != nil {
		_ = closeStore()
		return fmt.Errorf("failed to create valuation service: %w", err)
	}

	app := &App{
		Server:        buildServer(cfg, logger, service),
		CancelContext: cancel,
		CloseStore:    closeStore,
	}

	if cfg.DefaultsRefreshInterval > 0 {
		app.Updater = application.NewDefaultsUpdater(service, cfg.DefaultsRefreshInterval)
		go app.Updater.Start(ctx)
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "host", cfg.ServerHost, "port", cfg.ServerPort)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		_ = closeStore()
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		slog.Info("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slog.Info("Server exited gracefully")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}
