// Command simphony runs the POS check service.
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

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/harborpoint/roomcharge/internal/app"
	"github.com/harborpoint/roomcharge/internal/check"
	"github.com/harborpoint/roomcharge/internal/folio"
	"github.com/harborpoint/roomcharge/internal/platform/cache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	repo := check.NewRepository(redisClient)
	folioClient := folio.NewClient(cfg.PMSBaseURL, cfg.PMSTimeout)
	service := check.NewService(logger, repo, folioClient, check.DefaultCatalog(), check.ServiceConfig{
		AutoPost:               cfg.AutoPost,
		DefaultTransactionCode: cfg.TransactionCode,
	})
	handler := check.NewHandler(logger, service)

	router := app.NewRouter(app.RouterParams{
		Logger: logger,
		Config: cfg,
		Mount: func(r chi.Router) {
			handler.MountRoutes(r)
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("check service listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
