package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	webAdapter "yugwa-orders/internal/adapters/web"
	"yugwa-orders/internal/app"
	"yugwa-orders/internal/config"
	"yugwa-orders/internal/db"
	"yugwa-orders/internal/logging"
	"yugwa-orders/internal/metrics"
	"yugwa-orders/migrations"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("config: JWT_SECRET is not set")
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if applied, err := migrations.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("migrations", zap.Error(err))
	} else if len(applied) > 0 {
		logger.Info("schema updated", zap.Strings("applied", applied))
	}

	m := metrics.New()
	loc := cfg.Shop.Location()
	svc := app.Wire(pool, app.WireOptions{
		Logger:              logger,
		Metrics:             m,
		Location:            loc,
		NumberRetryAttempts: cfg.Orders.NumberRetryAttempts,
	})

	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		JWTSecret:       cfg.Auth.JWTSecret,
		TokenTTL:        cfg.Auth.TokenTTL,
		InsecureCookies: cfg.Auth.InsecureCookies,
		Location:        loc,
		Logger:          logger,
		Metrics:         m,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server", zap.Error(err))
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
