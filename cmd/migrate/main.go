// migrate applies the embedded schema migrations and exits.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"yugwa-orders/internal/config"
	"yugwa-orders/internal/db"
	"yugwa-orders/internal/logging"
	"yugwa-orders/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer pool.Close()

	applied, err := migrations.Apply(ctx, pool, logger)
	if err != nil {
		logger.Fatal("migrations failed", zap.Strings("applied", applied), zap.Error(err))
	}
	logger.Info("all migrations processed", zap.Int("applied", len(applied)))
}
