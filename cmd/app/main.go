package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"yugwa-orders/internal/adapters/cli"
	"yugwa-orders/internal/adapters/repl"
	"yugwa-orders/internal/app"
	"yugwa-orders/internal/config"
	"yugwa-orders/internal/db"
	"yugwa-orders/internal/logging"
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
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	loc := cfg.Shop.Location()
	svc := app.Wire(pool, app.WireOptions{
		Logger:              logger,
		Location:            loc,
		NumberRetryAttempts: cfg.Orders.NumberRetryAttempts,
	})

	if len(os.Args) < 2 {
		repl.New(svc, os.Stdin, os.Stdout, loc).Run(ctx)
		return
	}

	if err := cli.NewRunner(svc, os.Stdout, loc).Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		pool.Close()
		os.Exit(1)
	}
}
