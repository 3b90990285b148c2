// restore-seed resets the pricing table and shipping rule to their defaults,
// and optionally creates an admin account.
// Run it when pricing data has been accidentally wiped or mangled.
// Orders and customers are left untouched.
//
// Usage: go run ./cmd/restore-seed [-admin-user name -admin-password secret]
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"yugwa-orders/internal/config"
	"yugwa-orders/internal/core"
	"yugwa-orders/internal/db"
)

func main() {
	adminUser := flag.String("admin-user", "", "create an admin account with this username")
	adminPassword := flag.String("admin-password", "", "password for -admin-user")
	adminName := flag.String("admin-name", "관리자", "display name for -admin-user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Restoring product prices...")
	_, err = tx.Exec(ctx, `
		INSERT INTO product_prices (code, name, unit_price, unit_cost, counts_for_shipping, is_active)
		VALUES
		  ('small_box', '소박스',      20000, 12000, true,  true),
		  ('large_box', '대박스',      30000, 18000, true,  true),
		  ('wrapping',  '보자기 포장', 1000,  500,   false, true)
		ON CONFLICT (code) DO UPDATE
		  SET name = EXCLUDED.name,
		      unit_price = EXCLUDED.unit_price,
		      unit_cost = EXCLUDED.unit_cost,
		      counts_for_shipping = EXCLUDED.counts_for_shipping,
		      is_active = EXCLUDED.is_active;
	`)
	if err != nil {
		log.Fatalf("Failed to restore prices: %v", err)
	}

	log.Println("Restoring shipping rule...")
	_, err = tx.Exec(ctx, `
		INSERT INTO shipping_settings (id, flat_fee, free_threshold) VALUES (1, 4000, 6)
		ON CONFLICT (id) DO UPDATE
		  SET flat_fee = EXCLUDED.flat_fee,
		      free_threshold = EXCLUDED.free_threshold;
	`)
	if err != nil {
		log.Fatalf("Failed to restore shipping rule: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Println("Pricing restored.")

	if *adminUser == "" {
		return
	}
	users := core.NewUserService(pool)
	u, err := users.CreateUser(ctx, *adminUser, *adminName, *adminPassword, core.RoleAdmin)
	switch {
	case errors.Is(err, core.ErrConflict):
		log.Printf("Admin %q already exists, left unchanged.", *adminUser)
	case err != nil:
		log.Fatalf("Failed to create admin: %v", err)
	default:
		log.Printf("Created admin %q (id %d).", u.Username, u.ID)
	}
}
