package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://orders@localhost:5432/orders")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ORDERS_SHOP_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://orders@localhost:5432/orders", cfg.Database.URL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "UTC", cfg.Shop.Timezone)
	assert.Equal(t, 10, cfg.Orders.NumberRetryAttempts)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ORDERS_DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database url not set")
}

func TestShopConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, ShopConfig{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, "Asia/Seoul", ShopConfig{Timezone: "Asia/Seoul"}.Location().String())
}

func TestShopConfig_LocationResolvesSeoulOffset(t *testing.T) {
	loc := ShopConfig{Timezone: "Asia/Seoul"}.Location()
	require.NotEqual(t, time.UTC, loc)

	_, offset := time.Date(2026, 1, 15, 12, 0, 0, 0, loc).Zone()
	assert.Equal(t, 9*60*60, offset)
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://orders@localhost:5432/orders")
	t.Setenv("ORDERS_SHOP_TIMEZONE", "Not/AZone")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shop.timezone")
}
