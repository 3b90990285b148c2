package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // shop zone resolves on hosts without a zoneinfo database

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Shop     ShopConfig     `mapstructure:"shop"`
	Orders   OrdersConfig   `mapstructure:"orders"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// AuthConfig holds staff session configuration.
// InsecureCookies drops the Secure cookie flag for plain-HTTP development.
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	InsecureCookies bool          `mapstructure:"insecure_cookies"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CORSConfig lists origins allowed to call the API from a browser.
// An empty list disables CORS headers entirely.
type CORSConfig struct {
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// ShopConfig holds shop-wide settings.
type ShopConfig struct {
	// Timezone decides which calendar date an order number is scoped to.
	Timezone string `mapstructure:"timezone"`
}

// OrdersConfig tunes order creation.
type OrdersConfig struct {
	NumberRetryAttempts int `mapstructure:"number_retry_attempts"`
}

// Location resolves the shop time zone. Load rejects zones that do not resolve,
// so the UTC fallback only applies to a ShopConfig built by hand.
func (c ShopConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads .env, an optional config.yaml and ORDERS_* environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("ORDERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Plain variables used by the deployment scripts take precedence.
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = origins
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url not set: export DATABASE_URL or ORDERS_DATABASE_URL")
	}
	if c.Orders.NumberRetryAttempts < 1 {
		return fmt.Errorf("orders.number_retry_attempts must be at least 1, got %d", c.Orders.NumberRetryAttempts)
	}
	if _, err := time.LoadLocation(c.Shop.Timezone); err != nil {
		return fmt.Errorf("shop.timezone %q: %w", c.Shop.Timezone, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 8*time.Hour)
	v.SetDefault("auth.insecure_cookies", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allowed_origins", "")
	v.SetDefault("shop.timezone", "Asia/Seoul")
	v.SetDefault("orders.number_retry_attempts", 10)
}
