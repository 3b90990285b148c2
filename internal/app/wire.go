package app

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yugwa-orders/internal/core"
	"yugwa-orders/internal/metrics"
)

// WireOptions carries the process-level settings the core services need.
type WireOptions struct {
	Logger              *zap.Logger
	Metrics             *metrics.Metrics
	Location            *time.Location
	NumberRetryAttempts int
}

// Wire builds every core service on pool and returns the ApplicationService
// shared by the server and the CLI.
func Wire(pool *pgxpool.Pool, opts WireOptions) ApplicationService {
	pricing := core.NewPricingService(pool)
	customers := core.NewCustomerService(pool, opts.Logger, opts.Metrics)
	orders := core.NewOrderService(core.OrderServiceDeps{
		Pool:                pool,
		Pricing:             pricing,
		Customers:           customers,
		Logger:              opts.Logger,
		Metrics:             opts.Metrics,
		Location:            opts.Location,
		NumberRetryAttempts: opts.NumberRetryAttempts,
	})
	reporting := core.NewReportingService(orders, opts.Location)
	users := core.NewUserService(pool)
	return NewAppService(orders, customers, pricing, reporting, users)
}
