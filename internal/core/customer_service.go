package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yugwa-orders/internal/metrics"
)

// recomputeAllConcurrency bounds the number of phones recomputed in parallel.
const recomputeAllConcurrency = 4

// CustomerService maintains the customer address book and its order statistics.
type CustomerService interface {
	// RecomputeStats recomputes one phone's statistics in its own transaction.
	RecomputeStats(ctx context.Context, phone string) (*Customer, error)
	// RecomputeStatsTx recomputes inside tx. The caller's order writes must already be in tx.
	// Returns nil when the phone has neither orders nor a customer record.
	RecomputeStatsTx(ctx context.Context, tx pgx.Tx, phone string) (*Customer, error)
	// RecomputeAll recomputes every phone that has a customer record or an order.
	RecomputeAll(ctx context.Context) (int, error)

	GetCustomers(ctx context.Context, deleted bool) ([]Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*Customer, error)
	DeleteCustomer(ctx context.Context, phone string) (*Customer, error)
	RestoreCustomer(ctx context.Context, phone string) (*Customer, error)
}

type customerService struct {
	pool    *pgxpool.Pool
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewCustomerService constructs a CustomerService backed by PostgreSQL.
// logger and m may be nil.
func NewCustomerService(pool *pgxpool.Pool, logger *zap.Logger, m *metrics.Metrics) CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &customerService{pool: pool, logger: logger, metrics: m, now: time.Now}
}

// ComputeCustomerStats derives the statistics of one phone from its orders.
// Trashed orders are skipped; spend counts confirmed and partial payments at the
// paid amount when recorded, else the order total.
func ComputeCustomerStats(orders []Order) CustomerStats {
	stats := CustomerStats{TotalSpent: decimal.Zero}
	for i := range orders {
		o := &orders[i]
		if o.IsDeleted {
			continue
		}
		stats.OrderCount++
		if o.PaymentStatus.countsAsPaid() {
			if o.ActualPaidAmount != nil {
				stats.TotalSpent = stats.TotalSpent.Add(*o.ActualPaidAmount)
			} else {
				stats.TotalSpent = stats.TotalSpent.Add(o.TotalAmount)
			}
		}
		if stats.LastOrderDate == nil || o.CreatedAt.After(*stats.LastOrderDate) {
			stats.LastOrderDate = timePtr(o.CreatedAt)
		}
	}
	return stats
}

const customerColumns = `id, name, phone, address, address_detail, zipcode, user_id,
	order_count, total_spent, last_order_date, is_deleted, deleted_at, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.AddressDetail, &c.Zipcode, &c.UserID,
		&c.OrderCount, &c.TotalSpent, &c.LastOrderDate, &c.IsDeleted, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ── Statistics ───────────────────────────────────────────────────────────────

func (s *customerService) RecomputeStats(ctx context.Context, phone string) (*Customer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := s.RecomputeStatsTx(ctx, tx, phone)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit customer stats: %w", err)
	}
	return c, nil
}

func (s *customerService) RecomputeStatsTx(ctx context.Context, tx pgx.Tx, phone string) (*Customer, error) {
	// Serializes concurrent recomputes of one phone until tx ends.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", phone); err != nil {
		return nil, fmt.Errorf("failed to lock customer %s: %w", phone, err)
	}

	rows, err := tx.Query(ctx, `
		SELECT customer_name, address, address_detail, zipcode, user_id,
		       total_amount, actual_paid_amount, payment_status, created_at
		FROM orders
		WHERE customer_phone = $1 AND is_deleted = false
		ORDER BY created_at, id
	`, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders for %s: %w", phone, err)
	}
	var orders []Order
	for rows.Next() {
		o := Order{CustomerPhone: phone}
		if err := rows.Scan(&o.CustomerName, &o.Address, &o.AddressDetail, &o.Zipcode, &o.UserID,
			&o.TotalAmount, &o.ActualPaidAmount, &o.PaymentStatus, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order for %s: %w", phone, err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders for %s: %w", phone, err)
	}

	if len(orders) > 0 {
		first := orders[0]
		_, err := tx.Exec(ctx, `
			INSERT INTO customers (name, phone, address, address_detail, zipcode, user_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (phone) DO NOTHING
		`, first.CustomerName, phone, first.Address, first.AddressDetail, first.Zipcode, first.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to create customer %s: %w", phone, err)
		}
	}

	stats := ComputeCustomerStats(orders)
	c, err := scanCustomer(tx.QueryRow(ctx, `
		UPDATE customers
		SET order_count = $2, total_spent = $3, last_order_date = $4, updated_at = $5
		WHERE phone = $1
		RETURNING `+customerColumns,
		phone, stats.OrderCount, stats.TotalSpent, stats.LastOrderDate, s.now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update customer stats for %s: %w", phone, err)
	}

	s.metrics.CustomerRecompute()
	s.logger.Debug("customer stats recomputed",
		zap.String("phone", phone),
		zap.Int("order_count", stats.OrderCount),
		zap.String("total_spent", stats.TotalSpent.String()),
	)
	return c, nil
}

func (s *customerService) RecomputeAll(ctx context.Context) (int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT phone FROM customers
		UNION
		SELECT DISTINCT customer_phone FROM orders
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to list customer phones: %w", err)
	}
	var phones []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan phone: %w", err)
		}
		phones = append(phones, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to list customer phones: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeAllConcurrency)
	for _, phone := range phones {
		g.Go(func() error {
			_, err := s.RecomputeStats(gctx, phone)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	s.logger.Info("recomputed all customers", zap.Int("count", len(phones)))
	return len(phones), nil
}

// ── Address book ─────────────────────────────────────────────────────────────

func (s *customerService) GetCustomers(ctx context.Context, deleted bool) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE is_deleted = $1
		ORDER BY last_order_date DESC NULLS LAST, name
	`, deleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (s *customerService) GetCustomerByPhone(ctx context.Context, phone string) (*Customer, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	c, err := scanCustomer(s.pool.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE phone = $1", normalized))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, normalized)
		}
		return nil, fmt.Errorf("failed to get customer %s: %w", normalized, err)
	}
	return c, nil
}

// DeleteCustomer moves a customer to the trash. Orders are unaffected. Idempotent.
func (s *customerService) DeleteCustomer(ctx context.Context, phone string) (*Customer, error) {
	return s.setCustomerDeleted(ctx, phone, true)
}

// RestoreCustomer takes a customer out of the trash. Idempotent.
func (s *customerService) RestoreCustomer(ctx context.Context, phone string) (*Customer, error) {
	return s.setCustomerDeleted(ctx, phone, false)
}

func (s *customerService) setCustomerDeleted(ctx context.Context, phone string, deleted bool) (*Customer, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	// deleted_at keeps its first value on repeated deletes.
	c, err := scanCustomer(s.pool.QueryRow(ctx, `
		UPDATE customers
		SET is_deleted = $2,
		    deleted_at = CASE WHEN $2 THEN COALESCE(deleted_at, $3) ELSE NULL END,
		    updated_at = $3
		WHERE phone = $1
		RETURNING `+customerColumns,
		normalized, deleted, s.now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, normalized)
		}
		return nil, fmt.Errorf("failed to update customer %s: %w", normalized, err)
	}
	return c, nil
}
