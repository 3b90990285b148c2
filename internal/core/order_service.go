package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"yugwa-orders/internal/metrics"
)

const (
	orderNumberConstraint      = "orders_order_number_key"
	defaultNumberRetryAttempts = 10
)

// OrderService owns the order records and drives every order mutation through
// the transition and reconciliation rules, keeping customer statistics in step.
type OrderService interface {
	// Intake
	CreateOrder(ctx context.Context, in OrderInput) (*Order, error)
	// UpdateOrder replaces the customer fields and quantities. Only editable orders
	// (pending and unpaid) accept edits; anything else is ErrPreconditionFailed.
	UpdateOrder(ctx context.Context, orderID int, in OrderInput) (*Order, error)

	// Staff actions
	TransitionStatus(ctx context.Context, orderID int, target OrderStatus, deliveredAt *time.Time) (*Order, error)
	SetScheduledDate(ctx context.Context, orderID int, date *time.Time) (*Order, error)
	SetDeliveredDate(ctx context.Context, orderID int, date time.Time) (*Order, error)
	SetSellerShipped(ctx context.Context, orderID int, shipped bool, date *time.Time) (*Order, error)
	UpdatePayment(ctx context.Context, orderID int, update PaymentUpdate) (*PaymentResult, error)
	SetCostOverrides(ctx context.Context, orderID int, smallBoxCost, largeBoxCost *decimal.Decimal) (*Order, error)

	// Trash
	DeleteOrder(ctx context.Context, orderID int) (*Order, error)
	RestoreOrder(ctx context.Context, orderID int) (*Order, error)
	// PurgeOrder permanently removes an order that is already in the trash.
	PurgeOrder(ctx context.Context, orderID int) error

	// Queries. Every returned order carries financials derived from the current pricing table.
	GetOrder(ctx context.Context, orderID int) (*Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)
	GetOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	// LookupOrders finds a customer's live orders by phone and/or name.
	// No match is ErrNotFound.
	LookupOrders(ctx context.Context, phone, name string) ([]Order, error)
}

// OrderServiceDeps wires an OrderService. Pool, Pricing and Customers are required.
type OrderServiceDeps struct {
	Pool                *pgxpool.Pool
	Pricing             PricingService
	Customers           CustomerService
	Logger              *zap.Logger
	Metrics             *metrics.Metrics
	Clock               func() time.Time
	Location            *time.Location // shop time zone for order-number dates
	NumberRetryAttempts int
}

type orderService struct {
	pool      *pgxpool.Pool
	pricing   PricingService
	customers CustomerService
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	loc       *time.Location
	attempts  int
}

// NewOrderService constructs an OrderService backed by PostgreSQL.
func NewOrderService(deps OrderServiceDeps) OrderService {
	s := &orderService{
		pool:      deps.Pool,
		pricing:   deps.Pricing,
		customers: deps.Customers,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		now:       deps.Clock,
		loc:       deps.Location,
		attempts:  deps.NumberRetryAttempts,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.attempts <= 0 {
		s.attempts = defaultNumberRetryAttempts
	}
	return s
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxRowsQuerier is the multi-row counterpart of pgxQuerier.
type pgxRowsQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const orderColumns = `id, order_number, user_id, customer_name, customer_phone, address, address_detail, zipcode, memo,
	small_box_quantity, large_box_quantity, wrapping_quantity, extra_quantities,
	total_amount, shipping_fee, actual_paid_amount, discount_amount, discount_reason,
	small_box_cost, large_box_cost, status, payment_status, scheduled_date, delivered_date,
	seller_shipped, seller_shipped_date, payment_confirmed_at, is_deleted, deleted_at, created_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.CustomerName, &o.CustomerPhone, &o.Address, &o.AddressDetail, &o.Zipcode, &o.Memo,
		&o.SmallBoxQuantity, &o.LargeBoxQuantity, &o.WrappingQuantity, &o.ExtraQuantities,
		&o.TotalAmount, &o.ShippingFee, &o.ActualPaidAmount, &o.DiscountAmount, &o.DiscountReason,
		&o.SmallBoxCost, &o.LargeBoxCost, &o.Status, &o.PaymentStatus, &o.ScheduledDate, &o.DeliveredDate,
		&o.SellerShipped, &o.SellerShippedDate, &o.PaymentConfirmedAt, &o.IsDeleted, &o.DeletedAt, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if o.ExtraQuantities == nil {
		o.ExtraQuantities = map[string]int{}
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	return orders, nil
}

// extrasOrEmpty keeps the NOT NULL jsonb column from receiving a JSON null.
func extrasOrEmpty(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

// ── Intake ───────────────────────────────────────────────────────────────────

func (s *orderService) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	table, err := s.pricing.GetPricingTableTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	in, err = normalizeOrderInput(in, table)
	if err != nil {
		return nil, err
	}
	quote, err := QuoteTotal(in.Quantities, table)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order, err := s.insertWithNumber(ctx, tx, in, quote, now)
	if err != nil {
		return nil, err
	}

	if _, err := s.customers.RecomputeStatsTx(ctx, tx, order.CustomerPhone); err != nil {
		return nil, err
	}
	if err := attachFinancials(order, table); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	s.metrics.OrderCreated()
	s.logger.Info("order created",
		zap.Int("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total_amount", order.TotalAmount.String()),
	)
	return order, nil
}

// insertWithNumber inserts the order under the smallest free number for today.
// Each attempt runs in a savepoint so a unique violation from a concurrent
// creator only discards that attempt.
func (s *orderService) insertWithNumber(ctx context.Context, tx pgx.Tx, in OrderInput, quote Quote, now time.Time) (*Order, error) {
	date := now.In(s.loc)
	for attempt := 1; attempt <= s.attempts; attempt++ {
		number, err := nextOrderNumber(ctx, tx, date)
		if err != nil {
			return nil, err
		}

		sp, err := tx.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open savepoint: %w", err)
		}
		order, err := scanOrder(sp.QueryRow(ctx, `
			INSERT INTO orders (order_number, user_id, customer_name, customer_phone, address, address_detail, zipcode, memo,
			                    small_box_quantity, large_box_quantity, wrapping_quantity, extra_quantities,
			                    total_amount, shipping_fee, status, payment_status, scheduled_date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			RETURNING `+orderColumns,
			number, in.UserID, in.CustomerName, in.CustomerPhone, in.Address, in.AddressDetail, in.Zipcode, in.Memo,
			in.Quantities.SmallBox, in.Quantities.LargeBox, in.Quantities.Wrapping, extrasOrEmpty(in.Quantities.Extras),
			quote.Total, quote.ShippingFee, OrderStatusPending, PaymentStatusPending, in.ScheduledDate, now,
		))
		if err != nil {
			_ = sp.Rollback(ctx)
			if isUniqueViolation(err, orderNumberConstraint) {
				s.metrics.OrderNumberConflict()
				s.logger.Debug("order number taken, retrying", zap.String("order_number", number), zap.Int("attempt", attempt))
				continue
			}
			return nil, fmt.Errorf("failed to insert order: %w", err)
		}
		if err := sp.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to release savepoint: %w", err)
		}
		return order, nil
	}
	return nil, fmt.Errorf("%w: no free order number for %s after %d attempts", ErrConflict, date.Format(orderNumberDateLayout), s.attempts)
}

func (s *orderService) UpdateOrder(ctx context.Context, orderID int, in OrderInput) (*Order, error) {
	return s.mutateOrder(ctx, orderID, mutation{recompute: true}, func(o *Order, table *PricingTable) error {
		if !o.Editable() {
			return fmt.Errorf("%w: order %s is %s/%s and can no longer be edited",
				ErrPreconditionFailed, o.OrderNumber, o.Status, o.PaymentStatus)
		}
		in, err := normalizeOrderInput(in, table)
		if err != nil {
			return err
		}
		quote, err := QuoteTotal(in.Quantities, table)
		if err != nil {
			return err
		}

		applyOrderInput(o, in, quote)
		return nil
	})
}

// applyOrderInput copies an edit onto o. A nil UserID or ScheduledDate keeps the current value.
func applyOrderInput(o *Order, in OrderInput, quote Quote) {
	o.CustomerName = in.CustomerName
	o.CustomerPhone = in.CustomerPhone
	o.Address = in.Address
	o.AddressDetail = in.AddressDetail
	o.Zipcode = in.Zipcode
	o.Memo = in.Memo
	if in.UserID != nil {
		o.UserID = in.UserID
	}
	if in.ScheduledDate != nil {
		o.ScheduledDate = in.ScheduledDate
	}
	o.SmallBoxQuantity = in.Quantities.SmallBox
	o.LargeBoxQuantity = in.Quantities.LargeBox
	o.WrappingQuantity = in.Quantities.Wrapping
	o.ExtraQuantities = extrasOrEmpty(in.Quantities.Extras)
	o.TotalAmount = quote.Total
	o.ShippingFee = quote.ShippingFee
}

// ── Staff actions ────────────────────────────────────────────────────────────

func (s *orderService) TransitionStatus(ctx context.Context, orderID int, target OrderStatus, deliveredAt *time.Time) (*Order, error) {
	if !target.Valid() {
		return nil, validationErrorf("unknown order status %q", target)
	}
	var from OrderStatus
	order, err := s.mutateOrder(ctx, orderID, mutation{}, func(o *Order, _ *PricingTable) error {
		from = o.Status
		return ApplyStatusTransition(o, target, deliveredAt, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.metrics.StatusTransition(string(target))
	s.logger.Info("order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
	return order, nil
}

func (s *orderService) SetScheduledDate(ctx context.Context, orderID int, date *time.Time) (*Order, error) {
	return s.mutateOrder(ctx, orderID, mutation{}, func(o *Order, _ *PricingTable) error {
		return ApplyScheduledDate(o, date)
	})
}

// SetDeliveredDate corrects the delivered date of a delivered order. A
// seller-shipped order moves its hand-off date along with it.
func (s *orderService) SetDeliveredDate(ctx context.Context, orderID int, date time.Time) (*Order, error) {
	return s.mutateOrder(ctx, orderID, mutation{}, func(o *Order, _ *PricingTable) error {
		if o.Status != OrderStatusDelivered {
			return fmt.Errorf("%w: order %s is not delivered", ErrPreconditionFailed, o.OrderNumber)
		}
		o.DeliveredDate = timePtr(date)
		if o.SellerShipped {
			o.SellerShippedDate = timePtr(date)
		}
		return nil
	})
}

func (s *orderService) SetSellerShipped(ctx context.Context, orderID int, shipped bool, date *time.Time) (*Order, error) {
	order, err := s.mutateOrder(ctx, orderID, mutation{}, func(o *Order, _ *PricingTable) error {
		ApplySellerShipped(o, shipped, date, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if shipped {
		s.metrics.StatusTransition(string(OrderStatusDelivered))
	}
	return order, nil
}

func (s *orderService) UpdatePayment(ctx context.Context, orderID int, update PaymentUpdate) (*PaymentResult, error) {
	var rec Reconciliation
	order, err := s.mutateOrder(ctx, orderID, mutation{recompute: true}, func(o *Order, _ *PricingTable) error {
		r, err := Reconcile(o.TotalAmount, update)
		if err != nil {
			return err
		}
		ApplyReconciliation(o, r, s.now())
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Reconciliation(string(rec.Outcome))
	fields := []zap.Field{
		zap.String("order_number", order.OrderNumber),
		zap.String("outcome", string(rec.Outcome)),
		zap.String("requested_status", string(rec.RequestedStatus)),
		zap.String("status", string(rec.Status)),
	}
	if rec.Overridden() {
		s.logger.Warn("payment status overridden by reconciliation", fields...)
	} else {
		s.logger.Info("payment updated", fields...)
	}
	return &PaymentResult{Order: order, Reconciliation: rec}, nil
}

// SetCostOverrides sets or clears the per-order box costs. Nil clears an override.
func (s *orderService) SetCostOverrides(ctx context.Context, orderID int, smallBoxCost, largeBoxCost *decimal.Decimal) (*Order, error) {
	if err := validateCostOverrides(smallBoxCost, largeBoxCost); err != nil {
		return nil, err
	}
	return s.mutateOrder(ctx, orderID, mutation{}, func(o *Order, _ *PricingTable) error {
		o.SmallBoxCost = smallBoxCost
		o.LargeBoxCost = largeBoxCost
		return nil
	})
}

func validateCostOverrides(smallBoxCost, largeBoxCost *decimal.Decimal) error {
	if smallBoxCost != nil {
		if err := validateAmount("small box cost", *smallBoxCost); err != nil {
			return err
		}
	}
	if largeBoxCost != nil {
		if err := validateAmount("large box cost", *largeBoxCost); err != nil {
			return err
		}
	}
	return nil
}

// ── Trash ────────────────────────────────────────────────────────────────────

// DeleteOrder moves an order to the trash. Deleting a trashed order keeps its original deleted_at.
func (s *orderService) DeleteOrder(ctx context.Context, orderID int) (*Order, error) {
	order, err := s.mutateOrder(ctx, orderID, mutation{includeDeleted: true, recompute: true}, func(o *Order, _ *PricingTable) error {
		if !o.IsDeleted {
			o.IsDeleted = true
			o.DeletedAt = timePtr(s.now())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order moved to trash", zap.String("order_number", order.OrderNumber))
	return order, nil
}

// RestoreOrder takes an order out of the trash. Restoring a live order is a no-op.
func (s *orderService) RestoreOrder(ctx context.Context, orderID int) (*Order, error) {
	order, err := s.mutateOrder(ctx, orderID, mutation{includeDeleted: true, recompute: true}, func(o *Order, _ *PricingTable) error {
		o.IsDeleted = false
		o.DeletedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order restored", zap.String("order_number", order.OrderNumber))
	return order, nil
}

func (s *orderService) PurgeOrder(ctx context.Context, orderID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := lockOrderTx(ctx, tx, orderID, true)
	if err != nil {
		return err
	}
	if !o.IsDeleted {
		return fmt.Errorf("%w: order %s must be in the trash before it is deleted permanently", ErrPreconditionFailed, o.OrderNumber)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM orders WHERE id = $1", orderID); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", orderID, err)
	}
	if _, err := s.customers.RecomputeStatsTx(ctx, tx, o.CustomerPhone); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit purge: %w", err)
	}
	s.logger.Info("order permanently deleted", zap.String("order_number", o.OrderNumber))
	return nil
}

// ── Mutation plumbing ────────────────────────────────────────────────────────

type mutation struct {
	includeDeleted bool // operate on trashed orders too
	recompute      bool // refresh customer stats for the old and new phone
}

// mutateOrder locks the order row, applies fn and writes every mutable column back
// in one transaction. fn returning an error aborts without writing.
func (s *orderService) mutateOrder(ctx context.Context, orderID int, m mutation, fn func(o *Order, table *PricingTable) error) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	table, err := s.pricing.GetPricingTableTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	o, err := lockOrderTx(ctx, tx, orderID, m.includeDeleted)
	if err != nil {
		return nil, err
	}
	oldPhone := o.CustomerPhone

	if err := fn(o, table); err != nil {
		return nil, err
	}
	updated, err := updateOrderTx(ctx, tx, o)
	if err != nil {
		return nil, err
	}

	if m.recompute {
		for _, phone := range phonesInLockOrder(oldPhone, updated.CustomerPhone) {
			if _, err := s.customers.RecomputeStatsTx(ctx, tx, phone); err != nil {
				return nil, err
			}
		}
	}

	if err := attachFinancials(updated, table); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order %d: %w", orderID, err)
	}
	return updated, nil
}

// phonesInLockOrder lists the distinct phones in ascending order. Recomputing
// stats takes a per-phone advisory lock, so every transaction must acquire
// them in the same order.
func phonesInLockOrder(a, b string) []string {
	switch {
	case a == b:
		return []string{a}
	case a < b:
		return []string{a, b}
	default:
		return []string{b, a}
	}
}

// lockOrderTx reads an order with a row lock. Trashed orders are not found unless includeDeleted.
func lockOrderTx(ctx context.Context, tx pgx.Tx, orderID int, includeDeleted bool) (*Order, error) {
	o, err := scanOrder(tx.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, orderNotFound(orderID)
		}
		return nil, fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	if o.IsDeleted && !includeDeleted {
		return nil, orderNotFound(orderID)
	}
	return o, nil
}

func updateOrderTx(ctx context.Context, tx pgx.Tx, o *Order) (*Order, error) {
	updated, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders
		SET user_id = $2, customer_name = $3, customer_phone = $4, address = $5, address_detail = $6,
		    zipcode = $7, memo = $8,
		    small_box_quantity = $9, large_box_quantity = $10, wrapping_quantity = $11, extra_quantities = $12,
		    total_amount = $13, shipping_fee = $14, actual_paid_amount = $15, discount_amount = $16,
		    discount_reason = $17, small_box_cost = $18, large_box_cost = $19,
		    status = $20, payment_status = $21, scheduled_date = $22, delivered_date = $23,
		    seller_shipped = $24, seller_shipped_date = $25, payment_confirmed_at = $26,
		    is_deleted = $27, deleted_at = $28
		WHERE id = $1
		RETURNING `+orderColumns,
		o.ID, o.UserID, o.CustomerName, o.CustomerPhone, o.Address, o.AddressDetail,
		o.Zipcode, o.Memo,
		o.SmallBoxQuantity, o.LargeBoxQuantity, o.WrappingQuantity, extrasOrEmpty(o.ExtraQuantities),
		o.TotalAmount, o.ShippingFee, o.ActualPaidAmount, o.DiscountAmount,
		o.DiscountReason, o.SmallBoxCost, o.LargeBoxCost,
		o.Status, o.PaymentStatus, o.ScheduledDate, o.DeliveredDate,
		o.SellerShipped, o.SellerShippedDate, o.PaymentConfirmedAt,
		o.IsDeleted, o.DeletedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", o.ID, err)
	}
	return updated, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	o, err := s.getOne(ctx, "id = $1", orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orderNotFound(orderID)
	}
	return o, err
}

func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := s.getOne(ctx, "order_number = $1", strings.TrimSpace(orderNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
	}
	return o, err
}

func (s *orderService) getOne(ctx context.Context, where string, arg any) (*Order, error) {
	table, err := s.pricing.GetPricingTable(ctx)
	if err != nil {
		return nil, err
	}
	o, err := scanOrder(s.pool.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE "+where+" AND is_deleted = false", arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if err := attachFinancials(o, table); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *orderService) GetOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	where := []string{"is_deleted = $1"}
	args := []any{filter.Deleted}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PaymentStatus != nil {
		args = append(args, *filter.PaymentStatus)
		where = append(where, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	return s.listOrders(ctx, strings.Join(where, " AND "), args...)
}

func (s *orderService) LookupOrders(ctx context.Context, phone, name string) ([]Order, error) {
	phone = strings.TrimSpace(phone)
	name = strings.TrimSpace(name)
	if phone == "" && name == "" {
		return nil, validationErrorf("phone or name is required")
	}

	where := []string{"is_deleted = false"}
	var args []any
	if phone != "" {
		normalized, err := NormalizePhone(phone)
		if err != nil {
			return nil, err
		}
		args = append(args, normalized)
		where = append(where, fmt.Sprintf("customer_phone = $%d", len(args)))
	}
	if name != "" {
		args = append(args, name)
		where = append(where, fmt.Sprintf("customer_name = $%d", len(args)))
	}

	orders, err := s.listOrders(ctx, strings.Join(where, " AND "), args...)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: no orders for the given customer", ErrNotFound)
	}
	return orders, nil
}

func (s *orderService) listOrders(ctx context.Context, where string, args ...any) ([]Order, error) {
	table, err := s.pricing.GetPricingTable(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE "+where+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := attachFinancials(&orders[i], table); err != nil {
			return nil, fmt.Errorf("order %s: %w", orders[i].OrderNumber, err)
		}
	}
	return orders, nil
}
