package app

import (
	"context"
	"time"

	"yugwa-orders/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ── Public intake ────────────────────────────────────────────────────────

	// PlaceOrder creates an order from the public order form.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResult, error)

	// LookupOrders returns a customer's live orders by phone and/or name.
	// No match is core.ErrNotFound, not an empty list.
	LookupOrders(ctx context.Context, phone, name string) (*OrderListResult, error)

	// ── Staff: orders ────────────────────────────────────────────────────────

	// ListOrders returns orders matching filter, newest first, with financials attached.
	ListOrders(ctx context.Context, filter core.OrderFilter) (*OrderListResult, error)

	// GetOrder returns a single order by numeric ID or order number string.
	GetOrder(ctx context.Context, ref string) (*OrderResult, error)

	// EditOrder replaces customer fields and quantities while the order is still editable.
	EditOrder(ctx context.Context, actor Actor, orderID int, req PlaceOrderRequest) (*OrderResult, error)

	// ChangeStatus moves an order to another fulfillment status. Only admins may
	// mark an order delivered.
	ChangeStatus(ctx context.Context, actor Actor, req ChangeStatusRequest) (*OrderResult, error)

	// SetScheduledDate sets or clears the scheduled date of an order that is not yet delivered.
	SetScheduledDate(ctx context.Context, actor Actor, orderID int, date *time.Time) (*OrderResult, error)

	// SetDeliveredDate corrects the delivered date. Admin only.
	SetDeliveredDate(ctx context.Context, actor Actor, orderID int, date time.Time) (*OrderResult, error)

	// SetSellerShipped records or withdraws the carrier hand-off.
	SetSellerShipped(ctx context.Context, actor Actor, req SellerShippedRequest) (*OrderResult, error)

	// UpdatePayment reconciles a payment. The stored status may differ from the
	// requested one; see core.Reconciliation.
	UpdatePayment(ctx context.Context, actor Actor, req UpdatePaymentRequest) (*core.PaymentResult, error)

	// SetCostOverrides sets or clears per-order box costs.
	SetCostOverrides(ctx context.Context, actor Actor, req CostOverrideRequest) (*OrderResult, error)

	// ── Staff: trash ─────────────────────────────────────────────────────────

	TrashOrder(ctx context.Context, actor Actor, orderID int) (*OrderResult, error)
	RestoreOrder(ctx context.Context, actor Actor, orderID int) (*OrderResult, error)
	// PurgeOrder permanently deletes a trashed order. Admin only.
	PurgeOrder(ctx context.Context, actor Actor, orderID int) error
	ListTrash(ctx context.Context) (*OrderListResult, error)

	// ── Staff: customers ─────────────────────────────────────────────────────

	ListCustomers(ctx context.Context, deleted bool) (*CustomerListResult, error)
	TrashCustomer(ctx context.Context, actor Actor, phone string) (*CustomerResult, error)
	RestoreCustomer(ctx context.Context, actor Actor, phone string) (*CustomerResult, error)
	// RecomputeCustomers rebuilds every customer's statistics from their orders.
	RecomputeCustomers(ctx context.Context) (int, error)

	// ── Reporting and pricing ────────────────────────────────────────────────

	GetOrderReport(ctx context.Context, period core.ReportPeriod) (*OrderListResult, error)
	GetSummary(ctx context.Context, period core.ReportPeriod) (*core.OrderSummary, error)
	GetPricing(ctx context.Context) (*core.PricingTable, error)
	// UpdatePrice and UpdateShippingRule are admin only.
	UpdatePrice(ctx context.Context, actor Actor, entry core.PriceEntry) (*core.PricingTable, error)
	UpdateShippingRule(ctx context.Context, actor Actor, rule core.ShippingRule) (*core.PricingTable, error)

	// ── Auth ─────────────────────────────────────────────────────────────────

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)
}
