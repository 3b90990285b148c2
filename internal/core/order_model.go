package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment axis of an order.
//
//	pending → scheduled → delivered
//
// Every status is reachable from every other one; see transitionPolicy for the
// fields each target resets.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusScheduled OrderStatus = "scheduled"
	OrderStatusDelivered OrderStatus = "delivered"
)

// Valid reports whether s is a known fulfillment status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusScheduled, OrderStatusDelivered:
		return true
	}
	return false
}

// PaymentStatus is the reconciliation axis of an order, independent of OrderStatus.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusConfirmed, PaymentStatusRefunded:
		return true
	}
	return false
}

// countsAsPaid reports whether an order in this payment status contributes to customer spend.
func (s PaymentStatus) countsAsPaid() bool {
	return s == PaymentStatusConfirmed || s == PaymentStatusPartial
}

// Order is a customer order as stored in the orders table.
// TotalCost and NetProfit are attached on every read from the current pricing
// table; they are never read back from storage.
type Order struct {
	ID            int    `json:"id"`
	OrderNumber   string `json:"order_number"` // YYMMDD-N, assigned once at creation
	UserID        *int   `json:"user_id,omitempty"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"` // digits only
	Address       string `json:"address"`
	AddressDetail string `json:"address_detail"`
	Zipcode       string `json:"zipcode"`
	Memo          string `json:"memo"`

	SmallBoxQuantity int            `json:"small_box_quantity"`
	LargeBoxQuantity int            `json:"large_box_quantity"`
	WrappingQuantity int            `json:"wrapping_quantity"`
	ExtraQuantities  map[string]int `json:"extra_quantities"` // keyed by product code

	TotalAmount      decimal.Decimal  `json:"total_amount"`
	ShippingFee      decimal.Decimal  `json:"shipping_fee"`
	ActualPaidAmount *decimal.Decimal `json:"actual_paid_amount,omitempty"`
	DiscountAmount   *decimal.Decimal `json:"discount_amount,omitempty"`
	DiscountReason   *string          `json:"discount_reason,omitempty"`

	SmallBoxCost *decimal.Decimal `json:"small_box_cost,omitempty"` // per-order override
	LargeBoxCost *decimal.Decimal `json:"large_box_cost,omitempty"` // per-order override
	TotalCost    decimal.Decimal  `json:"total_cost"`
	NetProfit    decimal.Decimal  `json:"net_profit"`

	Status             OrderStatus   `json:"status"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
	ScheduledDate      *time.Time    `json:"scheduled_date,omitempty"`
	DeliveredDate      *time.Time    `json:"delivered_date,omitempty"`
	SellerShipped      bool          `json:"seller_shipped"`
	SellerShippedDate  *time.Time    `json:"seller_shipped_date,omitempty"`
	PaymentConfirmedAt *time.Time    `json:"payment_confirmed_at,omitempty"`

	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Quantities returns the line-item quantities of the order.
func (o *Order) Quantities() Quantities {
	return Quantities{
		SmallBox: o.SmallBoxQuantity,
		LargeBox: o.LargeBoxQuantity,
		Wrapping: o.WrappingQuantity,
		Extras:   o.ExtraQuantities,
	}
}

// Editable reports whether the customer may still change the order:
// nothing has been scheduled and no payment has been recorded.
func (o *Order) Editable() bool {
	return o.Status == OrderStatusPending && o.PaymentStatus == PaymentStatusPending
}

// Quantities are the per-line unit counts of an order.
type Quantities struct {
	SmallBox int            `json:"small_box"`
	LargeBox int            `json:"large_box"`
	Wrapping int            `json:"wrapping"`
	Extras   map[string]int `json:"extras,omitempty"`
}

// Lines flattens the quantities into product code → quantity, dropping zero lines.
func (q Quantities) Lines() map[string]int {
	lines := make(map[string]int, 3+len(q.Extras))
	if q.SmallBox != 0 {
		lines[ProductSmallBox] = q.SmallBox
	}
	if q.LargeBox != 0 {
		lines[ProductLargeBox] = q.LargeBox
	}
	if q.Wrapping != 0 {
		lines[ProductWrapping] = q.Wrapping
	}
	for code, qty := range q.Extras {
		if qty != 0 {
			lines[code] = qty
		}
	}
	return lines
}

// OrderInput carries the customer-supplied fields of an order, used both by the
// public intake flow and by edits inside the editable window.
type OrderInput struct {
	CustomerName  string
	CustomerPhone string
	Address       string
	AddressDetail string
	Zipcode       string
	Memo          string
	UserID        *int
	Quantities    Quantities
	ScheduledDate *time.Time
}

// OrderFilter narrows GetOrders. Zero value lists every non-deleted order.
type OrderFilter struct {
	Status        *OrderStatus
	PaymentStatus *PaymentStatus
	Deleted       bool // true lists the trash instead
}

// PaymentUpdate is a staff request to change an order's payment status.
type PaymentUpdate struct {
	Status           PaymentStatus
	ActualPaidAmount *decimal.Decimal
	DiscountReason   *string
	Intent           DiscountIntent
}
