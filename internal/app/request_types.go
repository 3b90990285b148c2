package app

import (
	"time"

	"github.com/shopspring/decimal"

	"yugwa-orders/internal/core"
)

// Actor is the authenticated staff member performing an action.
type Actor struct {
	UserID int
	Role   string
}

// SystemActor is used by maintenance commands that run outside a staff session.
var SystemActor = Actor{Role: core.RoleAdmin}

// PlaceOrderRequest is the input for creating or editing an order.
type PlaceOrderRequest struct {
	CustomerName     string         `json:"customer_name"`
	CustomerPhone    string         `json:"customer_phone"`
	Address          string         `json:"address"`
	AddressDetail    string         `json:"address_detail"`
	Zipcode          string         `json:"zipcode"`
	Memo             string         `json:"memo"`
	SmallBoxQuantity int            `json:"small_box_quantity"`
	LargeBoxQuantity int            `json:"large_box_quantity"`
	WrappingQuantity int            `json:"wrapping_quantity"`
	ExtraQuantities  map[string]int `json:"extra_quantities"`
	ScheduledDate    *time.Time     `json:"scheduled_date"`
	UserID           *int           `json:"user_id"`
}

func (r PlaceOrderRequest) toInput() core.OrderInput {
	return core.OrderInput{
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Address:       r.Address,
		AddressDetail: r.AddressDetail,
		Zipcode:       r.Zipcode,
		Memo:          r.Memo,
		UserID:        r.UserID,
		ScheduledDate: r.ScheduledDate,
		Quantities: core.Quantities{
			SmallBox: r.SmallBoxQuantity,
			LargeBox: r.LargeBoxQuantity,
			Wrapping: r.WrappingQuantity,
			Extras:   r.ExtraQuantities,
		},
	}
}

// ChangeStatusRequest moves an order to Status. DeliveredDate is only read for delivered.
type ChangeStatusRequest struct {
	OrderID       int
	Status        core.OrderStatus
	DeliveredDate *time.Time
}

// SellerShippedRequest toggles the carrier hand-off flag.
type SellerShippedRequest struct {
	OrderID int
	Shipped bool
	Date    *time.Time // nil means now
}

// UpdatePaymentRequest is the input for payment reconciliation.
type UpdatePaymentRequest struct {
	OrderID          int
	Status           core.PaymentStatus
	ActualPaidAmount *decimal.Decimal
	DiscountReason   *string
	Intent           core.DiscountIntent
}

// CostOverrideRequest sets per-order box costs; nil clears an override.
type CostOverrideRequest struct {
	OrderID      int
	SmallBoxCost *decimal.Decimal
	LargeBoxCost *decimal.Decimal
}
