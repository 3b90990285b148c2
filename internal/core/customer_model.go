package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the address-book summary of everyone who ordered under one phone number.
// OrderCount, TotalSpent and LastOrderDate are written only by the statistics
// aggregator and always equal ComputeCustomerStats over the current non-deleted orders.
type Customer struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	AddressDetail string          `json:"address_detail"`
	Zipcode       string          `json:"zipcode"`
	UserID        *int            `json:"user_id,omitempty"`
	OrderCount    int             `json:"order_count"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	LastOrderDate *time.Time      `json:"last_order_date,omitempty"`
	IsDeleted     bool            `json:"is_deleted"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CustomerStats is the aggregate derived from one phone number's orders.
type CustomerStats struct {
	OrderCount    int
	TotalSpent    decimal.Decimal
	LastOrderDate *time.Time
}
