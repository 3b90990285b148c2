package app

import "yugwa-orders/internal/core"

// OrderResult is returned by single-order operations.
type OrderResult struct {
	Order *core.Order `json:"order"`
}

// OrderListResult is returned by order listings.
type OrderListResult struct {
	Orders []core.Order `json:"orders"`
	Count  int          `json:"count"`
}

func newOrderList(orders []core.Order) *OrderListResult {
	if orders == nil {
		orders = []core.Order{}
	}
	return &OrderListResult{Orders: orders, Count: len(orders)}
}

// CustomerResult is returned by single-customer operations.
type CustomerResult struct {
	Customer *core.Customer `json:"customer"`
}

// CustomerListResult is returned by ListCustomers.
type CustomerListResult struct {
	Customers []core.Customer `json:"customers"`
}

// UserSession is returned on successful authentication.
type UserSession struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// UserResult is a staff profile without credentials.
type UserResult struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
}
