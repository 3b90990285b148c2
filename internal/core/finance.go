package core

import (
	"github.com/shopspring/decimal"
)

// Financials are the derived money fields of an order.
type Financials struct {
	TotalCost   decimal.Decimal `json:"total_cost"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	NetProfit   decimal.Decimal `json:"net_profit"`
}

// unitCost returns the per-order override for box lines when present, else the table cost.
func unitCost(o *Order, code string, table *PricingTable) (decimal.Decimal, error) {
	switch {
	case code == ProductSmallBox && o.SmallBoxCost != nil:
		return *o.SmallBoxCost, nil
	case code == ProductLargeBox && o.LargeBoxCost != nil:
		return *o.LargeBoxCost, nil
	}
	e, err := table.Entry(code)
	if err != nil {
		return decimal.Zero, err
	}
	return e.UnitCost, nil
}

// Derive computes cost, shipping and profit for o against the current pricing table.
// Inactive products still carry their cost so historical orders derive cleanly.
func Derive(o *Order, table *PricingTable) (Financials, error) {
	q := o.Quantities()

	totalCost := decimal.Zero
	for code, qty := range q.Lines() {
		c, err := unitCost(o, code, table)
		if err != nil {
			return Financials{}, err
		}
		totalCost = totalCost.Add(c.Mul(decimal.NewFromInt(int64(qty))))
	}

	shipping, err := table.ShippingFee(q)
	if err != nil {
		return Financials{}, err
	}

	paid := decimal.Zero
	if o.ActualPaidAmount != nil {
		paid = *o.ActualPaidAmount
	}

	return Financials{
		TotalCost:   totalCost,
		ShippingFee: shipping,
		NetProfit:   paid.Sub(totalCost).Sub(shipping),
	}, nil
}

// attachFinancials overwrites the derived fields of o in place.
func attachFinancials(o *Order, table *PricingTable) error {
	f, err := Derive(o, table)
	if err != nil {
		return err
	}
	o.TotalCost = f.TotalCost
	o.ShippingFee = f.ShippingFee
	o.NetProfit = f.NetProfit
	return nil
}

// Quote is the customer-facing price of a set of quantities.
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// QuoteTotal prices q at the table's unit prices plus shipping.
func QuoteTotal(q Quantities, table *PricingTable) (Quote, error) {
	subtotal := decimal.Zero
	for code, qty := range q.Lines() {
		e, err := table.Entry(code)
		if err != nil {
			return Quote{}, err
		}
		subtotal = subtotal.Add(e.UnitPrice.Mul(decimal.NewFromInt(int64(qty))))
	}
	shipping, err := table.ShippingFee(q)
	if err != nil {
		return Quote{}, err
	}
	total := subtotal.Add(shipping)
	if err := validateAmount("order total", total); err != nil {
		return Quote{}, err
	}
	return Quote{Subtotal: subtotal, ShippingFee: shipping, Total: total}, nil
}
