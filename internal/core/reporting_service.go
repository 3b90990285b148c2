package core

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// MonthSummary aggregates the orders created in one calendar month (shop time zone).
type MonthSummary struct {
	Month       string          `json:"month"` // YYYY-MM
	OrderCount  int             `json:"order_count"`
	Revenue     decimal.Decimal `json:"revenue"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	NetProfit   decimal.Decimal `json:"net_profit"`
}

// OrderSummary is the reporting view over a set of live orders.
// Revenue counts only received money: ActualPaidAmount, or TotalAmount for
// confirmed and partial orders without a recorded amount.
type OrderSummary struct {
	From            *time.Time            `json:"from,omitempty"`
	To              *time.Time            `json:"to,omitempty"`
	OrderCount      int                   `json:"order_count"`
	ByStatus        map[OrderStatus]int   `json:"by_status"`
	ByPaymentStatus map[PaymentStatus]int `json:"by_payment_status"`
	Billed          decimal.Decimal       `json:"billed"`      // Σ TotalAmount
	Revenue         decimal.Decimal       `json:"revenue"`     // Σ received
	Outstanding     decimal.Decimal       `json:"outstanding"` // Σ TotalAmount of pending payments
	Discounts       decimal.Decimal       `json:"discounts"`
	TotalCost       decimal.Decimal       `json:"total_cost"`
	ShippingFee     decimal.Decimal       `json:"shipping_fee"`
	NetProfit       decimal.Decimal       `json:"net_profit"`
	Months          []MonthSummary        `json:"months"`
}

// ReportPeriod bounds a report by order creation time. Nil bounds are open;
// To is exclusive.
type ReportPeriod struct {
	From *time.Time
	To   *time.Time
}

func (p ReportPeriod) contains(t time.Time) bool {
	if p.From != nil && t.Before(*p.From) {
		return false
	}
	if p.To != nil && !t.Before(*p.To) {
		return false
	}
	return true
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only reporting over orders with derived financials attached.
type ReportingService interface {
	// GetOrderReport returns every live order created within period, newest first.
	GetOrderReport(ctx context.Context, period ReportPeriod) ([]Order, error)

	// GetSummary aggregates the live orders created within period.
	GetSummary(ctx context.Context, period ReportPeriod) (*OrderSummary, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	orders OrderService
	loc    *time.Location
}

// NewReportingService constructs a ReportingService reading through orders.
// loc decides month boundaries; nil means UTC.
func NewReportingService(orders OrderService, loc *time.Location) ReportingService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportingService{orders: orders, loc: loc}
}

func (s *reportingService) GetOrderReport(ctx context.Context, period ReportPeriod) ([]Order, error) {
	all, err := s.orders.GetOrders(ctx, OrderFilter{})
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, o := range all {
		if period.contains(o.CreatedAt) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *reportingService) GetSummary(ctx context.Context, period ReportPeriod) (*OrderSummary, error) {
	orders, err := s.GetOrderReport(ctx, period)
	if err != nil {
		return nil, err
	}
	sum := SummarizeOrders(orders, s.loc)
	sum.From = period.From
	sum.To = period.To
	return sum, nil
}

// receivedAmount is the money an order has brought in so far. A refund returns it all.
func receivedAmount(o *Order) decimal.Decimal {
	if o.PaymentStatus == PaymentStatusRefunded {
		return decimal.Zero
	}
	if o.ActualPaidAmount != nil {
		return *o.ActualPaidAmount
	}
	if o.PaymentStatus.countsAsPaid() {
		return o.TotalAmount
	}
	return decimal.Zero
}

// SummarizeOrders aggregates orders whose financials are already attached.
// Trashed orders are skipped.
func SummarizeOrders(orders []Order, loc *time.Location) *OrderSummary {
	sum := &OrderSummary{
		ByStatus:        map[OrderStatus]int{},
		ByPaymentStatus: map[PaymentStatus]int{},
		Months:          []MonthSummary{},
	}
	months := map[string]*MonthSummary{}

	for i := range orders {
		o := &orders[i]
		if o.IsDeleted {
			continue
		}
		received := receivedAmount(o)

		sum.OrderCount++
		sum.ByStatus[o.Status]++
		sum.ByPaymentStatus[o.PaymentStatus]++
		sum.Billed = sum.Billed.Add(o.TotalAmount)
		sum.Revenue = sum.Revenue.Add(received)
		if o.PaymentStatus == PaymentStatusPending {
			sum.Outstanding = sum.Outstanding.Add(o.TotalAmount)
		}
		if o.DiscountAmount != nil {
			sum.Discounts = sum.Discounts.Add(*o.DiscountAmount)
		}
		sum.TotalCost = sum.TotalCost.Add(o.TotalCost)
		sum.ShippingFee = sum.ShippingFee.Add(o.ShippingFee)
		sum.NetProfit = sum.NetProfit.Add(o.NetProfit)

		key := o.CreatedAt.In(loc).Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthSummary{Month: key}
			months[key] = m
		}
		m.OrderCount++
		m.Revenue = m.Revenue.Add(received)
		m.TotalCost = m.TotalCost.Add(o.TotalCost)
		m.ShippingFee = m.ShippingFee.Add(o.ShippingFee)
		m.NetProfit = m.NetProfit.Add(o.NetProfit)
	}

	for _, m := range months {
		sum.Months = append(sum.Months, *m)
	}
	sort.Slice(sum.Months, func(i, j int) bool { return sum.Months[i].Month < sum.Months[j].Month })
	return sum
}
