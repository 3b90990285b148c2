package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yugwa-orders/internal/app"
	"yugwa-orders/internal/core"
)

type fakeApp struct {
	app.ApplicationService
	filter core.OrderFilter
	period core.ReportPeriod
}

func (f *fakeApp) ListOrders(_ context.Context, filter core.OrderFilter) (*app.OrderListResult, error) {
	f.filter = filter
	orders := []core.Order{{
		OrderNumber:      "260307-1",
		CustomerName:     "김영희",
		CustomerPhone:    "01012345678",
		SmallBoxQuantity: 2,
		TotalAmount:      decimal.NewFromInt(50000),
		Status:           core.OrderStatusPending,
		PaymentStatus:    core.PaymentStatusPending,
		CreatedAt:        time.Date(2026, 3, 6, 16, 0, 0, 0, time.UTC),
	}}
	return &app.OrderListResult{Orders: orders, Count: 1}, nil
}

func (f *fakeApp) ListTrash(context.Context) (*app.OrderListResult, error) {
	return &app.OrderListResult{Orders: []core.Order{}}, nil
}

func (f *fakeApp) GetSummary(_ context.Context, period core.ReportPeriod) (*core.OrderSummary, error) {
	f.period = period
	return &core.OrderSummary{
		From:       period.From,
		To:         period.To,
		OrderCount: 3,
		Billed:     decimal.NewFromInt(150000),
		Revenue:    decimal.NewFromInt(95000),
		Months:     []core.MonthSummary{{Month: "2026-03", OrderCount: 3, Revenue: decimal.NewFromInt(95000)}},
	}, nil
}

func (f *fakeApp) RecomputeCustomers(context.Context) (int, error) { return 4, nil }

func newTestRunner(t *testing.T) (*Runner, *fakeApp, *bytes.Buffer) {
	t.Helper()
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	fake := &fakeApp{}
	var out bytes.Buffer
	return NewRunner(fake, &out, seoul), fake, &out
}

func TestRun_Orders(t *testing.T) {
	r, fake, out := newTestRunner(t)
	require.NoError(t, r.Run(context.Background(), []string{"orders", "pending"}))

	require.NotNil(t, fake.filter.Status)
	assert.Equal(t, core.OrderStatusPending, *fake.filter.Status)
	assert.Contains(t, out.String(), "260307-1")
	assert.Contains(t, out.String(), "50,000원")
	assert.Contains(t, out.String(), "2026-03-07", "created date is shown in the shop time zone")
	assert.Contains(t, out.String(), "1 orders")
}

func TestRun_OrdersRejectsUnknownStatus(t *testing.T) {
	r, _, _ := newTestRunner(t)
	err := r.Run(context.Background(), []string{"orders", "shipped"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestRun_EmptyTrash(t *testing.T) {
	r, _, out := newTestRunner(t)
	require.NoError(t, r.Run(context.Background(), []string{"trash"}))
	assert.Equal(t, "No orders found.\n", out.String())
}

func TestRun_SummaryPeriod(t *testing.T) {
	r, fake, out := newTestRunner(t)
	require.NoError(t, r.Run(context.Background(), []string{"summary", "2026-03-01", "2026-03-31"}))

	require.NotNil(t, fake.period.From)
	require.NotNil(t, fake.period.To)
	assert.Equal(t, "2026-04-01", fake.period.To.Format(dateLayout))
	assert.Contains(t, out.String(), "2026-03-01 ~ 2026-03-31")
	assert.Contains(t, out.String(), "95,000원")
	assert.Contains(t, out.String(), "2026-03")

	err := r.Run(context.Background(), []string{"summary", "March"})
	assert.Error(t, err)
}

func TestRun_RecomputeAndUnknown(t *testing.T) {
	r, _, out := newTestRunner(t)
	require.NoError(t, r.Run(context.Background(), []string{"recompute-customers"}))
	assert.Contains(t, out.String(), "4 customers")

	err := r.Run(context.Background(), []string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")

	assert.Error(t, r.Run(context.Background(), nil))
}
