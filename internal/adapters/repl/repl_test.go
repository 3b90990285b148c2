package repl

import (
	"bytes"
	"context"
	"strings"
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
	order   core.Order
	placed  *app.PlaceOrderRequest
	payment *app.UpdatePaymentRequest
	status  *app.ChangeStatusRequest
	purged  []int
}

func (f *fakeApp) GetOrder(_ context.Context, ref string) (*app.OrderResult, error) {
	if ref != f.order.OrderNumber {
		return nil, core.ErrNotFound
	}
	o := f.order
	return &app.OrderResult{Order: &o}, nil
}

func (f *fakeApp) GetPricing(context.Context) (*core.PricingTable, error) {
	return &core.PricingTable{
		Entries: map[string]core.PriceEntry{
			core.ProductSmallBox: {Code: core.ProductSmallBox, UnitPrice: decimal.NewFromInt(20000), CountsForShipping: true, IsActive: true},
			core.ProductLargeBox: {Code: core.ProductLargeBox, UnitPrice: decimal.NewFromInt(30000), CountsForShipping: true, IsActive: true},
			core.ProductWrapping: {Code: core.ProductWrapping, UnitPrice: decimal.NewFromInt(1000), IsActive: true},
		},
		Shipping: core.ShippingRule{FlatFee: decimal.NewFromInt(4000), FreeThreshold: 6},
	}, nil
}

func (f *fakeApp) PlaceOrder(_ context.Context, req app.PlaceOrderRequest) (*app.OrderResult, error) {
	f.placed = &req
	o := f.order
	return &app.OrderResult{Order: &o}, nil
}

func (f *fakeApp) ChangeStatus(_ context.Context, actor app.Actor, req app.ChangeStatusRequest) (*app.OrderResult, error) {
	f.status = &req
	o := f.order
	o.Status = req.Status
	return &app.OrderResult{Order: &o}, nil
}

func (f *fakeApp) UpdatePayment(_ context.Context, actor app.Actor, req app.UpdatePaymentRequest) (*core.PaymentResult, error) {
	f.payment = &req
	o := f.order
	diff := decimal.NewFromInt(5000)
	reason := "부분입금: 5,000원 미입금"
	return &core.PaymentResult{Order: &o, Reconciliation: core.Reconciliation{
		Outcome: core.OutcomePartial, RequestedStatus: req.Status, Status: core.PaymentStatusPartial,
		Difference: diff, DiscountReason: &reason,
	}}, nil
}

func (f *fakeApp) PurgeOrder(_ context.Context, actor app.Actor, id int) error {
	f.purged = append(f.purged, id)
	return nil
}

func runConsole(t *testing.T, fake *fakeApp, input string) string {
	t.Helper()
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	var out bytes.Buffer
	New(fake, strings.NewReader(input), &out, seoul).Run(context.Background())
	return out.String()
}

func newFake() *fakeApp {
	return &fakeApp{order: core.Order{ID: 3, OrderNumber: "260307-3", TotalAmount: decimal.NewFromInt(50000)}}
}

func TestConsole_NewOrderWizard(t *testing.T) {
	fake := newFake()
	input := strings.Join([]string{
		"/new-order",
		"김영희", "010-1234-5678", "서울시 종로구", "101호", "03000",
		"2", "", "x", "1",
		"",
		"y",
		"/exit",
	}, "\n") + "\n"
	out := runConsole(t, fake, input)

	require.NotNil(t, fake.placed)
	assert.Equal(t, "김영희", fake.placed.CustomerName)
	assert.Equal(t, 2, fake.placed.SmallBoxQuantity)
	assert.Equal(t, 0, fake.placed.LargeBoxQuantity)
	assert.Equal(t, 1, fake.placed.WrappingQuantity)
	assert.Contains(t, out, "Enter a whole number")
	assert.Contains(t, out, "= 45,000원")
	assert.Contains(t, out, "Order created: 260307-3")
}

func TestConsole_NewOrderCancel(t *testing.T) {
	fake := newFake()
	out := runConsole(t, fake, "/new-order\ncancel\n")
	assert.Nil(t, fake.placed)
	assert.Contains(t, out, "cancelled")
}

func TestConsole_PayParsesIntentAndReason(t *testing.T) {
	fake := newFake()
	out := runConsole(t, fake, "/pay 260307-3 confirmed 45,000 shortfall 계좌 확인 필요\n")

	require.NotNil(t, fake.payment)
	assert.Equal(t, 3, fake.payment.OrderID)
	assert.Equal(t, core.PaymentStatusConfirmed, fake.payment.Status)
	assert.Equal(t, "45000", fake.payment.ActualPaidAmount.String())
	assert.Equal(t, core.DiscountIntentShortfall, fake.payment.Intent)
	require.NotNil(t, fake.payment.DiscountReason)
	assert.Equal(t, "계좌 확인 필요", *fake.payment.DiscountReason)
	assert.Contains(t, out, "requested confirmed, stored partial")
}

func TestConsole_StatusWithDate(t *testing.T) {
	fake := newFake()
	runConsole(t, fake, "/status 3 delivered 2026-03-09\n")

	require.NotNil(t, fake.status)
	assert.Equal(t, 3, fake.status.OrderID)
	assert.Equal(t, core.OrderStatusDelivered, fake.status.Status)
	require.NotNil(t, fake.status.DeliveredDate)
	assert.Equal(t, "2026-03-09", fake.status.DeliveredDate.Format(dateLayout))
}

func TestConsole_PurgeAsksForConfirmation(t *testing.T) {
	fake := newFake()
	runConsole(t, fake, "/purge 3\nn\n/purge 3\ny\n")
	assert.Equal(t, []int{3}, fake.purged)
}

func TestConsole_ErrorsAndUnknownInput(t *testing.T) {
	fake := newFake()
	out := runConsole(t, fake, "hello\n/order 260307-9\n/bogus\n")
	assert.Contains(t, out, "Commands start with '/'")
	assert.Contains(t, out, "[console] Error: not found")
	assert.Contains(t, out, "Unknown command: /bogus")
}
