package core_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"yugwa-orders/internal/core"
	"yugwa-orders/internal/metrics"
	"yugwa-orders/migrations"
)

// fixedClock returns a clock frozen at t that can be advanced by tests.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	clock     *fixedClock
	pricing   core.PricingService
	customers core.CustomerService
	orders    core.OrderService
	metrics   *metrics.Metrics
}

var seoul = time.FixedZone("KST", 9*60*60)

// setupTestDB migrates the test database, wipes orders and customers, and
// resets the pricing table to the shipped defaults.
func setupTestDB(t *testing.T) *testEnv {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(pool.Close)

	_, err = migrations.Apply(ctx, pool, nil)
	require.NoError(t, err, "apply migrations")

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE orders, customers, users RESTART IDENTITY CASCADE;
		DELETE FROM product_prices;
		INSERT INTO product_prices (code, name, unit_price, unit_cost, counts_for_shipping, is_active) VALUES
			('small_box', '소박스', 20000, 12000, true, true),
			('large_box', '대박스', 30000, 18000, true, true),
			('wrapping', '보자기 포장', 1000, 500, false, true),
			('gift_set', '선물세트', 46000, 30000, true, true);
		INSERT INTO shipping_settings (id, flat_fee, free_threshold) VALUES (1, 4000, 6)
		ON CONFLICT (id) DO UPDATE SET flat_fee = EXCLUDED.flat_fee, free_threshold = EXCLUDED.free_threshold;
	`)
	require.NoError(t, err, "seed test database")

	clock := &fixedClock{t: time.Date(2026, 3, 7, 1, 0, 0, 0, time.UTC)}
	m := metrics.New()
	pricing := core.NewPricingService(pool)
	customers := core.NewCustomerService(pool, nil, m)
	orders := core.NewOrderService(core.OrderServiceDeps{
		Pool:      pool,
		Pricing:   pricing,
		Customers: customers,
		Metrics:   m,
		Clock:     clock.Now,
		Location:  seoul,
		// every concurrent creator may lose at most once per rival
		NumberRetryAttempts: 20,
	})
	return &testEnv{ctx: ctx, pool: pool, clock: clock, pricing: pricing, customers: customers, orders: orders, metrics: m}
}

func orderInput(name, phone string, q core.Quantities) core.OrderInput {
	return core.OrderInput{
		CustomerName:  name,
		CustomerPhone: phone,
		Address:       "서울시 종로구 1",
		Quantities:    q,
	}
}

// giftSet prices to exactly 50000 with shipping.
var giftSet = core.Quantities{Extras: map[string]int{"gift_set": 1}}

func TestOrderService_CreateAssignsDateScopedNumbers(t *testing.T) {
	env := setupTestDB(t)

	var numbers []string
	for i := 0; i < 3; i++ {
		o, err := env.orders.CreateOrder(env.ctx, orderInput("김철수", "010-1111-2222", core.Quantities{SmallBox: 1}))
		require.NoError(t, err)
		numbers = append(numbers, o.OrderNumber)
	}
	assert.Equal(t, []string{"260307-1", "260307-2", "260307-3"}, numbers)

	// 16:00 UTC is the next day in Seoul.
	env.clock.Advance(15 * time.Hour)
	o, err := env.orders.CreateOrder(env.ctx, orderInput("김철수", "01011112222", core.Quantities{SmallBox: 1}))
	require.NoError(t, err)
	assert.Equal(t, "260308-1", o.OrderNumber)
}

func TestOrderService_CreateComputesTotals(t *testing.T) {
	env := setupTestDB(t)

	o, err := env.orders.CreateOrder(env.ctx, orderInput("이영희", "010-2222-3333",
		core.Quantities{SmallBox: 1, LargeBox: 1, Wrapping: 2}))
	require.NoError(t, err)

	assert.Equal(t, "01022223333", o.CustomerPhone)
	assert.Equal(t, core.OrderStatusPending, o.Status)
	assert.Equal(t, core.PaymentStatusPending, o.PaymentStatus)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(56000)), "total %s", o.TotalAmount)
	assert.True(t, o.ShippingFee.Equal(decimal.NewFromInt(4000)))
	assert.True(t, o.TotalCost.Equal(decimal.NewFromInt(12000+18000+1000)))
	assert.NotNil(t, o.ExtraQuantities)

	c, err := env.customers.GetCustomerByPhone(env.ctx, "01022223333")
	require.NoError(t, err)
	assert.Equal(t, "이영희", c.Name)
	assert.Equal(t, 1, c.OrderCount)
	assert.True(t, c.TotalSpent.IsZero())
}

func TestOrderService_CreateRejectsInvalidInput(t *testing.T) {
	env := setupTestDB(t)

	_, err := env.orders.CreateOrder(env.ctx, orderInput("", "010-1111-2222", core.Quantities{SmallBox: 1}))
	assert.True(t, errors.Is(err, core.ErrValidation))

	_, err = env.orders.CreateOrder(env.ctx, orderInput("김", "010-1111-2222", core.Quantities{SmallBox: -1}))
	assert.True(t, errors.Is(err, core.ErrValidation))

	_, err = env.orders.CreateOrder(env.ctx, orderInput("김", "010-1111-2222",
		core.Quantities{Extras: map[string]int{"nope": 1}}))
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestOrderService_ConcurrentCreateUniqueNumbers(t *testing.T) {
	env := setupTestDB(t)

	const n = 12
	numbers := make([]string, n)
	g, ctx := errgroup.WithContext(env.ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			phone := fmt.Sprintf("0105555%04d", i)
			o, err := env.orders.CreateOrder(ctx, orderInput("동시주문", phone, core.Quantities{SmallBox: 1}))
			if err != nil {
				return err
			}
			numbers[i] = o.OrderNumber
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]bool, n)
	for _, num := range numbers {
		assert.False(t, seen[num], "duplicate order number %s", num)
		seen[num] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("260307-%d", i)], "missing 260307-%d", i)
	}
}

func TestOrderService_NumberReusesPurgedGap(t *testing.T) {
	env := setupTestDB(t)

	var ids []int
	for i := 0; i < 3; i++ {
		o, err := env.orders.CreateOrder(env.ctx, orderInput("박", "010-3333-4444", core.Quantities{SmallBox: 1}))
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}

	// trashed numbers stay reserved
	_, err := env.orders.DeleteOrder(env.ctx, ids[1])
	require.NoError(t, err)
	o, err := env.orders.CreateOrder(env.ctx, orderInput("박", "010-3333-4444", core.Quantities{SmallBox: 1}))
	require.NoError(t, err)
	assert.Equal(t, "260307-4", o.OrderNumber)

	require.NoError(t, env.orders.PurgeOrder(env.ctx, ids[1]))
	o, err = env.orders.CreateOrder(env.ctx, orderInput("박", "010-3333-4444", core.Quantities{SmallBox: 1}))
	require.NoError(t, err)
	assert.Equal(t, "260307-2", o.OrderNumber)
}

func TestOrderService_PaymentReconciliation(t *testing.T) {
	env := setupTestDB(t)

	create := func() *core.Order {
		o, err := env.orders.CreateOrder(env.ctx, orderInput("최", "010-4444-5555", giftSet))
		require.NoError(t, err)
		require.True(t, o.TotalAmount.Equal(decimal.NewFromInt(50000)), "total %s", o.TotalAmount)
		return o
	}
	amount := func(v int64) *decimal.Decimal { x := decimal.NewFromInt(v); return &x }
	reason := func(s string) *string { return &s }

	t.Run("exact", func(t *testing.T) {
		res, err := env.orders.UpdatePayment(env.ctx, create().ID, core.PaymentUpdate{
			Status: core.PaymentStatusConfirmed, ActualPaidAmount: amount(50000),
		})
		require.NoError(t, err)
		assert.Equal(t, core.OutcomeExact, res.Reconciliation.Outcome)
		assert.Equal(t, core.PaymentStatusConfirmed, res.Order.PaymentStatus)
		assert.True(t, res.Order.DiscountAmount.IsZero())
		assert.Nil(t, res.Order.DiscountReason)
		assert.NotNil(t, res.Order.PaymentConfirmedAt)
	})

	t.Run("discount", func(t *testing.T) {
		res, err := env.orders.UpdatePayment(env.ctx, create().ID, core.PaymentUpdate{
			Status: core.PaymentStatusConfirmed, ActualPaidAmount: amount(45000), DiscountReason: reason("회원할인"),
		})
		require.NoError(t, err)
		assert.Equal(t, core.PaymentStatusConfirmed, res.Order.PaymentStatus)
		assert.True(t, res.Order.DiscountAmount.Equal(decimal.NewFromInt(5000)))
	})

	t.Run("shortfall", func(t *testing.T) {
		res, err := env.orders.UpdatePayment(env.ctx, create().ID, core.PaymentUpdate{
			Status: core.PaymentStatusConfirmed, ActualPaidAmount: amount(45000),
		})
		require.NoError(t, err)
		assert.Equal(t, core.PaymentStatusPartial, res.Order.PaymentStatus)
		assert.Equal(t, core.PaymentStatusConfirmed, res.Reconciliation.RequestedStatus)
		assert.True(t, res.Order.DiscountAmount.IsZero())
		require.NotNil(t, res.Order.DiscountReason)
		assert.Contains(t, *res.Order.DiscountReason, "5,000")
		assert.Nil(t, res.Order.PaymentConfirmedAt)
	})

	t.Run("overpaid", func(t *testing.T) {
		res, err := env.orders.UpdatePayment(env.ctx, create().ID, core.PaymentUpdate{
			Status: core.PaymentStatusConfirmed, ActualPaidAmount: amount(55000),
		})
		require.NoError(t, err)
		assert.Equal(t, core.PaymentStatusConfirmed, res.Order.PaymentStatus)
		assert.True(t, res.Order.DiscountAmount.IsZero())
		assert.Contains(t, *res.Order.DiscountReason, "5,000")
		// 55000 paid − 30000 cost − 4000 shipping
		assert.True(t, res.Order.NetProfit.Equal(decimal.NewFromInt(21000)), "profit %s", res.Order.NetProfit)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := env.orders.UpdatePayment(env.ctx, 999999, core.PaymentUpdate{Status: core.PaymentStatusConfirmed})
		assert.True(t, errors.Is(err, core.ErrNotFound))
	})
}

func TestOrderService_StatusTransitions(t *testing.T) {
	env := setupTestDB(t)

	o, err := env.orders.CreateOrder(env.ctx, orderInput("정", "010-5555-6666", core.Quantities{LargeBox: 2}))
	require.NoError(t, err)

	when := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	o, err = env.orders.SetScheduledDate(env.ctx, o.ID, &when)
	require.NoError(t, err)
	o, err = env.orders.TransitionStatus(env.ctx, o.ID, core.OrderStatusScheduled, nil)
	require.NoError(t, err)
	assert.True(t, o.ScheduledDate.Equal(when))

	o, err = env.orders.SetSellerShipped(env.ctx, o.ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, core.OrderStatusDelivered, o.Status)
	assert.True(t, o.DeliveredDate.Equal(*o.SellerShippedDate))

	_, err = env.orders.SetScheduledDate(env.ctx, o.ID, &when)
	assert.True(t, errors.Is(err, core.ErrPreconditionFailed))

	corrected := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	o, err = env.orders.SetDeliveredDate(env.ctx, o.ID, corrected)
	require.NoError(t, err)
	assert.True(t, o.DeliveredDate.Equal(corrected))
	assert.True(t, o.SellerShippedDate.Equal(corrected))

	o, err = env.orders.TransitionStatus(env.ctx, o.ID, core.OrderStatusPending, nil)
	require.NoError(t, err)
	assert.False(t, o.SellerShipped)
	assert.Nil(t, o.ScheduledDate)
	assert.Nil(t, o.DeliveredDate)

	_, err = env.orders.TransitionStatus(env.ctx, 999999, core.OrderStatusDelivered, nil)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestOrderService_EditabilityGate(t *testing.T) {
	env := setupTestDB(t)

	o, err := env.orders.CreateOrder(env.ctx, orderInput("한", "010-6666-7777", core.Quantities{SmallBox: 1}))
	require.NoError(t, err)
	when := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	_, err = env.orders.SetScheduledDate(env.ctx, o.ID, &when)
	require.NoError(t, err)

	edited, err := env.orders.UpdateOrder(env.ctx, o.ID, orderInput("한", "010-6666-7777", core.Quantities{SmallBox: 6}))
	require.NoError(t, err)
	assert.True(t, edited.TotalAmount.Equal(decimal.NewFromInt(120000)), "free shipping at six boxes")
	assert.Equal(t, o.OrderNumber, edited.OrderNumber)
	require.NotNil(t, edited.ScheduledDate, "an edit without a date keeps the scheduled one")
	assert.True(t, edited.ScheduledDate.Equal(when))

	_, err = env.orders.TransitionStatus(env.ctx, o.ID, core.OrderStatusScheduled, nil)
	require.NoError(t, err)
	_, err = env.orders.UpdateOrder(env.ctx, o.ID, orderInput("한", "010-6666-7777", core.Quantities{SmallBox: 2}))
	assert.True(t, errors.Is(err, core.ErrPreconditionFailed))
}

func TestOrderService_SoftDeleteRestoreRoundTrip(t *testing.T) {
	env := setupTestDB(t)

	o, err := env.orders.CreateOrder(env.ctx, orderInput("윤", "010-7777-8888", giftSet))
	require.NoError(t, err)
	paid := decimal.NewFromInt(50000)
	_, err = env.orders.UpdatePayment(env.ctx, o.ID, core.PaymentUpdate{Status: core.PaymentStatusConfirmed, ActualPaidAmount: &paid})
	require.NoError(t, err)

	before, err := env.orders.GetOrder(env.ctx, o.ID)
	require.NoError(t, err)

	deleted, err := env.orders.DeleteOrder(env.ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedAt)

	_, err = env.orders.GetOrder(env.ctx, o.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	env.clock.Advance(time.Hour)
	again, err := env.orders.DeleteOrder(env.ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, again.DeletedAt.Equal(*deleted.DeletedAt), "second delete keeps deleted_at")

	trash, err := env.orders.GetOrders(env.ctx, core.OrderFilter{Deleted: true})
	require.NoError(t, err)
	require.Len(t, trash, 1)

	_, err = env.orders.RestoreOrder(env.ctx, o.ID)
	require.NoError(t, err)
	after, err := env.orders.GetOrder(env.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	err = env.orders.PurgeOrder(env.ctx, o.ID)
	assert.True(t, errors.Is(err, core.ErrPreconditionFailed), "live orders cannot be purged")
}

func TestOrderService_LookupOrders(t *testing.T) {
	env := setupTestDB(t)

	_, err := env.orders.CreateOrder(env.ctx, orderInput("강", "010-8888-9999", core.Quantities{SmallBox: 1}))
	require.NoError(t, err)
	_, err = env.orders.CreateOrder(env.ctx, orderInput("강", "010-8888-9999", core.Quantities{LargeBox: 1}))
	require.NoError(t, err)

	found, err := env.orders.LookupOrders(env.ctx, "010 8888 9999", "")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = env.orders.LookupOrders(env.ctx, "01088889999", "강")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = env.orders.LookupOrders(env.ctx, "01000000000", "")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, err = env.orders.LookupOrders(env.ctx, "", "")
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestOrderService_CostOverrides(t *testing.T) {
	env := setupTestDB(t)

	o, err := env.orders.CreateOrder(env.ctx, orderInput("서", "010-1212-3434", core.Quantities{SmallBox: 2}))
	require.NoError(t, err)
	require.True(t, o.TotalCost.Equal(decimal.NewFromInt(24000)))

	small := decimal.NewFromInt(10000)
	o, err = env.orders.SetCostOverrides(env.ctx, o.ID, &small, nil)
	require.NoError(t, err)
	assert.True(t, o.TotalCost.Equal(decimal.NewFromInt(20000)))

	// a price change affects every order without an override
	_, err = env.pricing.UpsertPrice(env.ctx, core.PriceEntry{
		Code: core.ProductLargeBox, Name: "대박스", UnitPrice: decimal.NewFromInt(30000),
		UnitCost: decimal.NewFromInt(20000), CountsForShipping: true, IsActive: true,
	})
	require.NoError(t, err)

	negative := decimal.NewFromInt(-1)
	_, err = env.orders.SetCostOverrides(env.ctx, o.ID, &negative, nil)
	assert.True(t, errors.Is(err, core.ErrValidation))

	fractional := decimal.RequireFromString("10000.5")
	_, err = env.orders.SetCostOverrides(env.ctx, o.ID, nil, &fractional)
	assert.True(t, errors.Is(err, core.ErrValidation))

	oversized := decimal.New(1, 12)
	_, err = env.orders.SetCostOverrides(env.ctx, o.ID, &oversized, nil)
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestOrderService_ConcurrentPhoneSwaps(t *testing.T) {
	env := setupTestDB(t)

	a, err := env.orders.CreateOrder(env.ctx, orderInput("갑", "010-1000-0001", core.Quantities{SmallBox: 1}))
	require.NoError(t, err)
	b, err := env.orders.CreateOrder(env.ctx, orderInput("을", "010-1000-0002", core.Quantities{SmallBox: 1}))
	require.NoError(t, err)

	// each edit moves an order onto the other customer's phone
	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			_, err := env.orders.UpdateOrder(env.ctx, a.ID, orderInput("갑", "010-1000-0002", core.Quantities{SmallBox: 1}))
			return err
		})
		g.Go(func() error {
			_, err := env.orders.UpdateOrder(env.ctx, b.ID, orderInput("을", "010-1000-0001", core.Quantities{SmallBox: 1}))
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, phone := range []string{"01010000001", "01010000002"} {
		assertStatsMatchOrders(t, env, phone)
		c, err := env.customers.GetCustomerByPhone(env.ctx, phone)
		require.NoError(t, err)
		assert.Equal(t, 1, c.OrderCount, phone)
	}
}
