package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"yugwa-orders/internal/core"
)

type appService struct {
	orderService     core.OrderService
	customerService  core.CustomerService
	pricingService   core.PricingService
	reportingService core.ReportingService
	userService      core.UserService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	orderService core.OrderService,
	customerService core.CustomerService,
	pricingService core.PricingService,
	reportingService core.ReportingService,
	userService core.UserService,
) ApplicationService {
	return &appService{
		orderService:     orderService,
		customerService:  customerService,
		pricingService:   pricingService,
		reportingService: reportingService,
		userService:      userService,
	}
}

// ── Public intake ────────────────────────────────────────────────────────────

func (s *appService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResult, error) {
	order, err := s.orderService.CreateOrder(ctx, req.toInput())
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) LookupOrders(ctx context.Context, phone, name string) (*OrderListResult, error) {
	orders, err := s.orderService.LookupOrders(ctx, phone, name)
	if err != nil {
		return nil, err
	}
	return newOrderList(orders), nil
}

// ── Staff: orders ────────────────────────────────────────────────────────────

func (s *appService) ListOrders(ctx context.Context, filter core.OrderFilter) (*OrderListResult, error) {
	orders, err := s.orderService.GetOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return newOrderList(orders), nil
}

func (s *appService) GetOrder(ctx context.Context, ref string) (*OrderResult, error) {
	order, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) EditOrder(ctx context.Context, actor Actor, orderID int, req PlaceOrderRequest) (*OrderResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return wrapOrder(s.orderService.UpdateOrder(ctx, orderID, req.toInput()))
}

func (s *appService) ChangeStatus(ctx context.Context, actor Actor, req ChangeStatusRequest) (*OrderResult, error) {
	if req.Status == core.OrderStatusDelivered {
		if err := authorize(actor, actionDeliver); err != nil {
			return nil, err
		}
	} else if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return wrapOrder(s.orderService.TransitionStatus(ctx, req.OrderID, req.Status, req.DeliveredDate))
}

func (s *appService) SetScheduledDate(ctx context.Context, actor Actor, orderID int, date *time.Time) (*OrderResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return wrapOrder(s.orderService.SetScheduledDate(ctx, orderID, date))
}

func (s *appService) SetDeliveredDate(ctx context.Context, actor Actor, orderID int, date time.Time) (*OrderResult, error) {
	if err := authorize(actor, actionEditDeliveredDate); err != nil {
		return nil, err
	}
	return wrapOrder(s.orderService.SetDeliveredDate(ctx, orderID, date))
}

// SetSellerShipped is open to managers: the hand-off is recorded by whoever
// gives the parcel to the carrier, and delivered follows from it.
func (s *appService) SetSellerShipped(ctx context.Context, actor Actor, req SellerShippedRequest) (*OrderResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return wrapOrder(s.orderService.SetSellerShipped(ctx, req.OrderID, req.Shipped, req.Date))
}

func (s *appService) UpdatePayment(ctx context.Context, actor Actor, req UpdatePaymentRequest) (*core.PaymentResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.orderService.UpdatePayment(ctx, req.OrderID, core.PaymentUpdate{
		Status:           req.Status,
		ActualPaidAmount: req.ActualPaidAmount,
		DiscountReason:   req.DiscountReason,
		Intent:           req.Intent,
	})
}

func (s *appService) SetCostOverrides(ctx context.Context, actor Actor, req CostOverrideRequest) (*OrderResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return wrapOrder(s.orderService.SetCostOverrides(ctx, req.OrderID, req.SmallBoxCost, req.LargeBoxCost))
}

// ── Staff: trash ─────────────────────────────────────────────────────────────

func (s *appService) TrashOrder(ctx context.Context, actor Actor, orderID int) (*OrderResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return wrapOrder(s.orderService.DeleteOrder(ctx, orderID))
}

func (s *appService) RestoreOrder(ctx context.Context, actor Actor, orderID int) (*OrderResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return wrapOrder(s.orderService.RestoreOrder(ctx, orderID))
}

func (s *appService) PurgeOrder(ctx context.Context, actor Actor, orderID int) error {
	if err := authorize(actor, actionPurge); err != nil {
		return err
	}
	return s.orderService.PurgeOrder(ctx, orderID)
}

func (s *appService) ListTrash(ctx context.Context) (*OrderListResult, error) {
	return s.ListOrders(ctx, core.OrderFilter{Deleted: true})
}

// ── Staff: customers ─────────────────────────────────────────────────────────

func (s *appService) ListCustomers(ctx context.Context, deleted bool) (*CustomerListResult, error) {
	customers, err := s.customerService.GetCustomers(ctx, deleted)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []core.Customer{}
	}
	return &CustomerListResult{Customers: customers}, nil
}

func (s *appService) TrashCustomer(ctx context.Context, actor Actor, phone string) (*CustomerResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	c, err := s.customerService.DeleteCustomer(ctx, phone)
	if err != nil {
		return nil, err
	}
	return &CustomerResult{Customer: c}, nil
}

func (s *appService) RestoreCustomer(ctx context.Context, actor Actor, phone string) (*CustomerResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	c, err := s.customerService.RestoreCustomer(ctx, phone)
	if err != nil {
		return nil, err
	}
	return &CustomerResult{Customer: c}, nil
}

func (s *appService) RecomputeCustomers(ctx context.Context) (int, error) {
	return s.customerService.RecomputeAll(ctx)
}

// ── Reporting and pricing ────────────────────────────────────────────────────

func (s *appService) GetOrderReport(ctx context.Context, period core.ReportPeriod) (*OrderListResult, error) {
	orders, err := s.reportingService.GetOrderReport(ctx, period)
	if err != nil {
		return nil, err
	}
	return newOrderList(orders), nil
}

func (s *appService) GetSummary(ctx context.Context, period core.ReportPeriod) (*core.OrderSummary, error) {
	return s.reportingService.GetSummary(ctx, period)
}

func (s *appService) GetPricing(ctx context.Context) (*core.PricingTable, error) {
	return s.pricingService.GetPricingTable(ctx)
}

func (s *appService) UpdatePrice(ctx context.Context, actor Actor, entry core.PriceEntry) (*core.PricingTable, error) {
	if err := authorize(actor, actionEditPricing); err != nil {
		return nil, err
	}
	if _, err := s.pricingService.UpsertPrice(ctx, entry); err != nil {
		return nil, err
	}
	return s.pricingService.GetPricingTable(ctx)
}

func (s *appService) UpdateShippingRule(ctx context.Context, actor Actor, rule core.ShippingRule) (*core.PricingTable, error) {
	if err := authorize(actor, actionEditPricing); err != nil {
		return nil, err
	}
	if err := s.pricingService.UpdateShippingRule(ctx, rule); err != nil {
		return nil, err
	}
	return s.pricingService.GetPricingTable(ctx)
}

// ── Auth ─────────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	u, err := s.userService.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &UserSession{UserID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Role: u.Role}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	u, err := s.userService.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{UserID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Role: u.Role, IsActive: u.IsActive}, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// resolveOrder accepts either a numeric ID or an order number (e.g. "260307-4").
func (s *appService) resolveOrder(ctx context.Context, ref string) (*core.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: order reference is required", core.ErrValidation)
	}
	if id, err := strconv.Atoi(ref); err == nil {
		return s.orderService.GetOrder(ctx, id)
	}
	return s.orderService.GetOrderByNumber(ctx, ref)
}

func wrapOrder(order *core.Order, err error) (*OrderResult, error) {
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}
