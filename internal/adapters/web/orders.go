package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"yugwa-orders/internal/app"
	"yugwa-orders/internal/core"
)

const dateLayout = "2006-01-02"

// parseDate accepts YYYY-MM-DD (midnight in the shop time zone) or RFC 3339.
func (h *Handler) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, h.loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// parseOptionalDate maps nil or "" to nil.
func (h *Handler) parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := h.parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) badDate(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
}

// ── Public intake ─────────────────────────────────────────────────────────────

// apiPlaceOrder handles POST /api/orders.
func (h *Handler) apiPlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req app.PlaceOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// the public form cannot attach an order to a staff account
	req.UserID = nil

	result, err := h.svc.PlaceOrder(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// apiLookupOrders handles GET /api/orders/lookup?phone=&name=.
func (h *Handler) apiLookupOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.LookupOrders(r.Context(), q.Get("phone"), q.Get("name"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Staff: orders ─────────────────────────────────────────────────────────────

// apiListOrders handles GET /api/admin/orders?status=&payment_status=.
func (h *Handler) apiListOrders(w http.ResponseWriter, r *http.Request) {
	var filter core.OrderFilter
	if v := r.URL.Query().Get("status"); v != "" {
		s := core.OrderStatus(v)
		if !s.Valid() {
			writeError(w, r, "unknown status "+v, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		filter.Status = &s
	}
	if v := r.URL.Query().Get("payment_status"); v != "" {
		s := core.PaymentStatus(v)
		if !s.Valid() {
			writeError(w, r, "unknown payment_status "+v, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		filter.PaymentStatus = &s
	}

	result, err := h.svc.ListOrders(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetOrder handles GET /api/admin/orders/{ref}. ref is an ID or an order number.
func (h *Handler) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiEditOrder handles PATCH /api/admin/orders/{id}.
func (h *Handler) apiEditOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req app.PlaceOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.EditOrder(r.Context(), actorFromRequest(r), id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiChangeStatus handles POST /api/admin/orders/{id}/status.
func (h *Handler) apiChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status        core.OrderStatus `json:"status"`
		DeliveredDate *string          `json:"delivered_date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	delivered, err := h.parseOptionalDate(body.DeliveredDate)
	if err != nil {
		h.badDate(w, r, err)
		return
	}

	result, err := h.svc.ChangeStatus(r.Context(), actorFromRequest(r), app.ChangeStatusRequest{
		OrderID:       id,
		Status:        body.Status,
		DeliveredDate: delivered,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSetScheduledDate handles POST /api/admin/orders/{id}/scheduled-date.
// A null or empty date clears it.
func (h *Handler) apiSetScheduledDate(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		Date *string `json:"date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	date, err := h.parseOptionalDate(body.Date)
	if err != nil {
		h.badDate(w, r, err)
		return
	}

	result, err := h.svc.SetScheduledDate(r.Context(), actorFromRequest(r), id, date)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSetDeliveredDate handles POST /api/admin/orders/{id}/delivered-date.
func (h *Handler) apiSetDeliveredDate(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		Date string `json:"date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	date, err := h.parseDate(body.Date)
	if err != nil {
		h.badDate(w, r, err)
		return
	}

	result, err := h.svc.SetDeliveredDate(r.Context(), actorFromRequest(r), id, date)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSetSellerShipped handles POST /api/admin/orders/{id}/seller-shipped.
func (h *Handler) apiSetSellerShipped(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		Shipped bool    `json:"shipped"`
		Date    *string `json:"date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	date, err := h.parseOptionalDate(body.Date)
	if err != nil {
		h.badDate(w, r, err)
		return
	}

	result, err := h.svc.SetSellerShipped(r.Context(), actorFromRequest(r), app.SellerShippedRequest{
		OrderID: id,
		Shipped: body.Shipped,
		Date:    date,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiUpdatePayment handles POST /api/admin/orders/{id}/payment.
// The response carries the reconciliation so callers can see a downgraded status.
func (h *Handler) apiUpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status           core.PaymentStatus  `json:"status"`
		ActualPaidAmount *decimal.Decimal    `json:"actual_paid_amount"`
		DiscountReason   *string             `json:"discount_reason"`
		Intent           core.DiscountIntent `json:"intent"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.UpdatePayment(r.Context(), actorFromRequest(r), app.UpdatePaymentRequest{
		OrderID:          id,
		Status:           body.Status,
		ActualPaidAmount: body.ActualPaidAmount,
		DiscountReason:   body.DiscountReason,
		Intent:           body.Intent,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSetCostOverrides handles POST /api/admin/orders/{id}/cost-overrides.
func (h *Handler) apiSetCostOverrides(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		SmallBoxCost *decimal.Decimal `json:"small_box_cost"`
		LargeBoxCost *decimal.Decimal `json:"large_box_cost"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.SetCostOverrides(r.Context(), actorFromRequest(r), app.CostOverrideRequest{
		OrderID:      id,
		SmallBoxCost: body.SmallBoxCost,
		LargeBoxCost: body.LargeBoxCost,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Staff: trash ──────────────────────────────────────────────────────────────

// apiTrashOrder handles DELETE /api/admin/orders/{id}.
func (h *Handler) apiTrashOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.TrashOrder(r.Context(), actorFromRequest(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiRestoreOrder handles POST /api/admin/orders/{id}/restore.
func (h *Handler) apiRestoreOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.RestoreOrder(r.Context(), actorFromRequest(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiPurgeOrder handles DELETE /api/admin/orders/{id}/permanent.
func (h *Handler) apiPurgeOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if err := h.svc.PurgeOrder(r.Context(), actorFromRequest(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiListTrash handles GET /api/admin/trash.
func (h *Handler) apiListTrash(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListTrash(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Staff: customers ──────────────────────────────────────────────────────────

// apiListCustomers handles GET /api/admin/customers?deleted=true.
func (h *Handler) apiListCustomers(w http.ResponseWriter, r *http.Request) {
	deleted := r.URL.Query().Get("deleted") == "true"
	result, err := h.svc.ListCustomers(r.Context(), deleted)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiTrashCustomer handles DELETE /api/admin/customers/{phone}.
func (h *Handler) apiTrashCustomer(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.TrashCustomer(r.Context(), actorFromRequest(r), chi.URLParam(r, "phone"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiRestoreCustomer handles POST /api/admin/customers/{phone}/restore.
func (h *Handler) apiRestoreCustomer(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RestoreCustomer(r.Context(), actorFromRequest(r), chi.URLParam(r, "phone"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Reports ───────────────────────────────────────────────────────────────────

// reportPeriod reads ?from=YYYY-MM-DD&to=YYYY-MM-DD. to is inclusive in the
// query string and converted to the exclusive bound core expects.
func (h *Handler) reportPeriod(r *http.Request) (core.ReportPeriod, error) {
	var p core.ReportPeriod
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, h.loc)
		if err != nil {
			return p, fmt.Errorf("invalid from %q: want YYYY-MM-DD", v)
		}
		p.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, h.loc)
		if err != nil {
			return p, fmt.Errorf("invalid to %q: want YYYY-MM-DD", v)
		}
		end := t.AddDate(0, 0, 1)
		p.To = &end
	}
	if p.From != nil && p.To != nil && !p.From.Before(*p.To) {
		return p, fmt.Errorf("from must not be after to")
	}
	return p, nil
}

// apiSummary handles GET /api/admin/reports/summary.
func (h *Handler) apiSummary(w http.ResponseWriter, r *http.Request) {
	period, err := h.reportPeriod(r)
	if err != nil {
		h.badDate(w, r, err)
		return
	}
	result, err := h.svc.GetSummary(r.Context(), period)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiOrderReport handles GET /api/admin/reports/orders.
func (h *Handler) apiOrderReport(w http.ResponseWriter, r *http.Request) {
	period, err := h.reportPeriod(r)
	if err != nil {
		h.badDate(w, r, err)
		return
	}
	result, err := h.svc.GetOrderReport(r.Context(), period)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Pricing ───────────────────────────────────────────────────────────────────

// apiGetPricing handles GET /api/admin/pricing.
func (h *Handler) apiGetPricing(w http.ResponseWriter, r *http.Request) {
	table, err := h.svc.GetPricing(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, table)
}

// apiUpdatePrice handles PUT /api/admin/pricing/products/{code}.
func (h *Handler) apiUpdatePrice(w http.ResponseWriter, r *http.Request) {
	var entry core.PriceEntry
	if !decodeJSON(w, r, &entry) {
		return
	}
	entry.Code = chi.URLParam(r, "code")

	table, err := h.svc.UpdatePrice(r.Context(), actorFromRequest(r), entry)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, table)
}

// apiUpdateShipping handles PUT /api/admin/pricing/shipping.
func (h *Handler) apiUpdateShipping(w http.ResponseWriter, r *http.Request) {
	var rule core.ShippingRule
	if !decodeJSON(w, r, &rule) {
		return
	}
	table, err := h.svc.UpdateShippingRule(r.Context(), actorFromRequest(r), rule)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, table)
}
