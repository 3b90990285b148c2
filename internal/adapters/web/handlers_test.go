package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yugwa-orders/internal/app"
	"yugwa-orders/internal/core"
)

const testSecret = "test-secret"

// fakeApp implements only what the tests exercise; anything else panics
// through the nil embedded interface.
type fakeApp struct {
	app.ApplicationService

	placed    *app.PlaceOrderRequest
	status    *app.ChangeStatusRequest
	payment   *app.UpdatePaymentRequest
	period    core.ReportPeriod
	actor     app.Actor
	scheduled *time.Time
}

func (f *fakeApp) AuthenticateUser(_ context.Context, username, password string) (*app.UserSession, error) {
	if username == "boss" && password == "correct horse" {
		return &app.UserSession{UserID: 1, Username: "boss", Role: core.RoleAdmin}, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeApp) GetUser(_ context.Context, id int) (*app.UserResult, error) {
	return &app.UserResult{UserID: id, Username: "boss", Role: core.RoleAdmin, IsActive: true}, nil
}

func (f *fakeApp) PlaceOrder(_ context.Context, req app.PlaceOrderRequest) (*app.OrderResult, error) {
	f.placed = &req
	if req.CustomerName == "" {
		return nil, core.ErrValidation
	}
	return &app.OrderResult{Order: &core.Order{ID: 1, OrderNumber: "260307-1"}}, nil
}

func (f *fakeApp) LookupOrders(_ context.Context, phone, name string) (*app.OrderListResult, error) {
	return nil, core.ErrNotFound
}

func (f *fakeApp) ChangeStatus(_ context.Context, actor app.Actor, req app.ChangeStatusRequest) (*app.OrderResult, error) {
	f.actor = actor
	f.status = &req
	if actor.Role != core.RoleAdmin && req.Status == core.OrderStatusDelivered {
		return nil, core.ErrPreconditionFailed
	}
	return &app.OrderResult{Order: &core.Order{ID: req.OrderID, Status: req.Status}}, nil
}

func (f *fakeApp) SetScheduledDate(_ context.Context, actor app.Actor, id int, date *time.Time) (*app.OrderResult, error) {
	f.scheduled = date
	return &app.OrderResult{Order: &core.Order{ID: id}}, nil
}

func (f *fakeApp) UpdatePayment(_ context.Context, actor app.Actor, req app.UpdatePaymentRequest) (*core.PaymentResult, error) {
	f.payment = &req
	return &core.PaymentResult{
		Order:          &core.Order{ID: req.OrderID, PaymentStatus: core.PaymentStatusPartial},
		Reconciliation: core.Reconciliation{Outcome: core.OutcomePartial, RequestedStatus: req.Status, Status: core.PaymentStatusPartial},
	}, nil
}

func (f *fakeApp) GetSummary(_ context.Context, period core.ReportPeriod) (*core.OrderSummary, error) {
	f.period = period
	return &core.OrderSummary{}, nil
}

func (f *fakeApp) GetOrder(_ context.Context, ref string) (*app.OrderResult, error) {
	panic("boom")
}

func newTestServer(t *testing.T) (*fakeApp, http.Handler) {
	t.Helper()
	fake := &fakeApp{}
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	h := NewHandler(fake, Options{JWTSecret: testSecret, Location: seoul})
	return fake, h
}

func authCookieFor(t *testing.T, role string) *http.Cookie {
	t.Helper()
	h := &Handler{jwtSecret: testSecret, tokenTTL: time.Hour}
	signed, err := h.signToken(&app.UserSession{UserID: 2, Role: role}, time.Now())
	require.NoError(t, err)
	return &http.Cookie{Name: authCookie, Value: signed}
}

func do(h http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(h, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPlaceOrder_PublicAndStripsUserID(t *testing.T) {
	fake, h := newTestServer(t)
	rec := do(h, http.MethodPost, "/api/orders",
		`{"customer_name":"김영희","customer_phone":"010-1234-5678","small_box_quantity":2,"user_id":9}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, fake.placed)
	assert.Equal(t, 2, fake.placed.SmallBoxQuantity)
	assert.Nil(t, fake.placed.UserID)

	var res app.OrderResult
	decodeBody(t, rec, &res)
	assert.Equal(t, "260307-1", res.Order.OrderNumber)
}

func TestErrorMapping(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/orders", `{"customer_name":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var e errorResponse
	decodeBody(t, rec, &e)
	assert.Equal(t, "VALIDATION_FAILED", e.Code)
	assert.NotEmpty(t, e.RequestID)

	rec = do(h, http.MethodGet, "/api/orders/lookup?phone=01000000000", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/api/orders", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &e)
	assert.Equal(t, "BAD_REQUEST", e.Code)
}

func TestStaffRoutesRequireAuth(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(h, http.MethodPost, "/api/admin/orders/1/status", `{"status":"scheduled"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodPost, "/api/admin/orders/1/status", `{"status":"scheduled"}`,
		&http.Cookie{Name: authCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginSetsCookie(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/auth/login", `{"username":"boss","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodPost, "/api/auth/login", `{"username":"boss","password":"correct horse"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	rec = do(h, http.MethodGet, "/api/auth/me", "", cookies[0])
	require.Equal(t, http.StatusOK, rec.Code)
	var me app.UserResult
	decodeBody(t, rec, &me)
	assert.Equal(t, "boss", me.Username)
}

func TestChangeStatus_CarriesActorAndDate(t *testing.T) {
	fake, h := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/admin/orders/5/status",
		`{"status":"delivered","delivered_date":"2026-03-09"}`, authCookieFor(t, core.RoleManager))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, core.RoleManager, fake.actor.Role)

	rec = do(h, http.MethodPost, "/api/admin/orders/5/status",
		`{"status":"delivered","delivered_date":"2026-03-09"}`, authCookieFor(t, core.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.status.DeliveredDate)
	assert.Equal(t, 5, fake.status.OrderID)
	assert.Equal(t, "2026-03-09", fake.status.DeliveredDate.Format(dateLayout))
	_, offset := fake.status.DeliveredDate.Zone()
	assert.Equal(t, 9*3600, offset, "dates are read in the shop time zone")

	rec = do(h, http.MethodPost, "/api/admin/orders/5/status",
		`{"status":"delivered","delivered_date":"03/09"}`, authCookieFor(t, core.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/admin/orders/abc/status", `{"status":"scheduled"}`, authCookieFor(t, core.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetScheduledDate_EmptyClears(t *testing.T) {
	fake, h := newTestServer(t)
	cookie := authCookieFor(t, core.RoleManager)

	rec := do(h, http.MethodPost, "/api/admin/orders/5/scheduled-date", `{"date":"2026-03-10"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.scheduled)

	rec = do(h, http.MethodPost, "/api/admin/orders/5/scheduled-date", `{"date":""}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, fake.scheduled)
}

func TestUpdatePayment_ReturnsReconciliation(t *testing.T) {
	fake, h := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/admin/orders/5/payment",
		`{"status":"confirmed","actual_paid_amount":"45000","intent":"shortfall"}`, authCookieFor(t, core.RoleManager))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, fake.payment.ActualPaidAmount)
	assert.Equal(t, "45000", fake.payment.ActualPaidAmount.String())
	assert.Equal(t, core.DiscountIntentShortfall, fake.payment.Intent)

	var res core.PaymentResult
	decodeBody(t, rec, &res)
	assert.Equal(t, core.PaymentStatusConfirmed, res.Reconciliation.RequestedStatus)
	assert.Equal(t, core.PaymentStatusPartial, res.Reconciliation.Status)
}

func TestReportPeriod_ToIsInclusive(t *testing.T) {
	fake, h := newTestServer(t)
	cookie := authCookieFor(t, core.RoleAdmin)

	rec := do(h, http.MethodGet, "/api/admin/reports/summary?from=2026-03-01&to=2026-03-31", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.period.From)
	require.NotNil(t, fake.period.To)
	assert.Equal(t, "2026-04-01", fake.period.To.Format(dateLayout))

	rec = do(h, http.MethodGet, "/api/admin/reports/summary?from=2026-04-01&to=2026-03-01", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecovererReturns500(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(h, http.MethodGet, "/api/admin/orders/1", "", authCookieFor(t, core.RoleAdmin))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var e errorResponse
	decodeBody(t, rec, &e)
	assert.Equal(t, "INTERNAL_ERROR", e.Code)
}

func TestRequestBodyLimit(t *testing.T) {
	_, h := newTestServer(t)
	big := `{"customer_name":"` + strings.Repeat("a", 1<<20) + `"}`
	rec := do(h, http.MethodPost, "/api/orders", big, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestID_AcceptsSafeCallerValue(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get("X-Request-ID"))
}
