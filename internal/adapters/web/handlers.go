package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"yugwa-orders/internal/app"
	"yugwa-orders/internal/metrics"
)

const defaultTokenTTL = 8 * time.Hour

// Options configures NewHandler. InsecureCookies drops the Secure flag from the
// session cookie for plain-HTTP local runs. Location interprets YYYY-MM-DD dates
// in request bodies and query strings; nil means UTC.
type Options struct {
	AllowedOrigins  string // comma-separated
	JWTSecret       string
	TokenTTL        time.Duration
	InsecureCookies bool
	Location        *time.Location
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc             app.ApplicationService
	router          chi.Router
	jwtSecret       string
	tokenTTL        time.Duration
	insecureCookies bool
	loc             *time.Location
	logger          *zap.Logger
	metrics         *metrics.Metrics
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	h := &Handler{
		svc:             svc,
		jwtSecret:       opts.JWTSecret,
		tokenTTL:        opts.TokenTTL,
		insecureCookies: opts.InsecureCookies,
		loc:             opts.Location,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.tokenTTL <= 0 {
		h.tokenTTL = defaultTokenTTL
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(h.Logger)
	r.Use(h.Recoverer)
	r.Use(CORS(opts.AllowedOrigins))

	// ── Health and metrics (public) ───────────────────────────────────────────
	r.Get("/api/health", h.health)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// ── Auth (public API) ─────────────────────────────────────────────────
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)

		// ── Order intake and lookup (public) ──────────────────────────────────
		r.Post("/api/orders", h.apiPlaceOrder)
		r.Get("/api/orders/lookup", h.apiLookupOrders)

		// ── Staff API (401 JSON if unauthenticated) ───────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Get("/api/auth/me", h.me)

			r.Get("/api/admin/orders", h.apiListOrders)
			r.Get("/api/admin/orders/{ref}", h.apiGetOrder)
			r.Patch("/api/admin/orders/{id}", h.apiEditOrder)
			r.Post("/api/admin/orders/{id}/status", h.apiChangeStatus)
			r.Post("/api/admin/orders/{id}/scheduled-date", h.apiSetScheduledDate)
			r.Post("/api/admin/orders/{id}/delivered-date", h.apiSetDeliveredDate)
			r.Post("/api/admin/orders/{id}/seller-shipped", h.apiSetSellerShipped)
			r.Post("/api/admin/orders/{id}/payment", h.apiUpdatePayment)
			r.Post("/api/admin/orders/{id}/cost-overrides", h.apiSetCostOverrides)
			r.Delete("/api/admin/orders/{id}", h.apiTrashOrder)
			r.Post("/api/admin/orders/{id}/restore", h.apiRestoreOrder)
			r.Delete("/api/admin/orders/{id}/permanent", h.apiPurgeOrder)
			r.Get("/api/admin/trash", h.apiListTrash)

			r.Get("/api/admin/customers", h.apiListCustomers)
			r.Delete("/api/admin/customers/{phone}", h.apiTrashCustomer)
			r.Post("/api/admin/customers/{phone}/restore", h.apiRestoreCustomer)

			r.Get("/api/admin/reports/summary", h.apiSummary)
			r.Get("/api/admin/reports/orders", h.apiOrderReport)

			r.Get("/api/admin/pricing", h.apiGetPricing)
			r.Put("/api/admin/pricing/products/{code}", h.apiUpdatePrice)
			r.Put("/api/admin/pricing/shipping", h.apiUpdateShipping)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// orderID extracts the {id} URL parameter. It writes a 400 and returns false when malformed.
func orderID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "order id must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
