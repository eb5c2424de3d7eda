package web

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"retail-erp/internal/app"
	"retail-erp/internal/metrics"
	webui "retail-erp/web"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Config carries the settings the HTTP layer needs.
type Config struct {
	AllowedOrigins     []string
	CookieSecure       bool
	SessionTTL         time.Duration
	LoginRatePerMinute int
	Logger             *zap.Logger
	Metrics            *metrics.Metrics
}

// Handler holds the ApplicationService, the chi router, and the parsed page templates.
type Handler struct {
	svc          app.ApplicationService
	router       chi.Router
	pages        pageSet
	limiter      *loginLimiter
	log          *zap.Logger
	cookieSecure bool
	sessionTTL   time.Duration
	fileServer   http.Handler
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, cfg Config) (http.Handler, error) {
	staticFS, err := fs.Sub(webui.Static, "static")
	if err != nil {
		return nil, errors.New("web/static embed sub-FS failed: " + err.Error())
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	h := &Handler{
		svc:          svc,
		pages:        pages,
		limiter:      newLoginLimiter(cfg.LoginRatePerMinute),
		log:          log,
		cookieSecure: cfg.CookieSecure,
		sessionTTL:   ttl,
		fileServer:   http.FileServer(http.FS(staticFS)),
	}

	// Start background maintenance goroutines.
	h.limiter.startPurge(context.Background())

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	if cfg.Metrics != nil {
		r.Use(Metrics(cfg.Metrics))
	}
	r.Use(Recoverer)
	r.Use(CORS(cfg.AllowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	r.Get("/static/*", func(w http.ResponseWriter, req *http.Request) {
		http.StripPrefix("/static", h.fileServer).ServeHTTP(w, req)
	})

	// ── Session-aware routes ──────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.LoadSession)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/login", h.loginPage)
		r.Post("/login", h.loginSubmit)
		r.Post("/logout", h.logoutSubmit)

		// Browser pages (redirect to /login when signed out)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireSignInBrowser)
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				http.Redirect(w, req, "/inventory", http.StatusSeeOther)
			})
			r.Get("/inventory", h.inventoryPage)
			r.Post("/inventory", h.inventorySubmit)
			r.Get("/sales", h.salesPage)
			r.Post("/sales/draft", h.draftSubmit)
			r.Post("/sales/orders/{id}", h.orderUpdateSubmit)
			r.Get("/sales/orders/{id}/packing-slip", h.packingSlip)
			r.Get("/expenses", h.expensesPage)
			r.Post("/expenses", h.expenseSubmit)
			r.Get("/dashboard", h.dashboardPage)
			r.Get("/dashboard/remaining.csv", h.remainingCSV)
			r.Get("/dashboard/remaining.xlsx", h.remainingXLSX)
		})

		// JSON API (401 when signed out)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireSignIn)
			r.Get("/api/inventory/quote", h.apiInventoryQuote)
			r.Get("/api/draft", h.apiDraft)
			r.Post("/api/draft/items", h.apiAddDraftLine)
			r.Patch("/api/draft/items/{idx}", h.apiSetDraftLine)
			r.Delete("/api/draft/items/{idx}", h.apiRemoveDraftLine)
			r.Post("/api/draft/assist", h.apiAssistDraft)
		})
	})

	h.router = r
	return r, nil
}

// health reports whether the backend is reachable.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status  string `json:"status"`
		Backend string `json:"backend"`
	}
	if err := h.svc.Health(r.Context()); err != nil {
		h.log.Warn("backend health check failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(response{Status: "degraded", Backend: err.Error()})
		return
	}
	writeJSON(w, response{Status: "ok", Backend: "ok"})
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
