package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphummel/machine_registry/internal/apiclient"
	"github.com/tphummel/machine_registry/internal/console"
	"github.com/tphummel/machine_registry/internal/form"
	"github.com/tphummel/machine_registry/internal/metrics"
	"github.com/tphummel/machine_registry/internal/middleware"
	"github.com/tphummel/machine_registry/internal/models"
	"github.com/tphummel/machine_registry/internal/mutation"
	"github.com/tphummel/machine_registry/internal/store"
)

const maxBodyBytes = 64 * 1024

// Snapshots is the read side of the last-load mirror.
type Snapshots interface {
	Ping() error
	Snapshot() ([]models.Machine, time.Time, error)
	CountByCriticality() (map[string]int, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	Session   *console.Session
	Snapshots Snapshots
	// DashboardCache, when set, caches GET /api/v1/dashboard for CacheTTL.
	DashboardCache *cache.Cache
	CacheTTL       time.Duration
	Logger         *slog.Logger
	Version        string
	Commit         string
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// NewMux registers every console route on a new ServeMux. Everything under
// /api/v1 requires the Bearer token.
func NewMux(h *Handler, token string) *http.ServeMux {
	mux := http.NewServeMux()
	public := func(pattern string, next http.HandlerFunc) {
		mux.Handle(pattern, metrics.Middleware(pattern, next))
	}
	private := func(pattern string, next http.Handler) {
		mux.Handle(pattern, metrics.Middleware(pattern, middleware.Auth(token, next)))
	}

	public("GET /healthz", h.Health)
	public("GET /openapi.yaml", OpenAPISpec)
	public("GET /docs", Docs)
	mux.Handle("GET /metrics", metrics.Handler())

	private("GET /api/v1/view", http.HandlerFunc(h.GetView))
	private("PUT /api/v1/view/query", http.HandlerFunc(h.SetQuery))
	private("PUT /api/v1/view/filter", http.HandlerFunc(h.SetModelFilter))
	private("POST /api/v1/view/sort", http.HandlerFunc(h.SortBy))
	private("GET /api/v1/view/export.xlsx", http.HandlerFunc(h.ExportSheet))

	private("POST /api/v1/machines/reload", http.HandlerFunc(h.Reload))
	private("DELETE /api/v1/machines/{id}", http.HandlerFunc(h.DeleteMachine))
	private("GET /api/v1/machines/{id}/export/{kind}", http.HandlerFunc(h.ExportMachine))

	private("GET /api/v1/form", http.HandlerFunc(h.GetForm))
	private("POST /api/v1/form/new", http.HandlerFunc(h.OpenNew))
	private("POST /api/v1/form/edit/{id}", http.HandlerFunc(h.OpenEdit))
	private("PUT /api/v1/form/fields/{name}", http.HandlerFunc(h.SetField))
	private("POST /api/v1/form/lubricants", http.HandlerFunc(h.AddLubricant))
	private("PUT /api/v1/form/lubricants/{index}/{field}", http.HandlerFunc(h.SetLubricantField))
	private("DELETE /api/v1/form/lubricants/{index}", http.HandlerFunc(h.RemoveLubricant))
	private("POST /api/v1/form/close", http.HandlerFunc(h.CloseForm))
	private("POST /api/v1/form/submit", http.HandlerFunc(h.Submit))

	private("GET /api/v1/notices", http.HandlerFunc(h.Notices))
	var dashboard http.Handler = http.HandlerFunc(h.Dashboard)
	if h.DashboardCache != nil {
		dashboard = middleware.Cache(h.DashboardCache, h.CacheTTL, dashboard)
	}
	private("GET /api/v1/dashboard", dashboard)
	private("GET /api/v1/snapshot", http.HandlerFunc(h.Snapshot))

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a console error onto an HTTP status. Errors it does not
// recognise get fallback.
func statusFor(err error, fallback int) int {
	var missing *form.MissingError
	var apiErr *apiclient.APIError
	var shape *store.LoadShapeError
	switch {
	case errors.As(err, &missing),
		errors.Is(err, form.ErrRejected),
		errors.Is(err, form.ErrInvalidNumber):
		return http.StatusUnprocessableEntity
	case errors.Is(err, form.ErrUnknownField),
		errors.Is(err, form.ErrLubricantIndex),
		errors.Is(err, console.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, console.ErrFormClosed):
		return http.StatusConflict
	case errors.Is(err, mutation.ErrNotConfirmed):
		return http.StatusPreconditionRequired
	case errors.Is(err, mutation.ErrUnsupportedExportKind):
		return http.StatusBadRequest
	case errors.Is(err, mutation.ErrSecurityTokenMissing):
		return http.StatusForbidden
	case errors.As(err, &apiErr), errors.As(err, &shape):
		return http.StatusBadGateway
	}
	return fallback
}

// fail writes err as a JSON error. Missing required fields are listed.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	status := statusFor(err, fallback)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger().Error("request failed", "path", r.URL.Path, "request_id", middleware.RequestID(r.Context()), "error", err)
		msg = "internal error"
	}

	var missing *form.MissingError
	if errors.As(err, &missing) {
		writeJSON(w, status, map[string]any{"error": msg, "missing": missing.Fields})
		return
	}
	writeError(w, status, msg)
}

// decode reads a JSON request body into v. It writes the error response
// itself and reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// Health handles GET /healthz — no auth required.
// Returns 503 if the snapshot database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Snapshots != nil {
		if err := h.Snapshots.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
		"commit":  h.Commit,
	})
}
