package audithandler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"

	"kepayroll/internal/domain/audit"
	"kepayroll/internal/requestctx"
	"kepayroll/internal/transport/http/api"
	"kepayroll/internal/transport/http/middleware"
	"kepayroll/internal/transport/http/shared"
)

const exportLimit = 10000

// EventStore is the read side of the rule-set audit trail.
type EventStore interface {
	Count(ctx context.Context, filter audit.Filter) (int, error)
	List(ctx context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Events EventStore
}

func NewHandler(events EventStore) *Handler {
	return &Handler{Events: events}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Get("/rule-sets", h.handleListEvents)
		r.Get("/rule-sets/export", h.handleExportEvents)
	})
}

type exportRow struct {
	ID        int64  `csv:"id"`
	Version   string `csv:"version"`
	Action    string `csv:"action"`
	Actor     string `csv:"actor"`
	Source    string `csv:"source"`
	CreatedAt string `csv:"created_at"`
}

func filterFrom(r *http.Request) audit.Filter {
	q := r.URL.Query()
	return audit.Filter{Version: q.Get("version"), Action: q.Get("action"), Actor: q.Get("actor")}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	page := v.Page(r, 100, 500)
	if v.Reject(w, reqID) {
		return
	}
	filter := filterFrom(r)
	includeDetails := r.URL.Query().Get("includeDetails") == "true"

	total, err := h.Events.Count(r.Context(), filter)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("audit count failed", "err", err)
	}
	events, err := h.Events.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		requestctx.Logger(r.Context()).Error("audit list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, api.CodeInternal, "failed to list rule set events", reqID)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, reqID)
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	events, err := h.Events.List(r.Context(), filterFrom(r), false, exportLimit, 0)
	if err != nil {
		requestctx.Logger(r.Context()).Error("audit export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, api.CodeInternal, "failed to export rule set events", reqID)
		return
	}

	rows := make([]exportRow, len(events))
	for i, evt := range events {
		rows[i] = exportRow{
			ID:        evt.ID,
			Version:   evt.Version,
			Action:    evt.Action,
			Actor:     evt.Actor,
			Source:    evt.Source,
			CreatedAt: evt.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		requestctx.Logger(r.Context()).Error("audit export encode failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, api.CodeInternal, "failed to export rule set events", reqID)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=rule-set-events.csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
