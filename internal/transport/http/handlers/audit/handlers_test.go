package audithandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepayroll/internal/domain/audit"
	"kepayroll/internal/transport/http/api"
	"kepayroll/internal/transport/http/middleware"
)

type fakeEvents struct {
	events   []audit.Event
	err      error
	filter   audit.Filter
	details  bool
	limit    int
	offset   int
	countErr error
}

func (f *fakeEvents) Count(_ context.Context, filter audit.Filter) (int, error) {
	return len(f.events), f.countErr
}

func (f *fakeEvents) List(_ context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error) {
	f.filter, f.details, f.limit, f.offset = filter, includeDetails, limit, offset
	return f.events, f.err
}

func newRouter(store EventStore) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	NewHandler(store).RegisterRoutes(r)
	return r
}

func sampleEvents() []audit.Event {
	at := time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC)
	return []audit.Event{
		{ID: 2, Version: "ke-2025-07", Action: audit.ActionPublished, Actor: "ops", Source: "cli", CreatedAt: at},
		{ID: 1, Version: "ke-2024-10", Action: audit.ActionSeeded, Source: "server", CreatedAt: at.Add(-time.Hour)},
	}
}

func TestListEvents(t *testing.T) {
	store := &fakeEvents{events: sampleEvents()}
	rec := httptest.NewRecorder()
	newRouter(store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/rule-sets?version=ke-2025-07&action=rule_set.published&includeDetails=true&limit=20&offset=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, audit.Filter{Version: "ke-2025-07", Action: audit.ActionPublished}, store.filter)
	assert.True(t, store.details)
	assert.Equal(t, 20, store.limit)
	assert.Equal(t, 5, store.offset)

	var env struct {
		Success bool          `json:"success"`
		Data    []audit.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	require.Len(t, env.Data, 2)
	assert.Equal(t, "ke-2025-07", env.Data[0].Version)
}

func TestListEventsRejectsBadPage(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeEvents{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/rule-sets?limit=zero", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env api.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, api.CodeValidation, env.Error.Code)
}

func TestListEventsStoreFailure(t *testing.T) {
	store := &fakeEvents{err: errors.New("connection reset"), countErr: errors.New("connection reset")}
	rec := httptest.NewRecorder()
	newRouter(store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/rule-sets", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestExportEvents(t *testing.T) {
	store := &fakeEvents{events: sampleEvents()}
	rec := httptest.NewRecorder()
	newRouter(store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/rule-sets/export?actor=ops", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rule-set-events.csv")
	assert.Equal(t, audit.Filter{Actor: "ops"}, store.filter)
	assert.Equal(t, exportLimit, store.limit)

	body := rec.Body.String()
	assert.Contains(t, body, "id,version,action,actor,source,created_at")
	assert.Contains(t, body, "2,ke-2025-07,rule_set.published,ops,cli,2025-03-03T09:30:00Z")
	assert.Contains(t, body, "1,ke-2024-10,rule_set.seeded,,server,2025-03-03T08:30:00Z")
}
