package audit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kepayroll/internal/platform/db"
	"kepayroll/migrations"
)

func TestBuildBaseQuery(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		query  string
		args   []any
	}{
		{"no filter", Filter{}, "SELECT COUNT(1) FROM rule_set_events", nil},
		{"version", Filter{Version: "ke-2024-10"}, "SELECT COUNT(1) FROM rule_set_events WHERE version = $1", []any{"ke-2024-10"}},
		{
			"action and actor",
			Filter{Action: ActionPublished, Actor: "ops"},
			"SELECT COUNT(1) FROM rule_set_events WHERE action = $1 AND actor = $2",
			[]any{ActionPublished, "ops"},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			query, args := buildBaseQuery("SELECT COUNT(1)", tc.filter)
			assert.Equal(t, tc.query, query)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestRecordRejectsIncompleteEntry(t *testing.T) {
	svc := New(nil)
	require.Error(t, svc.Record(context.Background(), Entry{Action: ActionPublished}))
	require.Error(t, svc.Record(context.Background(), Entry{Version: "v1"}))
}

func TestRecordAndList(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, db.Migrate(ctx, pool, migrations.FS))

	version := "test-audit-" + time.Now().Format("150405.000000")
	defer func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM rule_set_events WHERE version = $1", version)
	}()

	svc := New(pool)
	require.NoError(t, svc.Record(ctx, Entry{Version: version, Action: ActionPublished, Actor: "ops", Source: "cli", After: map[string]string{"version": version}}))
	require.NoError(t, svc.Record(ctx, Entry{Version: version, Action: ActionDeactivated, Actor: "ops", Source: "cli"}))

	total, err := svc.Count(ctx, Filter{Version: version})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	events, err := svc.List(ctx, Filter{Version: version}, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionDeactivated, events[0].Action)
	assert.Empty(t, events[0].After)
	assert.JSONEq(t, `{"version":"`+version+`"}`, string(events[1].After))

	events, err = svc.List(ctx, Filter{Version: version, Action: ActionPublished}, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].After)
}
