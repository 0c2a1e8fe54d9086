package statutory

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

func TestPGStoreSaveLoad(t *testing.T) {
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

	store := NewPGStore(pool)
	set := datedRuleSet("test-store-2030", day(2030, time.January, 1), 2600)
	require.NoError(t, store.Save(ctx, set))
	defer func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM statutory_rule_sets WHERE version = $1", set.Version)
	}()

	sets, err := store.Load(ctx)
	require.NoError(t, err)
	var found *RuleSet
	for i := range sets {
		if sets[i].Version == set.Version {
			found = &sets[i]
		}
	}
	require.NotNil(t, found)
	assert.True(t, set.EffectiveFrom.Equal(found.EffectiveFrom))
	assertMoney(t, "2600", found.PAYE.PersonalRelief)
	require.Len(t, found.PAYE.Bands, 5)

	require.NoError(t, store.Deactivate(ctx, set.Version))
	sets, err = store.Load(ctx)
	require.NoError(t, err)
	for _, s := range sets {
		assert.NotEqual(t, set.Version, s.Version)
	}
	assert.Error(t, store.Deactivate(ctx, "no-such-version"))
}
