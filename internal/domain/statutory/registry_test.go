package statutory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datedRuleSet(version string, from time.Time, relief int64) RuleSet {
	set := DefaultRuleSet()
	set.Version = version
	set.EffectiveFrom = from
	set.PAYE.PersonalRelief = kes(relief)
	return set
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRegistryActive(t *testing.T) {
	older := datedRuleSet("ke-2023-07", day(2023, time.July, 1), 2400)
	newer := datedRuleSet("ke-2025-01", day(2025, time.January, 1), 2500)
	reg, err := NewRegistry(newer, older, DefaultRuleSet())
	require.NoError(t, err)

	tests := []struct {
		at   time.Time
		want string
	}{
		{at: day(2023, time.July, 1), want: "ke-2023-07"},
		{at: day(2024, time.September, 30), want: "ke-2023-07"},
		{at: day(2024, time.October, 1), want: "ke-2024-10"},
		{at: day(2024, time.December, 31), want: "ke-2024-10"},
		{at: day(2026, time.March, 15), want: "ke-2025-01"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.at.Format("2006-01-02"), func(t *testing.T) {
			got, err := reg.Active(tc.at)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Version)
		})
	}

	_, err = reg.Active(day(2020, time.January, 1))
	assert.True(t, errors.Is(err, ErrNoRuleSet))

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "ke-2023-07", all[0].Version)
	assert.Equal(t, "ke-2025-01", all[2].Version)

	_, ok := reg.Version("ke-2024-10")
	assert.True(t, ok)
	_, ok = reg.Version("ke-1999-01")
	assert.False(t, ok)
}

func TestRegistryReplaceRejectsBadSetsAndKeepsSnapshot(t *testing.T) {
	reg, err := NewRegistry(DefaultRuleSet())
	require.NoError(t, err)

	err = reg.Replace([]RuleSet{DefaultRuleSet(), DefaultRuleSet()})
	assert.True(t, errors.Is(err, ErrInvalidRuleSet))
	assert.Contains(t, err.Error(), "duplicate version")

	broken := DefaultRuleSet()
	broken.Version = "broken"
	broken.PAYE.Bands = broken.PAYE.Bands[:2]
	err = reg.Replace([]RuleSet{broken})
	assert.True(t, errors.Is(err, ErrInvalidRuleSet))

	assert.True(t, errors.Is(reg.Replace(nil), ErrInvalidRuleSet))

	active, err := reg.Active(day(2025, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, "ke-2024-10", active.Version)
}

func TestRegistrySnapshotsAreIsolatedFromCallers(t *testing.T) {
	input := DefaultRuleSet()
	reg, err := NewRegistry(input)
	require.NoError(t, err)

	upper := kes(1)
	input.PAYE.Bands[0].Max = &upper
	input.NSSF.Tiers[0].Rate = rate("0.5")

	active, err := reg.Active(day(2025, time.January, 1))
	require.NoError(t, err)
	assertMoney(t, "24000", *active.PAYE.Bands[0].Max)
	assertMoney(t, "0.06", active.NSSF.Tiers[0].Rate)
}

type failingSource struct{}

func (failingSource) Load(context.Context) ([]RuleSet, error) {
	return nil, errors.New("source unavailable")
}

func TestRegistryReload(t *testing.T) {
	reg, err := NewRegistry(DefaultRuleSet())
	require.NoError(t, err)

	err = reg.Reload(context.Background(), failingSource{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load rule sets")
	assert.Len(t, reg.All(), 1)

	next := datedRuleSet("ke-2025-07", day(2025, time.July, 1), 2400)
	require.NoError(t, reg.Reload(context.Background(), StaticSource{DefaultRuleSet(), next}))
	assert.Len(t, reg.All(), 2)
}

func TestRegistryConcurrentReadsDuringReplace(t *testing.T) {
	reg, err := NewRegistry(DefaultRuleSet())
	require.NoError(t, err)
	alternate := datedRuleSet("ke-2024-10-b", day(2024, time.October, 1), 2400)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				set, err := reg.Active(day(2025, time.January, 1))
				if err != nil {
					t.Error(err)
					return
				}
				res, err := NewCalculator(set).Calculate(Input{GrossSalary: kes(50000), EmploymentType: EmploymentPermanent})
				if err != nil {
					t.Error(err)
					return
				}
				if res.PAYE.Tax.StringFixed(2) != "6735.35" {
					t.Errorf("unexpected tax %s from %s", res.PAYE.Tax, set.Version)
					return
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		if j%2 == 0 {
			require.NoError(t, reg.Replace([]RuleSet{alternate}))
		} else {
			require.NoError(t, reg.Replace([]RuleSet{DefaultRuleSet()}))
		}
	}
	wg.Wait()
}
