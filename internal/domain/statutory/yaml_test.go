package statutory

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoadFixture(t *testing.T, path string) []RuleSet {
	t.Helper()
	sets, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sets)
	return sets
}

func TestDecodeDemoFixture(t *testing.T) {
	sets := mustLoadFixture(t, "testdata/demo_rules.yaml")
	require.Len(t, sets, 1)
	set := sets[0]
	assert.Equal(t, "demo-mock", set.Version)
	assert.Equal(t, day(2024, 1, 1), set.EffectiveFrom.UTC())
	require.Len(t, set.PAYE.Bands, 6)
	assert.Nil(t, set.PAYE.Bands[5].Max)
	assertMoney(t, "0", set.PAYE.PersonalRelief)
	assertMoney(t, "0.30", set.PAYE.Bands[5].Rate)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeRuleSetsYAML(&buf, []RuleSet{DefaultRuleSet()}))

	sets, err := DecodeRuleSetsYAML(&buf)
	require.NoError(t, err)
	require.Len(t, sets, 1)

	in := Input{GrossSalary: kes(123456), EmploymentType: EmploymentContract}
	want, err := defaultCalculator().Calculate(in)
	require.NoError(t, err)
	got, err := NewCalculator(sets[0]).Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, want.Totals.NetPay.String(), got.Totals.NetPay.String())
	assert.Equal(t, want.PAYE.Tax.String(), got.PAYE.Tax.String())
}

func TestDecodeRuleSetsYAMLErrors(t *testing.T) {
	f, err := os.Open("testdata/unknown_field.yaml")
	require.NoError(t, err)
	defer f.Close()
	_, err = DecodeRuleSetsYAML(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surcharge")

	_, err = DecodeRuleSetsYAML(bytes.NewBufferString("rule_sets: []\n"))
	assert.True(t, errors.Is(err, ErrInvalidRuleSet))

	invalid := `
rule_sets:
  - version: gap
    effective_from: 2024-01-01
    paye:
      personal_relief: 0
      bands:
        - {min: 0, max: 100, rate: 0.1}
        - {min: 500, rate: 0.2}
    nssf:
      tiers:
        - {upper_limit: 7000, rate: 0.06}
    shif: {rate: 0.0275, minimum: 300}
    housing_levy: {employee_rate: 0.015, employer_rate: 0.015}
`
	_, err = DecodeRuleSetsYAML(bytes.NewBufferString(invalid))
	assert.True(t, errors.Is(err, ErrInvalidRuleSet))

	_, err = FileSource{Path: "testdata/missing.yaml"}.Load(context.Background())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestShippedRulesMatchDefault(t *testing.T) {
	sets := mustLoadFixture(t, "../../../configs/rules.yaml")
	require.Len(t, sets, 1)

	shipped := NewCalculator(sets[0])
	builtin := NewCalculator(DefaultRuleSet())
	assert.Equal(t, DefaultRuleSet().Version, sets[0].Version)
	assert.True(t, DefaultRuleSet().EffectiveFrom.Equal(sets[0].EffectiveFrom))
	for _, gross := range []string{"0", "7000", "24000", "50000", "123456.78", "900000"} {
		in := Input{GrossSalary: kesf(gross), EmploymentType: EmploymentPermanent}
		want, err := builtin.Calculate(in)
		require.NoError(t, err)
		got, err := shipped.Calculate(in)
		require.NoError(t, err)
		assertMoney(t, want.Totals.NetPay.StringFixed(2), got.Totals.NetPay)
	}
}
