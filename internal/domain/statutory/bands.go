package statutory

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxBand is one progressive PAYE band. A nil Max marks the open-ended top
// band.
type TaxBand struct {
	Min  Money           `yaml:"min" json:"min"`
	Max  *Money          `yaml:"max,omitempty" json:"max,omitempty"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

// BandCharge is the tax raised by a single band for one income.
type BandCharge struct {
	Band    TaxBand `json:"band"`
	Taxable Money   `json:"taxable"`
	Tax     Money   `json:"tax"`
}

// BandTable is an ascending list of contiguous bands. Each band taxes the
// slice of income above the previous band's Max, up to and including its own
// Max, so income exactly on a boundary belongs to the lower band.
type BandTable []TaxBand

var one = decimal.NewFromInt(1)

func (t BandTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("at least one band is required")
	}
	if !t[0].Min.IsZero() {
		return fmt.Errorf("first band must start at 0")
	}
	for i, band := range t {
		if !validRate(band.Rate) {
			return fmt.Errorf("band %d rate must be within [0,1]", i+1)
		}
		last := i == len(t)-1
		if band.Max == nil && !last {
			return fmt.Errorf("only the last band may be unbounded")
		}
		if band.Max != nil && last {
			return fmt.Errorf("last band must be unbounded")
		}
		if band.Max != nil && !band.Max.GreaterThan(band.Min) {
			return fmt.Errorf("band %d max must exceed min", i+1)
		}
		if i == 0 {
			continue
		}
		prev := *t[i-1].Max
		if !band.Min.Equal(prev) && !band.Min.Equal(prev.Add(one)) {
			return fmt.Errorf("band %d must start at %s or %s", i+1, prev, prev.Add(one))
		}
	}
	return nil
}

// Charges splits income across the bands it reaches.
func (t BandTable) Charges(income Money) []BandCharge {
	if !income.IsPositive() {
		return nil
	}
	charges := make([]BandCharge, 0, len(t))
	lower := decimal.Zero
	for _, band := range t {
		if income.LessThanOrEqual(lower) {
			break
		}
		upper := income
		if band.Max != nil && band.Max.LessThan(income) {
			upper = *band.Max
		}
		taxable := upper.Sub(lower)
		charges = append(charges, BandCharge{
			Band:    band,
			Taxable: taxable,
			Tax:     taxable.Mul(band.Rate),
		})
		if band.Max == nil {
			break
		}
		lower = *band.Max
	}
	return charges
}

// Tax is the progressive tax on income before any relief.
func (t BandTable) Tax(income Money) Money {
	total := decimal.Zero
	for _, charge := range t.Charges(income) {
		total = total.Add(charge.Tax)
	}
	return total
}
