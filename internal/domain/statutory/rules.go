package statutory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RuleSet is one versioned snapshot of the statutory rates. A RuleSet is
// never modified after it has been handed to a Registry.
type RuleSet struct {
	Version       string           `yaml:"version" json:"version"`
	EffectiveFrom time.Time        `yaml:"effective_from" json:"effectiveFrom"`
	Description   string           `yaml:"description,omitempty" json:"description,omitempty"`
	PAYE          PAYERules        `yaml:"paye" json:"paye"`
	NSSF          NSSFRules        `yaml:"nssf" json:"nssf"`
	SHIF          SHIFRules        `yaml:"shif" json:"shif"`
	HousingLevy   HousingLevyRules `yaml:"housing_levy" json:"housingLevy"`
	Reliefs       ReliefCaps       `yaml:"reliefs" json:"reliefs"`
}

type PAYERules struct {
	Bands          BandTable `yaml:"bands" json:"bands"`
	PersonalRelief Money     `yaml:"personal_relief" json:"personalRelief"`
}

// NSSFTier covers pensionable pay from the previous tier's upper limit (or
// zero) up to UpperLimit.
type NSSFTier struct {
	UpperLimit Money           `yaml:"upper_limit" json:"upperLimit"`
	Rate       decimal.Decimal `yaml:"rate" json:"rate"`
}

type NSSFRules struct {
	Tiers []NSSFTier `yaml:"tiers" json:"tiers"`
}

type SHIFRules struct {
	Rate    decimal.Decimal `yaml:"rate" json:"rate"`
	Minimum Money           `yaml:"minimum" json:"minimum"`
}

type HousingLevyRules struct {
	EmployeeRate decimal.Decimal `yaml:"employee_rate" json:"employeeRate"`
	EmployerRate decimal.Decimal `yaml:"employer_rate" json:"employerRate"`
}

// ReliefCaps are monthly limits on the optional PAYE reliefs.
type ReliefCaps struct {
	MortgageInterest      Money           `yaml:"mortgage_interest_cap" json:"mortgageInterestCap"`
	PensionContribution   Money           `yaml:"pension_contribution_cap" json:"pensionContributionCap"`
	PostRetirementMedical Money           `yaml:"post_retirement_medical_cap" json:"postRetirementMedicalCap"`
	InsuranceRate         decimal.Decimal `yaml:"insurance_rate" json:"insuranceRate"`
	InsuranceMonthlyCap   Money           `yaml:"insurance_monthly_cap" json:"insuranceMonthlyCap"`
}

func kes(v int64) Money {
	return decimal.NewFromInt(v)
}

func kesPtr(v int64) *Money {
	m := kes(v)
	return &m
}

func rate(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// DefaultRuleSet returns the monthly Kenyan rates in force since October 2024
// (Finance Act 2023 PAYE bands, NSSF Act 2013 phase two limits, SHIF, and the
// Affordable Housing Levy).
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Version:       "ke-2024-10",
		EffectiveFrom: time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
		Description:   "KRA PAYE bands, NSSF tiers I/II, SHIF 2.75%, Housing Levy 1.5%",
		PAYE: PAYERules{
			Bands: BandTable{
				{Min: kes(0), Max: kesPtr(24000), Rate: rate("0.10")},
				{Min: kes(24001), Max: kesPtr(32333), Rate: rate("0.25")},
				{Min: kes(32334), Max: kesPtr(500000), Rate: rate("0.30")},
				{Min: kes(500001), Max: kesPtr(800000), Rate: rate("0.325")},
				{Min: kes(800001), Rate: rate("0.35")},
			},
			PersonalRelief: kes(2400),
		},
		NSSF: NSSFRules{
			Tiers: []NSSFTier{
				{UpperLimit: kes(7000), Rate: rate("0.06")},
				{UpperLimit: kes(36000), Rate: rate("0.06")},
			},
		},
		SHIF: SHIFRules{
			Rate:    rate("0.0275"),
			Minimum: kes(300),
		},
		HousingLevy: HousingLevyRules{
			EmployeeRate: rate("0.015"),
			EmployerRate: rate("0.015"),
		},
		Reliefs: ReliefCaps{
			MortgageInterest:      kes(30000),
			PensionContribution:   kes(30000),
			PostRetirementMedical: kes(15000),
			InsuranceRate:         rate("0.15"),
			InsuranceMonthlyCap:   kes(5000),
		},
	}
}

// Clone returns a deep copy so the caller's slices cannot alias a registered
// snapshot.
func (r RuleSet) Clone() RuleSet {
	out := r
	out.PAYE.Bands = make(BandTable, len(r.PAYE.Bands))
	for i, band := range r.PAYE.Bands {
		out.PAYE.Bands[i] = band
		if band.Max != nil {
			upper := *band.Max
			out.PAYE.Bands[i].Max = &upper
		}
	}
	out.NSSF.Tiers = make([]NSSFTier, len(r.NSSF.Tiers))
	copy(out.NSSF.Tiers, r.NSSF.Tiers)
	return out
}

func (r RuleSet) Validate() error {
	if strings.TrimSpace(r.Version) == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidRuleSet)
	}
	if r.EffectiveFrom.IsZero() {
		return fmt.Errorf("%w: %s: effective_from is required", ErrInvalidRuleSet, r.Version)
	}
	if err := r.PAYE.Bands.Validate(); err != nil {
		return fmt.Errorf("%w: %s: paye: %v", ErrInvalidRuleSet, r.Version, err)
	}
	if r.PAYE.PersonalRelief.IsNegative() {
		return fmt.Errorf("%w: %s: personal relief must not be negative", ErrInvalidRuleSet, r.Version)
	}
	if err := r.NSSF.validate(); err != nil {
		return fmt.Errorf("%w: %s: nssf: %v", ErrInvalidRuleSet, r.Version, err)
	}
	if !validRate(r.SHIF.Rate) || r.SHIF.Minimum.IsNegative() {
		return fmt.Errorf("%w: %s: shif rate must be within [0,1] and minimum non-negative", ErrInvalidRuleSet, r.Version)
	}
	if !validRate(r.HousingLevy.EmployeeRate) || !validRate(r.HousingLevy.EmployerRate) {
		return fmt.Errorf("%w: %s: housing levy rates must be within [0,1]", ErrInvalidRuleSet, r.Version)
	}
	caps := r.Reliefs
	if caps.MortgageInterest.IsNegative() || caps.PensionContribution.IsNegative() ||
		caps.PostRetirementMedical.IsNegative() || caps.InsuranceMonthlyCap.IsNegative() ||
		!validRate(caps.InsuranceRate) {
		return fmt.Errorf("%w: %s: relief caps must not be negative", ErrInvalidRuleSet, r.Version)
	}
	return nil
}

func (n NSSFRules) validate() error {
	if len(n.Tiers) == 0 {
		return fmt.Errorf("at least one tier is required")
	}
	lower := decimal.Zero
	for i, tier := range n.Tiers {
		if !tier.UpperLimit.GreaterThan(lower) {
			return fmt.Errorf("tier %d upper limit must exceed %s", i+1, lower)
		}
		if !validRate(tier.Rate) {
			return fmt.Errorf("tier %d rate must be within [0,1]", i+1)
		}
		lower = tier.UpperLimit
	}
	return nil
}

func validRate(r decimal.Decimal) bool {
	return !r.IsNegative() && r.LessThanOrEqual(decimal.NewFromInt(1))
}
