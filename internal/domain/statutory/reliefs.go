package statutory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ReliefMode string

const (
	// ReliefRecord reports eligible reliefs without changing PAYE.
	ReliefRecord ReliefMode = "record"
	// ReliefApply deducts allowable contributions from taxable income and
	// adds insurance relief to personal relief.
	ReliefApply ReliefMode = "apply"
)

func ParseReliefMode(raw string) (ReliefMode, error) {
	switch ReliefMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ReliefRecord:
		return ReliefRecord, nil
	case ReliefApply:
		return ReliefApply, nil
	}
	return "", fmt.Errorf("unknown relief mode %q", raw)
}

// Reliefs are the optional monthly amounts an employee may claim.
type Reliefs struct {
	InsurancePremiums     Money `json:"insurancePremiums"`
	MortgageInterest      Money `json:"mortgageInterest"`
	PensionContribution   Money `json:"pensionContribution"`
	PostRetirementMedical Money `json:"postRetirementMedical"`
}

func (r Reliefs) validate() error {
	fields := []struct {
		name  string
		value Money
	}{
		{"insurancePremiums", r.InsurancePremiums},
		{"mortgageInterest", r.MortgageInterest},
		{"pensionContribution", r.PensionContribution},
		{"postRetirementMedical", r.PostRetirementMedical},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return invalidInput(f.name, "must not be negative")
		}
	}
	return nil
}

// ReliefBreakdown holds the capped relief amounts. Applied is false when the
// amounts were only recorded.
type ReliefBreakdown struct {
	MortgageInterest      Money `json:"mortgageInterest"`
	PensionContribution   Money `json:"pensionContribution"`
	PostRetirementMedical Money `json:"postRetirementMedical"`
	AllowableDeductions   Money `json:"allowableDeductions"`
	InsuranceRelief       Money `json:"insuranceRelief"`
	Applied               bool  `json:"applied"`
}

func (c ReliefCaps) evaluate(r Reliefs) ReliefBreakdown {
	out := ReliefBreakdown{
		MortgageInterest:      decimal.Min(r.MortgageInterest, c.MortgageInterest),
		PensionContribution:   decimal.Min(r.PensionContribution, c.PensionContribution),
		PostRetirementMedical: decimal.Min(r.PostRetirementMedical, c.PostRetirementMedical),
		InsuranceRelief:       decimal.Min(percentOf(r.InsurancePremiums, c.InsuranceRate), c.InsuranceMonthlyCap),
	}
	out.AllowableDeductions = out.MortgageInterest.Add(out.PensionContribution).Add(out.PostRetirementMedical)
	return out
}

func (b ReliefBreakdown) rounded() ReliefBreakdown {
	b.MortgageInterest = Round2(b.MortgageInterest)
	b.PensionContribution = Round2(b.PensionContribution)
	b.PostRetirementMedical = Round2(b.PostRetirementMedical)
	b.AllowableDeductions = Round2(b.AllowableDeductions)
	b.InsuranceRelief = Round2(b.InsuranceRelief)
	return b
}
