package statutory

import (
	"github.com/shopspring/decimal"
)

const (
	WarningNegativeNet       = "negative_net"
	WarningNSSFExempt        = "nssf_exempt"
	WarningHousingLevyExempt = "housing_levy_exempt"
)

// Calculator evaluates one rule set under one exemption policy. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	rules      RuleSet
	policy     ExemptionPolicy
	reliefMode ReliefMode
}

type Option func(*Calculator)

func WithExemptionPolicy(p ExemptionPolicy) Option {
	return func(c *Calculator) {
		c.policy = p
	}
}

func WithReliefMode(m ReliefMode) Option {
	return func(c *Calculator) {
		if m != "" {
			c.reliefMode = m
		}
	}
}

func NewCalculator(rules RuleSet, opts ...Option) Calculator {
	c := Calculator{rules: rules, reliefMode: ReliefRecord}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Calculator) Rules() RuleSet {
	return c.rules
}

func (c Calculator) Policy() ExemptionPolicy {
	return c.policy
}

func (c Calculator) ReliefMode() ReliefMode {
	return c.reliefMode
}

type Input struct {
	GrossSalary    Money
	EmploymentType EmploymentType
	Reliefs        Reliefs
}

// RawInput is the caller's view of Input before validation.
type RawInput struct {
	GrossSalary           float64
	EmploymentType        string
	InsurancePremiums     float64
	MortgageInterest      float64
	PensionContribution   float64
	PostRetirementMedical float64
}

func (r RawInput) Parse() (Input, error) {
	var in Input
	var err error
	if in.GrossSalary, err = MoneyFromFloat("grossSalary", r.GrossSalary); err != nil {
		return Input{}, err
	}
	if in.EmploymentType, err = ParseEmploymentType(r.EmploymentType); err != nil {
		return Input{}, err
	}
	reliefs := []struct {
		field string
		value float64
		dst   *Money
	}{
		{"insurancePremiums", r.InsurancePremiums, &in.Reliefs.InsurancePremiums},
		{"mortgageInterest", r.MortgageInterest, &in.Reliefs.MortgageInterest},
		{"pensionContribution", r.PensionContribution, &in.Reliefs.PensionContribution},
		{"postRetirementMedical", r.PostRetirementMedical, &in.Reliefs.PostRetirementMedical},
	}
	for _, relief := range reliefs {
		if *relief.dst, err = MoneyFromFloat(relief.field, relief.value); err != nil {
			return Input{}, err
		}
	}
	return in, nil
}

func (in Input) Validate() error {
	if in.GrossSalary.IsNegative() {
		return invalidInput("grossSalary", "must not be negative")
	}
	if !in.EmploymentType.Valid() {
		return invalidInput("employmentType", "must be one of PERMANENT, CONTRACT, CASUAL, INTERN")
	}
	return in.Reliefs.validate()
}

type Totals struct {
	StatutoryDeductions Money           `json:"statutoryDeductions"`
	NetPay              Money           `json:"netPay"`
	TakeHomePercentage  decimal.Decimal `json:"takeHomePercentage"`
}

// Result is the rounded breakdown for one month's pay.
type Result struct {
	RuleSetVersion  string             `json:"ruleSetVersion"`
	ExemptionPolicy string             `json:"exemptionPolicy"`
	EmploymentType  EmploymentType     `json:"employmentType"`
	GrossSalary     Money              `json:"grossSalary"`
	NSSF            ContributionResult `json:"nssf"`
	SHIF            ContributionResult `json:"shif"`
	HousingLevy     ContributionResult `json:"housingLevy"`
	PAYE            PAYEResult         `json:"paye"`
	Totals          Totals             `json:"totals"`
	EmployerCost    Money              `json:"employerCost"`
	Warnings        []string           `json:"warnings,omitempty"`
}

// Calculate runs NSSF, PAYE on gross less employee NSSF, SHIF and Housing
// Levy on gross, then nets them off. Components are computed at full precision
// and rounded once; totals are summed from the rounded components.
// NSSF is rounded before PAYE so taxable income matches the payslip.
func (c Calculator) Calculate(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	gross := in.GrossSalary

	// PAYE is charged on gross less the NSSF actually deducted.
	nssf := c.ComputeNSSF(gross, in.EmploymentType).rounded()
	taxable := Round2(gross).Sub(nssf.EmployeeAmount)
	paye := c.paye(taxable, in.Reliefs)
	shif := c.ComputeSHIF(gross)
	housing := c.ComputeHousingLevy(gross, in.EmploymentType)

	result := Result{
		RuleSetVersion:  c.rules.Version,
		ExemptionPolicy: c.policy.Name(),
		EmploymentType:  in.EmploymentType,
		GrossSalary:     Round2(gross),
		NSSF:            nssf,
		SHIF:            matched(shif, decimal.Zero).rounded(),
		HousingLevy:     housing.rounded(),
		PAYE:            paye.rounded(),
	}

	statutory := result.NSSF.EmployeeAmount.
		Add(result.SHIF.EmployeeAmount).
		Add(result.HousingLevy.EmployeeAmount).
		Add(result.PAYE.Tax)
	net := result.GrossSalary.Sub(statutory)
	result.Totals = Totals{
		StatutoryDeductions: statutory,
		NetPay:              net,
		TakeHomePercentage:  takeHome(net, result.GrossSalary),
	}
	result.EmployerCost = result.GrossSalary.
		Add(result.NSSF.EmployerAmount).
		Add(result.HousingLevy.EmployerAmount)
	result.Warnings = warningsFor(result)
	return result, nil
}

func takeHome(net, gross Money) decimal.Decimal {
	if !gross.IsPositive() {
		return decimal.Zero
	}
	return Round2(net.Div(gross).Mul(hundred))
}

func warningsFor(r Result) []string {
	var warnings []string
	if r.Totals.NetPay.IsNegative() {
		warnings = append(warnings, WarningNegativeNet)
	}
	if r.NSSF.Exempt() {
		warnings = append(warnings, WarningNSSFExempt)
	}
	if r.HousingLevy.Exempt() {
		warnings = append(warnings, WarningHousingLevyExempt)
	}
	return warnings
}
