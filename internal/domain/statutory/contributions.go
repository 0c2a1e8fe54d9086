package statutory

import "github.com/shopspring/decimal"

// ContributionResult is the split of one statutory contribution.
type ContributionResult struct {
	EmployeeAmount  Money        `json:"employeeAmount"`
	EmployerAmount  Money        `json:"employerAmount"`
	TotalAmount     Money        `json:"totalAmount"`
	ExemptionReason string       `json:"exemptionReason,omitempty"`
	Tiers           []TierCharge `json:"tiers,omitempty"`
}

// TierCharge is the employee contribution on one NSSF tier.
type TierCharge struct {
	Tier           int   `json:"tier"`
	PensionablePay Money `json:"pensionablePay"`
	EmployeeAmount Money `json:"employeeAmount"`
}

func (r ContributionResult) Exempt() bool {
	return r.ExemptionReason != ""
}

func exempted(reason string) ContributionResult {
	return ContributionResult{
		EmployeeAmount:  decimal.Zero,
		EmployerAmount:  decimal.Zero,
		TotalAmount:     decimal.Zero,
		ExemptionReason: reason,
	}
}

func matched(employee, employer Money) ContributionResult {
	return ContributionResult{
		EmployeeAmount: employee,
		EmployerAmount: employer,
		TotalAmount:    employee.Add(employer),
	}
}

// rounded rounds each side and derives the total from the rounded sides.
func (r ContributionResult) rounded() ContributionResult {
	r.EmployeeAmount = Round2(r.EmployeeAmount)
	r.EmployerAmount = Round2(r.EmployerAmount)
	r.TotalAmount = r.EmployeeAmount.Add(r.EmployerAmount)
	if len(r.Tiers) > 0 {
		tiers := make([]TierCharge, len(r.Tiers))
		for i, t := range r.Tiers {
			tiers[i] = TierCharge{Tier: t.Tier, PensionablePay: Round2(t.PensionablePay), EmployeeAmount: Round2(t.EmployeeAmount)}
		}
		r.Tiers = tiers
	}
	return r
}

// ComputeNSSF applies the tiered pension contribution. The employer matches
// the employee amount.
func (c Calculator) ComputeNSSF(gross Money, t EmploymentType) ContributionResult {
	if reason, ok := c.policy.Exempt(t, ContributionNSSF); ok {
		return exempted(reason)
	}
	employee := decimal.Zero
	lower := decimal.Zero
	tiers := make([]TierCharge, 0, len(c.rules.NSSF.Tiers))
	for i, tier := range c.rules.NSSF.Tiers {
		pensionable := decimal.Min(gross.Sub(lower), tier.UpperLimit.Sub(lower))
		pensionable = nonNegative(pensionable)
		amount := percentOf(pensionable, tier.Rate)
		tiers = append(tiers, TierCharge{Tier: i + 1, PensionablePay: pensionable, EmployeeAmount: amount})
		employee = employee.Add(amount)
		lower = tier.UpperLimit
	}
	result := matched(employee, employee)
	result.Tiers = tiers
	return result
}

// ComputeSHIF is the employee-only health levy, floored at the minimum for any
// positive salary.
func (c Calculator) ComputeSHIF(gross Money) Money {
	if !gross.IsPositive() {
		return decimal.Zero
	}
	return decimal.Max(percentOf(gross, c.rules.SHIF.Rate), c.rules.SHIF.Minimum)
}

func (c Calculator) ComputeHousingLevy(gross Money, t EmploymentType) ContributionResult {
	if reason, ok := c.policy.Exempt(t, ContributionHousingLevy); ok {
		return exempted(reason)
	}
	gross = nonNegative(gross)
	return matched(
		percentOf(gross, c.rules.HousingLevy.EmployeeRate),
		percentOf(gross, c.rules.HousingLevy.EmployerRate),
	)
}
