package statutory

import "github.com/shopspring/decimal"

// PAYEResult explains how the tax on one month's income was reached.
type PAYEResult struct {
	TaxableIncome    Money           `json:"taxableIncome"`
	ChargeableIncome Money           `json:"chargeableIncome"`
	TaxBeforeRelief  Money           `json:"taxBeforeRelief"`
	PersonalRelief   Money           `json:"personalRelief"`
	InsuranceRelief  Money           `json:"insuranceRelief"`
	Tax              Money           `json:"tax"`
	Reliefs          ReliefBreakdown `json:"reliefs"`
	Bands            []BandCharge    `json:"bands,omitempty"`
}

// ComputePAYE is the banded tax on taxableIncome less personal relief,
// never below zero.
func (c Calculator) ComputePAYE(taxableIncome Money) Money {
	return c.paye(taxableIncome, Reliefs{}).Tax
}

func (c Calculator) paye(taxableIncome Money, reliefs Reliefs) PAYEResult {
	breakdown := c.rules.Reliefs.evaluate(reliefs)
	chargeable := nonNegative(taxableIncome)
	insuranceRelief := decimal.Zero
	if c.reliefMode == ReliefApply {
		breakdown.Applied = true
		chargeable = nonNegative(chargeable.Sub(breakdown.AllowableDeductions))
		insuranceRelief = breakdown.InsuranceRelief
	}

	result := PAYEResult{
		TaxableIncome:    taxableIncome,
		ChargeableIncome: chargeable,
		PersonalRelief:   c.rules.PAYE.PersonalRelief,
		InsuranceRelief:  insuranceRelief,
		Reliefs:          breakdown,
		TaxBeforeRelief:  decimal.Zero,
		Tax:              decimal.Zero,
	}
	if !chargeable.IsPositive() {
		return result
	}
	result.Bands = c.rules.PAYE.Bands.Charges(chargeable)
	for _, charge := range result.Bands {
		result.TaxBeforeRelief = result.TaxBeforeRelief.Add(charge.Tax)
	}
	relief := result.PersonalRelief.Add(insuranceRelief)
	result.Tax = nonNegative(result.TaxBeforeRelief.Sub(relief))
	return result
}

func (p PAYEResult) rounded() PAYEResult {
	p.TaxableIncome = Round2(p.TaxableIncome)
	p.ChargeableIncome = Round2(p.ChargeableIncome)
	p.TaxBeforeRelief = Round2(p.TaxBeforeRelief)
	p.PersonalRelief = Round2(p.PersonalRelief)
	p.InsuranceRelief = Round2(p.InsuranceRelief)
	p.Tax = Round2(p.Tax)
	p.Reliefs = p.Reliefs.rounded()
	if len(p.Bands) > 0 {
		bands := make([]BandCharge, len(p.Bands))
		for i, b := range p.Bands {
			bands[i] = BandCharge{Band: b.Band, Taxable: Round2(b.Taxable), Tax: Round2(b.Tax)}
		}
		p.Bands = bands
	}
	return p
}
