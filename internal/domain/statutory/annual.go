package statutory

// AnnualResult scales a monthly Result to twelve months.
type AnnualResult struct {
	RuleSetVersion      string `json:"ruleSetVersion"`
	GrossSalary         Money  `json:"grossSalary"`
	NSSFEmployee        Money  `json:"nssfEmployee"`
	NSSFEmployer        Money  `json:"nssfEmployer"`
	SHIF                Money  `json:"shif"`
	HousingLevyEmployee Money  `json:"housingLevyEmployee"`
	HousingLevyEmployer Money  `json:"housingLevyEmployer"`
	TaxableIncome       Money  `json:"taxableIncome"`
	PersonalRelief      Money  `json:"personalRelief"`
	PAYE                Money  `json:"paye"`
	StatutoryDeductions Money  `json:"statutoryDeductions"`
	NetPay              Money  `json:"netPay"`
	EmployerCost        Money  `json:"employerCost"`
}

func Annualize(r Result) AnnualResult {
	return AnnualResult{
		RuleSetVersion:      r.RuleSetVersion,
		GrossSalary:         r.GrossSalary.Mul(twelve),
		NSSFEmployee:        r.NSSF.EmployeeAmount.Mul(twelve),
		NSSFEmployer:        r.NSSF.EmployerAmount.Mul(twelve),
		SHIF:                r.SHIF.EmployeeAmount.Mul(twelve),
		HousingLevyEmployee: r.HousingLevy.EmployeeAmount.Mul(twelve),
		HousingLevyEmployer: r.HousingLevy.EmployerAmount.Mul(twelve),
		TaxableIncome:       r.PAYE.TaxableIncome.Mul(twelve),
		PersonalRelief:      r.PAYE.PersonalRelief.Mul(twelve),
		PAYE:                r.PAYE.Tax.Mul(twelve),
		StatutoryDeductions: r.Totals.StatutoryDeductions.Mul(twelve),
		NetPay:              r.Totals.NetPay.Mul(twelve),
		EmployerCost:        r.EmployerCost.Mul(twelve),
	}
}
