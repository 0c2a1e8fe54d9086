package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"kepayroll/internal/domain/statutory"
)

type Money = statutory.Money

// Earnings are the monthly amounts that make up gross pay.
type Earnings struct {
	BasicSalary            Money `json:"basicSalary"`
	HouseAllowance         Money `json:"houseAllowance"`
	TransportAllowance     Money `json:"transportAllowance"`
	MedicalAllowance       Money `json:"medicalAllowance"`
	LunchAllowance         Money `json:"lunchAllowance"`
	CommunicationAllowance Money `json:"communicationAllowance"`
	OtherAllowances        Money `json:"otherAllowances"`
	OvertimePay            Money `json:"overtimePay"`
	Bonus                  Money `json:"bonus"`
	CarBenefit             Money `json:"carBenefit"`
	HousingBenefit         Money `json:"housingBenefit"`
	OtherBenefits          Money `json:"otherBenefits"`
}

func (e Earnings) fields() []namedAmount {
	return []namedAmount{
		{"basicSalary", e.BasicSalary},
		{"houseAllowance", e.HouseAllowance},
		{"transportAllowance", e.TransportAllowance},
		{"medicalAllowance", e.MedicalAllowance},
		{"lunchAllowance", e.LunchAllowance},
		{"communicationAllowance", e.CommunicationAllowance},
		{"otherAllowances", e.OtherAllowances},
		{"overtimePay", e.OvertimePay},
		{"bonus", e.Bonus},
		{"carBenefit", e.CarBenefit},
		{"housingBenefit", e.HousingBenefit},
		{"otherBenefits", e.OtherBenefits},
	}
}

// TotalAllowances includes overtime and bonus.
func (e Earnings) TotalAllowances() Money {
	return sum(e.HouseAllowance, e.TransportAllowance, e.MedicalAllowance, e.LunchAllowance,
		e.CommunicationAllowance, e.OtherAllowances, e.OvertimePay, e.Bonus)
}

func (e Earnings) TotalBenefits() Money {
	return sum(e.CarBenefit, e.HousingBenefit, e.OtherBenefits)
}

func (e Earnings) Gross() Money {
	return sum(e.BasicSalary, e.TotalAllowances(), e.TotalBenefits())
}

// OtherDeductions are taken after the statutory deductions.
type OtherDeductions struct {
	Loans    Money `json:"loans"`
	Advances Money `json:"advances"`
	Other    Money `json:"other"`
}

func (d OtherDeductions) Total() Money {
	return sum(d.Loans, d.Advances, d.Other)
}

func (d OtherDeductions) fields() []namedAmount {
	return []namedAmount{
		{"loans", d.Loans},
		{"advances", d.Advances},
		{"other", d.Other},
	}
}

type Period struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	PayDate   time.Time `json:"payDate"`
}

type PayslipInput struct {
	EmployeeID     string                   `json:"employeeId"`
	EmployeeName   string                   `json:"employeeName"`
	EmploymentType statutory.EmploymentType `json:"employmentType"`
	BankAccount    string                   `json:"bankAccount,omitempty"`
	PayDate        time.Time                `json:"payDate"`
	Earnings       Earnings                 `json:"earnings"`
	Deductions     OtherDeductions          `json:"deductions"`
	Reliefs        statutory.Reliefs        `json:"reliefs"`
	Lines          []InputLine              `json:"lines,omitempty"`
	PreviousNetPay *Money                   `json:"previousNetPay,omitempty"`
}

type Payslip struct {
	ID                   string           `json:"id"`
	EmployeeID           string           `json:"employeeId"`
	EmployeeName         string           `json:"employeeName"`
	PayDate              time.Time        `json:"payDate"`
	Currency             string           `json:"currency"`
	Earnings             Earnings         `json:"earnings"`
	TotalAllowances      Money            `json:"totalAllowances"`
	TotalBenefits        Money            `json:"totalBenefits"`
	GrossPay             Money            `json:"grossPay"`
	Statutory            statutory.Result `json:"statutory"`
	OtherDeductions      OtherDeductions  `json:"otherDeductions"`
	LineDeductions       Money            `json:"lineDeductions"`
	TotalOtherDeductions Money            `json:"totalOtherDeductions"`
	TotalDeductions      Money            `json:"totalDeductions"`
	NetPay               Money            `json:"netPay"`
	EmployerCost         Money            `json:"employerCost"`
	Warnings             []string         `json:"warnings,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
}

type PeriodSummary struct {
	EmployeeCount            int            `json:"employeeCount"`
	TotalBasicSalary         Money          `json:"totalBasicSalary"`
	TotalAllowances          Money          `json:"totalAllowances"`
	TotalBenefits            Money          `json:"totalBenefits"`
	TotalGross               Money          `json:"totalGross"`
	TotalPAYE                Money          `json:"totalPaye"`
	TotalNSSFEmployee        Money          `json:"totalNssfEmployee"`
	TotalNSSFEmployer        Money          `json:"totalNssfEmployer"`
	TotalSHIF                Money          `json:"totalShif"`
	TotalHousingLevyEmployee Money          `json:"totalHousingLevyEmployee"`
	TotalHousingLevyEmployer Money          `json:"totalHousingLevyEmployer"`
	TotalOtherDeductions     Money          `json:"totalOtherDeductions"`
	TotalDeductions          Money          `json:"totalDeductions"`
	TotalNet                 Money          `json:"totalNet"`
	TotalEmployerCost        Money          `json:"totalEmployerCost"`
	TotalPersonalRelief      Money          `json:"totalPersonalRelief"`
	TotalInsuranceRelief     Money          `json:"totalInsuranceRelief"`
	Warnings                 map[string]int `json:"warnings"`
}

type Register struct {
	Period   Period        `json:"period"`
	Payslips []Payslip     `json:"payslips"`
	Summary  PeriodSummary `json:"summary"`
}

type namedAmount struct {
	name  string
	value Money
}

func sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
