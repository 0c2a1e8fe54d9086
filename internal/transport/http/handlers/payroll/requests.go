package payrollhandler

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kepayroll/internal/domain/payroll"
	"kepayroll/internal/domain/statutory"
	"kepayroll/internal/transport/http/shared"
)

type calculateRequest struct {
	GrossSalary           *float64 `json:"grossSalary" validate:"required"`
	EmploymentType        string   `json:"employmentType" validate:"required"`
	InsurancePremiums     float64  `json:"insurancePremiums"`
	MortgageInterest      float64  `json:"mortgageInterest"`
	PensionContribution   float64  `json:"pensionContribution"`
	PostRetirementMedical float64  `json:"postRetirementMedical"`
	PayDate               string   `json:"payDate"`
}

func (p calculateRequest) raw() statutory.RawInput {
	return statutory.RawInput{
		GrossSalary:           *p.GrossSalary,
		EmploymentType:        p.EmploymentType,
		InsurancePremiums:     p.InsurancePremiums,
		MortgageInterest:      p.MortgageInterest,
		PensionContribution:   p.PensionContribution,
		PostRetirementMedical: p.PostRetirementMedical,
	}
}

type earningsPayload struct {
	BasicSalary            float64 `json:"basicSalary"`
	HouseAllowance         float64 `json:"houseAllowance"`
	TransportAllowance     float64 `json:"transportAllowance"`
	MedicalAllowance       float64 `json:"medicalAllowance"`
	LunchAllowance         float64 `json:"lunchAllowance"`
	CommunicationAllowance float64 `json:"communicationAllowance"`
	OtherAllowances        float64 `json:"otherAllowances"`
	OvertimePay            float64 `json:"overtimePay"`
	Bonus                  float64 `json:"bonus"`
	CarBenefit             float64 `json:"carBenefit"`
	HousingBenefit         float64 `json:"housingBenefit"`
	OtherBenefits          float64 `json:"otherBenefits"`
}

type deductionsPayload struct {
	Loans    float64 `json:"loans"`
	Advances float64 `json:"advances"`
	Other    float64 `json:"other"`
}

type reliefsPayload struct {
	InsurancePremiums     float64 `json:"insurancePremiums"`
	MortgageInterest      float64 `json:"mortgageInterest"`
	PensionContribution   float64 `json:"pensionContribution"`
	PostRetirementMedical float64 `json:"postRetirementMedical"`
}

type linePayload struct {
	Type        string  `json:"type" validate:"required,oneof=earning deduction"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type payslipRequest struct {
	EmployeeID     string            `json:"employeeId" validate:"required"`
	EmployeeName   string            `json:"employeeName"`
	EmploymentType string            `json:"employmentType" validate:"required"`
	BankAccount    string            `json:"bankAccount"`
	PayDate        string            `json:"payDate"`
	Earnings       earningsPayload   `json:"earnings"`
	Deductions     deductionsPayload `json:"deductions"`
	Reliefs        reliefsPayload    `json:"reliefs"`
	Lines          []linePayload     `json:"lines" validate:"max=50,dive"`
	PreviousNetPay *float64          `json:"previousNetPay"`
}

type periodPayload struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	PayDate   string `json:"payDate"`
}

type registerRequest struct {
	Period    periodPayload    `json:"period"`
	Employees []payslipRequest `json:"employees" validate:"required,min=1,max=1000,dive"`
}

// amounts converts payload numbers to Money, recording every rejected value
// on the validator under prefix.
type amounts struct {
	v      *shared.Validator
	prefix string
}

func (a amounts) money(field string, value float64) statutory.Money {
	m, err := statutory.MoneyFromFloat(field, value)
	if err != nil {
		a.v.Error(a.prefix, err)
	}
	return m
}

func (p payslipRequest) toInput(v *shared.Validator, prefix string) payroll.PayslipInput {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}
	a := amounts{v: v, prefix: prefix}

	in := payroll.PayslipInput{
		EmployeeID:   strings.TrimSpace(p.EmployeeID),
		EmployeeName: strings.TrimSpace(p.EmployeeName),
		BankAccount:  strings.TrimSpace(p.BankAccount),
		PayDate:      optionalDate(v, field("payDate"), p.PayDate),
		Earnings: payroll.Earnings{
			BasicSalary:            a.money("earnings.basicSalary", p.Earnings.BasicSalary),
			HouseAllowance:         a.money("earnings.houseAllowance", p.Earnings.HouseAllowance),
			TransportAllowance:     a.money("earnings.transportAllowance", p.Earnings.TransportAllowance),
			MedicalAllowance:       a.money("earnings.medicalAllowance", p.Earnings.MedicalAllowance),
			LunchAllowance:         a.money("earnings.lunchAllowance", p.Earnings.LunchAllowance),
			CommunicationAllowance: a.money("earnings.communicationAllowance", p.Earnings.CommunicationAllowance),
			OtherAllowances:        a.money("earnings.otherAllowances", p.Earnings.OtherAllowances),
			OvertimePay:            a.money("earnings.overtimePay", p.Earnings.OvertimePay),
			Bonus:                  a.money("earnings.bonus", p.Earnings.Bonus),
			CarBenefit:             a.money("earnings.carBenefit", p.Earnings.CarBenefit),
			HousingBenefit:         a.money("earnings.housingBenefit", p.Earnings.HousingBenefit),
			OtherBenefits:          a.money("earnings.otherBenefits", p.Earnings.OtherBenefits),
		},
		Deductions: payroll.OtherDeductions{
			Loans:    a.money("deductions.loans", p.Deductions.Loans),
			Advances: a.money("deductions.advances", p.Deductions.Advances),
			Other:    a.money("deductions.other", p.Deductions.Other),
		},
		Reliefs: statutory.Reliefs{
			InsurancePremiums:     a.money("reliefs.insurancePremiums", p.Reliefs.InsurancePremiums),
			MortgageInterest:      a.money("reliefs.mortgageInterest", p.Reliefs.MortgageInterest),
			PensionContribution:   a.money("reliefs.pensionContribution", p.Reliefs.PensionContribution),
			PostRetirementMedical: a.money("reliefs.postRetirementMedical", p.Reliefs.PostRetirementMedical),
		},
	}

	if p.EmploymentType != "" {
		employmentType, err := statutory.ParseEmploymentType(p.EmploymentType)
		if err != nil {
			v.Error(prefix, err)
		}
		in.EmploymentType = employmentType
	}
	for i, line := range p.Lines {
		in.Lines = append(in.Lines, payroll.InputLine{
			Type:        line.Type,
			Description: strings.TrimSpace(line.Description),
			Amount:      a.money(fmt.Sprintf("lines[%d].amount", i), line.Amount),
		})
	}
	if p.PreviousNetPay != nil {
		previous := decimal.NewFromFloat(*p.PreviousNetPay)
		in.PreviousNetPay = &previous
	}
	return in
}

func (p periodPayload) toPeriod(v *shared.Validator) payroll.Period {
	period := payroll.Period{
		Name:      strings.TrimSpace(p.Name),
		StartDate: optionalDate(v, "period.startDate", p.StartDate),
		EndDate:   optionalDate(v, "period.endDate", p.EndDate),
		PayDate:   optionalDate(v, "period.payDate", p.PayDate),
	}
	v.DateOrder("period.startDate", period.StartDate, "period.endDate", period.EndDate)
	return period
}
