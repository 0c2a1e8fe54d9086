package payroll

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"kepayroll/internal/domain/statutory"
)

// RegisterRow is one line of the exported payroll register.
type RegisterRow struct {
	EmployeeID          string `csv:"employee_id"`
	EmployeeName        string `csv:"employee_name"`
	EmploymentType      string `csv:"employment_type"`
	PayDate             string `csv:"pay_date"`
	GrossPay            string `csv:"gross_pay"`
	PAYE                string `csv:"paye"`
	NSSFEmployee        string `csv:"nssf_employee"`
	NSSFEmployer        string `csv:"nssf_employer"`
	SHIF                string `csv:"shif"`
	HousingLevyEmployee string `csv:"housing_levy_employee"`
	HousingLevyEmployer string `csv:"housing_levy_employer"`
	OtherDeductions     string `csv:"other_deductions"`
	TotalDeductions     string `csv:"total_deductions"`
	NetPay              string `csv:"net_pay"`
	Currency            string `csv:"currency"`
	Warnings            string `csv:"warnings"`
}

func WriteRegisterCSV(w io.Writer, payslips []Payslip) error {
	rows := make([]RegisterRow, 0, len(payslips))
	for _, p := range payslips {
		st := p.Statutory
		rows = append(rows, RegisterRow{
			EmployeeID:          p.EmployeeID,
			EmployeeName:        p.EmployeeName,
			EmploymentType:      string(st.EmploymentType),
			PayDate:             p.PayDate.Format("2006-01-02"),
			GrossPay:            p.GrossPay.StringFixed(2),
			PAYE:                st.PAYE.Tax.StringFixed(2),
			NSSFEmployee:        st.NSSF.EmployeeAmount.StringFixed(2),
			NSSFEmployer:        st.NSSF.EmployerAmount.StringFixed(2),
			SHIF:                st.SHIF.EmployeeAmount.StringFixed(2),
			HousingLevyEmployee: st.HousingLevy.EmployeeAmount.StringFixed(2),
			HousingLevyEmployer: st.HousingLevy.EmployerAmount.StringFixed(2),
			OtherDeductions:     p.TotalOtherDeductions.StringFixed(2),
			TotalDeductions:     p.TotalDeductions.StringFixed(2),
			NetPay:              p.NetPay.StringFixed(2),
			Currency:            p.Currency,
			Warnings:            strings.Join(p.Warnings, ";"),
		})
	}
	return gocsv.Marshal(rows, w)
}

// RegisterInputRow is one employee line of an imported register sheet.
// Empty amount cells are read as zero.
type RegisterInputRow struct {
	EmployeeID             string `csv:"employee_id"`
	EmployeeName           string `csv:"employee_name"`
	EmploymentType         string `csv:"employment_type"`
	BankAccount            string `csv:"bank_account"`
	PayDate                string `csv:"pay_date"`
	BasicSalary            string `csv:"basic_salary"`
	HouseAllowance         string `csv:"house_allowance"`
	TransportAllowance     string `csv:"transport_allowance"`
	MedicalAllowance       string `csv:"medical_allowance"`
	LunchAllowance         string `csv:"lunch_allowance"`
	CommunicationAllowance string `csv:"communication_allowance"`
	OtherAllowances        string `csv:"other_allowances"`
	OvertimePay            string `csv:"overtime_pay"`
	Bonus                  string `csv:"bonus"`
	CarBenefit             string `csv:"car_benefit"`
	HousingBenefit         string `csv:"housing_benefit"`
	OtherBenefits          string `csv:"other_benefits"`
	Loans                  string `csv:"loan_deductions"`
	Advances               string `csv:"advance_deductions"`
	OtherDeductions        string `csv:"other_deductions"`
	InsurancePremiums      string `csv:"insurance_premiums"`
	MortgageInterest       string `csv:"mortgage_interest"`
	PensionContribution    string `csv:"pension_contribution"`
	PostRetirementMedical  string `csv:"post_retirement_medical"`
}

// ReadRegisterCSV parses a register sheet into payslip inputs.
func ReadRegisterCSV(r io.Reader) ([]PayslipInput, error) {
	var rows []RegisterInputRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	inputs := make([]PayslipInput, 0, len(rows))
	for i, row := range rows {
		in, err := row.toInput()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func (row RegisterInputRow) toInput() (PayslipInput, error) {
	employmentType, err := statutory.ParseEmploymentType(row.EmploymentType)
	if err != nil {
		return PayslipInput{}, err
	}
	in := PayslipInput{
		EmployeeID:     strings.TrimSpace(row.EmployeeID),
		EmployeeName:   strings.TrimSpace(row.EmployeeName),
		EmploymentType: employmentType,
		BankAccount:    strings.TrimSpace(row.BankAccount),
	}
	if raw := strings.TrimSpace(row.PayDate); raw != "" {
		if in.PayDate, err = time.Parse("2006-01-02", raw); err != nil {
			return PayslipInput{}, &statutory.InputError{Field: "pay_date", Reason: "must be a valid date in YYYY-MM-DD format"}
		}
	}
	cells := []struct {
		field string
		raw   string
		dst   *Money
	}{
		{"basic_salary", row.BasicSalary, &in.Earnings.BasicSalary},
		{"house_allowance", row.HouseAllowance, &in.Earnings.HouseAllowance},
		{"transport_allowance", row.TransportAllowance, &in.Earnings.TransportAllowance},
		{"medical_allowance", row.MedicalAllowance, &in.Earnings.MedicalAllowance},
		{"lunch_allowance", row.LunchAllowance, &in.Earnings.LunchAllowance},
		{"communication_allowance", row.CommunicationAllowance, &in.Earnings.CommunicationAllowance},
		{"other_allowances", row.OtherAllowances, &in.Earnings.OtherAllowances},
		{"overtime_pay", row.OvertimePay, &in.Earnings.OvertimePay},
		{"bonus", row.Bonus, &in.Earnings.Bonus},
		{"car_benefit", row.CarBenefit, &in.Earnings.CarBenefit},
		{"housing_benefit", row.HousingBenefit, &in.Earnings.HousingBenefit},
		{"other_benefits", row.OtherBenefits, &in.Earnings.OtherBenefits},
		{"loan_deductions", row.Loans, &in.Deductions.Loans},
		{"advance_deductions", row.Advances, &in.Deductions.Advances},
		{"other_deductions", row.OtherDeductions, &in.Deductions.Other},
		{"insurance_premiums", row.InsurancePremiums, &in.Reliefs.InsurancePremiums},
		{"mortgage_interest", row.MortgageInterest, &in.Reliefs.MortgageInterest},
		{"pension_contribution", row.PensionContribution, &in.Reliefs.PensionContribution},
		{"post_retirement_medical", row.PostRetirementMedical, &in.Reliefs.PostRetirementMedical},
	}
	for _, cell := range cells {
		value, err := parseAmount(cell.raw)
		if err != nil {
			return PayslipInput{}, &statutory.InputError{Field: cell.field, Reason: "must be a number"}
		}
		*cell.dst = value
	}
	return in, nil
}

func parseAmount(raw string) (Money, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
