package payroll

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

type pdfRow struct {
	label  string
	amount Money
}

// WritePayslipPDF renders a single A4 payslip.
func WritePayslipPDF(w io.Writer, p Payslip) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payslip "+p.EmployeeID, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (%s)", p.EmployeeName, p.EmployeeID))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Employment type: %s", p.Statutory.EmploymentType))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Pay date: %s", p.PayDate.Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Rule set: %s", p.Statutory.RuleSetVersion))
	pdf.Ln(10)

	e := p.Earnings
	section(pdf, "Earnings", p.Currency, []pdfRow{
		{"Basic salary", e.BasicSalary},
		{"House allowance", e.HouseAllowance},
		{"Transport allowance", e.TransportAllowance},
		{"Medical allowance", e.MedicalAllowance},
		{"Lunch allowance", e.LunchAllowance},
		{"Communication allowance", e.CommunicationAllowance},
		{"Other allowances", e.OtherAllowances},
		{"Overtime", e.OvertimePay},
		{"Bonus", e.Bonus},
		{"Car benefit", e.CarBenefit},
		{"Housing benefit", e.HousingBenefit},
		{"Other benefits", e.OtherBenefits},
	}, pdfRow{"Gross pay", p.GrossPay})

	st := p.Statutory
	section(pdf, "Statutory deductions", p.Currency, []pdfRow{
		{"PAYE", st.PAYE.Tax},
		{"NSSF", st.NSSF.EmployeeAmount},
		{"SHIF", st.SHIF.EmployeeAmount},
		{"Housing levy", st.HousingLevy.EmployeeAmount},
	}, pdfRow{"Total statutory", st.Totals.StatutoryDeductions})

	d := p.OtherDeductions
	section(pdf, "Other deductions", p.Currency, []pdfRow{
		{"Loans", d.Loans},
		{"Advances", d.Advances},
		{"Other", d.Other},
		{"Input lines", p.LineDeductions},
	}, pdfRow{"Total other", p.TotalOtherDeductions})

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Net pay", "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, money(p.NetPay, p.Currency), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Ln(4)
	pdf.Cell(0, 5, fmt.Sprintf("Employer NSSF %s, employer housing levy %s, personal relief %s",
		money(st.NSSF.EmployerAmount, p.Currency),
		money(st.HousingLevy.EmployerAmount, p.Currency),
		money(st.PAYE.PersonalRelief, p.Currency)))
	pdf.Ln(5)
	for _, warning := range p.Warnings {
		pdf.Cell(0, 5, "Warning: "+warning)
		pdf.Ln(5)
	}

	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title, currency string, rows []pdfRow, total pdfRow) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		if row.amount.IsZero() {
			continue
		}
		pdf.CellFormat(120, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, money(row.amount, currency), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(120, 7, total.label, "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, money(total.amount, currency), "T", 1, "R", false, 0, "")
	pdf.Ln(4)
}

func money(m Money, currency string) string {
	return fmt.Sprintf("%s %s", currency, m.StringFixed(2))
}
