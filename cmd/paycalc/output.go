package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"kepayroll/internal/domain/statutory"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	mutedStyle = lipgloss.NewStyle().Faint(true)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
)

// amountTable renders rows whose columns after the first are right aligned.
func amountTable(headers []string, rows [][]string) string {
	return renderTable(headers, rows, 1)
}

// renderTable right aligns every column from rightFrom on.
func renderTable(headers []string, rows [][]string, rightFrom int) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := cellStyle
			if row == table.HeaderRow {
				style = style.Bold(true)
			}
			if col >= rightFrom {
				style = style.Align(lipgloss.Right)
			}
			return style
		}).
		String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func kes(m statutory.Money) string {
	return statutory.Round2(m).StringFixed(2)
}

func writeResult(w io.Writer, r statutory.Result) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s employee, gross KES %s", r.EmploymentType, kes(r.GrossSalary))))

	contribution := func(name string, c statutory.ContributionResult) []string {
		note := c.ExemptionReason
		return []string{name, kes(c.EmployeeAmount), kes(c.EmployerAmount), note}
	}
	fmt.Fprintln(w, amountTable(
		[]string{"Deduction", "Employee", "Employer", "Note"},
		[][]string{
			contribution("NSSF", r.NSSF),
			contribution("SHIF", r.SHIF),
			contribution("Housing Levy", r.HousingLevy),
			{"PAYE", kes(r.PAYE.Tax), "", ""},
			{"Total", kes(r.Totals.StatutoryDeductions), "", ""},
		},
	))

	fmt.Fprintf(w, "Taxable income:   %s\n", kes(r.PAYE.TaxableIncome))
	fmt.Fprintf(w, "Tax before relief: %s (personal relief %s)\n", kes(r.PAYE.TaxBeforeRelief), kes(r.PAYE.PersonalRelief))
	fmt.Fprintf(w, "Net pay:          %s (%s%% take-home)\n", kes(r.Totals.NetPay), r.Totals.TakeHomePercentage.StringFixed(2))
	fmt.Fprintf(w, "Employer cost:    %s\n", kes(r.EmployerCost))
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("rules %s, policy %s", r.RuleSetVersion, r.ExemptionPolicy)))
}

func writeAnnual(w io.Writer, a statutory.AnnualResult) {
	fmt.Fprintln(w, titleStyle.Render("Annual totals"))
	fmt.Fprintln(w, amountTable(
		[]string{"Component", "KES"},
		[][]string{
			{"Gross salary", kes(a.GrossSalary)},
			{"NSSF (employee)", kes(a.NSSFEmployee)},
			{"SHIF", kes(a.SHIF)},
			{"Housing Levy (employee)", kes(a.HousingLevyEmployee)},
			{"PAYE", kes(a.PAYE)},
			{"Statutory deductions", kes(a.StatutoryDeductions)},
			{"Net pay", kes(a.NetPay)},
			{"Employer cost", kes(a.EmployerCost)},
		},
	))
}

func writeBands(w io.Writer, set statutory.RuleSet) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Rule set %s (effective %s)", set.Version, set.EffectiveFrom.Format("2006-01-02"))))
	rows := make([][]string, 0, len(set.PAYE.Bands))
	for i, band := range set.PAYE.Bands {
		upper := "and above"
		if band.Max != nil {
			upper = band.Max.StringFixed(0)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			band.Min.StringFixed(0),
			upper,
			band.Rate.Shift(2).String() + "%",
		})
	}
	fmt.Fprintln(w, amountTable([]string{"Band", "From", "To", "Rate"}, rows))
	fmt.Fprintf(w, "Personal relief: %s per month\n", kes(set.PAYE.PersonalRelief))
	for i, tier := range set.NSSF.Tiers {
		fmt.Fprintf(w, "NSSF tier %d: %s%% up to %s\n", i+1, tier.Rate.Shift(2).String(), tier.UpperLimit.StringFixed(0))
	}
	fmt.Fprintf(w, "SHIF: %s%% of gross, minimum %s\n", set.SHIF.Rate.Shift(2).String(), kes(set.SHIF.Minimum))
	fmt.Fprintf(w, "Housing Levy: %s%% employee, %s%% employer\n", set.HousingLevy.EmployeeRate.Shift(2).String(), set.HousingLevy.EmployerRate.Shift(2).String())
}
