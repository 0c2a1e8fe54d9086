package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kepayroll/internal/domain/payroll"
)

func newRegisterCmd() *cobra.Command {
	var (
		engine      engineFlags
		format      string
		outputPath  string
		periodName  string
		payDate     string
		payslipsDir string
		workers     int
	)
	cmd := &cobra.Command{
		Use:   "register [input.csv]",
		Short: "Run a payroll register from a CSV of employee earnings",
		Long: `Reads one employee per row (employee_id, employment_type, basic_salary and the
optional allowance, benefit, deduction and relief columns), computes every
payslip and writes the register as CSV, JSON or a period summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			inputs, err := payroll.ReadRegisterCSV(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			period := payroll.Period{Name: periodName}
			if payDate != "" {
				if period.PayDate, err = time.Parse("2006-01-02", payDate); err != nil {
					return fmt.Errorf("--pay-date must be YYYY-MM-DD: %w", err)
				}
			}
			svc, err := engine.service(cmd.Context(), workers)
			if err != nil {
				return err
			}
			register, err := svc.RunRegister(cmd.Context(), period, inputs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputPath != "" {
				file, err := os.Create(outputPath)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			if err := writeRegister(out, format, register); err != nil {
				return err
			}
			if payslipsDir != "" {
				return writePayslips(payslipsDir, register.Payslips)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv, json, summary)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the register to a file instead of stdout")
	cmd.Flags().StringVar(&periodName, "period", "", "period name, e.g. \"May 2025\"")
	cmd.Flags().StringVar(&payDate, "pay-date", "", "pay date for rows without one, YYYY-MM-DD")
	cmd.Flags().StringVar(&payslipsDir, "payslips", "", "also write one PDF payslip per employee into this directory")
	cmd.Flags().IntVar(&workers, "workers", payroll.DefaultWorkers, "concurrent payslip calculations")
	engine.register(cmd)
	return cmd
}

func writeRegister(w io.Writer, format string, register payroll.Register) error {
	switch format {
	case "csv":
		return payroll.WriteRegisterCSV(w, register.Payslips)
	case "json":
		return writeJSON(w, register)
	case "summary":
		writeSummary(w, register)
		return nil
	}
	return fmt.Errorf("unknown format %q (csv, json, summary)", format)
}

func writeSummary(w io.Writer, register payroll.Register) {
	s := register.Summary
	title := "Payroll summary"
	if register.Period.Name != "" {
		title += ": " + register.Period.Name
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%d employees)", title, s.EmployeeCount)))
	fmt.Fprintln(w, amountTable(
		[]string{"Component", "Employee", "Employer"},
		[][]string{
			{"Gross pay", kes(s.TotalGross), ""},
			{"PAYE", kes(s.TotalPAYE), ""},
			{"NSSF", kes(s.TotalNSSFEmployee), kes(s.TotalNSSFEmployer)},
			{"SHIF", kes(s.TotalSHIF), ""},
			{"Housing Levy", kes(s.TotalHousingLevyEmployee), kes(s.TotalHousingLevyEmployer)},
			{"Other deductions", kes(s.TotalOtherDeductions), ""},
			{"Net pay", kes(s.TotalNet), ""},
			{"Employer cost", "", kes(s.TotalEmployerCost)},
		},
	))
	warnings := make([]string, 0, len(s.Warnings))
	for warning := range s.Warnings {
		warnings = append(warnings, warning)
	}
	sort.Strings(warnings)
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s x%d\n", warning, s.Warnings[warning])
	}
}

func writePayslips(dir string, payslips []payroll.Payslip) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, slip := range payslips {
		name := fmt.Sprintf("payslip-%s-%s.pdf", strings.ReplaceAll(slip.EmployeeID, string(filepath.Separator), "-"), slip.PayDate.Format("2006-01"))
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		err = payroll.WritePayslipPDF(f, slip)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("payslip %s: %w", slip.EmployeeID, err)
		}
	}
	return nil
}
