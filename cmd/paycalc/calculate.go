package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kepayroll/internal/domain/statutory"
)

func newCalculateCmd() *cobra.Command {
	var (
		engine engineFlags
		raw    statutory.RawInput
		format string
		annual bool
	)
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate statutory deductions for one monthly gross salary",
		Example: `  paycalc calculate --gross 50000 --type PERMANENT
  paycalc calculate --gross 80000 --type CONTRACT --policy contract-exempt --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("gross") {
				return fmt.Errorf("--gross is required")
			}
			input, err := raw.Parse()
			if err != nil {
				return err
			}
			at, err := engine.at()
			if err != nil {
				return err
			}
			svc, err := engine.service(cmd.Context(), 1)
			if err != nil {
				return err
			}
			calc, err := svc.Calculator(at)
			if err != nil {
				return err
			}
			result, err := calc.Calculate(input)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				if annual {
					return writeJSON(out, statutory.Annualize(result))
				}
				return writeJSON(out, result)
			case "text":
				writeResult(out, result)
				if annual {
					writeAnnual(out, statutory.Annualize(result))
				}
				return nil
			}
			return fmt.Errorf("unknown format %q (text, json)", format)
		},
	}
	cmd.Flags().Float64Var(&raw.GrossSalary, "gross", 0, "monthly gross salary in KES")
	cmd.Flags().StringVar(&raw.EmploymentType, "type", string(statutory.EmploymentPermanent), "employment type (PERMANENT, CONTRACT, CASUAL, INTERN)")
	cmd.Flags().Float64Var(&raw.InsurancePremiums, "insurance", 0, "monthly life or health insurance premiums")
	cmd.Flags().Float64Var(&raw.MortgageInterest, "mortgage", 0, "monthly mortgage interest")
	cmd.Flags().Float64Var(&raw.PensionContribution, "pension", 0, "monthly registered pension contribution")
	cmd.Flags().Float64Var(&raw.PostRetirementMedical, "medical", 0, "monthly post-retirement medical fund contribution")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json)")
	cmd.Flags().BoolVar(&annual, "annual", false, "also report annual totals")
	engine.register(cmd)
	return cmd
}

func newBandsCmd() *cobra.Command {
	var engine engineFlags
	cmd := &cobra.Command{
		Use:   "bands",
		Short: "Show the PAYE bands and contribution rates in force",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := engine.at()
			if err != nil {
				return err
			}
			svc, err := engine.service(cmd.Context(), 1)
			if err != nil {
				return err
			}
			calc, err := svc.Calculator(at)
			if err != nil {
				return err
			}
			writeBands(cmd.OutOrStdout(), calc.Rules())
			return nil
		},
	}
	engine.register(cmd)
	return cmd
}
