package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"kepayroll/internal/domain/payroll"
	"kepayroll/internal/domain/statutory"
	"kepayroll/internal/platform/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// engineFlags are shared by every command that needs a calculator.
type engineFlags struct {
	rulesFile  string
	policy     string
	reliefMode string
	date       string
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rulesFile, "rules", "", "YAML rule set file (default: built-in Kenyan rates)")
	cmd.Flags().StringVar(&f.policy, "policy", statutory.PolicyCurrent, "exemption policy (current, legacy-casual, contract-exempt)")
	cmd.Flags().StringVar(&f.reliefMode, "relief-mode", string(statutory.ReliefRecord), "relief handling (record, apply)")
	cmd.Flags().StringVar(&f.date, "date", "", "date whose rule set applies, YYYY-MM-DD (default: today)")
}

func (f *engineFlags) registry(ctx context.Context) (*statutory.Registry, error) {
	var source statutory.Source = statutory.StaticSource{statutory.DefaultRuleSet()}
	if f.rulesFile != "" {
		source = statutory.FileSource{Path: f.rulesFile}
	}
	sets, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return statutory.NewRegistry(sets...)
}

func (f *engineFlags) service(ctx context.Context, workers int) (*payroll.Service, error) {
	reg, err := f.registry(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := statutory.ExemptionPolicyByName(f.policy)
	if err != nil {
		return nil, err
	}
	mode, err := statutory.ParseReliefMode(f.reliefMode)
	if err != nil {
		return nil, err
	}
	return payroll.NewService(reg,
		payroll.WithExemptionPolicy(policy),
		payroll.WithReliefMode(mode),
		payroll.WithWorkers(workers),
	), nil
}

func (f *engineFlags) at() (time.Time, error) {
	if f.date == "" {
		return time.Time{}, nil
	}
	at, err := time.Parse("2006-01-02", f.date)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return at, nil
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:   "paycalc",
		Short: "Kenyan statutory payroll calculator",
		Long:  "Computes PAYE, NSSF, SHIF and Housing Levy deductions, payslips and payroll registers.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup("development", logLevel)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.AddCommand(
		newCalculateCmd(),
		newBandsCmd(),
		newRegisterCmd(),
		newRulesCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "paycalc %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
