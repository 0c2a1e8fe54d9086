package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kepayroll/internal/domain/statutory"
)

// RuleProvider resolves the rule set in force on a date. *statutory.Registry
// satisfies it.
type RuleProvider interface {
	Active(at time.Time) (statutory.RuleSet, error)
}

type Service struct {
	rules      RuleProvider
	policy     statutory.ExemptionPolicy
	reliefMode statutory.ReliefMode
	workers    int
	currency   string
	now        func() time.Time
}

type Option func(*Service)

func WithExemptionPolicy(p statutory.ExemptionPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func WithReliefMode(m statutory.ReliefMode) Option {
	return func(s *Service) {
		s.reliefMode = m
	}
}

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(rules RuleProvider, opts ...Option) *Service {
	s := &Service{
		rules:      rules,
		reliefMode: statutory.ReliefRecord,
		workers:    DefaultWorkers,
		currency:   DefaultCurrency,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculator returns a calculator bound to the rule set in force at the given
// date. A zero date means today.
func (s *Service) Calculator(at time.Time) (statutory.Calculator, error) {
	if at.IsZero() {
		at = s.now()
	}
	rules, err := s.rules.Active(at)
	if err != nil {
		return statutory.Calculator{}, err
	}
	return statutory.NewCalculator(rules,
		statutory.WithExemptionPolicy(s.policy),
		statutory.WithReliefMode(s.reliefMode),
	), nil
}

func (s *Service) BuildPayslip(ctx context.Context, in PayslipInput) (Payslip, error) {
	if err := ctx.Err(); err != nil {
		return Payslip{}, err
	}
	if err := in.validate(); err != nil {
		return Payslip{}, err
	}
	payDate := in.PayDate
	if payDate.IsZero() {
		payDate = s.now()
	}
	calc, err := s.Calculator(payDate)
	if err != nil {
		return Payslip{}, err
	}

	gross, lineDeductions, _ := ComputePayroll(in.Earnings.Gross(), in.Lines)
	result, err := calc.Calculate(statutory.Input{
		GrossSalary:    gross,
		EmploymentType: in.EmploymentType,
		Reliefs:        in.Reliefs,
	})
	if err != nil {
		return Payslip{}, err
	}

	other := statutory.Round2(in.Deductions.Total())
	lineDeductions = statutory.Round2(lineDeductions)
	totalOther := other.Add(lineDeductions)
	totalDeductions := result.Totals.StatutoryDeductions.Add(totalOther)
	net := result.GrossSalary.Sub(totalDeductions)

	slip := Payslip{
		ID:                   uuid.NewString(),
		EmployeeID:           in.EmployeeID,
		EmployeeName:         in.EmployeeName,
		PayDate:              payDate,
		Currency:             s.currency,
		Earnings:             in.Earnings,
		TotalAllowances:      statutory.Round2(in.Earnings.TotalAllowances()),
		TotalBenefits:        statutory.Round2(in.Earnings.TotalBenefits()),
		GrossPay:             result.GrossSalary,
		Statutory:            result,
		OtherDeductions:      in.Deductions,
		LineDeductions:       lineDeductions,
		TotalOtherDeductions: totalOther,
		TotalDeductions:      totalDeductions,
		NetPay:               net,
		EmployerCost:         result.EmployerCost,
		CreatedAt:            s.now().UTC(),
	}
	slip.Warnings = payslipWarnings(in, slip)
	return slip, nil
}

func (in PayslipInput) validate() error {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return &statutory.InputError{Field: "employeeId", Reason: "is required"}
	}
	if !in.EmploymentType.Valid() {
		return &statutory.InputError{Field: "employmentType", Reason: "must be one of PERMANENT, CONTRACT, CASUAL, INTERN"}
	}
	for _, f := range in.Earnings.fields() {
		if f.value.IsNegative() {
			return &statutory.InputError{Field: "earnings." + f.name, Reason: "must not be negative"}
		}
	}
	for _, f := range in.Deductions.fields() {
		if f.value.IsNegative() {
			return &statutory.InputError{Field: "deductions." + f.name, Reason: "must not be negative"}
		}
	}
	for i, line := range in.Lines {
		if line.Type != ElementTypeEarning && line.Type != ElementTypeDeduction {
			return &statutory.InputError{Field: fmt.Sprintf("lines[%d].type", i), Reason: "must be earning or deduction"}
		}
		if line.Amount.IsNegative() {
			return &statutory.InputError{Field: fmt.Sprintf("lines[%d].amount", i), Reason: "must not be negative"}
		}
	}
	return nil
}

func payslipWarnings(in PayslipInput, slip Payslip) []string {
	var warnings []string
	for _, w := range slip.Statutory.Warnings {
		if w != statutory.WarningNegativeNet {
			warnings = append(warnings, w)
		}
	}
	if strings.TrimSpace(in.BankAccount) == "" {
		warnings = append(warnings, WarningMissingBank)
	}
	if slip.NetPay.IsNegative() {
		warnings = append(warnings, WarningNegativeNet)
	}
	if in.PreviousNetPay != nil && in.PreviousNetPay.IsPositive() {
		previous := *in.PreviousNetPay
		diff := slip.NetPay.Sub(previous).Abs()
		if diff.Div(previous).GreaterThan(decimal.RequireFromString(netVarianceThreshold)) {
			warnings = append(warnings, WarningNetVariance)
		}
	}
	return warnings
}

// RunRegister builds a payslip per input concurrently. Payslips come back in
// input order; the first failure cancels the rest.
func (s *Service) RunRegister(ctx context.Context, period Period, inputs []PayslipInput) (Register, error) {
	if len(inputs) == 0 {
		return Register{}, ErrEmptyRegister
	}
	if !period.StartDate.IsZero() && !period.EndDate.IsZero() && period.EndDate.Before(period.StartDate) {
		return Register{}, fmt.Errorf("%w: end date before start date", ErrInvalidPeriod)
	}

	payslips := make([]Payslip, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			in := inputs[i]
			if in.PayDate.IsZero() {
				in.PayDate = period.PayDate
			}
			slip, err := s.BuildPayslip(gctx, in)
			if err != nil {
				return fmt.Errorf("employee %s: %w", in.EmployeeID, err)
			}
			payslips[i] = slip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Register{}, err
	}

	summary := Summarize(payslips)
	slog.Info("payroll register built",
		"period", period.Name,
		"employees", summary.EmployeeCount,
		"totalNet", summary.TotalNet.StringFixed(2),
	)
	return Register{Period: period, Payslips: payslips, Summary: summary}, nil
}

// Summarize totals a set of payslips per component.
func Summarize(payslips []Payslip) PeriodSummary {
	s := PeriodSummary{
		EmployeeCount:            len(payslips),
		TotalBasicSalary:         decimal.Zero,
		TotalAllowances:          decimal.Zero,
		TotalBenefits:            decimal.Zero,
		TotalGross:               decimal.Zero,
		TotalPAYE:                decimal.Zero,
		TotalNSSFEmployee:        decimal.Zero,
		TotalNSSFEmployer:        decimal.Zero,
		TotalSHIF:                decimal.Zero,
		TotalHousingLevyEmployee: decimal.Zero,
		TotalHousingLevyEmployer: decimal.Zero,
		TotalOtherDeductions:     decimal.Zero,
		TotalDeductions:          decimal.Zero,
		TotalNet:                 decimal.Zero,
		TotalEmployerCost:        decimal.Zero,
		TotalPersonalRelief:      decimal.Zero,
		TotalInsuranceRelief:     decimal.Zero,
		Warnings:                 map[string]int{},
	}
	for _, p := range payslips {
		st := p.Statutory
		s.TotalBasicSalary = s.TotalBasicSalary.Add(statutory.Round2(p.Earnings.BasicSalary))
		s.TotalAllowances = s.TotalAllowances.Add(p.TotalAllowances)
		s.TotalBenefits = s.TotalBenefits.Add(p.TotalBenefits)
		s.TotalGross = s.TotalGross.Add(p.GrossPay)
		s.TotalPAYE = s.TotalPAYE.Add(st.PAYE.Tax)
		s.TotalNSSFEmployee = s.TotalNSSFEmployee.Add(st.NSSF.EmployeeAmount)
		s.TotalNSSFEmployer = s.TotalNSSFEmployer.Add(st.NSSF.EmployerAmount)
		s.TotalSHIF = s.TotalSHIF.Add(st.SHIF.EmployeeAmount)
		s.TotalHousingLevyEmployee = s.TotalHousingLevyEmployee.Add(st.HousingLevy.EmployeeAmount)
		s.TotalHousingLevyEmployer = s.TotalHousingLevyEmployer.Add(st.HousingLevy.EmployerAmount)
		s.TotalOtherDeductions = s.TotalOtherDeductions.Add(p.TotalOtherDeductions)
		s.TotalDeductions = s.TotalDeductions.Add(p.TotalDeductions)
		s.TotalNet = s.TotalNet.Add(p.NetPay)
		s.TotalEmployerCost = s.TotalEmployerCost.Add(p.EmployerCost)
		if st.PAYE.TaxBeforeRelief.IsPositive() {
			s.TotalPersonalRelief = s.TotalPersonalRelief.Add(decimal.Min(st.PAYE.PersonalRelief, st.PAYE.TaxBeforeRelief))
		}
		// Insurance relief only offsets tax left after personal relief.
		remaining := decimal.Max(decimal.Zero, st.PAYE.TaxBeforeRelief.Sub(st.PAYE.PersonalRelief))
		s.TotalInsuranceRelief = s.TotalInsuranceRelief.Add(decimal.Min(st.PAYE.InsuranceRelief, remaining))
		for _, w := range p.Warnings {
			s.Warnings[w]++
		}
	}
	return s
}
