package payroll

import (
	"github.com/shopspring/decimal"

	"kepayroll/internal/domain/statutory"
)

type InputLine struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Amount      statutory.Money `json:"amount"`
}

// ComputePayroll adds earning lines to base and totals deduction lines.
// Lines of any other type are ignored.
func ComputePayroll(base statutory.Money, inputs []InputLine) (gross, deductions, net statutory.Money) {
	gross = base
	deductions = decimal.Zero
	for _, input := range inputs {
		switch input.Type {
		case ElementTypeEarning:
			gross = gross.Add(input.Amount)
		case ElementTypeDeduction:
			deductions = deductions.Add(input.Amount)
		}
	}
	net = gross.Sub(deductions)
	return gross, deductions, net
}
