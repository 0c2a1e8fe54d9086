package payroll

const (
	WarningMissingBank = "missing_bank_account"
	WarningNegativeNet = "negative_net"
	WarningNetVariance = "net_variance"

	ElementTypeEarning   = "earning"
	ElementTypeDeduction = "deduction"

	DefaultCurrency = "KES"
	DefaultWorkers  = 8
)

// netVarianceThreshold is the share of the previous net pay beyond which a
// change is flagged.
const netVarianceThreshold = "0.5"
