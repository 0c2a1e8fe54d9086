package payroll

import "errors"

var (
	ErrEmptyRegister = errors.New("payroll register has no employees")
	ErrInvalidPeriod = errors.New("payroll period is invalid")
)
