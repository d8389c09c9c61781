package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOrganization   = errors.New("invalid_organization")
	ErrInvalidRunID          = errors.New("invalid_run_id")
	ErrRunNotFound           = errors.New("payroll_run_not_found")
	ErrInvalidPeriod         = errors.New("invalid_period")
	ErrInvalidPayDate        = errors.New("invalid_pay_date")
	ErrDuplicatePeriod       = errors.New("duplicate_open_period")
	ErrConflict              = errors.New("concurrent_modification")
	ErrNoActiveEmployees     = errors.New("no_active_employees")
	ErrAllCalculationsFailed = errors.New("all_calculations_failed")
	ErrSlipCountMismatch     = errors.New("slip_count_mismatch")
	ErrPaymentDateInFuture   = errors.New("payment_date_in_future")
	ErrPaySlipNotFound       = errors.New("pay_slip_not_found")
)

// TransitionError reports an operation attempted from an illegal status.
type TransitionError struct {
	From      Status
	Operation string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a payroll run in status %s", e.Operation, e.From)
}

// IsTransitionError extracts a TransitionError from an error chain.
func IsTransitionError(err error) (*TransitionError, bool) {
	var te *TransitionError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
