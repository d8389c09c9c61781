package domain

import "errors"

var (
	ErrRateTableNotFound  = errors.New("rate_table_not_found")
	ErrMissingDateOfBirth = errors.New("missing_date_of_birth")
	ErrNoApplicableBand   = errors.New("no_applicable_band")
	ErrInvalidGross       = errors.New("invalid_gross_salary")
)
