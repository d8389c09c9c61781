// Package engine computes per-employee statutory deductions against a rate
// table snapshot. It is pure: no clock, no database, no logging.
package engine

import (
	"fmt"
	"time"

	employeedomain "github.com/gajilabs/payrun/internal/employee/domain"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
)

// CategoryError wraps a calculation failure with the category it occurred in.
type CategoryError struct {
	Category statutorydomain.Category
	Err      error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *CategoryError) Unwrap() error { return e.Err }

// Calculate resolves every statutory category for one employee at the given
// gross. Precedence per category: exemption rule, then employee override
// (employee side only), then table band. Rounding happens exactly once per
// amount, half up.
func Calculate(emp *employeedomain.Employee, gross int64, table *statutorydomain.RateTable, asOf time.Time) (*statutorydomain.Breakdown, error) {
	if gross < 0 {
		return nil, statutorydomain.ErrInvalidGross
	}

	age, hasAge := emp.AgeAt(asOf)

	breakdown := &statutorydomain.Breakdown{RateTableID: int64(table.Record.ID)}
	for _, category := range statutorydomain.Categories() {
		if !hasAge && table.RequiresAge(category) {
			return nil, &CategoryError{Category: category, Err: statutorydomain.ErrMissingDateOfBirth}
		}

		line := statutorydomain.DeductionLine{Category: category, Source: statutorydomain.RateSourceTable}

		if rule := table.ExemptionFor(category, age, hasAge, emp.Residency); rule != nil {
			line.Exemption = rule.Reason
			breakdown.Lines = append(breakdown.Lines, line)
			continue
		}

		// A band must exist even when the employee carries an override:
		// overrides tune rates, they never create or remove a liability
		// category, and the employer obligation always needs the table.
		band := table.BandFor(category, gross, age, hasAge, emp.Residency)
		if band == nil {
			return nil, &CategoryError{Category: category, Err: statutorydomain.ErrNoApplicableBand}
		}
		line.EmployeeAmount = bandAmount(band.EmployeeFixedAmount, gross, band.EmployeeRateBps)
		line.EmployerAmount = bandAmount(band.EmployerFixedAmount, gross, band.EmployerRateBps)

		// Overrides replace the employee-side rate only.
		if override := emp.OverrideRateBps(string(category)); override != nil {
			line.EmployeeAmount = roundHalfUp(gross, *override)
			line.Source = statutorydomain.RateSourceOverride
		}

		breakdown.Lines = append(breakdown.Lines, line)
	}
	return breakdown, nil
}

func bandAmount(fixed, gross, rateBps int64) int64 {
	if fixed > 0 {
		return fixed
	}
	return roundHalfUp(gross, rateBps)
}

// roundHalfUp applies a basis-point rate with half-up rounding on the final
// minor unit. Intermediate math stays in int64; gross and rates in realistic
// payroll ranges cannot overflow it.
func roundHalfUp(gross, rateBps int64) int64 {
	return (gross*rateBps + 5000) / 10000
}
