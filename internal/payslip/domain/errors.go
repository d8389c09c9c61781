package domain

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// CalculationError records one employee the engine could not produce a slip
// for. A run with failures still succeeds for the remaining employees.
type CalculationError struct {
	EmployeeID   snowflake.ID `json:"employee_id,string"`
	EmployeeCode string       `json:"employee_code"`
	Err          error        `json:"-"`
	Message      string       `json:"message"`
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("employee %s: %s", e.EmployeeCode, e.Message)
}

func (e *CalculationError) Unwrap() error { return e.Err }
