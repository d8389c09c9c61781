package service

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gajilabs/payrun/internal/clock"
	employeedomain "github.com/gajilabs/payrun/internal/employee/domain"
	payslipdomain "github.com/gajilabs/payrun/internal/payslip/domain"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
	"github.com/gajilabs/payrun/internal/statutory/engine"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

// Builder turns an employee roster and a rate table snapshot into pay slips.
// It does not touch the database; persistence belongs to the run service.
type Builder struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewBuilder(p Params) *Builder {
	return &Builder{
		log:   p.Log.Named("payslip.builder"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

// Build calculates one slip per employee, sequentially in roster order so
// failures report deterministically. A failed employee yields a
// CalculationError and the loop continues with the rest. The asOf date is
// the run's period end; it drives age and residency predicates.
func (b *Builder) Build(orgID, runID snowflake.ID, employees []employeedomain.Employee, table *statutorydomain.RateTable, asOf time.Time) ([]payslipdomain.PaySlip, []payslipdomain.CalculationError) {
	slips := make([]payslipdomain.PaySlip, 0, len(employees))
	var failures []payslipdomain.CalculationError

	now := b.clock.Now()
	for i := range employees {
		emp := &employees[i]
		gross := emp.GrossSalary()

		breakdown, err := engine.Calculate(emp, gross, table, asOf)
		if err != nil {
			b.log.Warn("pay slip calculation failed",
				zap.String("employee_code", emp.Code),
				zap.Error(err))
			failures = append(failures, payslipdomain.CalculationError{
				EmployeeID:   emp.ID,
				EmployeeCode: emp.Code,
				Err:          err,
				Message:      err.Error(),
			})
			continue
		}

		slip := payslipdomain.PaySlip{
			ID:           b.genID.Generate(),
			OrgID:        orgID,
			PayrollRunID: runID,
			EmployeeID:   emp.ID,
			EmployeeCode: emp.Code,
			EmployeeName: emp.Name,
			Department:   emp.Department,
			Position:     emp.Position,
			Residency:    emp.Residency,
			BaseSalary:   emp.BaseSalary,
			Allowance:    emp.Allowance,
			GrossSalary:  gross,
			CreatedAt:    now,
		}
		slip.ApplyBreakdown(breakdown)
		slips = append(slips, slip)
	}
	return slips, failures
}
