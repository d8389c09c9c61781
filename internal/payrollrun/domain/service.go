package domain

import (
	"context"
	"time"

	"github.com/gajilabs/payrun/internal/deadline"
	payslipdomain "github.com/gajilabs/payrun/internal/payslip/domain"
	"github.com/gajilabs/payrun/internal/variance"
)

// CreateRunRequest opens a new draft run for one monthly period.
type CreateRunRequest struct {
	PeriodYear  int    `json:"period_year" binding:"required"`
	PeriodMonth int    `json:"period_month" binding:"required"`
	PayDate     string `json:"pay_date" binding:"required"`
	Label       string `json:"label"`
}

// ListRunsRequest filters the run listing.
type ListRunsRequest struct {
	Status      *Status
	PeriodYear  *int
	PeriodMonth *int
}

// CalculationResult is the calculate/recalculate response: the committed
// run, its slips, and the employees that failed. Failures do not abort the
// run as long as at least one slip was produced.
type CalculationResult struct {
	Run      PayrollRun                       `json:"run"`
	PaySlips []payslipdomain.PaySlip          `json:"pay_slips"`
	Errors   []payslipdomain.CalculationError `json:"errors,omitempty"`
}

// MarkPaidRequest records when salaries actually went out.
type MarkPaidRequest struct {
	PaymentDate string `json:"payment_date" binding:"required"`
}

// VarianceResult pairs a slip with its advisory findings.
type VarianceResult struct {
	PaySlip  payslipdomain.PaySlip `json:"pay_slip"`
	Findings []variance.Finding    `json:"findings"`
}

// Service drives the payroll run lifecycle. Every method is org-scoped via
// the request context.
type Service interface {
	Create(ctx context.Context, req CreateRunRequest) (PayrollRun, error)
	List(ctx context.Context, req ListRunsRequest) ([]PayrollRun, error)
	GetByID(ctx context.Context, id string) (PayrollRun, error)

	Calculate(ctx context.Context, id string) (CalculationResult, error)
	Recalculate(ctx context.Context, id string) (CalculationResult, error)
	Approve(ctx context.Context, id string) (PayrollRun, error)
	Finalize(ctx context.Context, id string) (PayrollRun, error)
	MarkPaid(ctx context.Context, id string, req MarkPaidRequest) (PayrollRun, error)
	Cancel(ctx context.Context, id string) (PayrollRun, error)

	PaySlips(ctx context.Context, runID string) ([]payslipdomain.PaySlip, error)
	Deadline(ctx context.Context, runID string) (deadline.Status, error)
	Variance(ctx context.Context, paySlipID string) (VarianceResult, error)
}

// ParsePayDate parses the YYYY-MM-DD wire format used by run requests.
func ParsePayDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}
