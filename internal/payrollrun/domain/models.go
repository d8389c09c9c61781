// Package domain defines the payroll run aggregate and its state machine.
// A run is the unit of work for one organization and one monthly period;
// every lifecycle change flows through the transition table below.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
)

// Status is the lifecycle state of a payroll run.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusCalculating   Status = "calculating"
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusFinalized     Status = "finalized"
	StatusPaid          Status = "paid"
	StatusCancelled     Status = "cancelled"
)

// transitions is the single source of truth for legal status changes.
// calculating → draft and calculating → pending_review are the release paths
// of the calculate commit; a cancel may also win against an in-flight
// calculation, whose commit then fails the revision check.
var transitions = map[Status][]Status{
	StatusDraft:         {StatusCalculating, StatusCancelled},
	StatusCalculating:   {StatusPendingReview, StatusDraft, StatusCancelled},
	StatusPendingReview: {StatusApproved, StatusCalculating, StatusCancelled},
	StatusApproved:      {StatusFinalized, StatusCancelled},
	StatusFinalized:     {StatusPaid, StatusCancelled},
	StatusPaid:          {},
	StatusCancelled:     {},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

// PayrollRun is the aggregate root. Monetary totals are minor units and are
// written only by the calculation commit; revision increments on every
// transition and backs the calculate conflict check.
type PayrollRun struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_payroll_runs_org_number,priority:1"`
	RunNumber int64        `gorm:"not null;uniqueIndex:ux_payroll_runs_org_number,priority:2"`
	Label     string       `gorm:"type:text"`

	PeriodYear  int       `gorm:"not null;index:ix_payroll_runs_period,priority:1"`
	PeriodMonth int       `gorm:"not null;index:ix_payroll_runs_period,priority:2"`
	PeriodStart time.Time `gorm:"type:date;not null"`
	PeriodEnd   time.Time `gorm:"type:date;not null"`
	PayDate     time.Time `gorm:"type:date;not null"`
	Currency    string    `gorm:"type:text;not null;default:'MYR'"`

	Status   Status `gorm:"type:text;not null;default:'draft';index"`
	Revision int64  `gorm:"not null;default:0"`

	RateTableID   *snowflake.ID `gorm:""`
	EmployeeCount int           `gorm:"not null;default:0"`

	TotalGross                 int64 `gorm:"not null;default:0"`
	TotalNet                   int64 `gorm:"not null;default:0"`
	TotalEmployeeDeductions    int64 `gorm:"not null;default:0"`
	TotalEmployerContributions int64 `gorm:"not null;default:0"`

	PensionEmployeeTotal             int64 `gorm:"not null;default:0"`
	PensionEmployerTotal             int64 `gorm:"not null;default:0"`
	SocialSecurityEmployeeTotal      int64 `gorm:"not null;default:0"`
	SocialSecurityEmployerTotal      int64 `gorm:"not null;default:0"`
	EmploymentInsuranceEmployeeTotal int64 `gorm:"not null;default:0"`
	EmploymentInsuranceEmployerTotal int64 `gorm:"not null;default:0"`
	IncomeTaxEmployeeTotal           int64 `gorm:"not null;default:0"`
	IncomeTaxEmployerTotal           int64 `gorm:"not null;default:0"`

	CreatedBy   string     `gorm:"type:text"`
	ApprovedBy  *string    `gorm:"type:text"`
	ApprovedAt  *time.Time `gorm:""`
	FinalizedAt *time.Time `gorm:""`
	PaidAt      *time.Time `gorm:""`
	PaymentDate *time.Time `gorm:"type:date"`
	CancelledAt *time.Time `gorm:""`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PayrollRun) TableName() string { return "payroll_runs" }

// CategoryTotals returns the (employee, employer) sums for one category.
func (r *PayrollRun) CategoryTotals(category statutorydomain.Category) (int64, int64) {
	switch category {
	case statutorydomain.CategoryPension:
		return r.PensionEmployeeTotal, r.PensionEmployerTotal
	case statutorydomain.CategorySocialSecurity:
		return r.SocialSecurityEmployeeTotal, r.SocialSecurityEmployerTotal
	case statutorydomain.CategoryEmploymentInsurance:
		return r.EmploymentInsuranceEmployeeTotal, r.EmploymentInsuranceEmployerTotal
	case statutorydomain.CategoryIncomeTax:
		return r.IncomeTaxEmployeeTotal, r.IncomeTaxEmployerTotal
	}
	return 0, 0
}

// AddCategoryTotals accumulates one category's amounts into the run.
func (r *PayrollRun) AddCategoryTotals(category statutorydomain.Category, employee, employer int64) {
	switch category {
	case statutorydomain.CategoryPension:
		r.PensionEmployeeTotal += employee
		r.PensionEmployerTotal += employer
	case statutorydomain.CategorySocialSecurity:
		r.SocialSecurityEmployeeTotal += employee
		r.SocialSecurityEmployerTotal += employer
	case statutorydomain.CategoryEmploymentInsurance:
		r.EmploymentInsuranceEmployeeTotal += employee
		r.EmploymentInsuranceEmployerTotal += employer
	case statutorydomain.CategoryIncomeTax:
		r.IncomeTaxEmployeeTotal += employee
		r.IncomeTaxEmployerTotal += employer
	}
}

// ResetTotals clears every aggregate before a recalculation commit.
func (r *PayrollRun) ResetTotals() {
	r.EmployeeCount = 0
	r.TotalGross = 0
	r.TotalNet = 0
	r.TotalEmployeeDeductions = 0
	r.TotalEmployerContributions = 0
	r.PensionEmployeeTotal = 0
	r.PensionEmployerTotal = 0
	r.SocialSecurityEmployeeTotal = 0
	r.SocialSecurityEmployerTotal = 0
	r.EmploymentInsuranceEmployeeTotal = 0
	r.EmploymentInsuranceEmployerTotal = 0
	r.IncomeTaxEmployeeTotal = 0
	r.IncomeTaxEmployerTotal = 0
}

// RunTransition is the append-only audit trail of status changes.
type RunTransition struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	OrgID        snowflake.ID `gorm:"not null;index"`
	PayrollRunID snowflake.ID `gorm:"not null;index"`
	FromStatus   Status       `gorm:"type:text;not null"`
	ToStatus     Status       `gorm:"type:text;not null"`
	Actor        string       `gorm:"type:text"`
	OccurredAt   time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (RunTransition) TableName() string { return "run_transitions" }
