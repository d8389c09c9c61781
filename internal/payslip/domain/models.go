// Package domain holds the pay slip model. A slip is a point-in-time
// snapshot: employee fields are copied at calculation so later roster edits
// never change a calculated run.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	employeedomain "github.com/gajilabs/payrun/internal/employee/domain"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
)

// PaySlip is one employee's result within a payroll run. All amounts are
// minor units. Slips for a run are replaced wholesale on recalculation.
type PaySlip struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	OrgID        snowflake.ID `gorm:"not null;index"`
	PayrollRunID snowflake.ID `gorm:"not null;index"`
	EmployeeID   snowflake.ID `gorm:"not null;index"`

	EmployeeCode string                   `gorm:"type:text;not null"`
	EmployeeName string                   `gorm:"type:text;not null"`
	Department   string                   `gorm:"type:text"`
	Position     string                   `gorm:"type:text"`
	Residency    employeedomain.Residency `gorm:"type:text;not null"`

	RateTableID snowflake.ID `gorm:"not null"`

	BaseSalary  int64 `gorm:"not null"`
	Allowance   int64 `gorm:"not null;default:0"`
	GrossSalary int64 `gorm:"not null"`
	NetSalary   int64 `gorm:"not null"`

	PensionEmployee  int64                          `gorm:"not null;default:0"`
	PensionEmployer  int64                          `gorm:"not null;default:0"`
	PensionSource    statutorydomain.RateSource     `gorm:"type:text;not null;default:'table'"`
	PensionExemption statutorydomain.ExemptionReason `gorm:"type:text;not null;default:''"`

	SocialSecurityEmployee  int64                          `gorm:"not null;default:0"`
	SocialSecurityEmployer  int64                          `gorm:"not null;default:0"`
	SocialSecuritySource    statutorydomain.RateSource     `gorm:"type:text;not null;default:'table'"`
	SocialSecurityExemption statutorydomain.ExemptionReason `gorm:"type:text;not null;default:''"`

	EmploymentInsuranceEmployee  int64                          `gorm:"not null;default:0"`
	EmploymentInsuranceEmployer  int64                          `gorm:"not null;default:0"`
	EmploymentInsuranceSource    statutorydomain.RateSource     `gorm:"type:text;not null;default:'table'"`
	EmploymentInsuranceExemption statutorydomain.ExemptionReason `gorm:"type:text;not null;default:''"`

	IncomeTaxEmployee  int64                          `gorm:"not null;default:0"`
	IncomeTaxEmployer  int64                          `gorm:"not null;default:0"`
	IncomeTaxSource    statutorydomain.RateSource     `gorm:"type:text;not null;default:'table'"`
	IncomeTaxExemption statutorydomain.ExemptionReason `gorm:"type:text;not null;default:''"`

	TotalEmployeeDeductions    int64 `gorm:"not null;default:0"`
	TotalEmployerContributions int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PaySlip) TableName() string { return "pay_slips" }

// ApplyBreakdown copies the engine result into the per-category columns and
// derives the slip totals. Net pay is gross minus employee-side deductions.
func (s *PaySlip) ApplyBreakdown(b *statutorydomain.Breakdown) {
	for _, line := range b.Lines {
		switch line.Category {
		case statutorydomain.CategoryPension:
			s.PensionEmployee = line.EmployeeAmount
			s.PensionEmployer = line.EmployerAmount
			s.PensionSource = line.Source
			s.PensionExemption = line.Exemption
		case statutorydomain.CategorySocialSecurity:
			s.SocialSecurityEmployee = line.EmployeeAmount
			s.SocialSecurityEmployer = line.EmployerAmount
			s.SocialSecuritySource = line.Source
			s.SocialSecurityExemption = line.Exemption
		case statutorydomain.CategoryEmploymentInsurance:
			s.EmploymentInsuranceEmployee = line.EmployeeAmount
			s.EmploymentInsuranceEmployer = line.EmployerAmount
			s.EmploymentInsuranceSource = line.Source
			s.EmploymentInsuranceExemption = line.Exemption
		case statutorydomain.CategoryIncomeTax:
			s.IncomeTaxEmployee = line.EmployeeAmount
			s.IncomeTaxEmployer = line.EmployerAmount
			s.IncomeTaxSource = line.Source
			s.IncomeTaxExemption = line.Exemption
		}
	}
	s.RateTableID = snowflake.ID(b.RateTableID)
	s.TotalEmployeeDeductions = b.EmployeeTotal()
	s.TotalEmployerContributions = b.EmployerTotal()
	s.NetSalary = s.GrossSalary - s.TotalEmployeeDeductions
}

// Line reconstructs the engine line for a category from the slip columns.
func (s *PaySlip) Line(category statutorydomain.Category) statutorydomain.DeductionLine {
	line := statutorydomain.DeductionLine{Category: category}
	switch category {
	case statutorydomain.CategoryPension:
		line.EmployeeAmount = s.PensionEmployee
		line.EmployerAmount = s.PensionEmployer
		line.Source = s.PensionSource
		line.Exemption = s.PensionExemption
	case statutorydomain.CategorySocialSecurity:
		line.EmployeeAmount = s.SocialSecurityEmployee
		line.EmployerAmount = s.SocialSecurityEmployer
		line.Source = s.SocialSecuritySource
		line.Exemption = s.SocialSecurityExemption
	case statutorydomain.CategoryEmploymentInsurance:
		line.EmployeeAmount = s.EmploymentInsuranceEmployee
		line.EmployerAmount = s.EmploymentInsuranceEmployer
		line.Source = s.EmploymentInsuranceSource
		line.Exemption = s.EmploymentInsuranceExemption
	case statutorydomain.CategoryIncomeTax:
		line.EmployeeAmount = s.IncomeTaxEmployee
		line.EmployerAmount = s.IncomeTaxEmployer
		line.Source = s.IncomeTaxSource
		line.Exemption = s.IncomeTaxExemption
	}
	return line
}

// EmployerAmountFor returns the employer-side contribution for a category.
func (s *PaySlip) EmployerAmountFor(category statutorydomain.Category) int64 {
	return s.Line(category).EmployerAmount
}

// EmployeeAmountFor returns the employee-side deduction for a category.
func (s *PaySlip) EmployeeAmountFor(category statutorydomain.Category) int64 {
	return s.Line(category).EmployeeAmount
}
