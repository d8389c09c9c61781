// Package domain contains the employee roster models consumed by payroll
// calculation. The roster is a collaborator: payroll snapshots what it needs
// at calculation time and never reads back through live references.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Residency classifies an employee for statutory applicability predicates.
type Residency string

const (
	ResidencyCitizen           Residency = "citizen"
	ResidencyPermanentResident Residency = "permanent_resident"
	ResidencyForeign           Residency = "foreign"
)

// EmployeeStatus marks whether an employee is included in payroll runs.
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "active"
	EmployeeStatusInactive EmployeeStatus = "inactive"
)

// PayFrequency is how often the employee is paid.
type PayFrequency string

const (
	PayFrequencyMonthly PayFrequency = "monthly"
)

// Employee is one roster entry. Monetary fields are minor units; override
// rates are basis points and supersede rate-table lookup for that employee
// and category only.
type Employee struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_employees_org_code,priority:1"`

	Code       string `gorm:"type:text;not null;uniqueIndex:ux_employees_org_code,priority:2"`
	Name       string `gorm:"type:text;not null"`
	Department string `gorm:"type:text"`
	Position   string `gorm:"type:text"`

	BaseSalary   int64        `gorm:"not null"`
	Allowance    int64        `gorm:"not null;default:0"`
	PayFrequency PayFrequency `gorm:"type:text;not null;default:'monthly'"`

	DateOfBirth *time.Time `gorm:"type:date"`
	Residency   Residency  `gorm:"type:text;not null;default:'citizen'"`

	OverridePensionBps             *int64 `gorm:""`
	OverrideSocialSecurityBps      *int64 `gorm:""`
	OverrideEmploymentInsuranceBps *int64 `gorm:""`
	OverrideIncomeTaxBps           *int64 `gorm:""`

	Status    EmployeeStatus `gorm:"type:text;not null;default:'active';index"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Employee) TableName() string { return "employees" }

// GrossSalary is the period gross before deductions.
func (e Employee) GrossSalary() int64 {
	return e.BaseSalary + e.Allowance
}

// OverrideRateBps returns the explicit per-category override, nil when the
// rate table applies.
func (e Employee) OverrideRateBps(category string) *int64 {
	switch category {
	case "pension":
		return e.OverridePensionBps
	case "social_security":
		return e.OverrideSocialSecurityBps
	case "employment_insurance":
		return e.OverrideEmploymentInsuranceBps
	case "income_tax":
		return e.OverrideIncomeTaxBps
	}
	return nil
}

// AgeAt returns completed years at the given date; false when the date of
// birth is unknown.
func (e Employee) AgeAt(at time.Time) (int, bool) {
	if e.DateOfBirth == nil {
		return 0, false
	}
	dob := e.DateOfBirth.UTC()
	at = at.UTC()
	age := at.Year() - dob.Year()
	anniversary := time.Date(at.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
	if at.Before(anniversary) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, true
}
