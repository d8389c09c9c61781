// Package domain contains versioned statutory rate tables and the deduction
// breakdown types produced by the calculation engine.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	employeedomain "github.com/gajilabs/payrun/internal/employee/domain"
)

// Category is one statutory contribution category.
type Category string

const (
	CategoryPension             Category = "pension"
	CategorySocialSecurity      Category = "social_security"
	CategoryEmploymentInsurance Category = "employment_insurance"
	CategoryIncomeTax           Category = "income_tax"
)

// Categories returns all categories in deterministic calculation order.
func Categories() []Category {
	return []Category{
		CategoryPension,
		CategorySocialSecurity,
		CategoryEmploymentInsurance,
		CategoryIncomeTax,
	}
}

// RateSource records where a category's rate came from.
type RateSource string

const (
	RateSourceTable    RateSource = "table"
	RateSourceOverride RateSource = "override"
)

// ExemptionReason explains a forced-zero category. Empty means not exempt.
type ExemptionReason string

const (
	ExemptionNone      ExemptionReason = ""
	ExemptionAge       ExemptionReason = "age"
	ExemptionResidency ExemptionReason = "residency"
	ExemptionManual    ExemptionReason = "manual"
)

// RateTableRecord is one immutable table version. A version is never edited
// once any run has calculated against it; corrections ship as a new version
// with a later effective date.
type RateTableRecord struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	OrgID         snowflake.ID `gorm:"not null;index;uniqueIndex:ux_rate_tables_org_version,priority:1"`
	Version       int64        `gorm:"not null;uniqueIndex:ux_rate_tables_org_version,priority:2"`
	EffectiveFrom time.Time    `gorm:"type:date;not null;index"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (RateTableRecord) TableName() string { return "statutory_rate_tables" }

// RateBand is one salary band within a table version. A zero SalaryMax or
// AgeMax means open-ended. Residencies is a comma list; empty matches all.
// Fixed amounts win over rate bps when non-zero.
type RateBand struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	RateTableID snowflake.ID `gorm:"not null;index"`
	Category    Category     `gorm:"type:text;not null"`

	SalaryMin int64 `gorm:"not null;default:0"`
	SalaryMax int64 `gorm:"not null;default:0"`
	AgeMin    int   `gorm:"not null;default:0"`
	AgeMax    int   `gorm:"not null;default:0"`

	Residencies string `gorm:"type:text;not null;default:''"`

	EmployeeRateBps     int64 `gorm:"not null;default:0"`
	EmployerRateBps     int64 `gorm:"not null;default:0"`
	EmployeeFixedAmount int64 `gorm:"not null;default:0"`
	EmployerFixedAmount int64 `gorm:"not null;default:0"`
}

// TableName sets the database table name.
func (RateBand) TableName() string { return "statutory_rate_bands" }

// ExemptionRule is a documented predicate that forces a category to zero.
type ExemptionRule struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	RateTableID snowflake.ID    `gorm:"not null;index"`
	Category    Category        `gorm:"type:text;not null"`
	Reason      ExemptionReason `gorm:"type:text;not null"`

	// MinAge applies when > 0; Residencies is a comma list, empty = all.
	MinAge      int    `gorm:"not null;default:0"`
	Residencies string `gorm:"type:text;not null;default:''"`
}

// TableName sets the database table name.
func (ExemptionRule) TableName() string { return "statutory_exemptions" }

// RateTable is the in-memory snapshot handed to the calculation engine: one
// table version with its bands and exemption rules.
type RateTable struct {
	Record     RateTableRecord
	Bands      []RateBand
	Exemptions []ExemptionRule
}

// BandFor selects the applicable band for a category, salary and profile.
// Bands are checked in (salary_min, id) order; the first match wins.
func (t *RateTable) BandFor(category Category, salary int64, age int, hasAge bool, residency employeedomain.Residency) *RateBand {
	for i := range t.Bands {
		band := &t.Bands[i]
		if band.Category != category {
			continue
		}
		if salary < band.SalaryMin {
			continue
		}
		if band.SalaryMax > 0 && salary > band.SalaryMax {
			continue
		}
		if band.AgeMin > 0 || band.AgeMax > 0 {
			if !hasAge {
				continue
			}
			if band.AgeMin > 0 && age < band.AgeMin {
				continue
			}
			if band.AgeMax > 0 && age > band.AgeMax {
				continue
			}
		}
		if !residencyMatches(band.Residencies, residency) {
			continue
		}
		return band
	}
	return nil
}

// ExemptionFor returns the first matching exemption rule for the profile.
func (t *RateTable) ExemptionFor(category Category, age int, hasAge bool, residency employeedomain.Residency) *ExemptionRule {
	for i := range t.Exemptions {
		rule := &t.Exemptions[i]
		if rule.Category != category {
			continue
		}
		if rule.MinAge > 0 {
			if !hasAge || age < rule.MinAge {
				continue
			}
		}
		if !residencyMatches(rule.Residencies, residency) {
			continue
		}
		return rule
	}
	return nil
}

// RequiresAge reports whether any band or exemption rule for the category is
// age-conditional. A missing date of birth is a hard error in that case.
func (t *RateTable) RequiresAge(category Category) bool {
	for i := range t.Bands {
		band := &t.Bands[i]
		if band.Category == category && (band.AgeMin > 0 || band.AgeMax > 0) {
			return true
		}
	}
	for i := range t.Exemptions {
		rule := &t.Exemptions[i]
		if rule.Category == category && rule.MinAge > 0 {
			return true
		}
	}
	return false
}

func residencyMatches(list string, residency employeedomain.Residency) bool {
	list = strings.TrimSpace(list)
	if list == "" {
		return true
	}
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == string(residency) {
			return true
		}
	}
	return false
}
