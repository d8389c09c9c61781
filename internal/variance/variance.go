// Package variance inspects calculated pay slips for results that are legal
// but unusual. Findings are advisory: they never block a transition, and
// they are recomputed on every read rather than stored.
package variance

import (
	"fmt"

	payslipdomain "github.com/gajilabs/payrun/internal/payslip/domain"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
)

// Severity orders findings for reviewers.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding is one advisory observation about a slip.
type Finding struct {
	Severity Severity                 `json:"severity"`
	Category statutorydomain.Category `json:"category,omitempty"`
	Code     string                   `json:"code"`
	Message  string                   `json:"message"`
}

// Config carries the tunable thresholds. Zero values disable the
// corresponding rule.
type Config struct {
	// NetRatioFloorBps flags slips whose net/gross ratio falls below this
	// many basis points.
	NetRatioFloorBps int64
	// IncomeTaxGrossMin flags a zero income tax deduction when gross is at
	// or above this amount.
	IncomeTaxGrossMin int64
}

// Detect runs every rule against one slip. A category zeroed by an
// exemption is explained and never flagged; a zero gross makes every zero
// deduction trivially correct, so the zero rules only apply above it.
func Detect(slip *payslipdomain.PaySlip, cfg Config) []Finding {
	var findings []Finding

	if slip.GrossSalary <= 0 {
		return findings
	}

	if line := slip.Line(statutorydomain.CategoryPension); line.EmployeeAmount == 0 && !line.Exempt() {
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Category: statutorydomain.CategoryPension,
			Code:     "zero_pension",
			Message:  "pension deduction is zero without a recorded exemption",
		})
	}
	if line := slip.Line(statutorydomain.CategorySocialSecurity); line.EmployeeAmount == 0 && line.EmployerAmount == 0 && !line.Exempt() {
		findings = append(findings, Finding{
			Severity: SeverityInfo,
			Category: statutorydomain.CategorySocialSecurity,
			Code:     "zero_social_security",
			Message:  "social security contribution is zero without a recorded exemption",
		})
	}
	if line := slip.Line(statutorydomain.CategoryEmploymentInsurance); line.EmployeeAmount == 0 && line.EmployerAmount == 0 && !line.Exempt() {
		findings = append(findings, Finding{
			Severity: SeverityInfo,
			Category: statutorydomain.CategoryEmploymentInsurance,
			Code:     "zero_employment_insurance",
			Message:  "employment insurance contribution is zero without a recorded exemption",
		})
	}

	if cfg.IncomeTaxGrossMin > 0 && slip.GrossSalary >= cfg.IncomeTaxGrossMin {
		if line := slip.Line(statutorydomain.CategoryIncomeTax); line.EmployeeAmount == 0 && !line.Exempt() {
			findings = append(findings, Finding{
				Severity: SeverityInfo,
				Category: statutorydomain.CategoryIncomeTax,
				Code:     "zero_income_tax",
				Message:  "income tax is zero for a gross salary above the review threshold",
			})
		}
	}

	if cfg.NetRatioFloorBps > 0 && slip.GrossSalary > 0 {
		ratioBps := slip.NetSalary * 10000 / slip.GrossSalary
		if ratioBps < cfg.NetRatioFloorBps {
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Code:     "low_net_ratio",
				Message:  fmt.Sprintf("net pay is %d.%02d%% of gross, below the review floor", ratioBps/100, ratioBps%100),
			})
		}
	}

	return findings
}

// DetectAll evaluates every slip in a run, keyed by slip ID.
func DetectAll(slips []payslipdomain.PaySlip, cfg Config) map[int64][]Finding {
	results := make(map[int64][]Finding, len(slips))
	for i := range slips {
		if findings := Detect(&slips[i], cfg); len(findings) > 0 {
			results[int64(slips[i].ID)] = findings
		}
	}
	return results
}
