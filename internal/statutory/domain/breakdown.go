package domain

// DeductionLine is one category's calculated result. Amounts are minor units,
// rounded once at the end of the category computation.
type DeductionLine struct {
	Category       Category        `json:"category"`
	EmployeeAmount int64           `json:"employee_amount"`
	EmployerAmount int64           `json:"employer_amount"`
	Source         RateSource      `json:"source"`
	Exemption      ExemptionReason `json:"exemption"`
}

// Exempt reports whether the line was forced to zero by a documented rule.
func (l DeductionLine) Exempt() bool { return l.Exemption != ExemptionNone }

// Breakdown is the full per-employee deduction result, lines ordered by
// Categories().
type Breakdown struct {
	RateTableID int64           `json:"rate_table_id,string"`
	Lines       []DeductionLine `json:"lines"`
}

// EmployeeTotal sums the employee-side deductions.
func (b Breakdown) EmployeeTotal() int64 {
	var total int64
	for _, line := range b.Lines {
		total += line.EmployeeAmount
	}
	return total
}

// EmployerTotal sums the employer-side contributions.
func (b Breakdown) EmployerTotal() int64 {
	var total int64
	for _, line := range b.Lines {
		total += line.EmployerAmount
	}
	return total
}

// Line returns the line for a category, nil when absent.
func (b Breakdown) Line(category Category) *DeductionLine {
	for i := range b.Lines {
		if b.Lines[i].Category == category {
			return &b.Lines[i]
		}
	}
	return nil
}
