package service

import (
	ledgerdomain "github.com/gajilabs/payrun/internal/ledger/domain"
	rundomain "github.com/gajilabs/payrun/internal/payrollrun/domain"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
)

// accrualLines builds the finalization journal entry from the run's stored
// aggregates. The obligation is recognized before any cash moves:
//
//	Debit:  salary_expense             (total gross)
//	Debit:  statutory_expense_<cat>    (employer contribution per category)
//	Credit: accrued_salaries           (total net owed to employees)
//	Credit: statutory_payable_<cat>    (employee + employer per category)
//
// Zero-amount lines (fully exempt categories) are dropped by the ledger
// service before validation.
func accrualLines(run *rundomain.PayrollRun) []ledgerdomain.Line {
	lines := []ledgerdomain.Line{
		ledgerdomain.Debit(ledgerdomain.AccountCodeSalaryExpense, run.TotalGross),
		ledgerdomain.Credit(ledgerdomain.AccountCodeAccruedSalaries, run.TotalNet),
	}
	for _, category := range statutorydomain.Categories() {
		employee, employer := run.CategoryTotals(category)
		lines = append(lines,
			ledgerdomain.Debit(ledgerdomain.StatutoryExpenseCode(category), employer),
			ledgerdomain.Credit(ledgerdomain.StatutoryPayableCode(category), employee+employer),
		)
	}
	return lines
}

// paymentLines settles the net salary obligation when the run is marked
// paid. Statutory payables are remitted separately and stay open here.
func paymentLines(run *rundomain.PayrollRun) []ledgerdomain.Line {
	return []ledgerdomain.Line{
		ledgerdomain.Debit(ledgerdomain.AccountCodeAccruedSalaries, run.TotalNet),
		ledgerdomain.Credit(ledgerdomain.AccountCodeCash, run.TotalNet),
	}
}
