// Package domain defines the double-entry journal the payroll engine posts
// into. Entries are immutable once written and idempotent per source.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
)

// LedgerEntryDirection represents debit or credit postings.
type LedgerEntryDirection string

const (
	LedgerEntryDirectionDebit  LedgerEntryDirection = "debit"
	LedgerEntryDirectionCredit LedgerEntryDirection = "credit"
)

// LedgerSourceType identifies the business event behind an entry.
type LedgerSourceType string

const (
	// SourceTypePayrollAccrual is posted when a run is finalized: the
	// obligation exists even though no cash has moved.
	SourceTypePayrollAccrual LedgerSourceType = "payroll_accrual"
	// SourceTypePayrollPayment is posted when a run is marked paid.
	SourceTypePayrollPayment LedgerSourceType = "payroll_payment"
)

// LedgerAccountCode names a chart-of-accounts entry.
type LedgerAccountCode string

const (
	// Assets
	AccountCodeCash LedgerAccountCode = "cash"

	// Expenses
	AccountCodeSalaryExpense LedgerAccountCode = "salary_expense"

	// Liabilities
	AccountCodeAccruedSalaries LedgerAccountCode = "accrued_salaries"
)

// StatutoryExpenseCode is the employer-side expense account for a category.
func StatutoryExpenseCode(category statutorydomain.Category) LedgerAccountCode {
	return LedgerAccountCode("statutory_expense_" + string(category))
}

// StatutoryPayableCode is the remittance liability account for a category.
func StatutoryPayableCode(category statutorydomain.Category) LedgerAccountCode {
	return LedgerAccountCode("statutory_payable_" + string(category))
}

// PayrollAccountCodes lists every account the payroll adapter posts to.
// Migrations seed these per organization.
func PayrollAccountCodes() []LedgerAccountCode {
	codes := []LedgerAccountCode{
		AccountCodeCash,
		AccountCodeSalaryExpense,
		AccountCodeAccruedSalaries,
	}
	for _, category := range statutorydomain.Categories() {
		codes = append(codes, StatutoryExpenseCode(category), StatutoryPayableCode(category))
	}
	return codes
}

// LedgerAccount defines a chart-of-accounts entry.
type LedgerAccount struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	OrgID     snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_ledger_accounts_org_code,priority:1"`
	Code      LedgerAccountCode `gorm:"type:text;not null;uniqueIndex:ux_ledger_accounts_org_code,priority:2"`
	Name      string            `gorm:"type:text;not null"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerAccount) TableName() string { return "ledger_accounts" }

// LedgerEntry captures the immutable header for a financial event. The
// composite unique index is the idempotency key the posting relies on.
type LedgerEntry struct {
	ID         snowflake.ID     `gorm:"primaryKey"`
	OrgID      snowflake.ID     `gorm:"not null;uniqueIndex:ux_ledger_entries_source,priority:1"`
	SourceType LedgerSourceType `gorm:"type:text;not null;uniqueIndex:ux_ledger_entries_source,priority:2"`
	SourceID   snowflake.ID     `gorm:"not null;uniqueIndex:ux_ledger_entries_source,priority:3"`
	Currency   string           `gorm:"type:text;not null"`
	OccurredAt time.Time        `gorm:"not null"`
	CreatedAt  time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

// LedgerEntryLine is a double-entry posting line.
type LedgerEntryLine struct {
	ID            snowflake.ID         `gorm:"primaryKey"`
	LedgerEntryID snowflake.ID         `gorm:"not null;index"`
	AccountID     snowflake.ID         `gorm:"not null;index"`
	Direction     LedgerEntryDirection `gorm:"type:text;not null"`
	Currency      string               `gorm:"type:text;not null"`
	Amount        int64                `gorm:"not null"`
	CreatedAt     time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntryLine) TableName() string { return "ledger_entry_lines" }

// Line is the posting instruction handed to the service: accounts are
// addressed by code and resolved inside the posting transaction.
type Line struct {
	AccountCode LedgerAccountCode
	Direction   LedgerEntryDirection
	Amount      int64
}

// Debit builds a debit line.
func Debit(code LedgerAccountCode, amount int64) Line {
	return Line{AccountCode: code, Direction: LedgerEntryDirectionDebit, Amount: amount}
}

// Credit builds a credit line.
func Credit(code LedgerAccountCode, amount int64) Line {
	return Line{AccountCode: code, Direction: LedgerEntryDirectionCredit, Amount: amount}
}

// ValidateBalanced ensures total debits equal total credits.
func ValidateBalanced(lines []Line) error {
	var debits, credits int64
	for _, line := range lines {
		switch line.Direction {
		case LedgerEntryDirectionDebit:
			debits += line.Amount
		case LedgerEntryDirectionCredit:
			credits += line.Amount
		default:
			return ErrInvalidLineDirection
		}
	}
	if debits != credits {
		return ErrUnbalancedEntry
	}
	return nil
}
