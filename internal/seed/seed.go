// Package seed bootstraps the reference data the payroll engine needs to
// post journal entries for an organization.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/gajilabs/payrun/internal/ledger/domain"
	"gorm.io/gorm"
)

// EnsureLedgerAccounts creates the payroll chart of accounts for an
// organization if missing. Safe to run on every startup.
func EnsureLedgerAccounts(db *gorm.DB, orgID int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, code := range ledgerdomain.PayrollAccountCodes() {
			var existing ledgerdomain.LedgerAccount
			err := tx.WithContext(ctx).
				Where("org_id = ? AND code = ?", orgID, code).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.WithContext(ctx).Create(&ledgerdomain.LedgerAccount{
				ID:    node.Generate(),
				OrgID: snowflake.ID(orgID),
				Code:  code,
				Name:  accountName(code),
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func accountName(code ledgerdomain.LedgerAccountCode) string {
	switch code {
	case ledgerdomain.AccountCodeCash:
		return "Cash"
	case ledgerdomain.AccountCodeSalaryExpense:
		return "Salary Expense"
	case ledgerdomain.AccountCodeAccruedSalaries:
		return "Accrued Salaries"
	}
	return string(code)
}
