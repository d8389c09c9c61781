package migration

import (
	"github.com/gajilabs/payrun/internal/config"
	"github.com/gajilabs/payrun/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if cfg.DefaultOrgID != 0 {
			return seed.EnsureLedgerAccounts(conn, cfg.DefaultOrgID)
		}
		return nil
	}),
)
