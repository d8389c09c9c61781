package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gajilabs/payrun/internal/audit"
	"github.com/gajilabs/payrun/internal/clock"
	"github.com/gajilabs/payrun/internal/compliance"
	"github.com/gajilabs/payrun/internal/config"
	"github.com/gajilabs/payrun/internal/employee"
	"github.com/gajilabs/payrun/internal/ledger"
	"github.com/gajilabs/payrun/internal/migration"
	"github.com/gajilabs/payrun/internal/observability"
	"github.com/gajilabs/payrun/internal/payrollrun"
	"github.com/gajilabs/payrun/internal/payslip"
	"github.com/gajilabs/payrun/internal/server"
	"github.com/gajilabs/payrun/internal/statutory"
	"github.com/gajilabs/payrun/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Payroll domains
		audit.Module,
		employee.Module,
		statutory.Module,
		payslip.Module,
		ledger.Module,
		payrollrun.Module,
		compliance.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
