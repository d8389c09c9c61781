package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/gajilabs/payrun/internal/audit/domain"
	auditrepository "github.com/gajilabs/payrun/internal/audit/repository"
	auditservice "github.com/gajilabs/payrun/internal/audit/service"
	"github.com/gajilabs/payrun/internal/clock"
	"github.com/gajilabs/payrun/internal/config"
	rundomain "github.com/gajilabs/payrun/internal/payrollrun/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupMonitor(t *testing.T, clk *clock.FakeClock) (*Monitor, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&rundomain.PayrollRun{}, &auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	auditSvc := auditservice.NewService(auditservice.Params{
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  auditrepository.NewRepository(db),
	})

	monitor := New(Params{
		DB:       db,
		Log:      log,
		Clock:    clk,
		Config:   config.Config{ComplianceInterval: time.Hour},
		AuditSvc: auditSvc,
	})
	return monitor, db, node
}

func seedFinalizedRun(t *testing.T, db *gorm.DB, node *snowflake.Node, year, month int) rundomain.PayrollRun {
	t.Helper()
	run := rundomain.PayrollRun{
		ID:          node.Generate(),
		OrgID:       node.Generate(),
		RunNumber:   1,
		PeriodYear:  year,
		PeriodMonth: month,
		PeriodStart: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1),
		PayDate:     time.Date(year, time.Month(month), 28, 0, 0, 0, 0, time.UTC),
		Currency:    "MYR",
		Status:      rundomain.StatusFinalized,
	}
	require.NoError(t, db.Create(&run).Error)
	return run
}

func TestSweepFlagsOverdueRunOnce(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC))
	monitor, db, node := setupMonitor(t, clk)
	run := seedFinalizedRun(t, db, node, 2025, 3) // due 2025-04-15

	// Not yet due: no audit rows.
	require.NoError(t, monitor.Sweep(context.Background()))
	var count int64
	db.Model(&auditdomain.AuditLog{}).Where("action = ?", "payroll_run.overdue").Count(&count)
	assert.Zero(t, count)

	// Cross the deadline.
	clk.Advance(10 * 24 * time.Hour)
	require.NoError(t, monitor.Sweep(context.Background()))
	db.Model(&auditdomain.AuditLog{}).Where("action = ?", "payroll_run.overdue").Count(&count)
	assert.Equal(t, int64(1), count)

	// Subsequent sweeps stay quiet for the same run.
	clk.Advance(24 * time.Hour)
	require.NoError(t, monitor.Sweep(context.Background()))
	db.Model(&auditdomain.AuditLog{}).Where("action = ?", "payroll_run.overdue").Count(&count)
	assert.Equal(t, int64(1), count)

	var logged auditdomain.AuditLog
	require.NoError(t, db.Where("action = ?", "payroll_run.overdue").First(&logged).Error)
	require.NotNil(t, logged.TargetID)
	assert.Equal(t, run.ID.String(), *logged.TargetID)
}

func TestSweepIgnoresPaidRuns(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	monitor, db, node := setupMonitor(t, clk)
	run := seedFinalizedRun(t, db, node, 2025, 3)
	require.NoError(t, db.Model(&run).Update("status", rundomain.StatusPaid).Error)

	require.NoError(t, monitor.Sweep(context.Background()))

	var count int64
	db.Model(&auditdomain.AuditLog{}).Where("action = ?", "payroll_run.overdue").Count(&count)
	assert.Zero(t, count)
}
