// Package compliance watches finalized payroll runs whose statutory
// remittance deadline has passed. The monitor only observes: it updates the
// overdue gauge and writes one audit row per run crossing into overdue.
// Read-path classification never consults this job.
package compliance

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/gajilabs/payrun/internal/audit/domain"
	"github.com/gajilabs/payrun/internal/auditctx"
	"github.com/gajilabs/payrun/internal/clock"
	"github.com/gajilabs/payrun/internal/config"
	"github.com/gajilabs/payrun/internal/deadline"
	obsmetrics "github.com/gajilabs/payrun/internal/observability/metrics"
	rundomain "github.com/gajilabs/payrun/internal/payrollrun/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Config     config.Config
	AuditSvc   auditdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Monitor struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	interval   time.Duration
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics

	// flagged remembers runs already reported overdue so the audit trail
	// gets one row per crossing, not one per sweep.
	flagged map[snowflake.ID]struct{}
}

func New(p Params) *Monitor {
	return &Monitor{
		db:         p.DB,
		log:        p.Log.Named("compliance.monitor"),
		clock:      p.Clock,
		interval:   p.Config.ComplianceInterval,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
		flagged:    make(map[snowflake.ID]struct{}),
	}
}

// RunForever sweeps on the configured interval until the context ends.
func (m *Monitor) RunForever(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Sweep(ctx); err != nil {
				m.log.Warn("compliance sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep classifies every finalized run against the current clock. Paid and
// cancelled runs drop out of the overdue set automatically because the scan
// only selects finalized ones.
func (m *Monitor) Sweep(ctx context.Context) error {
	ctx = auditctx.WithActor(ctx, string(auditdomain.ActorTypeSystem), "compliance-monitor")

	var runs []rundomain.PayrollRun
	if err := m.db.WithContext(ctx).
		Where("status = ?", rundomain.StatusFinalized).
		Find(&runs).Error; err != nil {
		return err
	}

	now := m.clock.Now()
	overdue := 0
	seen := make(map[snowflake.ID]struct{}, len(runs))
	for i := range runs {
		run := &runs[i]
		status := deadline.ForPeriod(run.PeriodYear, time.Month(run.PeriodMonth), now)
		if status.Classification != deadline.ClassificationOverdue {
			continue
		}
		overdue++
		seen[run.ID] = struct{}{}
		if _, already := m.flagged[run.ID]; already {
			continue
		}
		m.flagged[run.ID] = struct{}{}

		m.log.Warn("payroll run overdue for statutory remittance",
			zap.String("run_id", run.ID.String()),
			zap.Int("period_year", run.PeriodYear),
			zap.Int("period_month", run.PeriodMonth),
			zap.Int("days_past_due", -status.DaysUntilDue),
		)
		if m.auditSvc != nil {
			targetID := run.ID.String()
			orgID := run.OrgID
			_ = m.auditSvc.AuditLog(ctx, &orgID, "", nil, "payroll_run.overdue", "payroll_run", &targetID, map[string]any{
				"due_date":      status.DueDate.Format("2006-01-02"),
				"days_past_due": -status.DaysUntilDue,
				"run_number":    run.RunNumber,
			})
		}
	}

	// Forget runs that left the finalized state so a later re-entry is
	// reported again.
	for id := range m.flagged {
		if _, ok := seen[id]; !ok {
			delete(m.flagged, id)
		}
	}

	if m.obsMetrics != nil {
		m.obsMetrics.SetOverdueRuns(overdue)
	}
	return nil
}

var Module = fx.Module("compliance.monitor",
	fx.Provide(New),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, monitor *Monitor) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go monitor.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
