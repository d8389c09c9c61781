package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/gajilabs/payrun/internal/audit/domain"
	"github.com/gajilabs/payrun/internal/auditctx"
	"github.com/gajilabs/payrun/internal/clock"
	"github.com/gajilabs/payrun/internal/config"
	"github.com/gajilabs/payrun/internal/deadline"
	employeedomain "github.com/gajilabs/payrun/internal/employee/domain"
	ledgerdomain "github.com/gajilabs/payrun/internal/ledger/domain"
	obsmetrics "github.com/gajilabs/payrun/internal/observability/metrics"
	"github.com/gajilabs/payrun/internal/orgcontext"
	rundomain "github.com/gajilabs/payrun/internal/payrollrun/domain"
	payslipdomain "github.com/gajilabs/payrun/internal/payslip/domain"
	payslipservice "github.com/gajilabs/payrun/internal/payslip/service"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
	"github.com/gajilabs/payrun/internal/variance"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Config       config.Config
	AuditSvc     auditdomain.Service
	EmployeeRepo employeedomain.Repository
	RateRepo     statutorydomain.Repository
	Builder      *payslipservice.Builder
	LedgerSvc    ledgerdomain.Service
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	cfg          config.Config
	auditSvc     auditdomain.Service
	employeeRepo employeedomain.Repository
	rateRepo     statutorydomain.Repository
	builder      *payslipservice.Builder
	ledgerSvc    ledgerdomain.Service
	obsMetrics   *obsmetrics.Metrics
}

func NewService(p Params) rundomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("payrollrun.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		cfg:          p.Config,
		auditSvc:     p.AuditSvc,
		employeeRepo: p.EmployeeRepo,
		rateRepo:     p.RateRepo,
		builder:      p.Builder,
		ledgerSvc:    p.LedgerSvc,
		obsMetrics:   p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req rundomain.CreateRunRequest) (rundomain.PayrollRun, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return rundomain.PayrollRun{}, err
	}

	if req.PeriodMonth < 1 || req.PeriodMonth > 12 || req.PeriodYear < 2000 || req.PeriodYear > 2200 {
		return rundomain.PayrollRun{}, rundomain.ErrInvalidPeriod
	}
	payDate, err := rundomain.ParsePayDate(strings.TrimSpace(req.PayDate))
	if err != nil {
		return rundomain.PayrollRun{}, rundomain.ErrInvalidPayDate
	}

	periodStart := time.Date(req.PeriodYear, time.Month(req.PeriodMonth), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, -1)
	if payDate.Before(periodStart) {
		return rundomain.PayrollRun{}, rundomain.ErrInvalidPayDate
	}

	now := s.clock.Now()
	actorType, actorID := auditctx.ActorFromContext(ctx)
	createdBy := actorID
	if createdBy == "" {
		createdBy = actorType
	}

	run := rundomain.PayrollRun{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Label:       strings.TrimSpace(req.Label),
		PeriodYear:  req.PeriodYear,
		PeriodMonth: req.PeriodMonth,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PayDate:     payDate,
		Currency:    "MYR",
		Status:      rundomain.StatusDraft,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureNoOpenRunForPeriod(ctx, tx, orgID, req.PeriodYear, req.PeriodMonth); err != nil {
			return err
		}
		number, err := s.nextRunNumber(ctx, tx, orgID)
		if err != nil {
			return err
		}
		run.RunNumber = number
		return tx.WithContext(ctx).Create(&run).Error
	})
	if err != nil {
		return rundomain.PayrollRun{}, err
	}

	s.emitAudit(ctx, "payroll_run.created", &run, nil)
	return run, nil
}

func (s *Service) List(ctx context.Context, req rundomain.ListRunsRequest) ([]rundomain.PayrollRun, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Where("org_id = ?", orgID)
	if req.Status != nil {
		query = query.Where("status = ?", *req.Status)
	}
	if req.PeriodYear != nil {
		query = query.Where("period_year = ?", *req.PeriodYear)
	}
	if req.PeriodMonth != nil {
		query = query.Where("period_month = ?", *req.PeriodMonth)
	}

	var runs []rundomain.PayrollRun
	if err := query.Order("run_number DESC").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (rundomain.PayrollRun, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return rundomain.PayrollRun{}, err
	}
	runID, err := parseID(id)
	if err != nil {
		return rundomain.PayrollRun{}, rundomain.ErrInvalidRunID
	}

	var run rundomain.PayrollRun
	if err := s.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, runID).
		First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rundomain.PayrollRun{}, rundomain.ErrRunNotFound
		}
		return rundomain.PayrollRun{}, err
	}
	return run, nil
}

// Calculate runs the statutory engine for every active employee and moves
// the run draft → calculating → pending_review. The expensive computation
// happens outside any row lock; the commit re-checks status and revision and
// discards the computed slips on a mismatch.
func (s *Service) Calculate(ctx context.Context, id string) (rundomain.CalculationResult, error) {
	return s.runCalculation(ctx, id, rundomain.StatusDraft, "calculate")
}

// Recalculate discards the existing slips of a run under review and runs the
// engine again against the current roster and rate tables.
func (s *Service) Recalculate(ctx context.Context, id string) (rundomain.CalculationResult, error) {
	return s.runCalculation(ctx, id, rundomain.StatusPendingReview, "recalculate")
}

func (s *Service) runCalculation(ctx context.Context, id string, fromStatus rundomain.Status, operation string) (rundomain.CalculationResult, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return rundomain.CalculationResult{}, err
	}
	runID, err := parseID(id)
	if err != nil {
		return rundomain.CalculationResult{}, rundomain.ErrInvalidRunID
	}

	// Phase 1: claim the run.
	var claimed rundomain.PayrollRun
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run, err := s.loadRunForUpdate(ctx, tx, orgID, runID)
		if err != nil {
			return err
		}
		if run.Status != fromStatus {
			return &rundomain.TransitionError{From: run.Status, Operation: operation}
		}
		if err := s.transition(ctx, tx, run, rundomain.StatusCalculating); err != nil {
			return err
		}
		claimed = *run
		return nil
	})
	if err != nil {
		s.recordTransition(operation, "rejected")
		return rundomain.CalculationResult{}, err
	}

	// Phase 2: compute outside any lock. compute records the snapshotted
	// rate table on the claimed copy.
	result, calcErr := s.compute(ctx, &claimed)

	// Phase 3: commit under a fresh lock, verifying nothing moved the run
	// while we were computing. A failed computation still commits the
	// release back to the state the run was claimed from, so a failed
	// recalculate keeps the previous slips and aggregates valid under
	// pending_review.
	commitErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run, err := s.loadRunForUpdate(ctx, tx, orgID, runID)
		if err != nil {
			return err
		}
		if run.Status != rundomain.StatusCalculating || run.Revision != claimed.Revision {
			return rundomain.ErrConflict
		}

		if calcErr != nil {
			return s.transition(ctx, tx, run, fromStatus)
		}

		if err := tx.WithContext(ctx).Exec(
			`DELETE FROM pay_slips WHERE payroll_run_id = ?`, runID,
		).Error; err != nil {
			return err
		}
		if len(result.PaySlips) > 0 {
			if err := tx.WithContext(ctx).Create(&result.PaySlips).Error; err != nil {
				return err
			}
		}

		run.RateTableID = claimed.RateTableID
		s.applyAggregates(run, result.PaySlips)
		if err := s.transition(ctx, tx, run, rundomain.StatusPendingReview); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Save(run).Error; err != nil {
			return err
		}
		result.Run = *run
		return nil
	})

	for range result.Errors {
		s.recordCalculationError()
	}
	if commitErr != nil {
		s.recordTransition(operation, "failed")
		return rundomain.CalculationResult{Errors: result.Errors}, commitErr
	}
	if calcErr != nil {
		s.recordTransition(operation, "failed")
		return rundomain.CalculationResult{Errors: result.Errors}, calcErr
	}

	s.recordTransition(operation, "committed")
	s.emitAudit(ctx, "payroll_run."+operation+"d", &result.Run, map[string]any{
		"pay_slip_count":     len(result.PaySlips),
		"calculation_errors": len(result.Errors),
	})
	return result, nil
}

// compute is the lock-free middle of calculate: roster load, rate table
// snapshot, slip construction.
func (s *Service) compute(ctx context.Context, run *rundomain.PayrollRun) (rundomain.CalculationResult, error) {
	employees, err := s.employeeRepo.ListActive(ctx, run.OrgID, run.PeriodEnd)
	if err != nil {
		return rundomain.CalculationResult{}, err
	}
	if len(employees) == 0 {
		return rundomain.CalculationResult{}, rundomain.ErrNoActiveEmployees
	}

	table, err := s.rateRepo.SnapshotForDate(ctx, run.OrgID, run.PeriodEnd)
	if err != nil {
		return rundomain.CalculationResult{}, err
	}

	slips, failures := s.builder.Build(run.OrgID, run.ID, employees, table, run.PeriodEnd)
	if len(slips) == 0 {
		return rundomain.CalculationResult{Errors: failures}, rundomain.ErrAllCalculationsFailed
	}

	rateTableID := table.Record.ID
	run.RateTableID = &rateTableID
	return rundomain.CalculationResult{PaySlips: slips, Errors: failures}, nil
}

func (s *Service) Approve(ctx context.Context, id string) (rundomain.PayrollRun, error) {
	return s.simpleTransition(ctx, id, "approve", rundomain.StatusPendingReview, rundomain.StatusApproved,
		func(ctx context.Context, tx *gorm.DB, run *rundomain.PayrollRun) error {
			// The aggregate must still describe the stored slips.
			var count int64
			if err := tx.WithContext(ctx).
				Model(&payslipdomain.PaySlip{}).
				Where("payroll_run_id = ?", run.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if int(count) != run.EmployeeCount {
				return rundomain.ErrSlipCountMismatch
			}

			now := s.clock.Now()
			_, actorID := auditctx.ActorFromContext(ctx)
			if actorID != "" {
				run.ApprovedBy = &actorID
			}
			run.ApprovedAt = &now
			return nil
		})
}

// Finalize locks the run and posts the accrual journal entry in the same
// transaction. A posting failure rolls the whole transition back.
func (s *Service) Finalize(ctx context.Context, id string) (rundomain.PayrollRun, error) {
	return s.simpleTransition(ctx, id, "finalize", rundomain.StatusApproved, rundomain.StatusFinalized,
		func(ctx context.Context, tx *gorm.DB, run *rundomain.PayrollRun) error {
			now := s.clock.Now()
			run.FinalizedAt = &now

			postCtx, cancel := context.WithTimeout(ctx, s.cfg.LedgerPostTimeout)
			defer cancel()
			return s.ledgerSvc.CreateEntry(
				postCtx, tx, run.OrgID,
				ledgerdomain.SourceTypePayrollAccrual, run.ID,
				run.Currency, now,
				accrualLines(run),
			)
		})
}

// MarkPaid records the actual payment date and posts the settlement entry.
func (s *Service) MarkPaid(ctx context.Context, id string, req rundomain.MarkPaidRequest) (rundomain.PayrollRun, error) {
	paymentDate, err := rundomain.ParsePayDate(strings.TrimSpace(req.PaymentDate))
	if err != nil {
		return rundomain.PayrollRun{}, rundomain.ErrInvalidPayDate
	}
	if paymentDate.After(s.clock.Now()) {
		return rundomain.PayrollRun{}, rundomain.ErrPaymentDateInFuture
	}

	return s.simpleTransition(ctx, id, "mark_paid", rundomain.StatusFinalized, rundomain.StatusPaid,
		func(ctx context.Context, tx *gorm.DB, run *rundomain.PayrollRun) error {
			now := s.clock.Now()
			run.PaidAt = &now
			run.PaymentDate = &paymentDate

			postCtx, cancel := context.WithTimeout(ctx, s.cfg.LedgerPostTimeout)
			defer cancel()
			return s.ledgerSvc.CreateEntry(
				postCtx, tx, run.OrgID,
				ledgerdomain.SourceTypePayrollPayment, run.ID,
				run.Currency, paymentDate,
				paymentLines(run),
			)
		})
}

func (s *Service) Cancel(ctx context.Context, id string) (rundomain.PayrollRun, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return rundomain.PayrollRun{}, err
	}
	runID, err := parseID(id)
	if err != nil {
		return rundomain.PayrollRun{}, rundomain.ErrInvalidRunID
	}

	var cancelled rundomain.PayrollRun
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run, err := s.loadRunForUpdate(ctx, tx, orgID, runID)
		if err != nil {
			return err
		}
		if !rundomain.CanTransition(run.Status, rundomain.StatusCancelled) {
			return &rundomain.TransitionError{From: run.Status, Operation: "cancel"}
		}
		now := s.clock.Now()
		run.CancelledAt = &now
		if err := s.transition(ctx, tx, run, rundomain.StatusCancelled); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Save(run).Error; err != nil {
			return err
		}
		cancelled = *run
		return nil
	})
	if err != nil {
		s.recordTransition("cancel", "rejected")
		return rundomain.PayrollRun{}, err
	}

	s.recordTransition("cancel", "committed")
	s.emitAudit(ctx, "payroll_run.cancelled", &cancelled, nil)
	return cancelled, nil
}

func (s *Service) PaySlips(ctx context.Context, runID string) ([]payslipdomain.PaySlip, error) {
	run, err := s.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	var slips []payslipdomain.PaySlip
	if err := s.db.WithContext(ctx).
		Where("payroll_run_id = ?", run.ID).
		Order("employee_code ASC").
		Find(&slips).Error; err != nil {
		return nil, err
	}
	return slips, nil
}

// Deadline reports the statutory remittance status of a run's period. The
// classification is derived from the clock at call time, never stored.
func (s *Service) Deadline(ctx context.Context, runID string) (deadline.Status, error) {
	run, err := s.GetByID(ctx, runID)
	if err != nil {
		return deadline.Status{}, err
	}
	return deadline.ForPeriod(run.PeriodYear, time.Month(run.PeriodMonth), s.clock.Now()), nil
}

// Variance evaluates one slip's advisory findings on demand.
func (s *Service) Variance(ctx context.Context, paySlipID string) (rundomain.VarianceResult, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return rundomain.VarianceResult{}, err
	}
	slipID, err := parseID(paySlipID)
	if err != nil {
		return rundomain.VarianceResult{}, rundomain.ErrPaySlipNotFound
	}

	var slip payslipdomain.PaySlip
	if err := s.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, slipID).
		First(&slip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rundomain.VarianceResult{}, rundomain.ErrPaySlipNotFound
		}
		return rundomain.VarianceResult{}, err
	}

	findings := variance.Detect(&slip, variance.Config{
		NetRatioFloorBps:  s.cfg.VarianceNetRatioFloorBps,
		IncomeTaxGrossMin: s.cfg.VarianceIncomeTaxGrossMin,
	})
	return rundomain.VarianceResult{PaySlip: slip, Findings: findings}, nil
}

// simpleTransition is the shared single-transaction path for approve,
// finalize and mark-paid: lock, check, mutate, save, audit.
func (s *Service) simpleTransition(
	ctx context.Context,
	id string,
	operation string,
	from, to rundomain.Status,
	mutate func(ctx context.Context, tx *gorm.DB, run *rundomain.PayrollRun) error,
) (rundomain.PayrollRun, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return rundomain.PayrollRun{}, err
	}
	runID, err := parseID(id)
	if err != nil {
		return rundomain.PayrollRun{}, rundomain.ErrInvalidRunID
	}

	var updated rundomain.PayrollRun
	var alreadyDone bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run, err := s.loadRunForUpdate(ctx, tx, orgID, runID)
		if err != nil {
			return err
		}
		// Retrying a completed transition is a no-op success: the ledger's
		// per-source dedup already guarantees nothing was posted twice.
		if run.Status == to {
			alreadyDone = true
			updated = *run
			return nil
		}
		if run.Status != from {
			return &rundomain.TransitionError{From: run.Status, Operation: operation}
		}
		if mutate != nil {
			if err := mutate(ctx, tx, run); err != nil {
				return err
			}
		}
		if err := s.transition(ctx, tx, run, to); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Save(run).Error; err != nil {
			return err
		}
		updated = *run
		return nil
	})
	if err != nil {
		s.recordTransition(operation, "rejected")
		return rundomain.PayrollRun{}, err
	}
	if alreadyDone {
		s.recordTransition(operation, "noop")
		return updated, nil
	}

	s.recordTransition(operation, "committed")
	s.emitAudit(ctx, "payroll_run."+string(to), &updated, map[string]any{
		"previous_status": string(from),
	})
	return updated, nil
}

// transition mutates the run status in memory, bumps the revision, and
// appends the transition log row. Callers persist the run afterwards.
func (s *Service) transition(ctx context.Context, tx *gorm.DB, run *rundomain.PayrollRun, to rundomain.Status) error {
	if !rundomain.CanTransition(run.Status, to) {
		return &rundomain.TransitionError{From: run.Status, Operation: string(to)}
	}
	from := run.Status
	now := s.clock.Now()
	run.Status = to
	run.Revision++
	run.UpdatedAt = now

	_, actorID := auditctx.ActorFromContext(ctx)
	record := rundomain.RunTransition{
		ID:           s.genID.Generate(),
		OrgID:        run.OrgID,
		PayrollRunID: run.ID,
		FromStatus:   from,
		ToStatus:     to,
		Actor:        actorID,
		OccurredAt:   now,
	}
	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}

	// The claim phase persists through this helper; commit phases save the
	// full aggregate themselves.
	return tx.WithContext(ctx).Exec(
		`UPDATE payroll_runs SET status = ?, revision = ?, updated_at = ? WHERE id = ?`,
		to, run.Revision, now, run.ID,
	).Error
}

func (s *Service) applyAggregates(run *rundomain.PayrollRun, slips []payslipdomain.PaySlip) {
	run.ResetTotals()
	run.EmployeeCount = len(slips)
	for i := range slips {
		slip := &slips[i]
		run.TotalGross += slip.GrossSalary
		run.TotalNet += slip.NetSalary
		run.TotalEmployeeDeductions += slip.TotalEmployeeDeductions
		run.TotalEmployerContributions += slip.TotalEmployerContributions
		for _, category := range statutorydomain.Categories() {
			line := slip.Line(category)
			run.AddCategoryTotals(category, line.EmployeeAmount, line.EmployerAmount)
		}
	}
}

func (s *Service) loadRunForUpdate(ctx context.Context, tx *gorm.DB, orgID, id snowflake.ID) (*rundomain.PayrollRun, error) {
	var run rundomain.PayrollRun
	query := `SELECT * FROM payroll_runs WHERE org_id = ? AND id = ?`
	if tx.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}
	err := tx.WithContext(ctx).Raw(query, orgID, id).Scan(&run).Error
	if err != nil {
		return nil, err
	}
	if run.ID == 0 {
		return nil, rundomain.ErrRunNotFound
	}
	return &run, nil
}

func (s *Service) ensureNoOpenRunForPeriod(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, year, month int) error {
	var count int64
	err := tx.WithContext(ctx).
		Model(&rundomain.PayrollRun{}).
		Where("org_id = ? AND period_year = ? AND period_month = ? AND status NOT IN ?",
			orgID, year, month, []rundomain.Status{rundomain.StatusCancelled}).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return rundomain.ErrDuplicatePeriod
	}
	return nil
}

func (s *Service) nextRunNumber(ctx context.Context, tx *gorm.DB, orgID snowflake.ID) (int64, error) {
	var next int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(run_number), 0) + 1 FROM payroll_runs WHERE org_id = ?`,
		orgID,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Service) emitAudit(ctx context.Context, action string, run *rundomain.PayrollRun, extra map[string]any) {
	if s.auditSvc == nil || run == nil {
		return
	}
	metadata := map[string]any{
		"run_number":   run.RunNumber,
		"period_year":  run.PeriodYear,
		"period_month": run.PeriodMonth,
		"status":       string(run.Status),
		"revision":     run.Revision,
	}
	for key, value := range extra {
		if key == "" {
			continue
		}
		metadata[key] = value
	}

	targetID := run.ID.String()
	orgID := run.OrgID
	_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, action, "payroll_run", &targetID, metadata)
}

func (s *Service) orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, rundomain.ErrInvalidOrganization
	}
	return orgID, nil
}

func (s *Service) recordTransition(operation, outcome string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordTransition(operation, outcome)
	}
}

func (s *Service) recordCalculationError() {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordCalculationError()
	}
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
