package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/gajilabs/payrun/internal/audit/domain"
	ledgerdomain "github.com/gajilabs/payrun/internal/ledger/domain"
	obsmetrics "github.com/gajilabs/payrun/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	AuditSvc   auditdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
	}
}

// CreateEntry posts one balanced journal entry inside the caller's
// transaction. Zero-amount lines are dropped before validation; the unique
// index on (org_id, source_type, source_id) makes re-posting a no-op.
func (s *Service) CreateEntry(
	ctx context.Context,
	tx *gorm.DB,
	orgID snowflake.ID,
	sourceType ledgerdomain.LedgerSourceType,
	sourceID snowflake.ID,
	currency string,
	occurredAt time.Time,
	lines []ledgerdomain.Line,
) error {
	if orgID == 0 {
		return ledgerdomain.ErrInvalidOrganization
	}
	if strings.TrimSpace(string(sourceType)) == "" {
		return ledgerdomain.ErrInvalidSourceType
	}
	if sourceID == 0 {
		return ledgerdomain.ErrInvalidSourceID
	}
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return ledgerdomain.ErrInvalidCurrency
	}
	if occurredAt.IsZero() {
		return ledgerdomain.ErrInvalidOccurredAt
	}

	normalized := make([]ledgerdomain.Line, 0, len(lines))
	for _, line := range lines {
		if line.Amount < 0 {
			return ledgerdomain.ErrInvalidLineAmount
		}
		if line.Amount == 0 {
			continue
		}
		if line.Direction != ledgerdomain.LedgerEntryDirectionDebit && line.Direction != ledgerdomain.LedgerEntryDirectionCredit {
			return ledgerdomain.ErrInvalidLineDirection
		}
		normalized = append(normalized, line)
	}
	if len(normalized) < 2 {
		return ledgerdomain.ErrInvalidEntryLines
	}
	if err := ledgerdomain.ValidateBalanced(normalized); err != nil {
		return err
	}

	accounts, err := s.loadAccounts(ctx, tx, orgID, normalized)
	if err != nil {
		return err
	}

	entryID := s.genID.Generate()
	now := time.Now().UTC()

	result := tx.WithContext(ctx).Exec(
		`INSERT INTO ledger_entries (
			id, org_id, source_type, source_id, currency, occurred_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (org_id, source_type, source_id) DO NOTHING`,
		entryID,
		orgID,
		string(sourceType),
		sourceID,
		currency,
		occurredAt.UTC(),
		now,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		s.log.Info("ledger entry already exists",
			zap.String("source_type", string(sourceType)),
			zap.String("source_id", sourceID.String()),
			zap.String("org_id", orgID.String()),
		)
		return nil
	}

	for _, line := range normalized {
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO ledger_entry_lines (
				id, ledger_entry_id, account_id, direction, currency, amount, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.genID.Generate(),
			entryID,
			accounts[line.AccountCode].ID,
			string(line.Direction),
			currency,
			line.Amount,
			now,
		).Error; err != nil {
			return err
		}
	}

	entryIDStr := entryID.String()
	if s.auditSvc != nil {
		metadata := map[string]any{
			"source_type":     string(sourceType),
			"source_id":       sourceID.String(),
			"ledger_entry_id": entryIDStr,
		}
		// The audit row rides the caller's transaction: it must not outlive a
		// rolled-back entry, and a root-connection insert would block behind
		// the caller's own write lock on single-writer databases.
		if err := s.auditSvc.AuditLogTx(ctx, tx, &orgID, "", nil, "ledger.entry_created", "ledger_entry", &entryIDStr, metadata); err != nil {
			s.log.Warn("failed to write ledger audit log", zap.Error(err))
		}
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordLedgerEntry(string(sourceType))
	}

	s.log.Info("posted ledger entry",
		zap.String("ledger_entry_id", entryIDStr),
		zap.String("source_type", string(sourceType)),
		zap.Int("lines", len(normalized)),
	)
	return nil
}

func (s *Service) loadAccounts(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, lines []ledgerdomain.Line) (map[ledgerdomain.LedgerAccountCode]ledgerdomain.LedgerAccount, error) {
	codes := make([]ledgerdomain.LedgerAccountCode, 0, len(lines))
	seen := make(map[ledgerdomain.LedgerAccountCode]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountCode]; ok {
			continue
		}
		seen[line.AccountCode] = struct{}{}
		codes = append(codes, line.AccountCode)
	}

	var accounts []ledgerdomain.LedgerAccount
	if err := tx.WithContext(ctx).
		Where("org_id = ? AND code IN ?", orgID, codes).
		Find(&accounts).Error; err != nil {
		return nil, err
	}

	byCode := make(map[ledgerdomain.LedgerAccountCode]ledgerdomain.LedgerAccount, len(accounts))
	for _, account := range accounts {
		byCode[account.Code] = account
	}
	for _, code := range codes {
		if _, ok := byCode[code]; !ok {
			s.log.Error("ledger account missing", zap.String("code", string(code)), zap.String("org_id", orgID.String()))
			return nil, ledgerdomain.ErrAccountNotFound
		}
	}
	return byCode, nil
}
