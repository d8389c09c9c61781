package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/gajilabs/payrun/internal/audit/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auditdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, entry *auditdomain.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) InsertTx(ctx context.Context, tx *gorm.DB, entry *auditdomain.AuditLog) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID, req auditdomain.ListAuditLogRequest) ([]auditdomain.AuditLog, error) {
	stmt := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC")

	if action := strings.TrimSpace(req.Action); action != "" {
		stmt = stmt.Where("action = ?", action)
	}
	if targetType := strings.TrimSpace(req.TargetType); targetType != "" {
		stmt = stmt.Where("target_type = ?", targetType)
	}
	if targetID := strings.TrimSpace(req.TargetID); targetID != "" {
		stmt = stmt.Where("target_id = ?", targetID)
	}
	if req.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", req.StartAt.UTC())
	}
	if req.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", req.EndAt.UTC())
	}
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []auditdomain.AuditLog
	if err := stmt.Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
