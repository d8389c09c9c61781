package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) statutorydomain.Repository {
	return &repository{db: db}
}

// SnapshotForDate resolves the table version in force on the given date: the
// latest effective_from not after it, highest version winning on a tie.
func (r *repository) SnapshotForDate(ctx context.Context, orgID snowflake.ID, date time.Time) (*statutorydomain.RateTable, error) {
	var record statutorydomain.RateTableRecord
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND effective_from <= ?", orgID, date.UTC()).
		Order("effective_from DESC, version DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, statutorydomain.ErrRateTableNotFound
		}
		return nil, err
	}
	return r.load(ctx, record)
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*statutorydomain.RateTable, error) {
	var record statutorydomain.RateTableRecord
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, statutorydomain.ErrRateTableNotFound
		}
		return nil, err
	}
	return r.load(ctx, record)
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID) ([]statutorydomain.RateTableRecord, error) {
	var records []statutorydomain.RateTableRecord
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("effective_from DESC, version DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) Create(ctx context.Context, table *statutorydomain.RateTable) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&table.Record).Error; err != nil {
			return err
		}
		for i := range table.Bands {
			table.Bands[i].RateTableID = table.Record.ID
		}
		for i := range table.Exemptions {
			table.Exemptions[i].RateTableID = table.Record.ID
		}
		if len(table.Bands) > 0 {
			if err := tx.Create(&table.Bands).Error; err != nil {
				return err
			}
		}
		if len(table.Exemptions) > 0 {
			if err := tx.Create(&table.Exemptions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) load(ctx context.Context, record statutorydomain.RateTableRecord) (*statutorydomain.RateTable, error) {
	table := &statutorydomain.RateTable{Record: record}
	err := r.db.WithContext(ctx).
		Where("rate_table_id = ?", record.ID).
		Order("salary_min ASC, id ASC").
		Find(&table.Bands).Error
	if err != nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).
		Where("rate_table_id = ?", record.ID).
		Order("id ASC").
		Find(&table.Exemptions).Error
	if err != nil {
		return nil, err
	}
	return table, nil
}
