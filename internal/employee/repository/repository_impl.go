package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	employeedomain "github.com/gajilabs/payrun/internal/employee/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) employeedomain.Repository {
	return &repository{db: db}
}

func (r *repository) ListActive(ctx context.Context, orgID snowflake.ID, asOf time.Time) ([]employeedomain.Employee, error) {
	var employees []employeedomain.Employee
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND status = ? AND created_at <= ?", orgID, employeedomain.EmployeeStatusActive, asOf.UTC()).
		Order("code ASC").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID) ([]employeedomain.Employee, error) {
	var employees []employeedomain.Employee
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("code ASC").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*employeedomain.Employee, error) {
	var employee employeedomain.Employee
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employeedomain.ErrNotFound
		}
		return nil, err
	}
	return &employee, nil
}

func (r *repository) Create(ctx context.Context, employee *employeedomain.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *repository) Update(ctx context.Context, employee *employeedomain.Employee) error {
	return r.db.WithContext(ctx).Save(employee).Error
}
