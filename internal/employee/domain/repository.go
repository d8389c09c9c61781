package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Repository is the roster lookup contract consumed by payroll calculation.
type Repository interface {
	ListActive(ctx context.Context, orgID snowflake.ID, asOf time.Time) ([]Employee, error)
	List(ctx context.Context, orgID snowflake.ID) ([]Employee, error)
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*Employee, error)
	Create(ctx context.Context, employee *Employee) error
	Update(ctx context.Context, employee *Employee) error
}

var (
	ErrNotFound         = errors.New("employee_not_found")
	ErrInvalidCode      = errors.New("invalid_employee_code")
	ErrInvalidName      = errors.New("invalid_employee_name")
	ErrInvalidSalary    = errors.New("invalid_base_salary")
	ErrInvalidResidency = errors.New("invalid_residency")
)
