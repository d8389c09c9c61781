package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Repository loads versioned rate tables. Snapshots are immutable once
// referenced by a calculated run.
type Repository interface {
	SnapshotForDate(ctx context.Context, orgID snowflake.ID, date time.Time) (*RateTable, error)
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*RateTable, error)
	List(ctx context.Context, orgID snowflake.ID) ([]RateTableRecord, error)
	Create(ctx context.Context, table *RateTable) error
}
