package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service posts journal entries. CreateEntry runs against the caller's
// transaction so posting commits or rolls back atomically with the state
// change that triggered it. Re-posting the same (org, source type, source)
// is a no-op.
type Service interface {
	CreateEntry(
		ctx context.Context,
		tx *gorm.DB,
		orgID snowflake.ID,
		sourceType LedgerSourceType,
		sourceID snowflake.ID,
		currency string,
		occurredAt time.Time,
		lines []Line,
	) error
}
