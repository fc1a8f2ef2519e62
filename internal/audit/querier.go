package audit

import (
	"context"

	"go-modlogger/internal/models"
)

// Querier looks up recent audit log entries for one action category.
// Results are ordered most-recent-first and may be shorter than limit.
type Querier interface {
	Query(ctx context.Context, guildID string, category models.ActionCategory, limit int) ([]models.AuditEntry, error)
}
