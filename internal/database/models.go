package database

import "go-modlogger/internal/models"

// RouteOverride is a per-guild destination set with /logs set.
type RouteOverride struct {
	GuildID   string
	Category  models.LogCategory
	ChannelID string
	UpdatedBy string
	UpdatedAt int64
}
