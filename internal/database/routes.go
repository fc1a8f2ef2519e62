package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-modlogger/internal/models"
)

// SetRoute creates or replaces the override for one category.
func (d *Database) SetRoute(ctx context.Context, o RouteOverride) error {
	if o.UpdatedAt == 0 {
		o.UpdatedAt = time.Now().Unix()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO route_overrides (guild_id, category, channel_id, updated_by, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		o.GuildID, string(o.Category), o.ChannelID, o.UpdatedBy, o.UpdatedAt,
	)
	return err
}

// GetRoute returns the override channel, or "" when the guild has none.
func (d *Database) GetRoute(ctx context.Context, guildID string, category models.LogCategory) (string, error) {
	var channelID string
	err := d.db.QueryRowContext(ctx,
		`SELECT channel_id FROM route_overrides WHERE guild_id = ? AND category = ?`,
		guildID, string(category),
	).Scan(&channelID)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return channelID, nil
}

func (d *Database) DeleteRoute(ctx context.Context, guildID string, category models.LogCategory) error {
	_, err := d.db.ExecContext(ctx,
		`DELETE FROM route_overrides WHERE guild_id = ? AND category = ?`,
		guildID, string(category),
	)
	return err
}

// ListRoutes returns every override for a guild ordered by category.
func (d *Database) ListRoutes(ctx context.Context, guildID string) ([]*RouteOverride, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT guild_id, category, channel_id, updated_by, updated_at
		 FROM route_overrides WHERE guild_id = ? ORDER BY category`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*RouteOverride
	for rows.Next() {
		var o RouteOverride
		var category string
		if err := rows.Scan(&o.GuildID, &category, &o.ChannelID, &o.UpdatedBy, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Category = models.LogCategory(category)
		routes = append(routes, &o)
	}

	return routes, rows.Err()
}
