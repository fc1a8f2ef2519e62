package database

import (
	"context"
	"time"

	"go-modlogger/internal/models"
)

// RecordFailure journals a record that could not be delivered anywhere.
func (d *Database) RecordFailure(ctx context.Context, f models.DeliveryFailure) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO delivery_failures (record_id, guild_id, category, destination, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.RecordID, f.GuildID, string(f.Category), f.Destination, f.Error, f.CreatedAt.UnixMilli(),
	)
	return err
}

// RecentFailures returns the newest failures for a guild.
func (d *Database) RecentFailures(ctx context.Context, guildID string, limit int) ([]models.DeliveryFailure, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, record_id, guild_id, category, destination, error, created_at
		 FROM delivery_failures WHERE guild_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []models.DeliveryFailure
	for rows.Next() {
		var f models.DeliveryFailure
		var category string
		var createdAt int64
		if err := rows.Scan(&f.ID, &f.RecordID, &f.GuildID, &category, &f.Destination, &f.Error, &createdAt); err != nil {
			return nil, err
		}
		f.Category = models.LogCategory(category)
		f.CreatedAt = time.UnixMilli(createdAt)
		failures = append(failures, f)
	}

	return failures, rows.Err()
}

// PruneFailures deletes journal rows older than the cutoff.
func (d *Database) PruneFailures(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM delivery_failures WHERE created_at < ?`,
		olderThan.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
