package audit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/singleflight"

	"go-modlogger/internal/logging"
	"go-modlogger/internal/metrics"
	"go-modlogger/internal/models"
)

// AuditLogAPI is the slice of *discordgo.Session used for audit lookups.
type AuditLogAPI interface {
	GuildAuditLog(guildID, userID, beforeID string, actionType, limit int, options ...discordgo.RequestOption) (*discordgo.GuildAuditLog, error)
}

// DiscordQuerier reads the REST audit log and merges in entries the gateway
// already pushed. Concurrent identical lookups share one REST call.
type DiscordQuerier struct {
	api     AuditLogAPI
	feed    *Feed
	metrics *metrics.Metrics
	group   singleflight.Group
}

func NewDiscordQuerier(api AuditLogAPI, feed *Feed, m *metrics.Metrics) *DiscordQuerier {
	return &DiscordQuerier{
		api:     api,
		feed:    feed,
		metrics: m,
	}
}

func (q *DiscordQuerier) Query(ctx context.Context, guildID string, category models.ActionCategory, limit int) ([]models.AuditEntry, error) {
	key := guildID + ":" + strconv.Itoa(int(category)) + ":" + strconv.Itoa(limit)

	v, err, _ := q.group.Do(key, func() (interface{}, error) {
		log, err := q.api.GuildAuditLog(guildID, "", "", int(category), limit, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		return ConvertLog(log), nil
	})

	var pushed []models.AuditEntry
	if q.feed != nil {
		pushed = q.feed.Recent(guildID, category, limit)
	}

	if err != nil {
		if len(pushed) > 0 {
			logging.Debug("[AUDIT] REST lookup %s in guild %s failed, using %d gateway entries: %v", category, guildID, len(pushed), err)
			q.metrics.ObserveAuditQuery(category.String(), "feed")
			return pushed, nil
		}
		q.metrics.ObserveAuditQuery(category.String(), "error")
		return nil, fmt.Errorf("audit log %s for guild %s: %w", category, guildID, err)
	}

	q.metrics.ObserveAuditQuery(category.String(), "ok")
	// v is shared between singleflight callers and must not be mutated.
	return merge(v.([]models.AuditEntry), pushed, limit), nil
}

func merge(rest, pushed []models.AuditEntry, limit int) []models.AuditEntry {
	out := make([]models.AuditEntry, 0, len(rest)+len(pushed))
	seen := make(map[string]struct{}, len(rest))
	for _, e := range rest {
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	for _, e := range pushed {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		out = append(out, e)
	}

	models.SortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
