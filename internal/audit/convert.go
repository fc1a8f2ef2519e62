package audit

import (
	"github.com/bwmarrin/discordgo"

	"go-modlogger/internal/models"
)

// ConvertLog flattens a REST audit log page into entries, newest first.
func ConvertLog(log *discordgo.GuildAuditLog) []models.AuditEntry {
	if log == nil {
		return nil
	}

	names := make(map[string]string, len(log.Users))
	for _, u := range log.Users {
		if u != nil {
			names[u.ID] = u.String()
		}
	}

	entries := make([]models.AuditEntry, 0, len(log.AuditLogEntries))
	for _, e := range log.AuditLogEntries {
		if e == nil {
			continue
		}
		entries = append(entries, ConvertEntry(e, names[e.UserID]))
	}

	models.SortNewestFirst(entries)
	return entries
}

// ConvertEntry keeps only the role $add/$remove changes; other change keys
// play no part in attribution.
func ConvertEntry(e *discordgo.AuditLogEntry, actorName string) models.AuditEntry {
	entry := models.AuditEntry{
		ID:        e.ID,
		TargetID:  e.TargetID,
		ActorID:   e.UserID,
		ActorName: actorName,
	}

	if e.ActionType != nil {
		entry.Category = models.ActionCategory(*e.ActionType)
	}

	if created, err := discordgo.SnowflakeTimestamp(e.ID); err == nil {
		entry.CreatedAt = created
	}

	for _, change := range e.Changes {
		if change == nil || change.Key == nil {
			continue
		}
		key := models.DeltaKey(*change.Key)
		if key != models.DeltaAdd && key != models.DeltaRemove {
			continue
		}
		entry.Changes = append(entry.Changes, models.NewRoleDelta(key, partialRoleIDs(change.NewValue)...))
	}

	return entry
}

// partialRoleIDs reads the [{"id": "...", "name": "..."}] payload of a role change.
func partialRoleIDs(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := obj["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
