package audit

import (
	"sync"
	"time"

	"go-modlogger/internal/models"
)

// Feed keeps audit entries pushed over the gateway (GUILD_AUDIT_LOG_ENTRY_CREATE)
// for a short TTL, so lookups can succeed before the REST endpoint catches up.
type Feed struct {
	mu      sync.Mutex
	entries map[string][]models.AuditEntry
	ttl     time.Duration
	now     func() time.Time
}

const maxFeedPerGuild = 100

func NewFeed(ttl time.Duration) *Feed {
	return &Feed{
		entries: make(map[string][]models.AuditEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (f *Feed) Push(guildID string, entry models.AuditEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = f.now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.prune(guildID)
	list = append([]models.AuditEntry{entry}, list...)
	models.SortNewestFirst(list)
	if len(list) > maxFeedPerGuild {
		list = list[:maxFeedPerGuild]
	}
	f.entries[guildID] = list
}

// Recent returns up to limit live entries of the category, newest first.
func (f *Feed) Recent(guildID string, category models.ActionCategory, limit int) []models.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.AuditEntry
	for _, e := range f.prune(guildID) {
		if e.Category != category {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out
}

// prune drops expired entries. Callers hold f.mu.
func (f *Feed) prune(guildID string) []models.AuditEntry {
	list := f.entries[guildID]
	cutoff := f.now().Add(-f.ttl)

	kept := list[:0]
	for _, e := range list {
		if e.CreatedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}

	if len(kept) == 0 {
		delete(f.entries, guildID)
		return nil
	}
	f.entries[guildID] = kept
	return kept
}
