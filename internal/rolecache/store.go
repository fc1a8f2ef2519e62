// Package rolecache tracks the last known role set of each guild member so
// role grants and revocations can be diffed without refetching the member.
//
// Snapshots live in memory only; a restart starts cold and the first update
// for each member re-seeds it.
package rolecache

// Key identifies one member within one guild.
type Key struct {
	GuildID string
	UserID  string
}

func (k Key) String() string {
	return k.GuildID + ":" + k.UserID
}

// Delta is the result of a Diff. Both slices are sorted.
type Delta struct {
	Added   []string
	Removed []string
}

func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Store is the role snapshot contract. Implementations serialize operations
// on the same key; operations on different keys do not wait on each other
// beyond shard contention.
type Store interface {
	// Seed overwrites the snapshot for the member.
	Seed(guildID, userID string, roleIDs []string)
	// Diff compares roleIDs with the snapshot and stores roleIDs as the new
	// snapshot. A member without a snapshot is seeded and an empty Delta returned.
	Diff(guildID, userID string, roleIDs []string) Delta
	// DiffFrom is Diff for a member whose previous roles are known: an absent
	// snapshot is seeded from before and diffed in the same critical section.
	// A present snapshot wins over before.
	DiffFrom(guildID, userID string, before, roleIDs []string) Delta
	// Evict drops the snapshot; evicting an absent member is a no-op.
	Evict(guildID, userID string)
	// EvictGuild drops every snapshot for the guild.
	EvictGuild(guildID string)
	Has(guildID, userID string) bool
	Len() int
}
