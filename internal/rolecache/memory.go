package rolecache

import (
	"sort"
	"sync"

	"go-modlogger/pkg/util"
)

const (
	shardCount = 64
	shardMask  = shardCount - 1
)

type roleSet map[string]struct{}

type shard struct {
	mu        sync.Mutex
	snapshots map[Key]roleSet
}

// MemoryStore is a sharded in-memory Store. Each key maps to exactly one
// shard, and every operation holds that shard's lock for its whole duration.
type MemoryStore struct {
	shards [shardCount]*shard
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{snapshots: make(map[Key]roleSet)}
	}
	return s
}

func (s *MemoryStore) shardFor(k Key) *shard {
	return s.shards[util.HashIndex(util.HashString(k.String()), shardMask)]
}

func newRoleSet(roleIDs []string) roleSet {
	set := make(roleSet, len(roleIDs))
	for _, id := range roleIDs {
		set[id] = struct{}{}
	}
	return set
}

func (s *MemoryStore) Seed(guildID, userID string, roleIDs []string) {
	k := Key{GuildID: guildID, UserID: userID}
	sh := s.shardFor(k)

	sh.mu.Lock()
	sh.snapshots[k] = newRoleSet(roleIDs)
	sh.mu.Unlock()
}

func (s *MemoryStore) Diff(guildID, userID string, roleIDs []string) Delta {
	k := Key{GuildID: guildID, UserID: userID}
	sh := s.shardFor(k)
	current := newRoleSet(roleIDs)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	previous, ok := sh.snapshots[k]
	sh.snapshots[k] = current
	if !ok {
		return Delta{}
	}
	return diffSets(previous, current)
}

func (s *MemoryStore) DiffFrom(guildID, userID string, before, roleIDs []string) Delta {
	k := Key{GuildID: guildID, UserID: userID}
	sh := s.shardFor(k)
	current := newRoleSet(roleIDs)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	previous, ok := sh.snapshots[k]
	if !ok {
		previous = newRoleSet(before)
	}
	sh.snapshots[k] = current
	return diffSets(previous, current)
}

func diffSets(previous, current roleSet) Delta {
	var d Delta
	for id := range previous {
		if _, still := current[id]; !still {
			d.Removed = append(d.Removed, id)
		}
	}
	for id := range current {
		if _, had := previous[id]; !had {
			d.Added = append(d.Added, id)
		}
	}
	sort.Strings(d.Removed)
	sort.Strings(d.Added)
	return d
}

func (s *MemoryStore) Evict(guildID, userID string) {
	k := Key{GuildID: guildID, UserID: userID}
	sh := s.shardFor(k)

	sh.mu.Lock()
	delete(sh.snapshots, k)
	sh.mu.Unlock()
}

func (s *MemoryStore) EvictGuild(guildID string) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k := range sh.snapshots {
			if k.GuildID == guildID {
				delete(sh.snapshots, k)
			}
		}
		sh.mu.Unlock()
	}
}

func (s *MemoryStore) Has(guildID, userID string) bool {
	k := Key{GuildID: guildID, UserID: userID}
	sh := s.shardFor(k)

	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.snapshots[k]
	return ok
}

func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.snapshots)
		sh.mu.Unlock()
	}
	return n
}

// snapshot returns a sorted copy of the stored set, for tests and /status.
func (s *MemoryStore) snapshot(guildID, userID string) ([]string, bool) {
	k := Key{GuildID: guildID, UserID: userID}
	sh := s.shardFor(k)

	sh.mu.Lock()
	defer sh.mu.Unlock()
	set, ok := sh.snapshots[k]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, true
}
