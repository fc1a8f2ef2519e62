package audit

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-modlogger/internal/models"
)

const discordEpochMS = 1420070400000

func snowflakeAt(t time.Time) string {
	return strconv.FormatInt((t.UnixMilli()-discordEpochMS)<<22, 10)
}

func actionPtr(a discordgo.AuditLogAction) *discordgo.AuditLogAction { return &a }

func keyPtr(k discordgo.AuditLogChangeKey) *discordgo.AuditLogChangeKey { return &k }

type fakeAPI struct {
	mu    sync.Mutex
	calls int32
	log   *discordgo.GuildAuditLog
	err   error
	gate  chan struct{}
	asked []int
}

func (f *fakeAPI) GuildAuditLog(guildID, userID, beforeID string, actionType, limit int, options ...discordgo.RequestOption) (*discordgo.GuildAuditLog, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.asked = append(f.asked, actionType)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	return f.log, f.err
}

func TestConvertLog(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	older := snowflakeAt(now.Add(-5 * time.Second))
	newer := snowflakeAt(now)

	log := &discordgo.GuildAuditLog{
		Users: []*discordgo.User{{ID: "mod1", Username: "alice", Discriminator: "0"}},
		AuditLogEntries: []*discordgo.AuditLogEntry{
			{
				ID:         older,
				TargetID:   "member1",
				UserID:     "mod1",
				ActionType: actionPtr(discordgo.AuditLogActionMemberRoleUpdate),
				Changes: []*discordgo.AuditLogChange{
					{
						Key:      keyPtr(discordgo.AuditLogChangeKeyRoleAdd),
						NewValue: []interface{}{map[string]interface{}{"id": "roleA", "name": "A"}},
					},
					{Key: keyPtr(discordgo.AuditLogChangeKeyName), NewValue: "ignored"},
					nil,
				},
			},
			nil,
			{
				ID:         newer,
				TargetID:   "member2",
				UserID:     "mod2",
				ActionType: actionPtr(discordgo.AuditLogActionMemberRoleUpdate),
				Changes: []*discordgo.AuditLogChange{
					{
						Key: keyPtr(discordgo.AuditLogChangeKeyRoleRemove),
						NewValue: []interface{}{
							map[string]interface{}{"id": "roleB"},
							map[string]interface{}{"id": "roleC"},
							"garbage",
						},
					},
				},
			},
		},
	}

	entries := ConvertLog(log)
	require.Len(t, entries, 2)

	assert.Equal(t, newer, entries[0].ID, "newest entry first")
	assert.Equal(t, "mod2", entries[0].Actor().DisplayName, "missing user falls back to id")
	require.Len(t, entries[0].Changes, 1)
	assert.Equal(t, models.DeltaRemove, entries[0].Changes[0].Key)
	assert.True(t, entries[0].Changes[0].Contains("roleB"))
	assert.True(t, entries[0].Changes[0].Contains("roleC"))

	assert.Equal(t, "alice", entries[1].ActorName)
	assert.Equal(t, models.ActionMemberRoleUpdate, entries[1].Category)
	require.Len(t, entries[1].Changes, 1)
	assert.True(t, entries[1].Changes[0].Contains("roleA"))
	assert.WithinDuration(t, now.Add(-5*time.Second), entries[1].CreatedAt, time.Millisecond)

	assert.Nil(t, ConvertLog(nil))
}

func TestFeedExpiresAndFilters(t *testing.T) {
	now := time.Now()
	feed := NewFeed(10 * time.Second)
	feed.now = func() time.Time { return now }

	feed.Push("g1", models.AuditEntry{ID: "1", Category: models.ActionMemberKick, CreatedAt: now.Add(-2 * time.Second)})
	feed.Push("g1", models.AuditEntry{ID: "2", Category: models.ActionMemberBanAdd, CreatedAt: now.Add(-1 * time.Second)})
	feed.Push("g1", models.AuditEntry{ID: "3", Category: models.ActionMemberKick})

	kicks := feed.Recent("g1", models.ActionMemberKick, 10)
	require.Len(t, kicks, 2)
	assert.Equal(t, "3", kicks[0].ID)
	assert.Equal(t, "1", kicks[1].ID)

	assert.Len(t, feed.Recent("g1", models.ActionMemberKick, 1), 1)
	assert.Empty(t, feed.Recent("g2", models.ActionMemberKick, 10))

	now = now.Add(time.Minute)
	assert.Empty(t, feed.Recent("g1", models.ActionMemberKick, 10))
}

func TestQueryMergesFeed(t *testing.T) {
	now := time.Now()
	restID := snowflakeAt(now.Add(-3 * time.Second))
	api := &fakeAPI{log: &discordgo.GuildAuditLog{
		AuditLogEntries: []*discordgo.AuditLogEntry{
			{ID: restID, TargetID: "u1", UserID: "mod", ActionType: actionPtr(discordgo.AuditLogActionMemberKick)},
		},
	}}

	feed := NewFeed(time.Minute)
	feed.Push("g", models.AuditEntry{ID: restID, Category: models.ActionMemberKick, CreatedAt: now.Add(-3 * time.Second)})
	feed.Push("g", models.AuditEntry{ID: "pushed", TargetID: "u2", Category: models.ActionMemberKick, CreatedAt: now})

	q := NewDiscordQuerier(api, feed, nil)
	entries, err := q.Query(context.Background(), "g", models.ActionMemberKick, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2, "duplicate ids are collapsed")
	assert.Equal(t, "pushed", entries[0].ID)
	assert.Equal(t, restID, entries[1].ID)
	assert.Equal(t, []int{int(discordgo.AuditLogActionMemberKick)}, api.asked)
}

func TestQueryFailure(t *testing.T) {
	api := &fakeAPI{err: errors.New("429 too many requests")}

	t.Run("no feed entries surfaces the error", func(t *testing.T) {
		q := NewDiscordQuerier(api, NewFeed(time.Minute), nil)
		entries, err := q.Query(context.Background(), "g", models.ActionMemberBanAdd, 10)
		assert.Error(t, err)
		assert.Empty(t, entries)
	})

	t.Run("feed entries replace a failed lookup", func(t *testing.T) {
		feed := NewFeed(time.Minute)
		feed.Push("g", models.AuditEntry{ID: "x", Category: models.ActionMemberBanAdd})
		q := NewDiscordQuerier(api, feed, nil)

		entries, err := q.Query(context.Background(), "g", models.ActionMemberBanAdd, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "x", entries[0].ID)
	})
}

func TestQueryCoalescesConcurrentLookups(t *testing.T) {
	api := &fakeAPI{log: &discordgo.GuildAuditLog{}, gate: make(chan struct{})}
	q := NewDiscordQuerier(api, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Query(context.Background(), "g", models.ActionRoleCreate, 10)
			assert.NoError(t, err)
		}()
	}

	// let the goroutines pile up behind the first call
	time.Sleep(50 * time.Millisecond)
	close(api.gate)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&api.calls), int32(5))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&api.calls), int32(1))
}

func TestMergeTruncates(t *testing.T) {
	now := time.Now()
	rest := []models.AuditEntry{{ID: "a", CreatedAt: now.Add(-time.Second)}, {ID: "b", CreatedAt: now.Add(-2 * time.Second)}}
	pushed := []models.AuditEntry{{ID: "c", CreatedAt: now}}

	out := merge(rest, pushed, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "c", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
	assert.Equal(t, "a", rest[0].ID, "input is not reordered")
}
