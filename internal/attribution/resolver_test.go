package attribution

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-modlogger/internal/models"
)

// scriptedQuerier returns one scripted page per call, repeating the last.
type scriptedQuerier struct {
	mu     sync.Mutex
	pages  [][]models.AuditEntry
	errs   []error
	calls  int
	limits []int
}

func (s *scriptedQuerier) Query(_ context.Context, _ string, _ models.ActionCategory, limit int) ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	s.calls++
	s.limits = append(s.limits, limit)

	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if len(s.pages) == 0 {
		return nil, nil
	}
	if i >= len(s.pages) {
		i = len(s.pages) - 1
	}
	return s.pages[i], nil
}

func (s *scriptedQuerier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func fastOptions() Options {
	return Options{
		Attempts:  4,
		Limit:     10,
		BaseDelay: 2 * time.Millisecond,
		StepDelay: time.Millisecond,
		Staleness: 10 * time.Second,
	}
}

func entry(id, target, actor string, age time.Duration, changes ...models.RoleDelta) models.AuditEntry {
	return models.AuditEntry{
		ID:        id,
		TargetID:  target,
		ActorID:   actor,
		ActorName: actor + "-name",
		Changes:   changes,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestHintedRemoveMatchesOnFirstAttempt(t *testing.T) {
	q := &scriptedQuerier{pages: [][]models.AuditEntry{{
		entry("2", "subject", "other-mod", time.Second, models.NewRoleDelta(models.DeltaAdd, "R")),
		entry("1", "subject", "mod", 2*time.Second, models.NewRoleDelta(models.DeltaRemove, "R")),
	}}}
	r := NewResolver(q, fastOptions(), nil)

	actor := r.Resolve(context.Background(), Query{
		GuildID:  "g",
		Category: models.ActionMemberRoleUpdate,
		TargetID: "subject",
		Hint:     &models.RoleHint{RoleID: "R", Direction: models.DeltaRemove},
	})

	assert.Equal(t, models.Actor{DisplayName: "mod-name", ID: "mod"}, actor)
	assert.Equal(t, 1, q.Calls())
	assert.Equal(t, []int{10}, q.limits)
}

func TestRetriesUntilAuditLogCatchesUp(t *testing.T) {
	q := &scriptedQuerier{pages: [][]models.AuditEntry{
		nil,
		{entry("9", "someone-else", "x", time.Minute)},
		{entry("10", "subject", "mod", 0)},
	}}
	r := NewResolver(q, fastOptions(), nil)

	actor := r.Resolve(context.Background(), Query{GuildID: "g", Category: models.ActionMemberBanAdd, TargetID: "subject"})

	assert.Equal(t, "mod", actor.ID)
	assert.Equal(t, 3, q.Calls())
}

func TestQueryFailuresCountAsEmpty(t *testing.T) {
	q := &scriptedQuerier{
		errs:  []error{errors.New("rate limited"), errors.New("500")},
		pages: [][]models.AuditEntry{nil, nil, {entry("1", "subject", "mod", 0)}},
	}
	r := NewResolver(q, fastOptions(), nil)

	actor := r.Resolve(context.Background(), Query{GuildID: "g", Category: models.ActionChannelDelete, TargetID: "subject"})

	assert.Equal(t, "mod", actor.ID)
	assert.Equal(t, 3, q.Calls())
}

func TestUnknownAfterExhaustingAttempts(t *testing.T) {
	q := &scriptedQuerier{pages: [][]models.AuditEntry{{
		entry("1", "someone-else", "mod", time.Minute),
	}}}
	opts := fastOptions()
	r := NewResolver(q, opts, nil)

	start := time.Now()
	actor := r.Resolve(context.Background(), Query{GuildID: "g", Category: models.ActionMemberKick, TargetID: "subject"})
	elapsed := time.Since(start)

	assert.Equal(t, models.UnknownActor, actor)
	assert.Equal(t, opts.Attempts, q.Calls())
	assert.GreaterOrEqual(t, elapsed, opts.MaxWait())
	assert.Less(t, elapsed, opts.MaxWait()+time.Second)
}

func TestAlwaysFailingQuerierStillTerminates(t *testing.T) {
	q := &scriptedQuerier{errs: []error{errors.New("a"), errors.New("b"), errors.New("c"), errors.New("d")}}
	r := NewResolver(q, fastOptions(), nil)

	actor := r.Resolve(context.Background(), Query{GuildID: "g", Category: models.ActionRoleCreate, TargetID: "role"})

	assert.Equal(t, models.UnknownActor, actor)
	assert.Equal(t, 4, q.Calls())
}

func TestStrictTargetIgnoresUnrelatedRecentKick(t *testing.T) {
	q := &scriptedQuerier{pages: [][]models.AuditEntry{{
		entry("1", "another-member", "mod", time.Second),
	}}}
	r := NewResolver(q, fastOptions(), nil)

	strict := r.Resolve(context.Background(), Query{GuildID: "g", Category: models.ActionMemberKick, TargetID: "leaver", StrictTarget: true})
	assert.Equal(t, models.UnknownActor, strict)

	loose := r.Resolve(context.Background(), Query{GuildID: "g", Category: models.ActionMemberKick, TargetID: "leaver"})
	assert.Equal(t, "mod", loose.ID)
}

func TestCancelledContextReturnsUnknown(t *testing.T) {
	q := &scriptedQuerier{}
	opts := fastOptions()
	opts.BaseDelay = time.Hour
	r := NewResolver(q, opts, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan models.Actor, 1)
	go func() { done <- r.Resolve(ctx, Query{GuildID: "g", Category: models.ActionRoleDelete, TargetID: "r"}) }()

	select {
	case actor := <-done:
		assert.Equal(t, models.UnknownActor, actor)
		assert.Equal(t, 1, q.Calls())
	case <-time.After(2 * time.Second):
		t.Fatal("resolver did not stop after cancellation")
	}
}

func TestDefaultOptionsBudget(t *testing.T) {
	opts := DefaultOptions()
	require.Equal(t, 4, opts.Attempts)
	// 1.2s + 1.5s + 1.8s between the four attempts
	assert.Equal(t, 4500*time.Millisecond, opts.MaxWait())
}

func TestNewResolverClampsOptions(t *testing.T) {
	q := &scriptedQuerier{}
	r := NewResolver(q, Options{}, nil)

	actor := r.Resolve(context.Background(), Query{GuildID: "g", Category: models.ActionRoleDelete, TargetID: "r"})

	assert.Equal(t, models.UnknownActor, actor)
	assert.Equal(t, 1, q.Calls())
	assert.Equal(t, []int{10}, q.limits)
}
