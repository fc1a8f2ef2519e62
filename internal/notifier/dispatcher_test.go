package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-modlogger/internal/config"
	"go-modlogger/internal/models"
)

type delivery struct {
	recordID    string
	destination string
}

// recordingSink fails for any destination listed in failing.
type recordingSink struct {
	mu         sync.Mutex
	failing    map[string]error
	deliveries []delivery
}

func (s *recordingSink) Deliver(_ context.Context, record *models.LogRecord, destinationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, delivery{record.ID, destinationID})
	return s.failing[destinationID]
}

type memoryJournal struct {
	failures []models.DeliveryFailure
}

func (j *memoryJournal) RecordFailure(_ context.Context, f models.DeliveryFailure) error {
	j.failures = append(j.failures, f)
	return nil
}

type staticOverrides map[string]string

func (o staticOverrides) GetRoute(_ context.Context, guildID string, category models.LogCategory) (string, error) {
	if id, ok := o[guildID+"/"+string(category)]; ok {
		return id, nil
	}
	if guildID == "broken" {
		return "", errors.New("database is locked")
	}
	return "", nil
}

func testRoutes(overrides RouteOverrides) *Routes {
	return NewRoutes(config.RoutesConfig{
		Channels: map[string]string{
			"kick": "kick-channel",
			"ban":  "ban-channel",
		},
		Fallback: "fallback-channel",
	}, overrides)
}

func TestDispatchPrimary(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, testRoutes(nil), nil, nil)

	record := models.NewLogRecord("g", models.CategoryKick)
	require.NoError(t, d.Dispatch(context.Background(), record))

	assert.Equal(t, []delivery{{record.ID, "kick-channel"}}, sink.deliveries)
}

func TestDispatchFallsBackWhenPrimaryThrows(t *testing.T) {
	sink := &recordingSink{failing: map[string]error{"kick-channel": errors.New("Missing Access")}}
	journal := &memoryJournal{}
	d := NewDispatcher(sink, testRoutes(nil), journal, nil)

	record := models.NewLogRecord("g", models.CategoryKick)
	require.NoError(t, d.Dispatch(context.Background(), record))

	assert.Equal(t, []delivery{
		{record.ID, "kick-channel"},
		{record.ID, "fallback-channel"},
	}, sink.deliveries)
	assert.Empty(t, journal.failures)
}

func TestDispatchFallsBackWhenCategoryUnmapped(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, testRoutes(nil), nil, nil)

	record := models.NewLogRecord("g", models.CategoryMemberJoin)
	require.NoError(t, d.Dispatch(context.Background(), record))

	assert.Equal(t, []delivery{{record.ID, "fallback-channel"}}, sink.deliveries)
}

func TestDispatchTerminalFailureIsJournaled(t *testing.T) {
	sink := &recordingSink{failing: map[string]error{
		"ban-channel":      errors.New("500"),
		"fallback-channel": errors.New("503"),
	}}
	journal := &memoryJournal{}
	d := NewDispatcher(sink, testRoutes(nil), journal, nil)

	record := models.NewLogRecord("g", models.CategoryBan)
	err := d.Dispatch(context.Background(), record)

	require.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Len(t, sink.deliveries, 2, "fallback is tried exactly once")

	require.Len(t, journal.failures, 1)
	f := journal.failures[0]
	assert.Equal(t, record.ID, f.RecordID)
	assert.Equal(t, "g", f.GuildID)
	assert.Equal(t, models.CategoryBan, f.Category)
	assert.Equal(t, "ban-channel", f.Destination)
	assert.Contains(t, f.Error, "503")
}

func TestDispatchWithoutAnyDestination(t *testing.T) {
	sink := &recordingSink{}
	journal := &memoryJournal{}
	d := NewDispatcher(sink, NewRoutes(config.RoutesConfig{}, nil), journal, nil)

	err := d.Dispatch(context.Background(), models.NewLogRecord("g", models.CategoryLeft))

	require.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Empty(t, sink.deliveries)
	assert.Len(t, journal.failures, 1)
}

func TestRoutesPreferGuildOverride(t *testing.T) {
	routes := testRoutes(staticOverrides{"g1/kick": "custom"})
	ctx := context.Background()

	assert.Equal(t, "custom", routes.Destination(ctx, "g1", models.CategoryKick))
	assert.Equal(t, "kick-channel", routes.Destination(ctx, "g2", models.CategoryKick))
	assert.Equal(t, "kick-channel", routes.Destination(ctx, "broken", models.CategoryKick))
	assert.Equal(t, "", routes.Destination(ctx, "g1", models.CategoryVoiceJoin))
	assert.Equal(t, "fallback-channel", routes.Fallback())
}
