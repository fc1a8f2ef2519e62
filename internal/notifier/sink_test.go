package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"go-modlogger/internal/models"
)

func sampleRecord() *models.LogRecord {
	r := models.NewLogRecord("g", models.CategoryRoleUpdate)
	r.Title = "Role Updated"
	r.Icon = "✏️"
	r.Description = "Role updated: **old** → **new**."
	r.Color = 0x27AE60
	r.Actor = models.Actor{DisplayName: "mod#0001", ID: "42"}
	r.Target = models.Target{Name: "new", ID: "7"}
	r.AddField("Old Name", "old", true).AddField("New Name", "", true)
	r.Timestamp = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return r
}

func TestRenderEmbed(t *testing.T) {
	embed := RenderEmbed(sampleRecord())

	assert.Equal(t, "✏️ Role Updated", embed.Title)
	assert.Equal(t, 0x27AE60, embed.Color)
	assert.Equal(t, "2024-03-01T12:00:00Z", embed.Timestamp)
	assert.Nil(t, embed.Thumbnail)

	require.Len(t, embed.Fields, 4)
	assert.Equal(t, "👤 Executor", embed.Fields[0].Name)
	assert.Equal(t, "mod#0001 (`42`)", embed.Fields[0].Value)
	assert.Equal(t, "🎯 Target", embed.Fields[1].Name)
	assert.Equal(t, "new (`7`)", embed.Fields[1].Value)
	assert.Equal(t, "N/A", embed.Fields[3].Value)
}

func TestRenderEmbedLimits(t *testing.T) {
	r := models.NewLogRecord("g", models.CategoryLeft)
	r.Description = strings.Repeat("x", 5000)
	r.Target = models.Target{Name: "u", ID: "1", AvatarURL: "https://cdn.example/a.png"}
	for i := 0; i < 40; i++ {
		r.AddField("f", "v", false)
	}

	embed := RenderEmbed(r)

	assert.Len(t, embed.Description, maxDescription)
	assert.Len(t, embed.Fields, maxFields)
	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "https://cdn.example/a.png", embed.Thumbnail.URL)
}

type fakeSender struct {
	channel string
	embed   *discordgo.MessageEmbed
	err     error
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.embed = embed
	return &discordgo.Message{}, f.err
}

func TestChannelSink(t *testing.T) {
	sender := &fakeSender{}
	sink := NewChannelSink(sender)

	require.NoError(t, sink.Deliver(context.Background(), sampleRecord(), "123"))
	assert.Equal(t, "123", sender.channel)
	assert.Equal(t, "✏️ Role Updated", sender.embed.Title)

	assert.ErrorIs(t, sink.Deliver(context.Background(), sampleRecord(), ""), ErrNoDestination)

	boom := errors.New("Unknown Channel")
	sender.err = boom
	assert.ErrorIs(t, sink.Deliver(context.Background(), sampleRecord(), "123"), boom)
}

func TestWebhookSink(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink("modlogger")
	require.NoError(t, sink.Deliver(context.Background(), sampleRecord(), srv.URL))

	assert.Equal(t, "modlogger", got.Username)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "✏️ Role Updated", got.Embeds[0].Title)
}

func TestWebhookSinkRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "Unknown Webhook"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewWebhookSink("").Deliver(context.Background(), sampleRecord(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestMultiSinkRoutesByDestination(t *testing.T) {
	channel := &recordingSink{}
	webhook := &recordingSink{}
	m := &MultiSink{Channel: channel, Webhook: webhook}
	record := sampleRecord()

	require.NoError(t, m.Deliver(context.Background(), record, "1234"))
	require.NoError(t, m.Deliver(context.Background(), record, "https://discord.com/api/webhooks/1/abc"))

	assert.Equal(t, []delivery{{record.ID, "1234"}}, channel.deliveries)
	assert.Equal(t, []delivery{{record.ID, "https://discord.com/api/webhooks/1/abc"}}, webhook.deliveries)

	noWebhook := &MultiSink{Channel: channel}
	assert.ErrorIs(t, noWebhook.Deliver(context.Background(), record, "https://x"), ErrNoDestination)
}

func TestWebhookSinkHonorsRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("X-RateLimit-Limit", "5")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset-After", "60")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink("")
	require.NoError(t, sink.Deliver(context.Background(), sampleRecord(), srv.URL))

	err := sink.Deliver(context.Background(), sampleRecord(), srv.URL)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), hits.Load())

	bucket := sink.limits.GetBucket(srv.URL)
	require.NotNil(t, bucket)
	assert.Equal(t, 5, bucket.Limit)
}

func TestRateLimitBucketResets(t *testing.T) {
	now := time.Now()
	rlm := NewRateLimitMonitor()
	rlm.now = func() time.Time { return now }

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	resp.SetStatusCode(fasthttp.StatusTooManyRequests)
	resp.Header.Set("Retry-After", "1.5")

	rlm.UpdateFromFastHTTPResponse(resp, "hook")
	assert.False(t, rlm.CanExecute("hook"))

	now = now.Add(2 * time.Second)
	assert.True(t, rlm.CanExecute("hook"))
	assert.True(t, rlm.CanExecute("unknown"))
}
