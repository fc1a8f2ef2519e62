package notifier

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/valyala/fasthttp"

	"go-modlogger/internal/models"
	"go-modlogger/pkg/util"
)

const defaultWebhookTimeout = 5 * time.Second

// ErrRateLimited means the webhook bucket is exhausted until its reset.
var ErrRateLimited = errors.New("webhook rate limited")

type webhookPayload struct {
	Username string                    `json:"username,omitempty"`
	Embeds   []*discordgo.MessageEmbed `json:"embeds"`
}

// WebhookSink posts records to a Discord webhook URL. It does not need the
// bot session, so it keeps working while the gateway is down.
type WebhookSink struct {
	client   *fasthttp.Client
	limits   *RateLimitMonitor
	username string
	timeout  time.Duration
}

func NewWebhookSink(username string) *WebhookSink {
	return &WebhookSink{
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         defaultWebhookTimeout,
			WriteTimeout:        defaultWebhookTimeout,
			MaxResponseBodySize: 1 << 20,
			TLSConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				ClientSessionCache: tls.NewLRUClientSessionCache(16),
			},
			NoDefaultUserAgentHeader: true,
		},
		limits:   NewRateLimitMonitor(),
		username: username,
		timeout:  defaultWebhookTimeout,
	}
}

func (s *WebhookSink) Deliver(ctx context.Context, record *models.LogRecord, url string) error {
	if url == "" {
		return ErrNoDestination
	}
	if !s.limits.CanExecute(url) {
		return ErrRateLimited
	}

	body, err := json.Marshal(webhookPayload{
		Username: s.username,
		Embeds:   []*discordgo.MessageEmbed{RenderEmbed(record)},
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}

	s.limits.UpdateFromFastHTTPResponse(resp, url)

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return fmt.Errorf("post webhook: status %d: %s", status, util.Truncate(string(resp.Body()), 200))
	}
	return nil
}
