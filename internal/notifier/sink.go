// Package notifier delivers log records to Discord channels or webhooks and
// applies the primary-then-fallback delivery policy.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"go-modlogger/internal/models"
)

var (
	// ErrNoDestination means no route is configured for the record's category.
	ErrNoDestination = errors.New("no destination configured")
	// ErrDeliveryFailed wraps the terminal case where the fallback failed too.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// Sink delivers one record to one destination.
type Sink interface {
	Deliver(ctx context.Context, record *models.LogRecord, destinationID string) error
}

// ChannelSender is the part of *discordgo.Session used to post embeds.
type ChannelSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelSink posts records as embeds through the bot session.
type ChannelSink struct {
	sender ChannelSender
}

func NewChannelSink(sender ChannelSender) *ChannelSink {
	return &ChannelSink{sender: sender}
}

func (s *ChannelSink) Deliver(ctx context.Context, record *models.LogRecord, channelID string) error {
	if channelID == "" {
		return ErrNoDestination
	}
	if _, err := s.sender.ChannelMessageSendEmbed(channelID, RenderEmbed(record), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send embed to channel %s: %w", channelID, err)
	}
	return nil
}

// MultiSink sends webhook URLs to the webhook sink and channel IDs to the channel sink.
type MultiSink struct {
	Channel Sink
	Webhook Sink
}

func (m *MultiSink) Deliver(ctx context.Context, record *models.LogRecord, destinationID string) error {
	if IsWebhookURL(destinationID) {
		if m.Webhook == nil {
			return fmt.Errorf("webhook destination: %w", ErrNoDestination)
		}
		return m.Webhook.Deliver(ctx, record, destinationID)
	}
	if m.Channel == nil {
		return fmt.Errorf("channel destination: %w", ErrNoDestination)
	}
	return m.Channel.Deliver(ctx, record, destinationID)
}

func IsWebhookURL(destination string) bool {
	return strings.HasPrefix(destination, "https://")
}
