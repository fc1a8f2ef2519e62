package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"go-modlogger/internal/config"
	"go-modlogger/internal/database"
	"go-modlogger/internal/models"
	"go-modlogger/pkg/util"
)

const failuresShown = 10

func (h *Handler) handleLogsSet(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	var category models.LogCategory
	var channelID string
	for _, opt := range sub.Options {
		switch opt.Name {
		case "category":
			category = models.LogCategory(opt.StringValue())
		case "channel":
			channelID = opt.ChannelValue(nil).ID
		}
	}
	if !category.Valid() {
		return fmt.Errorf("unknown category %q", category)
	}
	if channelID == "" {
		return fmt.Errorf("missing channel")
	}

	var updatedBy string
	if i.Member != nil && i.Member.User != nil {
		updatedBy = i.Member.User.ID
	}
	err := h.deps.Store.SetRoute(ctx, database.RouteOverride{
		GuildID:   i.GuildID,
		Category:  category,
		ChannelID: channelID,
		UpdatedBy: updatedBy,
	})
	if err != nil {
		return fmt.Errorf("failed to save route: %w", err)
	}

	test := models.NewLogRecord(i.GuildID, category)
	test.Title = "Logging Configured"
	test.Icon = "✅"
	test.Color = 0x2ECC71
	test.Description = fmt.Sprintf("`%s` records will be posted in this channel.", category)
	if h.deps.Sink != nil {
		if err := h.deps.Sink.Deliver(ctx, test, channelID); err != nil {
			return fmt.Errorf("route saved, but the test message failed: %w", err)
		}
	}

	return respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Log Channel Updated",
		Description: fmt.Sprintf("`%s` → <#%s>", category, channelID),
		Color:       0x2ECC71,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleLogsView(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	overrides, err := h.deps.Store.ListRoutes(ctx, i.GuildID)
	if err != nil {
		return fmt.Errorf("failed to load routes: %w", err)
	}
	return respondEmbed(s, i, buildRoutesEmbed(h.deps.Routes, overrides))
}

func (h *Handler) handleLogsFailures(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	failures, err := h.deps.Store.RecentFailures(ctx, i.GuildID, failuresShown)
	if err != nil {
		return fmt.Errorf("failed to load delivery failures: %w", err)
	}
	return respondEmbed(s, i, buildFailuresEmbed(failures))
}

// buildRoutesEmbed lists the effective destination of every category;
// overrides are marked with a star.
func buildRoutesEmbed(static config.RoutesConfig, overrides []*database.RouteOverride) *discordgo.MessageEmbed {
	byCategory := make(map[models.LogCategory]string, len(overrides))
	for _, o := range overrides {
		byCategory[o.Category] = o.ChannelID
	}

	var lines []string
	for _, c := range models.AllCategories {
		if id, ok := byCategory[c]; ok {
			lines = append(lines, fmt.Sprintf("`%s` → %s ★", c, mention(id)))
			continue
		}
		if id, ok := static.Destination(c); ok {
			lines = append(lines, fmt.Sprintf("`%s` → %s", c, mention(id)))
			continue
		}
		lines = append(lines, fmt.Sprintf("`%s` → fallback", c))
	}

	fallback := "Not configured"
	if dest := static.FallbackDestination(); dest != "" {
		fallback = mention(dest)
	}

	return &discordgo.MessageEmbed{
		Title:       "Log Routing",
		Description: util.Truncate(strings.Join(lines, "\n"), 4096),
		Color:       0x2B2D31,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Fallback", Value: fallback, Inline: false},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "★ set with /logs set"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func buildFailuresEmbed(failures []models.DeliveryFailure) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "Undelivered Log Records",
		Color:     0xE74C3C,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if len(failures) == 0 {
		embed.Description = "No delivery failures recorded."
		embed.Color = 0x2ECC71
		return embed
	}

	for _, f := range failures {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s • %s", f.Category, util.DiscordTimestamp(f.CreatedAt)),
			Value: fmt.Sprintf("Record `%s`\n%s", f.RecordID, util.Truncate(f.Error, 900)),
		})
	}
	return embed
}

// mention renders a channel ID as a mention; webhook URLs are not shown.
func mention(destination string) string {
	if strings.HasPrefix(destination, "https://") {
		return "webhook"
	}
	return "<#" + destination + ">"
}
