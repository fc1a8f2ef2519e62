package notifier

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"go-modlogger/internal/models"
	"go-modlogger/pkg/util"
)

const (
	maxDescription = 4096
	maxFieldValue  = 1024
	maxFields      = 25
)

// RenderEmbed turns a record into the embed posted to a log channel.
func RenderEmbed(r *models.LogRecord) *discordgo.MessageEmbed {
	title := r.Title
	if r.Icon != "" {
		title = r.Icon + " " + r.Title
	}

	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: util.Truncate(r.Description, maxDescription),
		Color:       r.Color,
		Timestamp:   ts.Format(time.RFC3339),
	}

	if r.Target.AvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: r.Target.AvatarURL}
	}

	if r.Actor.ID != "" || r.Actor.DisplayName != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "👤 Executor",
			Value:  r.Actor.String(),
			Inline: true,
		})
	}
	if r.Target.ID != "" || r.Target.Name != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "🎯 Target",
			Value:  fmt.Sprintf("%s (`%s`)", r.Target.Name, r.Target.ID),
			Inline: true,
		})
	}

	for _, f := range r.Fields {
		if len(embed.Fields) == maxFields {
			break
		}
		value := f.Value
		if value == "" {
			value = "N/A"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  util.Truncate(value, maxFieldValue),
			Inline: f.Inline,
		})
	}

	return embed
}
