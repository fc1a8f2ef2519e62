package router

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"go-modlogger/internal/models"
)

type voiceTransition int

const (
	voiceNone voiceTransition = iota
	voiceJoin
	voiceLeave
	voiceMove
)

func classifyVoice(oldChannelID, newChannelID string) voiceTransition {
	switch {
	case oldChannelID == "" && newChannelID != "":
		return voiceJoin
	case oldChannelID != "" && newChannelID == "":
		return voiceLeave
	case oldChannelID != "" && oldChannelID != newChannelID:
		return voiceMove
	default:
		return voiceNone
	}
}

// VoiceStateUpdate reports joins, leaves and moves. Mute, deafen and stream
// toggles keep the same channel and produce nothing.
func (r *Router) VoiceStateUpdate(ctx context.Context, e *discordgo.VoiceStateUpdate) {
	if e == nil || e.VoiceState == nil || e.GuildID == "" {
		return
	}
	var oldChannelID string
	if e.BeforeUpdate != nil {
		oldChannelID = e.BeforeUpdate.ChannelID
	}

	var user *discordgo.User
	if e.Member != nil {
		user = e.Member.User
	}
	tag := userTag(user)
	target := models.Target{Name: tag, ID: e.UserID}
	if target.ID == "" {
		target.ID = models.UnattributedID
	}

	var rec *models.LogRecord
	switch classifyVoice(oldChannelID, e.ChannelID) {
	case voiceJoin:
		rec = newRecord(e.GuildID, models.CategoryVoiceJoin, "Member Joined Voice", "🎤", 0x3498DB)
		rec.Description = fmt.Sprintf("**%s** joined **%s**.", tag, r.names.ChannelName(e.GuildID, e.ChannelID))
	case voiceLeave:
		rec = newRecord(e.GuildID, models.CategoryVoiceDisconnect, "Member Left Voice", "🔇", 0xE74C3C)
		rec.Description = fmt.Sprintf("**%s** left **%s**.", tag, r.names.ChannelName(e.GuildID, oldChannelID))
	case voiceMove:
		rec = newRecord(e.GuildID, models.CategoryVoiceMove, "Member Moved Voice", "🔄", 0xF39C12)
		rec.Description = fmt.Sprintf("**%s** moved from **%s** to **%s**.", tag,
			r.names.ChannelName(e.GuildID, oldChannelID), r.names.ChannelName(e.GuildID, e.ChannelID))
	default:
		return
	}
	rec.Actor = models.SystemActor
	rec.Target = target
	r.emit(ctx, rec)
}
