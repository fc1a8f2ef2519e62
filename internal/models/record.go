package models

import (
	"time"

	"github.com/google/uuid"
)

// LogCategory selects the output channel for a record.
type LogCategory string

const (
	CategoryKick              LogCategory = "kick"
	CategoryBan               LogCategory = "ban"
	CategoryUnban             LogCategory = "unban"
	CategoryTimeout           LogCategory = "timeout"
	CategoryLeft              LogCategory = "left"
	CategoryChannelCreate     LogCategory = "channelCreate"
	CategoryChannelUpdate     LogCategory = "channelUpdate"
	CategoryChannelDelete     LogCategory = "channelDelete"
	CategoryChannelPinsUpdate LogCategory = "channelPinsUpdate"
	CategoryRoleCreate        LogCategory = "roleCreate"
	CategoryRoleDelete        LogCategory = "roleDelete"
	CategoryRoleRemove        LogCategory = "roleRemove"
	CategoryRoleUpdate        LogCategory = "roleUpdate"
	CategoryRoleGive          LogCategory = "roleGive"
	CategoryVoiceDisconnect   LogCategory = "voiceDisconnect"
	CategoryVoiceMove         LogCategory = "voiceMove"
	CategoryVoiceJoin         LogCategory = "voiceJoin"
	CategoryBotAdd            LogCategory = "botAdd"
	CategoryBotRemove         LogCategory = "botRemove"
	CategoryInviteMembers     LogCategory = "inviteMembers"
	CategoryMemberJoin        LogCategory = "memberJoin"
)

// AllCategories lists every routable category in display order.
var AllCategories = []LogCategory{
	CategoryKick, CategoryBan, CategoryUnban, CategoryTimeout, CategoryLeft,
	CategoryChannelCreate, CategoryChannelUpdate, CategoryChannelDelete, CategoryChannelPinsUpdate,
	CategoryRoleCreate, CategoryRoleDelete, CategoryRoleRemove, CategoryRoleUpdate, CategoryRoleGive,
	CategoryVoiceDisconnect, CategoryVoiceMove, CategoryVoiceJoin,
	CategoryBotAdd, CategoryBotRemove, CategoryInviteMembers, CategoryMemberJoin,
}

func (c LogCategory) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

type Target struct {
	Name      string
	ID        string
	AvatarURL string
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// LogRecord is the normalized shape handed to a notifier.Sink.
type LogRecord struct {
	ID          string
	GuildID     string
	Category    LogCategory
	Title       string
	Description string
	Color       int
	Actor       Actor
	Target      Target
	Fields      []Field
	Icon        string
	Timestamp   time.Time
}

func NewLogRecord(guildID string, category LogCategory) *LogRecord {
	return &LogRecord{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		Category:  category,
		Color:     0x2F3136,
		Timestamp: time.Now(),
	}
}

func (r *LogRecord) AddField(name, value string, inline bool) *LogRecord {
	r.Fields = append(r.Fields, Field{Name: name, Value: value, Inline: inline})
	return r
}
