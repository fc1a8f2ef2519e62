package router

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

type guildNames struct {
	name     string
	roles    map[string]string
	channels map[string]string
}

// NameBook remembers guild, role and channel names. discordgo's state drops
// a deleted role before handlers run, so delete and rename records read the
// previous name from here.
type NameBook struct {
	mu     sync.RWMutex
	guilds map[string]*guildNames
}

func NewNameBook() *NameBook {
	return &NameBook{guilds: make(map[string]*guildNames)}
}

func (b *NameBook) guild(guildID string) *guildNames {
	g, ok := b.guilds[guildID]
	if !ok {
		g = &guildNames{
			roles:    make(map[string]string),
			channels: make(map[string]string),
		}
		b.guilds[guildID] = g
	}
	return g
}

// LoadGuild replaces everything known about a guild.
func (b *NameBook) LoadGuild(guild *discordgo.Guild) {
	if guild == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	g := &guildNames{
		name:     guild.Name,
		roles:    make(map[string]string, len(guild.Roles)),
		channels: make(map[string]string, len(guild.Channels)),
	}
	for _, role := range guild.Roles {
		g.roles[role.ID] = role.Name
	}
	for _, ch := range guild.Channels {
		g.channels[ch.ID] = ch.Name
	}
	b.guilds[guild.ID] = g
}

func (b *NameBook) ForgetGuild(guildID string) {
	b.mu.Lock()
	delete(b.guilds, guildID)
	b.mu.Unlock()
}

func (b *NameBook) GuildName(guildID string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if g, ok := b.guilds[guildID]; ok && g.name != "" {
		return g.name
	}
	return "Guild"
}

// SetRole stores the name and returns the previous one, if any.
func (b *NameBook) SetRole(guildID, roleID, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.guild(guildID)
	old := g.roles[roleID]
	g.roles[roleID] = name
	return old
}

// ForgetRole removes the role and returns its last known name.
func (b *NameBook) ForgetRole(guildID, roleID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.guilds[guildID]
	if !ok {
		return ""
	}
	old := g.roles[roleID]
	delete(g.roles, roleID)
	return old
}

// RoleName falls back to the ID when the role was never seen.
func (b *NameBook) RoleName(guildID, roleID string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if g, ok := b.guilds[guildID]; ok {
		if name, ok := g.roles[roleID]; ok {
			return name
		}
	}
	return roleID
}

func (b *NameBook) SetChannel(guildID, channelID, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.guild(guildID)
	old := g.channels[channelID]
	g.channels[channelID] = name
	return old
}

func (b *NameBook) ForgetChannel(guildID, channelID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.guilds[guildID]; ok {
		delete(g.channels, channelID)
	}
}

func (b *NameBook) ChannelName(guildID, channelID string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if g, ok := b.guilds[guildID]; ok {
		if name, ok := g.channels[channelID]; ok {
			return name
		}
	}
	return channelID
}
