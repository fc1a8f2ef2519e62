package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"go-modlogger/internal/audit"
	"go-modlogger/internal/logging"
	"go-modlogger/internal/metrics"
	"go-modlogger/internal/router"
)

// Handlers connects gateway events to the router and the audit feed.
type Handlers struct {
	ctx         context.Context
	router      *router.Router
	feed        *audit.Feed
	health      HealthSink
	metrics     *metrics.Metrics
	seedMembers bool
}

func NewHandlers(ctx context.Context, r *router.Router, feed *audit.Feed, health HealthSink, m *metrics.Metrics, seedMembers bool) *Handlers {
	return &Handlers{
		ctx:         ctx,
		router:      r,
		feed:        feed,
		health:      health,
		metrics:     m,
		seedMembers: seedMembers,
	}
}

func (h *Handlers) observe(event string) {
	h.metrics.ObserveGatewayEvent(event)
}

// SetupEventHandlers registers every gateway handler on the session.
func (s *Session) SetupEventHandlers(h *Handlers) {
	logging.Info("Setting up Discord event handlers...")

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Bot ready! Connected as %s in %d guilds", r.User.String(), len(r.Guilds))
		h.health.Heartbeat(GatewayComponent)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.Resumed) {
		logging.Info("Gateway session resumed")
		h.health.Heartbeat(GatewayComponent)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, d *discordgo.Disconnect) {
		logging.Warn("Gateway disconnected")
		h.health.MarkDown(GatewayComponent)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildCreate) {
		h.observe("GUILD_CREATE")
		logging.Info("Loaded guild: %s (ID: %s, %d members)", g.Name, g.ID, g.MemberCount)
		h.router.GuildCreate(g)

		if h.seedMembers && !g.Unavailable {
			if err := sess.RequestGuildMembers(g.ID, "", 0, "", false); err != nil {
				logging.Warn("Failed to request members for guild %s: %v", g.ID, err)
			}
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, c *discordgo.GuildMembersChunk) {
		h.observe("GUILD_MEMBERS_CHUNK")
		h.router.SeedMembers(c.GuildID, c.Members)
		if c.ChunkIndex == c.ChunkCount-1 {
			logging.Info("Role cache seeded for guild %s", c.GuildID)
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildDelete) {
		h.observe("GUILD_DELETE")
		if g.Unavailable {
			return
		}
		logging.Info("Removed from guild %s", g.ID)
		h.router.GuildDelete(g)
	})

	// Entries pushed here let the resolver match before the REST audit log catches up.
	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildAuditLogEntryCreate) {
		h.observe("GUILD_AUDIT_LOG_ENTRY_CREATE")
		if e.GuildID == "" || e.AuditLogEntry == nil {
			return
		}
		entry := audit.ConvertEntry(e.AuditLogEntry, actorName(sess, e.GuildID, e.UserID))
		h.feed.Push(e.GuildID, entry)
		logging.Debug("[AUDIT] %s by %s on %s in guild %s", entry.Category, entry.ActorID, entry.TargetID, e.GuildID)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildMemberAdd) {
		h.observe("GUILD_MEMBER_ADD")
		h.router.MemberAdd(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildMemberRemove) {
		h.observe("GUILD_MEMBER_REMOVE")
		h.router.MemberRemove(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildMemberUpdate) {
		h.observe("GUILD_MEMBER_UPDATE")
		h.router.MemberUpdate(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildBanAdd) {
		h.observe("GUILD_BAN_ADD")
		h.router.BanAdd(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildBanRemove) {
		h.observe("GUILD_BAN_REMOVE")
		h.router.BanRemove(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.ChannelCreate) {
		h.observe("CHANNEL_CREATE")
		h.router.ChannelCreate(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.ChannelUpdate) {
		h.observe("CHANNEL_UPDATE")
		h.router.ChannelUpdate(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.ChannelDelete) {
		h.observe("CHANNEL_DELETE")
		h.router.ChannelDelete(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.ChannelPinsUpdate) {
		h.observe("CHANNEL_PINS_UPDATE")
		h.router.ChannelPinsUpdate(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildRoleCreate) {
		h.observe("GUILD_ROLE_CREATE")
		h.router.RoleCreate(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildRoleUpdate) {
		h.observe("GUILD_ROLE_UPDATE")
		h.router.RoleUpdate(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildRoleDelete) {
		h.observe("GUILD_ROLE_DELETE")
		h.router.RoleDelete(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.VoiceStateUpdate) {
		h.observe("VOICE_STATE_UPDATE")
		h.router.VoiceStateUpdate(h.ctx, e)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.InviteCreate) {
		h.observe("INVITE_CREATE")
		h.router.InviteCreate(h.ctx, e)
	})

	logging.Info("Event handlers registered")
}

// actorName looks the user up in the state cache; gateway audit entries
// carry only the user ID.
func actorName(sess *discordgo.Session, guildID, userID string) string {
	if userID == "" || sess == nil || sess.State == nil {
		return ""
	}
	if m, err := sess.State.Member(guildID, userID); err == nil && m.User != nil {
		return m.User.String()
	}
	return ""
}
