package router

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"go-modlogger/internal/attribution"
	"go-modlogger/internal/logging"
	"go-modlogger/internal/models"
	"go-modlogger/internal/rolecache"
	"go-modlogger/pkg/util"
)

// roleWorkers bounds concurrent role resolutions for one member update.
const roleWorkers = 4

// GuildCreate loads names and seeds the role cache from the members the
// gateway sent with the guild.
func (r *Router) GuildCreate(e *discordgo.GuildCreate) {
	if e == nil || e.Guild == nil {
		return
	}
	r.names.LoadGuild(e.Guild)
	r.SeedMembers(e.ID, e.Members)
}

func (r *Router) GuildDelete(e *discordgo.GuildDelete) {
	if e == nil || e.Guild == nil {
		return
	}
	r.names.ForgetGuild(e.ID)
	r.roles.EvictGuild(e.ID)
	r.observeCache()
}

// SeedMembers records the current roles of each member, e.g. from a
// GUILD_MEMBERS_CHUNK.
func (r *Router) SeedMembers(guildID string, members []*discordgo.Member) {
	for _, m := range members {
		if m == nil || m.User == nil {
			continue
		}
		r.roles.Seed(guildID, m.User.ID, m.Roles)
	}
	r.observeCache()
}

func (r *Router) MemberAdd(ctx context.Context, e *discordgo.GuildMemberAdd) {
	if e == nil || e.Member == nil || e.User == nil {
		return
	}
	r.roles.Seed(e.GuildID, e.User.ID, e.Roles)
	r.observeCache()

	tag := userTag(e.User)

	if e.User.Bot {
		actor := r.resolve(ctx, attribution.Query{
			GuildID:  e.GuildID,
			Category: models.ActionBotAdd,
			TargetID: e.User.ID,
		})
		rec := newRecord(e.GuildID, models.CategoryBotAdd, "Bot Added", "🤖", 0x7289DA)
		rec.Description = fmt.Sprintf("Bot **%s** added to server.", tag)
		rec.Actor = actor
		rec.Target = userTarget(e.User, true)
		r.emit(ctx, rec)
		return
	}

	rec := newRecord(e.GuildID, models.CategoryMemberJoin, "Member Joined", "📥", 0x57F287)
	rec.Description = fmt.Sprintf("**%s** joined the server.", tag)
	rec.Actor = models.SystemActor
	rec.Target = userTarget(e.User, true)
	if created, err := discordgo.SnowflakeTimestamp(e.User.ID); err == nil {
		rec.AddField("Account Created", util.DiscordTimestamp(created), true)
	}
	r.emit(ctx, rec)
}

// MemberRemove decides between a kick and a voluntary leave. Only a kick
// entry that targets the member counts; an unrelated recent kick does not.
func (r *Router) MemberRemove(ctx context.Context, e *discordgo.GuildMemberRemove) {
	if e == nil || e.Member == nil || e.User == nil {
		return
	}
	defer func() {
		r.roles.Evict(e.GuildID, e.User.ID)
		r.observeCache()
	}()

	actor := r.resolve(ctx, attribution.Query{
		GuildID:      e.GuildID,
		Category:     models.ActionMemberKick,
		TargetID:     e.User.ID,
		StrictTarget: true,
	})
	tag := userTag(e.User)

	var rec *models.LogRecord
	switch {
	case e.User.Bot:
		rec = newRecord(e.GuildID, models.CategoryBotRemove, "Bot Removed", "👋", 0xE74C3C)
		rec.Description = fmt.Sprintf("Bot **%s** removed from server.", tag)
	case actor.Known():
		rec = newRecord(e.GuildID, models.CategoryKick, "Member Kicked", "🚪", 0xE74C3C)
		rec.Description = fmt.Sprintf("**%s** was kicked.", tag)
	default:
		rec = newRecord(e.GuildID, models.CategoryLeft, "Member Left", "👋", 0x808080)
		rec.Description = fmt.Sprintf("**%s** left the server.", tag)
	}
	rec.Actor = actor
	rec.Target = userTarget(e.User, true)
	r.emit(ctx, rec)
}

// MemberUpdate reports timeout changes and every role gained or lost since
// the cached snapshot, one record per role.
func (r *Router) MemberUpdate(ctx context.Context, e *discordgo.GuildMemberUpdate) {
	if e == nil || e.Member == nil || e.User == nil {
		return
	}
	before := e.BeforeUpdate

	var delta rolecache.Delta
	if before != nil {
		if timeoutChanged(before.CommunicationDisabledUntil, e.CommunicationDisabledUntil) {
			r.timeout(ctx, e.Member, before.CommunicationDisabledUntil)
		}
		delta = r.roles.DiffFrom(e.GuildID, e.User.ID, before.Roles, e.Roles)
	} else {
		logging.Debug("[ROUTER] member %s in guild %s not in state; timeout changes cannot be detected", e.User.ID, e.GuildID)
		delta = r.roles.Diff(e.GuildID, e.User.ID, e.Roles)
	}
	r.observeCache()
	if delta.Empty() {
		return
	}

	var g errgroup.Group
	g.SetLimit(roleWorkers)
	for _, roleID := range delta.Removed {
		roleID := roleID
		g.Go(func() error {
			r.roleChange(ctx, e.Member, roleID, models.DeltaRemove)
			return nil
		})
	}
	for _, roleID := range delta.Added {
		roleID := roleID
		g.Go(func() error {
			r.roleChange(ctx, e.Member, roleID, models.DeltaAdd)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Router) timeout(ctx context.Context, m *discordgo.Member, old *time.Time) {
	actor := r.resolve(ctx, attribution.Query{
		GuildID:  m.GuildID,
		Category: models.ActionMemberUpdate,
		TargetID: m.User.ID,
	})

	rec := newRecord(m.GuildID, models.CategoryTimeout, "Member Timeout", "🔇", 0xFFA500)
	rec.Description = fmt.Sprintf("**%s** timeout changed.", userTag(m.User))
	rec.Actor = actor
	rec.Target = userTarget(m.User, true)
	rec.AddField("Old Timeout", util.DiscordTimestamp(deref(old)), true)
	rec.AddField("New Timeout", util.DiscordTimestamp(deref(m.CommunicationDisabledUntil)), true)
	r.emit(ctx, rec)
}

func (r *Router) roleChange(ctx context.Context, m *discordgo.Member, roleID string, direction models.DeltaKey) {
	actor := r.resolve(ctx, attribution.Query{
		GuildID:  m.GuildID,
		Category: models.ActionMemberRoleUpdate,
		TargetID: m.User.ID,
		Hint:     &models.RoleHint{RoleID: roleID, Direction: direction},
	})

	roleName := r.names.RoleName(m.GuildID, roleID)
	tag := userTag(m.User)

	var rec *models.LogRecord
	if direction == models.DeltaRemove {
		rec = newRecord(m.GuildID, models.CategoryRoleRemove, "Role Removed", "➖", 0xE67E22)
		rec.Description = fmt.Sprintf("Role **%s** removed from **%s**.", roleName, tag)
	} else {
		rec = newRecord(m.GuildID, models.CategoryRoleGive, "Role Added", "➕", 0x2ECC71)
		rec.Description = fmt.Sprintf("Role **%s** added to **%s**.", roleName, tag)
	}
	rec.Actor = actor
	rec.Target = userTarget(m.User, false)
	rec.AddField("Role ID", roleID, true)
	r.emit(ctx, rec)
}

func timeoutChanged(old, cur *time.Time) bool {
	return !deref(old).Equal(deref(cur))
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
