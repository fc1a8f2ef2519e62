package router

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"go-modlogger/internal/attribution"
	"go-modlogger/internal/models"
)

func (r *Router) BanAdd(ctx context.Context, e *discordgo.GuildBanAdd) {
	if e == nil || e.User == nil {
		return
	}
	actor := r.resolve(ctx, attribution.Query{
		GuildID:  e.GuildID,
		Category: models.ActionMemberBanAdd,
		TargetID: e.User.ID,
	})

	rec := newRecord(e.GuildID, models.CategoryBan, "Member Banned", "⛔", 0xFF0000)
	rec.Description = fmt.Sprintf("**%s** was banned.", userTag(e.User))
	rec.Actor = actor
	rec.Target = userTarget(e.User, true)
	r.emit(ctx, rec)
}

func (r *Router) BanRemove(ctx context.Context, e *discordgo.GuildBanRemove) {
	if e == nil || e.User == nil {
		return
	}
	actor := r.resolve(ctx, attribution.Query{
		GuildID:  e.GuildID,
		Category: models.ActionMemberBanRemove,
		TargetID: e.User.ID,
	})

	rec := newRecord(e.GuildID, models.CategoryUnban, "Member Unbanned", "✅", 0x00FF00)
	rec.Description = fmt.Sprintf("**%s** was unbanned.", userTag(e.User))
	rec.Actor = actor
	rec.Target = userTarget(e.User, true)
	r.emit(ctx, rec)
}

func (r *Router) ChannelCreate(ctx context.Context, e *discordgo.ChannelCreate) {
	if e == nil || e.Channel == nil || e.GuildID == "" {
		return
	}
	r.names.SetChannel(e.GuildID, e.ID, e.Name)

	actor := r.resolve(ctx, attribution.Query{
		GuildID:  e.GuildID,
		Category: models.ActionChannelCreate,
		TargetID: e.ID,
	})

	rec := newRecord(e.GuildID, models.CategoryChannelCreate, "Channel Created", "📢", 0x3498DB)
	rec.Description = fmt.Sprintf("Channel **%s** created.", e.Name)
	rec.Actor = actor
	rec.Target = models.Target{Name: e.Name, ID: e.ID}
	r.emit(ctx, rec)
}

func (r *Router) ChannelUpdate(ctx context.Context, e *discordgo.ChannelUpdate) {
	if e == nil || e.Channel == nil || e.GuildID == "" {
		return
	}
	oldName := r.names.SetChannel(e.GuildID, e.ID, e.Name)
	if e.BeforeUpdate != nil {
		oldName = e.BeforeUpdate.Name
	}

	actor := r.resolve(ctx, attribution.Query{
		GuildID:  e.GuildID,
		Category: models.ActionChannelUpdate,
		TargetID: e.ID,
	})

	rec := newRecord(e.GuildID, models.CategoryChannelUpdate, "Channel Updated", "✏️", 0x2980B9)
	rec.Description = "Channel updated."
	rec.Actor = actor
	rec.Target = models.Target{Name: e.Name, ID: e.ID}
	rec.AddField("Old Name", orNA(oldName), true)
	rec.AddField("New Name", orNA(e.Name), true)
	r.emit(ctx, rec)
}

func (r *Router) ChannelDelete(ctx context.Context, e *discordgo.ChannelDelete) {
	if e == nil || e.Channel == nil || e.GuildID == "" {
		return
	}
	r.names.ForgetChannel(e.GuildID, e.ID)

	actor := r.resolve(ctx, attribution.Query{
		GuildID:  e.GuildID,
		Category: models.ActionChannelDelete,
		TargetID: e.ID,
	})

	rec := newRecord(e.GuildID, models.CategoryChannelDelete, "Channel Deleted", "🗑️", 0xE74C3C)
	rec.Description = fmt.Sprintf("Channel **%s** deleted.", e.Name)
	rec.Actor = actor
	rec.Target = models.Target{Name: e.Name, ID: e.ID}
	r.emit(ctx, rec)
}

// ChannelPinsUpdate does not say whether a message was pinned or unpinned,
// so MESSAGE_PIN and MESSAGE_UNPIN are resolved together and a pin match
// wins. Both entry types target the message author, so the match usually
// comes from the most recent entry rule.
func (r *Router) ChannelPinsUpdate(ctx context.Context, e *discordgo.ChannelPinsUpdate) {
	if e == nil || e.GuildID == "" {
		return
	}
	name := r.names.ChannelName(e.GuildID, e.ChannelID)

	var pin, unpin models.Actor
	var g errgroup.Group
	g.Go(func() error {
		pin = r.resolve(ctx, attribution.Query{
			GuildID:  e.GuildID,
			Category: models.ActionMessagePin,
			TargetID: e.ChannelID,
		})
		return nil
	})
	g.Go(func() error {
		unpin = r.resolve(ctx, attribution.Query{
			GuildID:  e.GuildID,
			Category: models.ActionMessageUnpin,
			TargetID: e.ChannelID,
		})
		return nil
	})
	_ = g.Wait()

	actor := pin
	if !pin.Known() && unpin.Known() {
		actor = unpin
	}

	rec := newRecord(e.GuildID, models.CategoryChannelPinsUpdate, "Channel Pins Updated", "📌", 0x9B59B6)
	rec.Description = fmt.Sprintf("Pins updated in **%s**.", name)
	rec.Actor = actor
	rec.Target = models.Target{Name: name, ID: e.ChannelID}
	r.emit(ctx, rec)
}

func (r *Router) RoleCreate(ctx context.Context, e *discordgo.GuildRoleCreate) {
	if e == nil || e.GuildRole == nil || e.Role == nil {
		return
	}
	r.names.SetRole(e.GuildID, e.Role.ID, e.Role.Name)

	actor := r.resolve(ctx, attribution.Query{
		GuildID:  e.GuildID,
		Category: models.ActionRoleCreate,
		TargetID: e.Role.ID,
	})

	rec := newRecord(e.GuildID, models.CategoryRoleCreate, "Role Created", "🆕", 0x2ECC71)
	rec.Description = fmt.Sprintf("Role **%s** created.", e.Role.Name)
	rec.Actor = actor
	rec.Target = models.Target{Name: e.Role.Name, ID: e.Role.ID}
	r.emit(ctx, rec)
}

func (r *Router) RoleUpdate(ctx context.Context, e *discordgo.GuildRoleUpdate) {
	if e == nil || e.GuildRole == nil || e.Role == nil {
		return
	}
	oldName := r.names.SetRole(e.GuildID, e.Role.ID, e.Role.Name)
	if oldName == "" {
		oldName = e.Role.Name
	}

	actor := r.resolve(ctx, attribution.Query{
		GuildID:  e.GuildID,
		Category: models.ActionRoleUpdate,
		TargetID: e.Role.ID,
	})

	rec := newRecord(e.GuildID, models.CategoryRoleUpdate, "Role Updated", "✏️", 0x27AE60)
	rec.Description = fmt.Sprintf("Role updated: **%s** → **%s**.", oldName, e.Role.Name)
	rec.Actor = actor
	rec.Target = models.Target{Name: e.Role.Name, ID: e.Role.ID}
	rec.AddField("Old Name", orNA(oldName), true)
	rec.AddField("New Name", orNA(e.Role.Name), true)
	r.emit(ctx, rec)
}

func (r *Router) RoleDelete(ctx context.Context, e *discordgo.GuildRoleDelete) {
	if e == nil || e.RoleID == "" {
		return
	}
	name := r.names.ForgetRole(e.GuildID, e.RoleID)
	if name == "" {
		name = e.RoleID
	}

	actor := r.resolve(ctx, attribution.Query{
		GuildID:  e.GuildID,
		Category: models.ActionRoleDelete,
		TargetID: e.RoleID,
	})

	rec := newRecord(e.GuildID, models.CategoryRoleDelete, "Role Deleted", "🗑️", 0xE74C3C)
	rec.Description = fmt.Sprintf("Role **%s** deleted.", name)
	rec.Actor = actor
	rec.Target = models.Target{Name: name, ID: e.RoleID}
	r.emit(ctx, rec)
}

// InviteCreate uses the inviter from the payload and only falls back to
// the audit log when the gateway omitted it.
func (r *Router) InviteCreate(ctx context.Context, e *discordgo.InviteCreate) {
	if e == nil || e.Invite == nil {
		return
	}

	var actor models.Actor
	if e.Inviter != nil {
		actor = actorFromUser(e.Inviter)
	} else {
		actor = r.resolve(ctx, attribution.Query{
			GuildID:  e.GuildID,
			Category: models.ActionInviteCreate,
			TargetID: e.Code,
		})
	}

	rec := newRecord(e.GuildID, models.CategoryInviteMembers, "Invite Created", "✉️", 0x8E44AD)
	rec.Description = fmt.Sprintf("Invite **%s** created.", e.Code)
	rec.Actor = actor
	rec.Target = models.Target{Name: r.names.GuildName(e.GuildID), ID: e.GuildID}
	if e.ChannelID != "" {
		rec.AddField("Channel", "<#"+e.ChannelID+">", true)
	}
	if e.MaxUses > 0 {
		rec.AddField("Max Uses", fmt.Sprintf("%d", e.MaxUses), true)
	}
	if e.MaxAge > 0 {
		rec.AddField("Expires", fmt.Sprintf("<t:%d:R>", e.CreatedAt.Unix()+int64(e.MaxAge)), true)
	}
	r.emit(ctx, rec)
}

func orNA(s string) string {
	if s == "" {
		return models.UnattributedID
	}
	return s
}
