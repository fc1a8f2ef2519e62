// Package router turns gateway events into attributed log records.
//
// Every handler is safe to call from its own goroutine. Handlers block while
// the attribution resolver polls the audit log, so callers run them off the
// gateway read loop.
package router

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"go-modlogger/internal/attribution"
	"go-modlogger/internal/logging"
	"go-modlogger/internal/metrics"
	"go-modlogger/internal/models"
	"go-modlogger/internal/rolecache"
)

type Resolver interface {
	Resolve(ctx context.Context, q attribution.Query) models.Actor
}

type Dispatcher interface {
	Dispatch(ctx context.Context, record *models.LogRecord) error
}

type Router struct {
	resolver   Resolver
	roles      rolecache.Store
	dispatcher Dispatcher
	names      *NameBook
	metrics    *metrics.Metrics
}

func New(resolver Resolver, roles rolecache.Store, dispatcher Dispatcher, names *NameBook, m *metrics.Metrics) *Router {
	if names == nil {
		names = NewNameBook()
	}
	return &Router{
		resolver:   resolver,
		roles:      roles,
		dispatcher: dispatcher,
		names:      names,
		metrics:    m,
	}
}

func (r *Router) Names() *NameBook {
	return r.names
}

func (r *Router) resolve(ctx context.Context, q attribution.Query) models.Actor {
	return r.resolver.Resolve(ctx, q)
}

// emit hands the record to the dispatcher. Terminal failures are already
// logged and journaled there.
func (r *Router) emit(ctx context.Context, record *models.LogRecord) {
	if err := r.dispatcher.Dispatch(ctx, record); err != nil {
		logging.Debug("[ROUTER] %s record %s not delivered: %v", record.Category, record.ID, err)
	}
}

func (r *Router) observeCache() {
	r.metrics.SetRoleCacheEntries(r.roles.Len())
}

func newRecord(guildID string, category models.LogCategory, title, icon string, color int) *models.LogRecord {
	rec := models.NewLogRecord(guildID, category)
	rec.Title = title
	rec.Icon = icon
	rec.Color = color
	return rec
}

func userTag(u *discordgo.User) string {
	if u == nil {
		return "Unknown"
	}
	return u.String()
}

func userTarget(u *discordgo.User, withAvatar bool) models.Target {
	if u == nil {
		return models.Target{Name: "Unknown", ID: models.UnattributedID}
	}
	t := models.Target{Name: u.String(), ID: u.ID}
	if withAvatar {
		t.AvatarURL = u.AvatarURL("")
	}
	return t
}

func actorFromUser(u *discordgo.User) models.Actor {
	return models.Actor{DisplayName: u.String(), ID: u.ID}
}
