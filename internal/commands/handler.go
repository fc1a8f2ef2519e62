package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"go-modlogger/internal/bot"
	"go-modlogger/internal/config"
	"go-modlogger/internal/database"
	"go-modlogger/internal/logging"
	"go-modlogger/internal/metrics"
	"go-modlogger/internal/models"
	"go-modlogger/internal/notifier"
)

const commandTimeout = 10 * time.Second

// RouteStore is the persistence used by /logs.
type RouteStore interface {
	SetRoute(ctx context.Context, o database.RouteOverride) error
	ListRoutes(ctx context.Context, guildID string) ([]*database.RouteOverride, error)
	RecentFailures(ctx context.Context, guildID string, limit int) ([]models.DeliveryFailure, error)
}

// CacheSizer reports the number of cached role snapshots.
type CacheSizer interface {
	Len() int
}

// Deps bundles what the command handlers read and write.
type Deps struct {
	Store   RouteStore
	Routes  config.RoutesConfig
	Sink    notifier.Sink
	Cache   CacheSizer
	Metrics *metrics.Metrics
	Health  metrics.HealthSource
}

// Handler manages all command interactions
type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Initialize registers the interaction handler and the slash commands.
func Initialize(session *bot.Session, deps Deps) (*Handler, error) {
	h := NewHandler(deps)
	session.AddHandler(h.handleInteraction)

	commands := GetAllCommands()
	if err := session.RegisterCommands(commands); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	logging.Info("Command handler initialized with %d commands", len(commands))
	return h, nil
}

func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" {
		respondError(s, i, "commands only work inside a server")
		return
	}
	if !checkPermissions(i) {
		respondPermissionError(s, i, "You need the Manage Server permission.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	data := i.ApplicationCommandData()

	var err error
	switch data.Name {
	case "logs":
		if len(data.Options) == 0 {
			err = fmt.Errorf("missing subcommand")
			break
		}
		sub := data.Options[0]
		switch sub.Name {
		case "set":
			err = h.handleLogsSet(ctx, s, i, sub)
		case "view":
			err = h.handleLogsView(ctx, s, i)
		case "failures":
			err = h.handleLogsFailures(ctx, s, i)
		default:
			err = fmt.Errorf("unknown subcommand: %s", sub.Name)
		}
	case "status":
		err = h.handleStatus(s, i)
	default:
		err = fmt.Errorf("unknown command: %s", data.Name)
	}

	if err != nil {
		logging.Error("Command error [%s]: %v", data.Name, err)
		respondError(s, i, err.Error())
	}
}

// respondError sends an ephemeral error message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ Error: %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}
