package commands

import (
	"github.com/bwmarrin/discordgo"

	"go-modlogger/internal/models"
)

var manageGuild int64 = discordgo.PermissionManageServer

// GetAllCommands returns all application commands
func GetAllCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "logs",
			Description:              "Configure moderation log channels",
			DefaultMemberPermissions: &manageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "set",
					Description: "Send one category of log records to a channel",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "category",
							Description: "Log category",
							Type:        discordgo.ApplicationCommandOptionString,
							Required:    true,
							Choices:     categoryChoices(),
						},
						{
							Name:         "channel",
							Description:  "Destination channel",
							Type:         discordgo.ApplicationCommandOptionChannel,
							Required:     true,
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						},
					},
				},
				{
					Name:        "view",
					Description: "Show where each category is logged",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "failures",
					Description: "Show records that could not be delivered",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
			},
		},
		{
			Name:                     "status",
			Description:              "Show logger and host status",
			DefaultMemberPermissions: &manageGuild,
		},
	}
}

func categoryChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(models.AllCategories))
	for _, c := range models.AllCategories {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(c),
			Value: string(c),
		})
	}
	return choices
}
