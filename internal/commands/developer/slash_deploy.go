package developer

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/permission"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "developer/deploy", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Re-deploy ApplicationCommand API data",
			Level:       permission.TierDeveloper,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "target",
				Description: "Which commands to deploy, defaults to all of them",
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "All", Value: "all"},
					{Name: "Global", Value: "global"},
					{Name: "Test server", Value: "test"},
				},
			}},
			Run: runDeploy,
		}
	}})
}

func runDeploy(ctx *command.Context) error {
	if ctx.Env.Deployer == nil {
		return commands.Fail(ctx, "command deployment isn't available right now")
	}
	target := ctx.StringOpt("target", "all")
	ctx.Env.Deployer.RefreshCommands(ctx.Actor.GuildID, target)
	return ctx.Say("%s %s, [ApplicationCommandData](https://discord.com/developers/docs/interactions/application-commands#application-command-object-application-command-structure) is being refreshed (`%s`).\n%s - changes to global commands can take up to an hour to take effect...",
		commands.EmojiSuccess, ctx.Mention(), target, commands.EmojiWait)
}
