package system

import (
	"time"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/throttle"

	"github.com/bwmarrin/discordgo"
)

// CommandOption is the autocompleted "command" option shared by help and
// reload.
func CommandOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "command",
		Description:  description,
		Required:     required,
		Autocomplete: true,
	}
}

func init() {
	commands.Register(command.Source{Origin: "system/help", Build: func() command.Config {
		return command.Config{
			Kind:             command.ChatInput,
			Description:      "Receive detailed command information",
			Aliases:          []string{"commands"},
			Global:           true,
			AgentPermissions: []string{"EmbedLinks"},
			Cooldown:         &throttle.Policy{Scope: throttle.ScopeUser, Usages: 2, Window: 10 * time.Second},
			Options:          []*discordgo.ApplicationCommandOption{CommandOption("Command to get detailed information for", false)},
			Run:              runHelp,
		}
	}})
}

func runHelp(ctx *command.Context) error {
	name := ctx.StringOpt("command", "")
	if name == "" {
		return ctx.Reply(&command.Response{
			Embeds:     []*discordgo.MessageEmbed{overviewEmbed(ctx)},
			Components: helpMenu(ctx),
		})
	}

	d, ok := findCommand(ctx, name)
	if !ok || !Usable(ctx.Env, ctx.Actor, d) {
		return commands.Fail(ctx, "I couldn't find the command **`/%s`**", name)
	}
	return ctx.Embed(infoEmbed(ctx, d))
}
