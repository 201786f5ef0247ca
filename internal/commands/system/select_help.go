package system

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "system/" + HelpMenuID, Build: func() command.Config {
		return command.Config{
			Kind: command.SelectMenu,
			Run:  runHelpMenu,
		}
	}})
}

// runHelpMenu swaps the help message for the picked command's details.
func runHelpMenu(ctx *command.Context) error {
	values := ctx.Values()
	if len(values) == 0 {
		return nil
	}
	if values[0] == seeMoreValue {
		return ctx.Update(&command.Response{
			Embeds:     []*discordgo.MessageEmbed{overviewEmbed(ctx)},
			Components: helpMenu(ctx),
		})
	}

	d, ok := findCommand(ctx, values[0])
	if !ok || !Usable(ctx.Env, ctx.Actor, d) {
		return ctx.Update(&command.Response{
			Content:    commands.Line(ctx, commands.EmojiError, "I couldn't find the command **`/%s`**", values[0]),
			Components: helpMenu(ctx),
		})
	}
	return ctx.Update(&command.Response{
		Embeds:     []*discordgo.MessageEmbed{infoEmbed(ctx, d)},
		Components: helpMenu(ctx),
	})
}
