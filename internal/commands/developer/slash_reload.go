package developer

import (
	"strings"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/commands/system"
	"server-tempo/internal/permission"

	"github.com/bwmarrin/discordgo"
)

// invisibleColor blends into the dark theme.
const invisibleColor = 0x2f3136

func init() {
	commands.Register(command.Source{Origin: "developer/reload", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Reload an active, existing command",
			Level:       permission.TierDeveloper,
			Options:     []*discordgo.ApplicationCommandOption{system.CommandOption(`The command to reload, or "all"`, true)},
			Run:         runReload,
		}
	}})
}

func runReload(ctx *command.Context) error {
	reg := ctx.Env.Registry
	name := strings.TrimSpace(ctx.StringOpt("command", ""))

	if name == "all" {
		if err := ctx.Defer(false); err != nil {
			return err
		}
		n, err := reg.ReloadAll()
		for _, d := range reg.Commands() {
			forgetCooldowns(ctx, d.Name)
		}
		if err != nil {
			return ctx.Edit(&command.Response{Content: commands.Line(ctx, commands.EmojiError,
				"error encountered while reloading commands, click spoiler-block below to reveal.\n\n||%v||", err)})
		}
		return ctx.Edit(reloaded(ctx, commands.Line(ctx, commands.EmojiSuccess, "reloaded all %d commands", n)))
	}

	if _, ok := reg.Resolve(name); !ok {
		return ctx.Say("%s %s, couldn't find any commands named `%s`.", commands.EmojiError, ctx.Mention(), name)
	}
	if err := ctx.Defer(false); err != nil {
		return err
	}
	d, err := reg.Reload(name)
	if err != nil {
		return ctx.Edit(&command.Response{Content: commands.Line(ctx, commands.EmojiError,
			"error encountered while reloading the command `%s`, click spoiler-block below to reveal.\n\n||%v||", name, err)})
	}
	forgetCooldowns(ctx, d.Effective())
	return ctx.Edit(reloaded(ctx, commands.Line(ctx, commands.EmojiSuccess, "reloaded the `/%s` command", name)))
}

// forgetCooldowns drops the windows recorded under the old policy.
func forgetCooldowns(ctx *command.Context, name string) {
	if ctx.Env.Cooldowns != nil {
		ctx.Env.Cooldowns.Forget(name)
	}
}

func reloaded(ctx *command.Context, content string) *command.Response {
	return &command.Response{
		Content: content,
		Embeds: []*discordgo.MessageEmbed{{
			Color:  invisibleColor,
			Footer: &discordgo.MessageEmbedFooter{Text: "Don't forget to use the /deploy command if you made any changes to the command data object"},
		}},
	}
}
