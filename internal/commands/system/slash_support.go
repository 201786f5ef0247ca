package system

import (
	"time"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/throttle"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "system/support", Build: func() command.Config {
		return command.Config{
			Kind:             command.ChatInput,
			Description:      "Receive a link to the support server",
			Global:           true,
			AgentPermissions: []string{"EmbedLinks"},
			Cooldown:         &throttle.Policy{Scope: throttle.ScopeChannel, Usages: 1, Window: 15 * time.Second},
			Run:              runSupport,
		}
	}})
}

func runSupport(ctx *command.Context) error {
	if ctx.Env.SupportInvite == "" {
		return commands.Fail(ctx, "there's no support server configured")
	}
	return ctx.Embed(&discordgo.MessageEmbed{
		Description: "[Join the support server](" + ctx.Env.SupportInvite + ")\n" +
			"```diff\n" +
			"+ Report bugs and request features\n" +
			"+ Ask questions about setting up music channels and DJ roles\n" +
			"+ Get notified about updates\n" +
			"```",
	})
}
