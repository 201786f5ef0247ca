package system

import (
	"time"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/throttle"
)

func init() {
	commands.Register(command.Source{Origin: "system/permlevel", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Display your bot permission level",
			Global:      true,
			Cooldown:    &throttle.Policy{Scope: throttle.ScopeMember, Usages: 1, Window: 10 * time.Second},
			Run: func(ctx *command.Context) error {
				name := ctx.Env.Registry.Permissions().Name(ctx.Actor.Level)
				return commands.Succeed(ctx, "your permission level is **%d | %s**", ctx.Actor.Level, name)
			},
		}
	}})
}
