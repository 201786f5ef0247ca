package system

import (
	"fmt"
	"time"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "system/ping", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Displays the bot's latency",
			Global:      true,
			Run:         runPing,
		}
	}})
}

// runPing measures from the interaction's snowflake to now.
func runPing(ctx *command.Context) error {
	latency := "unknown"
	if created, err := discordgo.SnowflakeTimestamp(ctx.Event.ID); err == nil {
		latency = fmt.Sprintf("%dms", max(time.Since(created).Milliseconds(), 0))
	}
	return ctx.Embed(&discordgo.MessageEmbed{
		Title:       "🏓 Pong!",
		Description: "Latency: " + latency,
	})
}
