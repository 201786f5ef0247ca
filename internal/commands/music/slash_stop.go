package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
)

func init() {
	commands.Register(command.Source{Origin: "music-dj/stop", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Stop the music player, clearing the queue and leaving the voice channel",
			Aliases:     []string{"leave", "disconnect", "f-off"},
			Global:      true,
			Run:         runStop,
		}
	}})
}

func runStop(ctx *command.Context) error {
	s, err := open(ctx, needVoice|needPlayer|needDJ)
	if s == nil {
		return err
	}
	ctx.Env.Music.Destroy(ctx.Actor.GuildID)
	resetVotes(ctx)
	return commands.Succeed(ctx, "the queue has been cleared and the player was disconnected.")
}
