package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "music-dj/move-song", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Move a song that is currently queued",
			Global:      true,
			Options: []*discordgo.ApplicationCommandOption{
				positionOption("from", "The position of the song to move"),
				positionOption("to", "The position to move the song to"),
			},
			Run: runMoveSong,
		}
	}})
}

func runMoveSong(ctx *command.Context) error {
	from, to := ctx.IntOpt("from", 0), ctx.IntOpt("to", 0)
	if from == to {
		return commands.Fail(ctx, "`from` and `to` are identical%s", commands.Cancelled)
	}
	s, err := open(ctx, needVoice|needPlayer|needDJ)
	if s == nil {
		return err
	}
	moved, err := s.Player.Move(from, to)
	if err != nil {
		return positionFailure(ctx, err)
	}
	return commands.Succeed(ctx, "**`%s`** has been moved to position **`%d`**", moved.Title, to)
}
