package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "music-dj/jump-to", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Jump to a specific song in the queue, keeping the songs before it",
			Global:      true,
			Options:     []*discordgo.ApplicationCommandOption{positionOption("position", "The position of the song to play")},
			Run:         runJumpTo,
		}
	}})
}

func runJumpTo(ctx *command.Context) error {
	s, err := open(ctx, needVoice|needPlayer|needDJ)
	if s == nil {
		return err
	}
	position := ctx.IntOpt("position", 0)
	if _, err := s.Player.JumpTo(position); err != nil {
		return positionFailure(ctx, err)
	}
	resetVotes(ctx)
	return commands.Succeed(ctx, "jumping to **`%d`**!", position)
}
