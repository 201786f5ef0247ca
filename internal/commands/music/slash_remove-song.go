package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "music-dj/remove-song", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Remove a song from the current queue",
			Global:      true,
			Options:     []*discordgo.ApplicationCommandOption{positionOption("position", "The position of the song to remove")},
			Run:         runRemoveSong,
		}
	}})
}

func runRemoveSong(ctx *command.Context) error {
	s, err := open(ctx, needVoice|needPlayer|needDJ)
	if s == nil {
		return err
	}
	removed, err := s.Player.Remove(ctx.IntOpt("position", 0))
	if err != nil {
		return positionFailure(ctx, err)
	}
	return commands.Succeed(ctx, "**`%s`** has been removed from the queue", removed.Title)
}
