package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "music-dj/swap-songs", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Swap songs in the queue by their position",
			Global:      true,
			Options: []*discordgo.ApplicationCommandOption{
				positionOption("song-1", "The position of the first song"),
				positionOption("song-2", "The position of the second song"),
			},
			Run: runSwapSongs,
		}
	}})
}

func runSwapSongs(ctx *command.Context) error {
	a, b := ctx.IntOpt("song-1", 0), ctx.IntOpt("song-2", 0)
	if a == b {
		return commands.Fail(ctx, "`song-1` and `song-2` are identical%s", commands.Cancelled)
	}
	s, err := open(ctx, needVoice|needPlayer|needDJ)
	if s == nil {
		return err
	}
	// titles are read before the swap so the reply names them in the order given
	upcoming := s.Player.Snapshot().Upcoming
	if err := s.Player.Swap(a, b); err != nil {
		return positionFailure(ctx, err)
	}
	return commands.Succeed(ctx, "**`%s`** has been swapped with **`%s`**", upcoming[a-1].Title, upcoming[b-1].Title)
}
