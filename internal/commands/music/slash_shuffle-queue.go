package music

import (
	"errors"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	player "server-tempo/internal/music"
)

func init() {
	commands.Register(command.Source{Origin: "music-dj/shuffle-queue", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Shuffle the current queue",
			Global:      true,
			Run:         runShuffleQueue,
		}
	}})
}

func runShuffleQueue(ctx *command.Context) error {
	s, err := open(ctx, needVoice|needPlayer|needDJ)
	if s == nil {
		return err
	}
	if err := s.Player.Shuffle(); err != nil {
		if errors.Is(err, player.ErrNoTracksInQueue) {
			return commands.Fail(ctx, "there aren't enough songs in the queue to shuffle%s", commands.Cancelled)
		}
		return commands.Fail(ctx, "something went wrong:\n\n%v", err)
	}
	return commands.Succeed(ctx, "the queue has been shuffled.")
}
