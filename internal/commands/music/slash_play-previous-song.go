package music

import (
	"errors"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	player "server-tempo/internal/music"
)

func init() {
	commands.Register(command.Source{Origin: "music-dj/play-previous-song", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Play the previous song right away",
			Global:      true,
			Run:         runPlayPrevious,
		}
	}})
}

func runPlayPrevious(ctx *command.Context) error {
	s, err := open(ctx, needVoice|needDJ)
	if s == nil {
		return err
	}
	if s.Player == nil {
		return commands.Fail(ctx, "no tracks in history%s", commands.Cancelled)
	}
	if _, err := s.Player.Previous(); err != nil {
		if errors.Is(err, player.ErrNoHistory) {
			return commands.Fail(ctx, "no tracks in history%s", commands.Cancelled)
		}
		return commands.Fail(ctx, "something went wrong:\n\n%v", err)
	}
	resetVotes(ctx)
	return ctx.Say(":arrow_backward: %s, playing previous song", ctx.Mention())
}
