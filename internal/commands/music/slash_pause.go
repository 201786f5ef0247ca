package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
)

func init() {
	commands.Register(command.Source{Origin: "music-dj/pause", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Pause/resume the current song",
			Aliases:     []string{"resume"},
			Global:      true,
			Run:         runPause,
		}
	}})
}

func runPause(ctx *command.Context) error {
	s, err := open(ctx, needVoice|needPlayer|needDJ)
	if s == nil {
		return err
	}
	if s.Player.Snapshot().Paused {
		if err := s.Player.Resume(); err != nil {
			return commands.Fail(ctx, "something went wrong:\n\n%v", err)
		}
		return commands.Succeed(ctx, "resumed playback")
	}
	if err := s.Player.Pause(); err != nil {
		return commands.Fail(ctx, "something went wrong:\n\n%v", err)
	}
	return commands.Succeed(ctx, "paused playback")
}
