package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
)

func init() {
	commands.Register(command.Source{Origin: "music-dj/clear-queue", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Clear the entire queue",
			Global:      true,
			Run:         runClearQueue,
		}
	}})
}

func runClearQueue(ctx *command.Context) error {
	s, err := open(ctx, needVoice|needPlayer|needDJ)
	if s == nil {
		return err
	}
	if s.Player.Clear() == 0 {
		return commands.Fail(ctx, "the queue is already empty%s", commands.Cancelled)
	}
	return commands.Succeed(ctx, "the queue has been cleared.")
}
