package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"

	"github.com/bwmarrin/discordgo"
)

const maxPosition = 999999

// positionOption is a required 1-based queue position.
func positionOption(name, description string) *discordgo.ApplicationCommandOption {
	minPos := 1.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		Required:    true,
		MinValue:    &minPos,
		MaxValue:    maxPosition,
	}
}

func init() {
	commands.Register(command.Source{Origin: "music-dj/skip", Build: func() command.Config {
		to := positionOption("to", "Skip to this position in the queue, dropping the songs before it")
		to.Required = false
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Skip the currently playing song",
			Aliases:     []string{"next"},
			Global:      true,
			Options:     []*discordgo.ApplicationCommandOption{to},
			Run:         runSkip,
		}
	}})
}

func runSkip(ctx *command.Context) error {
	s, err := open(ctx, needVoice|needPlayer|needDJ)
	if s == nil {
		return err
	}

	if to := ctx.IntOpt("to", 0); to > 0 {
		target, err := s.Player.SkipTo(to)
		if err != nil {
			return positionFailure(ctx, err)
		}
		resetVotes(ctx)
		return commands.Succeed(ctx, "skipped to **`%s`**", target.Title)
	}

	skipped, err := s.Player.Skip()
	if err != nil {
		return commands.Fail(ctx, "something went wrong:\n\n%v", err)
	}
	resetVotes(ctx)
	return commands.Succeed(ctx, "skipped **`%s`**", skipped.Title)
}
