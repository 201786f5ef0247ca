package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/permission"
	"server-tempo/internal/storage"

	"github.com/bwmarrin/discordgo"
)

// toggle is a boolean server setting with its own command.
type toggle struct {
	label string
	field func(s *storage.Settings) *bool
}

func (t toggle) config(description string) command.Config {
	return command.Config{
		Kind:        command.ChatInput,
		Description: description,
		Level:       permission.TierAdministrator,
		Global:      true,
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "set",
			Description: "Enable or disable " + t.label,
			Required:    true,
		}},
		Run: t.run,
	}
}

func (t toggle) run(ctx *command.Context) error {
	s, err := loadSettings(ctx)
	if s == nil {
		return err
	}
	on := ctx.BoolOpt("set", false)
	*t.field(s) = on
	return saveSettings(ctx, s, "`%s` has been %s", t.label, enabledText(on))
}

func init() {
	commands.Register(
		command.Source{Origin: "music-admin/use-thread-sessions", Build: func() command.Config {
			return toggle{
				label: "Use Thread Sessions",
				field: func(s *storage.Settings) *bool { return &s.UseThreadSessions },
			}.config("Start a thread for every music session")
		}},
		command.Source{Origin: "music-admin/use-strict-thread-sessions", Build: func() command.Config {
			return toggle{
				label: "Strict Thread Sessions",
				field: func(s *storage.Settings) *bool { return &s.ThreadSessionStrictCommandChannel },
			}.config("Only accept music commands in the session channels while thread sessions are on")
		}},
	)
}
