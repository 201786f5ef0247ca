package music

import (
	"fmt"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/storage"
)

// loadSettings reads the server settings for an admin command. A nil result
// means the caller was already told.
func loadSettings(ctx *command.Context) (*storage.Settings, error) {
	if ctx.Env.Settings == nil {
		return nil, commands.Fail(ctx, "server settings aren't available right now")
	}
	s, err := ctx.Env.Settings.Settings(ctx.Actor.GuildID)
	if err != nil {
		_ = commands.Fail(ctx, "couldn't load the settings of this server, please try again later")
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// saveSettings stores s and confirms with the formatted message.
func saveSettings(ctx *command.Context, s *storage.Settings, format string, args ...any) error {
	if err := ctx.Env.Settings.SaveSettings(s); err != nil {
		_ = commands.Fail(ctx, "couldn't save the settings of this server, please try again later")
		return fmt.Errorf("save settings: %w", err)
	}
	return commands.Succeed(ctx, format, args...)
}

func enabledText(on bool) string {
	if on {
		return "**" + commands.EmojiSuccess + " Enabled**"
	}
	return "**" + commands.EmojiError + " Disabled**"
}
