package music

import (
	"fmt"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	player "server-tempo/internal/music"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "music-dj/repeat-mode", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Configure specific repeat-type, overwrites persistent state",
			Global:      true,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "mode",
					Description: "The mode to set",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Off", Value: int(player.RepeatOff)},
						{Name: "Song", Value: int(player.RepeatTrack)},
						{Name: "Queue", Value: int(player.RepeatQueue)},
						{Name: "Autoplay", Value: int(player.RepeatAutoplay)},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "persistent",
					Description: "Save the repeat mode for future sessions in this server",
				},
			},
			Run: runRepeatMode,
		}
	}})
}

func runRepeatMode(ctx *command.Context) error {
	persistent := ctx.BoolOpt("persistent", false)
	n := needDJ
	if !persistent {
		n |= needVoice | needPlayer
	}
	s, err := open(ctx, n)
	if s == nil {
		return err
	}

	mode := player.RepeatMode(ctx.IntOpt("mode", int(player.RepeatOff)))
	if mode < player.RepeatOff || mode > player.RepeatAutoplay {
		return commands.Fail(ctx, "unknown repeat mode%s", commands.Cancelled)
	}
	if s.Player != nil {
		s.Player.SetRepeat(mode)
	}
	if persistent {
		s.Settings.RepeatMode = int(mode)
		if err := ctx.Env.Settings.SaveSettings(s.Settings); err != nil {
			_ = commands.Fail(ctx, "couldn't save the repeat mode, please try again later")
			return fmt.Errorf("save repeat mode: %w", err)
		}
	}
	return commands.Succeed(ctx, "updated repeat mode to: %s", mode)
}
