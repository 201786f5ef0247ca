package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/permission"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "music-admin/volume", Build: func() command.Config {
		minVolume := 1.0
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Configure the player's volume, shows the current volume when omitted",
			Level:       permission.TierAdministrator,
			Global:      true,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "volume",
				Description: "The volume to set, between 1 and 100",
				MinValue:    &minVolume,
				MaxValue:    100,
			}},
			Run: runVolume,
		}
	}})
}

func runVolume(ctx *command.Context) error {
	s, err := loadSettings(ctx)
	if s == nil {
		return err
	}
	p, hasPlayer := ctx.Env.Music.Lookup(ctx.Actor.GuildID)

	volume := ctx.IntOpt("volume", 0)
	if volume == 0 {
		current := s.Volume
		if hasPlayer {
			current = p.Snapshot().Volume
		}
		return ctx.Say("%s %s, the current volume is `%d`", commands.EmojiInfo, ctx.Mention(), current)
	}
	if volume < 1 || volume > 100 {
		return commands.Fail(ctx, "volume must be between `1` and `100`%s", commands.Cancelled)
	}

	if hasPlayer {
		if err := p.SetVolume(volume); err != nil {
			return commands.Fail(ctx, "something went wrong:\n\n%v", err)
		}
	}
	s.Volume = volume
	return saveSettings(ctx, s, "volume set to `%d`", volume)
}
