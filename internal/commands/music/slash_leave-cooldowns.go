package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/permission"

	"github.com/bwmarrin/discordgo"
)

// maxLeaveCooldown is one hour.
const maxLeaveCooldown = 3600

func secondsOption(required bool) *discordgo.ApplicationCommandOption {
	minSeconds := 0.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "seconds",
		Description: "The amount of seconds to wait before leaving",
		Required:    required,
		MinValue:    &minSeconds,
		MaxValue:    maxLeaveCooldown,
	}
}

func init() {
	commands.Register(
		command.Source{Origin: "music-admin/leave-on-end-cooldown", Build: func() command.Config {
			return command.Config{
				Kind:        command.ChatInput,
				Description: "How long to wait before leaving the voice channel once the queue has ended",
				Level:       permission.TierAdministrator,
				Global:      true,
				Options:     []*discordgo.ApplicationCommandOption{secondsOption(true)},
				Run:         runLeaveOnEndCooldown,
			}
		}},
		command.Source{Origin: "music-admin/leave-on-empty-cooldown", Build: func() command.Config {
			return command.Config{
				Kind:        command.ChatInput,
				Description: "How long to wait before leaving the voice channel once it is empty",
				Level:       permission.TierAdministrator,
				Global:      true,
				Options: []*discordgo.ApplicationCommandOption{
					secondsOption(false),
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "status",
						Description: "Leave the voice channel at all when it is empty",
					},
				},
				Run: runLeaveOnEmptyCooldown,
			}
		}},
	)
}

func runLeaveOnEndCooldown(ctx *command.Context) error {
	s, err := loadSettings(ctx)
	if s == nil {
		return err
	}
	s.LeaveOnEndCooldown = ctx.IntOpt("seconds", s.LeaveOnEndCooldown)
	return saveSettings(ctx, s, "the leave-on-end cooldown has been set to **`%d`** seconds", s.LeaveOnEndCooldown)
}

func runLeaveOnEmptyCooldown(ctx *command.Context) error {
	opts := ctx.Options()
	_, hasSeconds := opts["seconds"]
	_, hasStatus := opts["status"]
	if !hasSeconds && !hasStatus {
		return commands.Fail(ctx, "please provide `seconds`, `status` or both%s", commands.Cancelled)
	}

	s, err := loadSettings(ctx)
	if s == nil {
		return err
	}
	s.LeaveOnEmptyCooldown = ctx.IntOpt("seconds", s.LeaveOnEmptyCooldown)
	s.LeaveOnEmpty = ctx.BoolOpt("status", s.LeaveOnEmpty)
	return saveSettings(ctx, s, "`Leave On Empty` is %s with a cooldown of **`%d`** seconds", enabledText(s.LeaveOnEmpty), s.LeaveOnEmptyCooldown)
}
