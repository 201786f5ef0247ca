package developer

import (
	"fmt"
	"strings"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/permission"
	"server-tempo/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const embedDescriptionMax = 4096

func init() {
	commands.Register(command.Source{Origin: "developer/command-log", Build: func() command.Config {
		minLimit := 1.0
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Show the most recent command usage in this server",
			Level:       permission.TierDeveloper,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "limit",
				Description: "How many entries to show",
				MinValue:    &minLimit,
				MaxValue:    25,
			}},
			Run: runCommandLog,
		}
	}})
}

func runCommandLog(ctx *command.Context) error {
	if ctx.Env.Audit == nil {
		return commands.Fail(ctx, "the audit log is disabled")
	}
	if err := ctx.Defer(true); err != nil {
		return err
	}

	entries, err := ctx.Env.Audit.Recent(ctx, ctx.Actor.GuildID, ctx.IntOpt("limit", 10))
	if err != nil {
		_ = ctx.Edit(&command.Response{Content: commands.Line(ctx, commands.EmojiError, "couldn't read the audit log, please try again later")})
		return fmt.Errorf("read audit log: %w", err)
	}
	if len(entries) == 0 {
		return ctx.Edit(&command.Response{Content: commands.Line(ctx, commands.EmojiInfo, "no commands have been recorded in this server yet")})
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("`%s` <@%s> **/%s** %s", util.FormatDate(e.CreatedAt, "YYYY-MM-DD hh:mm:ss"), e.UserID, e.Command, e.Outcome)
		if e.Reason != "" {
			line += " (" + e.Reason + ")"
		}
		lines = append(lines, line)
	}
	return ctx.Edit(&command.Response{Embeds: []*discordgo.MessageEmbed{{
		Title:       "Command log",
		Color:       ctx.Env.EmbedColor,
		Description: commands.Truncate(strings.Join(lines, "\n"), embedDescriptionMax),
	}}})
}
