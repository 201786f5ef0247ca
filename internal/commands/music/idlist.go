package music

import (
	"slices"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/permission"
	"server-tempo/internal/storage"

	"github.com/bwmarrin/discordgo"
)

// idList is a list of role or channel ids kept in the server settings and
// managed through list/add/remove/reset subcommands.
type idList struct {
	// noun is the plural shown in replies, such as "DJ roles".
	noun     string
	prefix   string
	optType  discordgo.ApplicationCommandOptionType
	optName  string
	ids      func(s *storage.Settings) *[]string
	whenNone string
}

func (l idList) config(description string) command.Config {
	target := func(desc string) []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{{Type: l.optType, Name: l.optName, Description: desc, Required: true}}
	}
	return command.Config{
		Kind:        command.ChatInput,
		Description: description,
		Level:       permission.TierAdministrator,
		Global:      true,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "list", Description: "Display the current " + l.noun},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "add", Description: "Add to the " + l.noun, Options: target("The " + l.optName + " to add")},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "remove", Description: "Remove from the " + l.noun, Options: target("The " + l.optName + " to remove")},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "reset", Description: "Reset the " + l.noun, Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "verification",
				Description: "Are you sure you want to reset the " + l.noun + "?",
				Required:    true,
			}}},
		},
		Run: l.run,
	}
}

func (l idList) run(ctx *command.Context) error {
	s, err := loadSettings(ctx)
	if s == nil {
		return err
	}
	ids := l.ids(s)

	switch ctx.Subcommand() {
	case "add":
		id := ctx.StringOpt(l.optName, "")
		if slices.Contains(*ids, id) {
			return commands.Fail(ctx, "%s%s> is already one of the %s%s", l.prefix, id, l.noun, commands.Cancelled)
		}
		*ids = append(*ids, id)
		return saveSettings(ctx, s, "%s%s> has been added to the %s", l.prefix, id, l.noun)
	case "remove":
		id := ctx.StringOpt(l.optName, "")
		i := slices.Index(*ids, id)
		if i < 0 {
			return commands.Fail(ctx, "%s%s> isn't one of the %s%s", l.prefix, id, l.noun, commands.Cancelled)
		}
		*ids = slices.Delete(*ids, i, i+1)
		return saveSettings(ctx, s, "%s%s> has been removed from the %s", l.prefix, id, l.noun)
	case "reset":
		if !ctx.BoolOpt("verification", false) {
			return commands.Fail(ctx, "you didn't select the verification option%s", commands.Cancelled)
		}
		*ids = []string{}
		return saveSettings(ctx, s, "the %s have been reset", l.noun)
	default:
		if len(*ids) == 0 {
			return ctx.Say("%s %s, %s", commands.EmojiInfo, ctx.Mention(), l.whenNone)
		}
		return ctx.Say("%s %s, the current %s are: %s", commands.EmojiInfo, ctx.Mention(), l.noun, commands.Mentions(l.prefix, *ids))
	}
}
