package system

import (
	"fmt"
	"strings"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/config"
	"server-tempo/internal/permission"
	"server-tempo/internal/throttle"
	"server-tempo/internal/version"

	"github.com/bwmarrin/discordgo"
)

const (
	// HelpMenuID is the custom id of the command select menu.
	HelpMenuID = "help"
	// seeMoreValue is picked when the menu overflows.
	seeMoreValue  = "__see_more__"
	maxMenuValues = 25
)

// Usable reports whether d is enabled, deployed where the actor is and
// within the actor's level.
func Usable(env *command.Env, actor *permission.Actor, d *command.Descriptor) bool {
	if !d.Enabled || d.Level > actor.Level {
		return false
	}
	return d.Global || (env.TestGuildID != "" && actor.GuildID == env.TestGuildID)
}

// usableCommands lists the chat input and context commands an actor can see.
func usableCommands(ctx *command.Context) []*command.Descriptor {
	var out []*command.Descriptor
	for _, d := range ctx.Env.Registry.Commands() {
		if Usable(ctx.Env, ctx.Actor, d) {
			out = append(out, d)
		}
	}
	return out
}

// findCommand resolves a chat input or context command by name.
func findCommand(ctx *command.Context, name string) (*command.Descriptor, bool) {
	return ctx.Env.Registry.Resolve(strings.TrimSpace(name), command.Commands, command.ContextActions)
}

func overviewEmbed(ctx *command.Context) *discordgo.MessageEmbed {
	byCategory := make(map[string][]string)
	for _, d := range usableCommands(ctx) {
		cat := d.Category
		if cat == "" {
			cat = "other"
		}
		byCategory[cat] = append(byCategory[cat], d.Name)
	}
	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	config.SortCategories(categories)

	fields := make([]*discordgo.MessageEmbedField, 0, len(categories))
	for _, cat := range categories {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  commands.TitleCase(cat),
			Value: "**`" + strings.Join(byCategory[cat], "`** - **`") + "`**",
		})
	}
	return &discordgo.MessageEmbed{
		Title:  "Command help for " + version.AppName,
		Color:  ctx.Env.EmbedColor,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{Text: "Requested by " + ctx.Member().User.Username},
	}
}

func infoEmbed(ctx *command.Context, d *command.Descriptor) *discordgo.MessageEmbed {
	model := ctx.Env.Registry.Permissions()
	fields := []*discordgo.MessageEmbedField{
		{Name: "Category", Value: commands.TitleCase(d.Category), Inline: true},
		{Name: "Permission Level", Value: fmt.Sprintf("%d | %s", d.Level, model.Name(d.Level)), Inline: true},
		{Name: commands.EmojiWait + " Cooldown", Value: cooldownText(d.Cooldown)},
		{Name: "Client Permissions", Value: permissionList(ctx.Actor.AppPermissions, d.AgentPermissions), Inline: true},
		{Name: "User Permissions", Value: permissionList(ctx.Actor.Permissions, d.CallerPermissions), Inline: true},
	}
	if len(d.Aliases) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Aliases", Value: "`/" + strings.Join(d.Aliases, "`, `/") + "`"})
	}
	sfw := commands.EmojiSuccess + " This command **is** SFW"
	if d.NSFW {
		sfw = commands.EmojiError + " This command is **not** SFW"
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "SFW", Value: sfw})

	title := d.Name
	if d.Kind == command.ChatInput {
		title = commands.TitleCase(d.Name)
	}
	description := d.Description
	if d.IsAlias {
		description = fmt.Sprintf("%s\nAlias for **`/%s`**", d.Description, d.AliasTarget)
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       ctx.Env.EmbedColor,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Type: " + typeText(d.Kind)},
	}
}

func cooldownText(p throttle.Policy) string {
	if !p.Active() {
		return "This command has no cooldown"
	}
	times := fmt.Sprintf("%d times", p.Usages)
	switch p.Usages {
	case 1:
		times = "once"
	case 2:
		times = "twice"
	}
	seconds := p.Window.Seconds()
	unit := "seconds"
	if seconds == 1 {
		unit = "second"
	}
	return fmt.Sprintf("You can use this command **%s** every **%g** %s (per %s)", times, seconds, unit, p.Scope)
}

func permissionList(have int64, tokens []string) string {
	if len(tokens) == 0 {
		return commands.EmojiSuccess + " None required"
	}
	missing := permission.Missing(have, tokens)
	lines := make([]string, 0, len(tokens))
	for _, t := range tokens {
		emoji := commands.EmojiSuccess
		for _, m := range missing {
			if m == t {
				emoji = commands.EmojiError
				break
			}
		}
		lines = append(lines, emoji+" "+permission.DisplayNames([]string{t}))
	}
	return strings.Join(lines, "\n")
}

func typeText(k command.Kind) string {
	switch k {
	case command.MessageContext:
		return "Message Command (right-click message -> Apps)"
	case command.UserContext:
		return "User Command (right-click user -> Apps)"
	default:
		return "Slash Command"
	}
}

// helpMenu lists usable commands in a select menu, folding the overflow
// into a single "see more" entry.
func helpMenu(ctx *command.Context) []discordgo.MessageComponent {
	usable := usableCommands(ctx)
	options := make([]discordgo.SelectMenuOption, 0, min(len(usable), maxMenuValues))
	for _, d := range usable {
		desc := d.Description
		if desc == "" {
			desc = typeText(d.Kind)
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       d.Name,
			Description: commands.Truncate(desc, 100),
			Value:       d.Name,
		})
	}
	if len(options) > maxMenuValues {
		remainder := len(options) - (maxMenuValues - 1)
		options = append(options[:maxMenuValues-1], discordgo.SelectMenuOption{
			Label:       fmt.Sprintf("And %d more...", remainder),
			Description: "Use the built-in auto complete functionality when typing the command",
			Value:       seeMoreValue,
		})
	}
	if len(options) == 0 {
		return nil
	}
	one := 1
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    HelpMenuID,
				Placeholder: "Select a command",
				MinValues:   &one,
				MaxValues:   1,
				Options:     options,
			},
		}},
	}
}
