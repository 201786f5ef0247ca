package music

import (
	"strings"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"

	"github.com/bwmarrin/discordgo"
)

const choiceMax = 100

func init() {
	commands.Register(command.Source{Origin: "music/query", Build: func() command.Config {
		return command.Config{
			Kind:     command.Autocomplete,
			Complete: completeQuery,
		}
	}})
}

// completeQuery offers what is being typed followed by the recent requests
// of the server that contain it.
func completeQuery(ctx *command.Context, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	typed, _ := focused.Value.(string)
	typed = strings.TrimSpace(typed)
	needle := strings.ToLower(typed)

	var choices []*discordgo.ApplicationCommandOptionChoice
	seen := make(map[string]bool)
	add := func(q string) {
		if len(q) > choiceMax || seen[q] {
			return
		}
		seen[q] = true
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: q, Value: q})
	}
	if typed != "" {
		add(typed)
	}

	if ctx.Env.Settings == nil {
		return choices, nil
	}
	recent, err := ctx.Env.Settings.RecentQueries(ctx.Actor.GuildID)
	if err != nil {
		return choices, err
	}
	for _, q := range recent {
		if strings.Contains(strings.ToLower(q), needle) {
			add(q)
		}
	}
	return choices, nil
}
