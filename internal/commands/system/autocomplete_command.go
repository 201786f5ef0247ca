package system

import (
	"sort"
	"strings"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"

	"github.com/bwmarrin/discordgo"
)

func init() {
	commands.Register(command.Source{Origin: "system/command", Build: func() command.Config {
		return command.Config{
			Kind:     command.Autocomplete,
			Complete: completeCommand,
		}
	}})
}

// completeCommand suggests commands the actor can use whose name or
// category contains the typed text.
func completeCommand(ctx *command.Context, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	query, _ := focused.Value.(string)
	query = strings.ToLower(strings.TrimSpace(query))

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, d := range usableCommands(ctx) {
		if query != "" && !strings.Contains(strings.ToLower(d.Name), query) && !strings.Contains(d.Category, query) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: d.Name, Value: d.Name})
	}
	sort.Slice(choices, func(i, j int) bool { return choices[i].Name < choices[j].Name })
	return choices, nil
}
