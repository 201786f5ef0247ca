package contextmenu

import (
	"encoding/json"
	"fmt"
	"time"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/throttle"

	"github.com/bwmarrin/discordgo"
)

const (
	maxEmbeds        = 10
	embedDescription = 4096
)

func init() {
	commands.Register(command.Source{Origin: "context-menus/print-embed", Build: func() command.Config {
		return command.Config{
			Kind:             command.MessageContext,
			AgentPermissions: []string{"EmbedLinks"},
			Cooldown:         &throttle.Policy{Scope: throttle.ScopeGuild, Usages: 2, Window: 30 * time.Second},
			Run:              runPrintEmbed,
		}
	}})
}

// runPrintEmbed prints the raw data of the embeds attached to a message.
func runPrintEmbed(ctx *command.Context) error {
	data := ctx.Event.ApplicationCommandData()
	var msg *discordgo.Message
	if data.Resolved != nil {
		msg = data.Resolved.Messages[data.TargetID]
	}
	if msg == nil || len(msg.Embeds) == 0 {
		return commands.Fail(ctx, "I can't find any embeds attached to this message%s", commands.Cancelled)
	}

	out := make([]*discordgo.MessageEmbed, 0, min(len(msg.Embeds), maxEmbeds))
	for i, e := range msg.Embeds {
		if i == maxEmbeds {
			break
		}
		raw, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal embed %d: %w", i, err)
		}
		// room for the code fence
		body := commands.Truncate(string(raw), embedDescription-12)
		out = append(out, &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("Embed %d", i+1),
			Color:       ctx.Env.EmbedColor,
			Description: "```json\n" + body + "\n```",
		})
	}
	return ctx.Reply(&command.Response{Embeds: out, Ephemeral: true})
}
