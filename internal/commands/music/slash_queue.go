package music

import (
	"fmt"
	"strings"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"

	"github.com/bwmarrin/discordgo"
)

const queuePageSize = 10

func init() {
	commands.Register(command.Source{Origin: "music/queue", Build: func() command.Config {
		minPage := 1.0
		return command.Config{
			Kind:             command.ChatInput,
			Description:      "Display the current queue",
			Global:           true,
			AgentPermissions: []string{"EmbedLinks"},
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "page",
				Description: "The page of the queue to display",
				MinValue:    &minPage,
			}},
			Run: runQueue,
		}
	}})
}

func runQueue(ctx *command.Context) error {
	s, err := open(ctx, needPlayer)
	if s == nil {
		return err
	}
	snap := s.Player.Snapshot()

	pages := max(1, (len(snap.Upcoming)+queuePageSize-1)/queuePageSize)
	page := min(max(ctx.IntOpt("page", 1), 1), pages)
	start := (page - 1) * queuePageSize
	end := min(start+queuePageSize, len(snap.Upcoming))

	var b strings.Builder
	if snap.Current != nil {
		status := "Now playing"
		if snap.Paused {
			status = "Paused"
		}
		fmt.Fprintf(&b, "**%s:** %s `%s`\n\n", status, snap.Current.Markdown(), snap.Current.Length())
	}
	if len(snap.Upcoming) == 0 {
		b.WriteString("The queue is empty")
	}
	for i, t := range snap.Upcoming[start:end] {
		fmt.Fprintf(&b, "**%d.** %s `%s` %s <@%s>\n", start+i+1, t.Markdown(), t.Length(), commands.EmojiSeparator, t.RequestedBy)
	}

	return ctx.Embed(&discordgo.MessageEmbed{
		Title:       "Queue",
		Description: commands.Truncate(b.String(), 4096),
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d of %d %s %d songs %s Volume %d%% %s Repeat %s",
			page, pages, commands.EmojiSeparator, len(snap.Upcoming), commands.EmojiSeparator, snap.Volume, commands.EmojiSeparator, snap.Repeat)},
	})
}
