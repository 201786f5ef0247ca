package music

import (
	"strings"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	player "server-tempo/internal/music"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const audioMPEG = "audio/mpeg"

func init() {
	commands.Register(command.Source{Origin: "music/play", Build: func() command.Config {
		return command.Config{
			Kind:             command.ChatInput,
			Description:      "Play a song. Query suggestions are recent requests in this server",
			Global:           true,
			AgentPermissions: []string{"Connect", "Speak"},
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "query",
					Description:  "The music to search/query",
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "file",
					Description: "The audio file to play",
				},
			},
			Run: runPlay,
		}
	}})
}

func runPlay(ctx *command.Context) error {
	query := strings.TrimSpace(ctx.StringOpt("query", ""))
	fromFile := false
	if att := attachment(ctx, "file"); att != nil {
		if !strings.HasPrefix(att.ContentType, audioMPEG) {
			return commands.Fail(ctx, "the attached file isn't an MP3 audio file%s", commands.Cancelled)
		}
		query, fromFile = att.URL, true
	}
	if query == "" {
		return commands.Fail(ctx, "please provide a query or an audio file%s", commands.Cancelled)
	}

	s, err := open(ctx, needVoice)
	if s == nil {
		return err
	}
	if err := ctx.Defer(false); err != nil {
		return err
	}

	track := player.TrackFromQuery(query, ctx.Actor.UserID)
	p := ctx.Env.Music.Player(ctx.Actor.GuildID)
	if _, err := p.Enqueue(s.Voice, track); err != nil {
		log.Warn().Err(err).Str("guild", ctx.Actor.GuildID).Str("query", query).Msg("Failed to enqueue track")
		return ctx.Edit(&command.Response{Content: commands.Line(ctx, commands.EmojiError, "something went wrong:\n\n%v", err)})
	}

	if !fromFile {
		if err := ctx.Env.Settings.RememberQuery(ctx.Actor.GuildID, query); err != nil {
			log.Warn().Err(err).Str("guild", ctx.Actor.GuildID).Msg("Failed to remember query")
		}
	}
	return ctx.Edit(&command.Response{Content: commands.Line(ctx, commands.EmojiSuccess, "enqueued **`%s`**!", track.Title)})
}

// attachment resolves an attachment option.
func attachment(ctx *command.Context, name string) *discordgo.MessageAttachment {
	opt, ok := ctx.Options()[name]
	if !ok {
		return nil
	}
	id, _ := opt.Value.(string)
	data := ctx.Event.ApplicationCommandData()
	if data.Resolved == nil {
		return nil
	}
	return data.Resolved.Attachments[id]
}
