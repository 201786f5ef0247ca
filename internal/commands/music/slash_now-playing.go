package music

import (
	"fmt"
	"strings"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	player "server-tempo/internal/music"

	"github.com/bwmarrin/discordgo"
)

const (
	// SkipButtonID skips the track shown in a now playing message.
	SkipButtonID = "np-skip"
	// RequeueButtonID prefixes the dynamic id that enqueues a track again.
	RequeueButtonID = "np-requeue"

	customIDMax = 100
)

func init() {
	commands.Register(
		command.Source{Origin: "music/now-playing", Build: func() command.Config {
			return command.Config{
				Kind:             command.ChatInput,
				Description:      "Display detailed information on the song that is currently playing",
				Aliases:          []string{"np"},
				Global:           true,
				AgentPermissions: []string{"EmbedLinks"},
				Run:              runNowPlaying,
			}
		}},
		command.Source{Origin: "music-dj/" + SkipButtonID, Build: func() command.Config {
			return command.Config{Kind: command.Button, Run: runSkipButton}
		}},
		command.Source{Origin: "music/" + RequeueButtonID, Build: func() command.Config {
			return command.Config{Kind: command.Button, Shared: true, Run: runRequeueButton}
		}},
	)
}

func runNowPlaying(ctx *command.Context) error {
	s, err := open(ctx, needPlayer)
	if s == nil {
		return err
	}
	snap := s.Player.Snapshot()
	t := snap.Current

	fields := []*discordgo.MessageEmbedField{
		{Name: "Duration", Value: "`" + t.Length() + "`", Inline: true},
		{Name: "Requested by", Value: "<@" + t.RequestedBy + ">", Inline: true},
		{Name: "Volume", Value: fmt.Sprintf("`%d%%`", snap.Volume), Inline: true},
		{Name: "Repeat", Value: "`" + snap.Repeat.String() + "`", Inline: true},
	}
	if t.Author != "" {
		fields = append([]*discordgo.MessageEmbedField{{Name: "Author", Value: t.Author, Inline: true}}, fields...)
	}
	if len(snap.Upcoming) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Up next", Value: snap.Upcoming[0].Markdown()})
	}

	status := player.StatusPlaying
	if snap.Paused {
		status = player.StatusPaused
	}
	embed := &discordgo.MessageEmbed{
		Title:       status.StringEmoji() + " " + string(status),
		Description: t.Markdown(),
		Color:       ctx.Env.EmbedColor,
		Fields:      fields,
	}
	return ctx.Reply(&command.Response{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: nowPlayingButtons(*t),
	})
}

// nowPlayingButtons offers a skip and, when the link fits in a custom id,
// a requeue button.
func nowPlayingButtons(t player.Track) []discordgo.MessageComponent {
	buttons := []discordgo.MessageComponent{
		discordgo.Button{Label: "Skip", Style: discordgo.DangerButton, CustomID: SkipButtonID},
	}
	if t.URL != "" {
		if id := command.DynamicID(RequeueButtonID, t.URL); len(id) <= customIDMax {
			buttons = append(buttons, discordgo.Button{Label: "Requeue", Style: discordgo.SecondaryButton, CustomID: id})
		}
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func runSkipButton(ctx *command.Context) error {
	s, err := open(ctx, needPlayer|needDJ)
	if s == nil {
		return err
	}
	skipped, err := s.Player.Skip()
	if err != nil {
		return commands.Fail(ctx, "something went wrong:\n\n%v", err)
	}
	resetVotes(ctx)
	return commands.Succeed(ctx, "skipped **`%s`**", skipped.Title)
}

func runRequeueButton(ctx *command.Context) error {
	// links may themselves contain the dynamic marker
	url := strings.Join(ctx.Payload, command.DynamicMarker)
	if !player.IsURL(url) {
		return commands.Fail(ctx, "this button doesn't point to a song anymore")
	}
	s, err := open(ctx, needVoice)
	if s == nil {
		return err
	}
	track := player.TrackFromQuery(url, ctx.Actor.UserID)
	if _, err := ctx.Env.Music.Player(ctx.Actor.GuildID).Enqueue(s.Voice, track); err != nil {
		return commands.Fail(ctx, "something went wrong:\n\n%v", err)
	}
	return commands.Succeed(ctx, "enqueued **`%s`**!", track.Title)
}
