// Package contextmenu holds the user and message context actions.
package contextmenu

import (
	"fmt"
	"time"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/throttle"
	"server-tempo/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const dateLayout = "YYYY-MM-DD hh:mm"

func init() {
	commands.Register(command.Source{Origin: "context-menus/user-info", Build: func() command.Config {
		return command.Config{
			Kind:             command.UserContext,
			AgentPermissions: []string{"EmbedLinks"},
			Cooldown:         &throttle.Policy{Scope: throttle.ScopeUser, Usages: 1, Window: 5 * time.Second},
			Run:              runUserInfo,
		}
	}})
}

func runUserInfo(ctx *command.Context) error {
	data := ctx.Event.ApplicationCommandData()
	var (
		user   *discordgo.User
		member *discordgo.Member
	)
	if data.Resolved != nil {
		user = data.Resolved.Users[data.TargetID]
		member = data.Resolved.Members[data.TargetID]
	}
	if user == nil {
		return commands.Fail(ctx, "I couldn't resolve that user%s", commands.Cancelled)
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "ID", Value: "`" + user.ID + "`", Inline: true},
		{Name: "Bot", Value: yesNo(user.Bot), Inline: true},
	}
	if created, err := discordgo.SnowflakeTimestamp(user.ID); err == nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Account created", Value: util.FormatDate(created.UTC(), dateLayout), Inline: true})
	}
	if member != nil {
		if member.Nick != "" {
			fields = append(fields, &discordgo.MessageEmbedField{Name: "Nickname", Value: member.Nick, Inline: true})
		}
		if !member.JoinedAt.IsZero() {
			fields = append(fields, &discordgo.MessageEmbedField{Name: "Joined server", Value: util.FormatDate(member.JoinedAt.UTC(), dateLayout), Inline: true})
		}
		if member.PremiumSince != nil {
			fields = append(fields, &discordgo.MessageEmbedField{Name: "Boosting since", Value: util.FormatDate(member.PremiumSince.UTC(), dateLayout), Inline: true})
		}
		roles := "None"
		if len(member.Roles) > 0 {
			roles = commands.Truncate(commands.Mentions("<@&", member.Roles), 1024)
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: fmt.Sprintf("Roles (%d)", len(member.Roles)), Value: roles})
	}

	return ctx.Embed(&discordgo.MessageEmbed{
		Author:    &discordgo.MessageEmbedAuthor{Name: user.String(), IconURL: user.AvatarURL("")},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("256")},
		Fields:    fields,
		Footer:    &discordgo.MessageEmbedFooter{Text: "Requested by " + ctx.Member().User.Username},
	})
}

func yesNo(b bool) string {
	if b {
		return commands.EmojiSuccess + " Yes"
	}
	return commands.EmojiError + " No"
}
