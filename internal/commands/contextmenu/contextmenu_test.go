package contextmenu

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"server-tempo/internal/commands"
	"server-tempo/internal/commands/commandtest"

	"github.com/bwmarrin/discordgo"
	qt "github.com/frankban/quicktest"
)

// target was created in 2015 according to its snowflake.
const target = "80351110224678912"

func fields(e *discordgo.MessageEmbed) map[string]string {
	out := make(map[string]string)
	for _, f := range e.Fields {
		out[f.Name] = f.Value
	}
	return out
}

func TestUserInfo(t *testing.T) {
	c := qt.New(t)
	h := commandtest.New(t, commands.All()...)

	resolved := &discordgo.ApplicationCommandInteractionDataResolved{
		Users: map[string]*discordgo.User{target: {ID: target, Username: "nelly", Discriminator: "0"}},
		Members: map[string]*discordgo.Member{target: {
			Nick:     "Nel",
			Roles:    []string{"r1", "r2"},
			JoinedAt: time.Date(2021, 6, 2, 8, 30, 0, 0, time.UTC),
		}},
	}
	resp := h.Action(commandtest.User, discordgo.UserApplicationCommand, "user-info", target, resolved).Last()
	c.Assert(resp.Embeds, qt.HasLen, 1)
	embed := resp.Embeds[0]
	c.Assert(embed.Author.Name, qt.Equals, "nelly")
	c.Assert(embed.Color, qt.Equals, h.Env.EmbedColor)

	got := fields(embed)
	c.Assert(got["ID"], qt.Equals, "`"+target+"`")
	c.Assert(got["Bot"], qt.Equals, "❌ No")
	c.Assert(got["Nickname"], qt.Equals, "Nel")
	c.Assert(got["Joined server"], qt.Equals, "2021-06-02 08:30")
	c.Assert(got["Account created"], qt.Matches, `2015-.*`)
	c.Assert(got["Roles (2)"], qt.Equals, "<@&r1>, <@&r2>")
}

func TestUserInfoUnresolved(t *testing.T) {
	c := qt.New(t)
	h := commandtest.New(t, commands.All()...)

	resp := h.Action(commandtest.User, discordgo.UserApplicationCommand, "user-info", target, nil).Last()
	c.Assert(resp.Content, qt.Equals, "❌ <@user>, I couldn't resolve that user - this command has been cancelled")
}

func TestPrintEmbed(t *testing.T) {
	c := qt.New(t)
	h := commandtest.New(t, commands.All()...)

	resolved := &discordgo.ApplicationCommandInteractionDataResolved{
		Messages: map[string]*discordgo.Message{
			"plain": {ID: "plain", Content: "no embeds here"},
			"rich":  {ID: "rich", Embeds: []*discordgo.MessageEmbed{{Title: "Hello", Description: "World"}}},
		},
	}

	resp := h.Action(commandtest.User, discordgo.MessageApplicationCommand, "print-embed", "plain", resolved).Last()
	c.Assert(resp.Content, qt.Equals, "❌ <@user>, I can't find any embeds attached to this message - this command has been cancelled")

	resp = h.Action(commandtest.User, discordgo.MessageApplicationCommand, "print-embed", "rich", resolved).Last()
	c.Assert(resp.Ephemeral, qt.IsTrue)
	c.Assert(resp.Embeds, qt.HasLen, 1)

	desc := resp.Embeds[0].Description
	c.Assert(strings.HasPrefix(desc, "```json\n"), qt.IsTrue)
	c.Assert(strings.HasSuffix(desc, "\n```"), qt.IsTrue)

	var printed discordgo.MessageEmbed
	err := json.Unmarshal([]byte(strings.TrimSuffix(strings.TrimPrefix(desc, "```json\n"), "\n```")), &printed)
	c.Assert(err, qt.IsNil)
	c.Assert(printed.Title, qt.Equals, "Hello")
	c.Assert(printed.Description, qt.Equals, "World")
}
