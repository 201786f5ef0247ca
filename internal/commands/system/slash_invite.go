package system

import (
	"net/url"
	"strconv"
	"time"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/permission"
	"server-tempo/internal/throttle"

	"github.com/bwmarrin/discordgo"
)

// basePermissions are requested on top of what commands declare.
var basePermissions = []string{"ViewChannel", "SendMessages", "Connect", "Speak"}

func init() {
	commands.Register(command.Source{Origin: "system/invite", Build: func() command.Config {
		return command.Config{
			Kind:             command.ChatInput,
			Description:      "Add the bot to your server",
			Global:           true,
			AgentPermissions: []string{"EmbedLinks"},
			Cooldown:         &throttle.Policy{Scope: throttle.ScopeGuild, Usages: 3, Window: 10 * time.Second},
			Run:              runInvite,
		}
	}})
}

func runInvite(ctx *command.Context) error {
	link, ok := InviteLink(ctx.Env)
	if !ok {
		return commands.Fail(ctx, "my application id isn't configured, please try again later")
	}
	return ctx.Embed(&discordgo.MessageEmbed{Description: "[Add me to your server](" + link + ")"})
}

// InviteLink builds the OAuth2 link asking for every permission the loaded
// commands need.
func InviteLink(env *command.Env) (string, bool) {
	if env.ClientID == "" {
		return "", false
	}
	tokens := append([]string(nil), basePermissions...)
	for _, d := range env.Registry.Commands() {
		tokens = append(tokens, d.AgentPermissions...)
	}
	q := url.Values{}
	q.Set("client_id", env.ClientID)
	q.Set("permissions", strconv.FormatInt(permission.Bits(tokens), 10))
	q.Set("scope", "bot applications.commands")
	return "https://discord.com/oauth2/authorize?" + q.Encode(), true
}
