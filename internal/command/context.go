package command

import (
	"context"
	"fmt"

	"server-tempo/internal/audit"
	"server-tempo/internal/music"
	"server-tempo/internal/permission"
	"server-tempo/internal/storage"

	"github.com/bwmarrin/discordgo"
)

// Response is a reply payload.
type Response struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Ephemeral  bool
}

// Responder is how handlers talk back to the interaction.
type Responder interface {
	Reply(r *Response) error
	Defer(ephemeral bool) error
	Edit(r *Response) error
	Update(r *Response) error
	Followup(r *Response) error
	Autocomplete(choices []*discordgo.ApplicationCommandOptionChoice) error
	Pong() error
}

// SettingsStore persists guild settings.
type SettingsStore interface {
	Settings(guildID string) (*storage.Settings, error)
	SaveSettings(s *storage.Settings) error
	RememberQuery(guildID, query string) error
	RecentQueries(guildID string) ([]string, error)
}

// Voice answers voice state questions from the gateway cache.
type Voice interface {
	UserVoiceChannel(guildID, userID string) (string, error)
	VoiceListeners(guildID, channelID string) int
}

// Deployer pushes command definitions to Discord.
type Deployer interface {
	RefreshCommands(guildID, target string)
}

// AuditLog reads back recorded executions.
type AuditLog interface {
	Recent(ctx context.Context, guildID string, limit int) ([]audit.Entry, error)
}

// Cooldowns drops the throttle windows of a command.
type Cooldowns interface {
	Forget(command string)
}

// Env holds the collaborators handlers may use.
type Env struct {
	Registry  *Registry
	Settings  SettingsStore
	Music     music.Engine
	Votes     *music.VoteSkip
	Voice     Voice
	Deployer  Deployer
	Audit     AuditLog
	Cooldowns Cooldowns

	ClientID      string
	TestGuildID   string
	SupportInvite string
	EmbedColor    int
}

// Context is passed to every handler.
type Context struct {
	context.Context
	Responder

	Event      *discordgo.InteractionCreate
	Actor      *permission.Actor
	Descriptor *Descriptor
	// Identity is the raw identity the interaction carried, including any
	// dynamic payload.
	Identity string
	// Payload holds the segments after the identity of a dynamic component id.
	Payload []string
	Trace   string
	Env     *Env
}

// Member is the invoking guild member.
func (c *Context) Member() *discordgo.Member { return c.Event.Member }

// Mention formats the invoking user as a mention.
func (c *Context) Mention() string { return "<@" + c.Actor.UserID + ">" }

// Say replies publicly with plain content.
func (c *Context) Say(format string, args ...any) error {
	return c.Reply(&Response{Content: fmt.Sprintf(format, args...)})
}

// Whisper replies ephemerally with plain content.
func (c *Context) Whisper(format string, args ...any) error {
	return c.Reply(&Response{Content: fmt.Sprintf(format, args...), Ephemeral: true})
}

// Embed replies publicly with one embed.
func (c *Context) Embed(e *discordgo.MessageEmbed) error {
	if e.Color == 0 && c.Env != nil {
		e.Color = c.Env.EmbedColor
	}
	return c.Reply(&Response{Embeds: []*discordgo.MessageEmbed{e}})
}

// Options returns the chat input options, flattening one subcommand level.
func (c *Context) Options() map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	if c.Event == nil || c.Event.Type != discordgo.InteractionApplicationCommand {
		return out
	}
	opts := c.Event.ApplicationCommandData().Options
	if len(opts) == 1 && (opts[0].Type == discordgo.ApplicationCommandOptionSubCommand ||
		opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		opts = opts[0].Options
	}
	for _, o := range opts {
		out[o.Name] = o
	}
	return out
}

// Subcommand returns the invoked subcommand name, if any.
func (c *Context) Subcommand() string {
	if c.Event == nil || c.Event.Type != discordgo.InteractionApplicationCommand {
		return ""
	}
	opts := c.Event.ApplicationCommandData().Options
	if len(opts) > 0 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return opts[0].Name
	}
	return ""
}

// StringOpt returns a string option or def.
func (c *Context) StringOpt(name, def string) string {
	if o, ok := c.Options()[name]; ok {
		if s, ok := o.Value.(string); ok {
			return s
		}
	}
	return def
}

// IntOpt returns an integer option or def.
func (c *Context) IntOpt(name string, def int) int {
	if o, ok := c.Options()[name]; ok {
		if f, ok := o.Value.(float64); ok {
			return int(f)
		}
	}
	return def
}

// BoolOpt returns a boolean option or def.
func (c *Context) BoolOpt(name string, def bool) bool {
	if o, ok := c.Options()[name]; ok {
		if b, ok := o.Value.(bool); ok {
			return b
		}
	}
	return def
}

// Values returns the selected values of a select menu interaction.
func (c *Context) Values() []string {
	if c.Event == nil || c.Event.Type != discordgo.InteractionMessageComponent {
		return nil
	}
	return c.Event.MessageComponentData().Values
}
