package command

import (
	"errors"
	"testing"
	"time"

	"server-tempo/internal/throttle"

	"github.com/bwmarrin/discordgo"
	qt "github.com/frankban/quicktest"
)

func TestNewValidates(t *testing.T) {
	c := qt.New(t)
	m := testModel(t)

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"unknown kind", Config{Name: "x", Run: noop}, `command "x": unknown kind 0`},
		{"upper case name", Config{Kind: ChatInput, Name: "Ping", Description: "d", Run: noop}, `command "Ping": name must be 1-32 lowercase characters`},
		{"no description", Config{Kind: ChatInput, Name: "ping", Run: noop}, `command "ping": description must be 1-100 characters`},
		{"missing callback", Config{Kind: ChatInput, Name: "ping", Description: "d"}, `command "ping": missing callback`},
		{"unknown level", Config{Kind: ChatInput, Name: "ping", Description: "d", Level: "Janitor", Run: noop}, `command "ping": unknown permission level "Janitor"`},
		{"bad caller token", Config{Kind: ChatInput, Name: "ping", Description: "d", CallerPermissions: []string{"Yell"}, Run: noop}, `command "ping": caller permissions: unknown permission "Yell"`},
		{"bad agent token", Config{Kind: Button, Name: "btn", AgentPermissions: []string{"Fly"}, Run: noop}, `command "btn": agent permissions: unknown permission "Fly"`},
		{"zero usages", Config{Kind: ChatInput, Name: "ping", Description: "d", Cooldown: &throttle.Policy{Window: time.Second}, Run: noop}, `command "ping": cooldown usages must be at least 1`},
		{"bad scope", Config{Kind: ChatInput, Name: "ping", Description: "d", Cooldown: &throttle.Policy{Scope: "moon", Usages: 1, Window: time.Second}, Run: noop}, `command "ping": unknown cooldown scope "moon"`},
		{"self alias", Config{Kind: ChatInput, Name: "ping", Description: "d", Aliases: []string{"ping"}, Run: noop}, `command "ping": invalid alias "ping"`},
		{"context options", Config{Kind: UserContext, Name: "info", Options: []*discordgo.ApplicationCommandOption{{Name: "x"}}, Run: noop}, `command "info": context actions take no options`},
		{"dynamic component id", Config{Kind: Button, Name: "@play", Run: noop}, `command "@play": component id must be non-empty and free of @`},
		{"autocomplete without completer", Config{Kind: Autocomplete, Name: "query"}, `command "query": autocomplete provider has no completer`},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			d, err := New(tt.cfg, m)
			c.Assert(d, qt.IsNil)
			c.Assert(err, qt.ErrorMatches, tt.want)
			var cfgErr *ConfigurationError
			c.Assert(errors.As(err, &cfgErr), qt.IsTrue)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	c := qt.New(t)
	m := testModel(t)

	d, err := New(Config{Kind: ChatInput, Name: "ping", Description: "pong", Run: noop}, m)
	c.Assert(err, qt.IsNil)
	c.Assert(d.Level, qt.Equals, 0)
	c.Assert(d.Enabled, qt.IsTrue)
	c.Assert(d.Cooldown, qt.Equals, DefaultCooldown)
	c.Assert(d.InvokerOnly, qt.IsFalse)

	btn, err := New(Config{Kind: Button, Name: "np-skip", Run: noop}, m)
	c.Assert(err, qt.IsNil)
	c.Assert(btn.InvokerOnly, qt.IsTrue)

	shared, err := New(Config{Kind: SelectMenu, Name: "help", Shared: true, Cooldown: NoCooldown, Run: noop}, m)
	c.Assert(err, qt.IsNil)
	c.Assert(shared.InvokerOnly, qt.IsFalse)
	c.Assert(shared.Cooldown.Active(), qt.IsFalse)

	ac, err := New(Config{Kind: Autocomplete, Name: "query", Complete: func(*Context, *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
		return nil, nil
	}}, m)
	c.Assert(err, qt.IsNil)
	c.Assert(ac.Kind.Namespace(), qt.Equals, Autocompletes)
	c.Assert(ac.Cooldown.Active(), qt.IsFalse)
}

func TestDefinition(t *testing.T) {
	c := qt.New(t)
	r := NewRegistry(testModel(t))

	_, err := r.Load(skipSource())
	c.Assert(err, qt.IsNil)

	skip, _ := r.Resolve("skip")
	def := skip.Definition()
	c.Assert(def.Name, qt.Equals, "skip")
	c.Assert(def.Type, qt.Equals, discordgo.ChatApplicationCommand)
	c.Assert(*def.DMPermission, qt.IsFalse)
	c.Assert(def.NSFW, qt.IsNil)

	next, _ := r.Resolve("next")
	c.Assert(next.Definition().Description, qt.Equals, "Skip the currently playing song (alias for /skip)")

	info, err := New(Config{Kind: MessageContext, Name: "Print Embed", NSFW: true, Run: noop}, r.Permissions())
	c.Assert(err, qt.IsNil)
	def = info.Definition()
	c.Assert(def.Type, qt.Equals, discordgo.MessageApplicationCommand)
	c.Assert(def.Description, qt.Equals, "")
	c.Assert(*def.NSFW, qt.IsTrue)

	btn, err := New(Config{Kind: Button, Name: "np-skip", Run: noop}, r.Permissions())
	c.Assert(err, qt.IsNil)
	c.Assert(btn.Definition(), qt.IsNil)
}

func TestParseComponentID(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		in       string
		identity string
		payload  []string
	}{
		{"np-skip", "np-skip", nil},
		{"@play-button@123@https://example.com/a", "play-button", []string{"123", "https://example.com/a"}},
		{"@play-button", "play-button", nil},
		{"@play-button@", "play-button", nil},
	}
	for _, tt := range tests {
		identity, payload := ParseComponentID(tt.in)
		c.Assert(identity, qt.Equals, tt.identity, qt.Commentf("id %s", tt.in))
		c.Assert(payload, qt.DeepEquals, tt.payload, qt.Commentf("id %s", tt.in))
	}

	c.Assert(DynamicID("np-requeue", "u1", "url"), qt.Equals, "@np-requeue@u1@url")
}
