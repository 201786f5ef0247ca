package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"server-tempo/internal/audit"
	"server-tempo/internal/command"
	"server-tempo/internal/permission"
	"server-tempo/internal/throttle"

	"github.com/bwmarrin/discordgo"
	qt "github.com/frankban/quicktest"
	"github.com/pajbot/testhelper"
)

type fakeResponder struct {
	mu      sync.Mutex
	replies []*command.Response
	choices []*discordgo.ApplicationCommandOptionChoice
	ponged  bool
}

func (r *fakeResponder) Reply(resp *command.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, resp)
	return nil
}
func (r *fakeResponder) Defer(bool) error                { return nil }
func (r *fakeResponder) Edit(*command.Response) error     { return nil }
func (r *fakeResponder) Update(*command.Response) error   { return nil }
func (r *fakeResponder) Followup(*command.Response) error { return nil }
func (r *fakeResponder) Autocomplete(choices []*discordgo.ApplicationCommandOptionChoice) error {
	r.choices = choices
	return nil
}
func (r *fakeResponder) Pong() error {
	r.ponged = true
	return nil
}

func (r *fakeResponder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return ""
	}
	return r.replies[len(r.replies)-1].Content
}

type fakePlatform struct {
	unavailable bool
	nsfw        bool
}

func (p *fakePlatform) Guild(id string) (*discordgo.Guild, error) {
	if id == "gone" {
		return nil, errors.New("unknown guild")
	}
	return &discordgo.Guild{ID: id, OwnerID: "gowner", Unavailable: p.unavailable}, nil
}

func (p *fakePlatform) Channel(id string) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: id, NSFW: p.nsfw}, nil
}

type fakeMetrics struct {
	outcomes []string
	failed   []string
}

func (m *fakeMetrics) Observe(kind, outcome, reason string, _ time.Duration) {
	m.outcomes = append(m.outcomes, kind+"/"+outcome+"/"+reason)
}
func (m *fakeMetrics) CallbackFailed(cmd string) { m.failed = append(m.failed, cmd) }

type fakeRecorder struct{ entries []audit.Entry }

func (r *fakeRecorder) Record(_ context.Context, e audit.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

type harness struct {
	reg      *command.Registry
	d        *Dispatcher
	metrics  *fakeMetrics
	recorder *fakeRecorder
	platform *fakePlatform
	ran      []string
}

func newHarness(c *qt.C, configure ...func(*Options)) *harness {
	m, err := permission.New(permission.DefaultTiers("owner", []string{"dev"})...)
	c.Assert(err, qt.IsNil)

	h := &harness{
		reg:      command.NewRegistry(m),
		metrics:  &fakeMetrics{},
		recorder: &fakeRecorder{},
		platform: &fakePlatform{},
	}
	store := throttle.New()
	c.Cleanup(store.Close)

	opts := Options{
		Registry: h.reg,
		Throttle: store,
		Platform: h.platform,
		Metrics:  h.metrics,
		Recorder: h.recorder,
		Launch:   func(f func()) { f() },
	}
	for _, fn := range configure {
		fn(&opts)
	}
	h.d, err = New(opts)
	c.Assert(err, qt.IsNil)
	return h
}

func (h *harness) add(c *qt.C, cfg command.Config) *command.Descriptor {
	if cfg.Run == nil {
		name := cfg.Name
		cfg.Run = func(*command.Context) error {
			h.ran = append(h.ran, name)
			return nil
		}
	}
	if cfg.Kind == command.ChatInput && cfg.Description == "" {
		cfg.Description = cfg.Name
	}
	d, err := command.New(cfg, h.reg.Permissions())
	c.Assert(err, qt.IsNil)
	h.reg.Register(d)
	return d
}

func member(userID string, perms int64) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: userID}, Permissions: perms}
}

func chat(name, userID string, perms int64) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:           discordgo.InteractionApplicationCommand,
		GuildID:        "g1",
		ChannelID:      "c1",
		Member:         member(userID, perms),
		AppPermissions: discordgo.PermissionAdministrator,
		Data:           discordgo.ApplicationCommandInteractionData{Name: name, CommandType: discordgo.ChatApplicationCommand},
	}}
}

func button(customID, userID, spawnedBy string) *discordgo.InteractionCreate {
	ev := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:           discordgo.InteractionMessageComponent,
		GuildID:        "g1",
		ChannelID:      "c1",
		Member:         member(userID, 0),
		AppPermissions: discordgo.PermissionAdministrator,
		Data:           discordgo.MessageComponentInteractionData{CustomID: customID, ComponentType: discordgo.ButtonComponent},
		Message:        &discordgo.Message{ID: "m1"},
	}}
	if spawnedBy != "" {
		ev.Message.Interaction = &discordgo.MessageInteraction{User: &discordgo.User{ID: spawnedBy}}
	}
	return ev
}

func TestDisabledBeatsPermissionLevel(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{Kind: command.ChatInput, Name: "danger", Disabled: true})

	resp := &fakeResponder{}
	res := h.d.Dispatch(context.Background(), chat("danger", "owner", 0), resp)

	c.Assert(res.Outcome, qt.Equals, Rejected)
	c.Assert(res.Reason, qt.Equals, ReasonDisabled)
	c.Assert(h.ran, qt.HasLen, 0)
	c.Assert(resp.last(), qt.Contains, "currently disabled")
	c.Assert(resp.replies[0].Ephemeral, qt.IsTrue)
}

func TestUnknownIdentityIsRejected(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)

	resp := &fakeResponder{}
	res := h.d.Dispatch(context.Background(), chat("ghost", "u1", 0), resp)

	c.Assert(res.Outcome, qt.Equals, Rejected)
	c.Assert(res.Reason, qt.Equals, ReasonUnknown)
	c.Assert(res.Identity, qt.Equals, "ghost")
	c.Assert(resp.last(), qt.Contains, "isn't available")
	c.Assert(h.recorder.entries, qt.HasLen, 0)
}

func TestGateOrder(t *testing.T) {
	c := qt.New(t)
	var admin int64 = discordgo.PermissionAdministrator

	tests := []struct {
		name   string
		cfg    command.Config
		perms  int64
		app    int64
		nsfw   bool
		reason string
		reply  string
	}{{
		name:   "level before permissions",
		cfg:    command.Config{Level: permission.TierDeveloper, AgentPermissions: []string{"Connect"}},
		app:    0,
		reason: ReasonLevel,
		reply:  "required permission level",
	}, {
		name:   "agent before caller",
		cfg:    command.Config{AgentPermissions: []string{"Connect", "Speak"}, CallerPermissions: []string{"ManageMessages"}},
		app:    discordgo.PermissionSendMessages,
		reason: ReasonAgentPermissions,
		reply:  "I lack the following permissions",
	}, {
		name:   "caller before nsfw",
		cfg:    command.Config{CallerPermissions: []string{"ManageMessages"}, NSFW: true},
		app:    admin,
		reason: ReasonCallerPermissions,
		reply:  "you lack the following permissions",
	}, {
		name:   "nsfw",
		cfg:    command.Config{NSFW: true},
		app:    admin,
		reason: ReasonNSFW,
		reply:  "**NSFW**",
	}, {
		name:   "nsfw channel",
		cfg:    command.Config{NSFW: true},
		app:    admin,
		nsfw:   true,
		reason: ReasonNone,
	}, {
		name:   "admin satisfies caller permissions",
		cfg:    command.Config{Level: permission.TierAdministrator, CallerPermissions: []string{"ManageMessages"}},
		perms:  admin,
		app:    admin,
		reason: ReasonNone,
	}}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			h := newHarness(c)
			h.platform.nsfw = tt.nsfw
			cfg := tt.cfg
			cfg.Kind = command.ChatInput
			cfg.Name = "cmd"
			h.add(c, cfg)

			ev := chat("cmd", "u1", tt.perms)
			ev.AppPermissions = tt.app
			resp := &fakeResponder{}
			res := h.d.Dispatch(context.Background(), ev, resp)

			c.Assert(res.Reason, qt.Equals, tt.reason)
			if tt.reason == ReasonNone {
				c.Assert(res.Outcome, qt.Equals, Executed)
				c.Assert(h.ran, qt.DeepEquals, []string{"cmd"})
				return
			}
			c.Assert(res.Outcome, qt.Equals, Rejected)
			c.Assert(resp.last(), qt.Contains, tt.reply)
			c.Assert(h.ran, qt.HasLen, 0)
		})
	}
}

func TestMissingPermissionsAreNamed(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{Kind: command.ChatInput, Name: "play", AgentPermissions: []string{"Connect", "Speak", "SendMessages"}})

	ev := chat("play", "u1", 0)
	ev.AppPermissions = discordgo.PermissionSendMessages
	resp := &fakeResponder{}
	h.d.Dispatch(context.Background(), ev, resp)

	c.Assert(resp.last(), qt.Contains, permission.DisplayNames([]string{"Connect", "Speak"}))
	c.Assert(resp.last(), qt.Contains, "<#c1>")
}

func TestUnconfiguredLevelIsRejected(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	d := h.add(c, command.Config{Kind: command.ChatInput, Name: "odd"})
	d.Level = 42

	resp := &fakeResponder{}
	res := h.d.Dispatch(context.Background(), chat("odd", "owner", 0), resp)
	c.Assert(res.Reason, qt.Equals, ReasonMisconfigured)
	c.Assert(resp.last(), qt.Contains, "something went wrong")
}

func TestThrottle(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{
		Kind:     command.ChatInput,
		Name:     "ping",
		Cooldown: &throttle.Policy{Scope: throttle.ScopeMember, Usages: 1, Window: time.Minute},
	})
	ctx := context.Background()

	res := h.d.Dispatch(ctx, chat("ping", "u1", 0), &fakeResponder{})
	c.Assert(res.Outcome, qt.Equals, Executed)

	resp := &fakeResponder{}
	res = h.d.Dispatch(ctx, chat("ping", "u1", 0), resp)
	c.Assert(res.Outcome, qt.Equals, Rejected)
	c.Assert(res.Reason, qt.Equals, ReasonThrottled)
	c.Assert(res.RetryAfter > 0, qt.IsTrue)
	c.Assert(resp.last(), qt.Matches, "❌ <@u1>, you can use \\*\\*`/ping`\\*\\* again in [0-9.]+ seconds")

	// other members have their own window
	res = h.d.Dispatch(ctx, chat("ping", "u2", 0), &fakeResponder{})
	c.Assert(res.Outcome, qt.Equals, Executed)
}

func TestTopTierIsNeverThrottled(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{
		Kind:     command.ChatInput,
		Name:     "ping",
		Cooldown: &throttle.Policy{Scope: throttle.ScopeGlobal, Usages: 1, Window: time.Hour},
	})

	for i := 0; i < 5; i++ {
		res := h.d.Dispatch(context.Background(), chat("ping", "owner", 0), &fakeResponder{})
		c.Assert(res.Outcome, qt.Equals, Executed, qt.Commentf("call %d", i))
	}

	// developers sit below the top tier and are throttled by default
	h.d.Dispatch(context.Background(), chat("ping", "dev", 0), &fakeResponder{})
	res := h.d.Dispatch(context.Background(), chat("ping", "dev", 0), &fakeResponder{})
	c.Assert(res.Reason, qt.Equals, ReasonThrottled)
}

func TestBypassTier(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, func(o *Options) { o.BypassTier = permission.TierDeveloper })
	h.add(c, command.Config{
		Kind:     command.ChatInput,
		Name:     "ping",
		Cooldown: &throttle.Policy{Scope: throttle.ScopeGlobal, Usages: 1, Window: time.Hour},
	})

	for _, user := range []string{"dev", "dev", "owner", "owner"} {
		res := h.d.Dispatch(context.Background(), chat("ping", user, 0), &fakeResponder{})
		c.Assert(res.Outcome, qt.Equals, Executed, qt.Commentf("user %s", user))
	}

	_, err := New(Options{Registry: h.reg, BypassTier: "Janitor"})
	c.Assert(err, qt.ErrorMatches, `permission tiers: unknown throttle bypass tier "Janitor"`)
}

func TestAliasSharesThrottleAndAudit(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{
		Kind:     command.ChatInput,
		Name:     "skip",
		Aliases:  []string{"next"},
		Cooldown: &throttle.Policy{Scope: throttle.ScopeGuild, Usages: 1, Window: time.Minute},
	})

	res := h.d.Dispatch(context.Background(), chat("next", "u1", 0), &fakeResponder{})
	c.Assert(res.Outcome, qt.Equals, Executed)
	res = h.d.Dispatch(context.Background(), chat("skip", "u2", 0), &fakeResponder{})
	c.Assert(res.Reason, qt.Equals, ReasonThrottled)

	c.Assert(h.recorder.entries, qt.HasLen, 2)
	c.Assert(h.recorder.entries[0].Command, qt.Equals, "skip")
	c.Assert(h.recorder.entries[0].AliasOf, qt.Equals, "next")
	c.Assert(h.recorder.entries[1].Outcome, qt.Equals, string(Rejected))
}

func TestCallbackFailuresAreContained(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{Kind: command.ChatInput, Name: "boom", Run: func(*command.Context) error {
		panic("kaboom")
	}})
	h.add(c, command.Config{Kind: command.ChatInput, Name: "oops", Run: func(*command.Context) error {
		return fmt.Errorf("upstream down")
	}})

	for _, name := range []string{"boom", "oops"} {
		resp := &fakeResponder{}
		res := h.d.Dispatch(context.Background(), chat(name, "u1", 0), resp)
		c.Assert(res.Outcome, qt.Equals, Executed)
		c.Assert(resp.replies, qt.HasLen, 0)
	}
	testhelper.AssertStringSlicesEqual(t, []string{"boom", "oops"}, h.metrics.failed)

	// the dispatcher keeps serving
	h.add(c, command.Config{Kind: command.ChatInput, Name: "ping"})
	res := h.d.Dispatch(context.Background(), chat("ping", "u1", 0), &fakeResponder{})
	c.Assert(res.Outcome, qt.Equals, Executed)
}

func TestCallbackSeesContext(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	var got *command.Context
	h.add(c, command.Config{Kind: command.Button, Name: "np-requeue", Shared: true, Run: func(ctx *command.Context) error {
		got = ctx
		return nil
	}})

	res := h.d.Dispatch(context.Background(), button("@np-requeue@https://example.com/a@x", "u1", "u2"), &fakeResponder{})
	c.Assert(res.Outcome, qt.Equals, Executed)
	c.Assert(res.Identity, qt.Equals, "@np-requeue@https://example.com/a@x")
	c.Assert(got.Descriptor.Name, qt.Equals, "np-requeue")
	testhelper.AssertStringSlicesEqual(t, []string{"https://example.com/a", "x"}, got.Payload)
	c.Assert(got.Actor.Level, qt.Equals, 0)
	c.Assert(got.Actor.GuildOwnerID, qt.Equals, "gowner")
	c.Assert(got.Trace, qt.Equals, res.Trace)

	res = h.d.Dispatch(context.Background(), button("@collector@1", "u1", ""), &fakeResponder{})
	c.Assert(res.Outcome, qt.Equals, Ignored)
}

func TestComponentOwnership(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{Kind: command.Button, Name: "np-skip"})

	resp := &fakeResponder{}
	res := h.d.Dispatch(context.Background(), button("np-skip", "u1", "u2"), resp)
	c.Assert(res.Reason, qt.Equals, ReasonNotInvoker)
	c.Assert(resp.last(), qt.Contains, "isn't meant for you")

	res = h.d.Dispatch(context.Background(), button("np-skip", "u2", "u2"), &fakeResponder{})
	c.Assert(res.Outcome, qt.Equals, Executed)

	// messages not spawned by an interaction are open to everyone
	res = h.d.Dispatch(context.Background(), button("np-skip", "u3", ""), &fakeResponder{})
	c.Assert(res.Outcome, qt.Equals, Executed)
}

func TestNamespaceFollowsInteractionType(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{Kind: command.ChatInput, Name: "help"})
	h.add(c, command.Config{Kind: command.SelectMenu, Name: "help", Shared: true, Cooldown: command.NoCooldown, Run: func(*command.Context) error {
		h.ran = append(h.ran, "help-menu")
		return nil
	}})

	h.d.Dispatch(context.Background(), chat("help", "u1", 0), &fakeResponder{})
	ev := button("help", "u1", "")
	ev.Data = discordgo.MessageComponentInteractionData{CustomID: "help", ComponentType: discordgo.SelectMenuComponent, Values: []string{"ping"}}
	h.d.Dispatch(context.Background(), ev, &fakeResponder{})

	testhelper.AssertStringSlicesEqual(t, []string{"help", "help-menu"}, h.ran)
}

func TestAvailability(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{Kind: command.ChatInput, Name: "ping"})

	dm := chat("ping", "u1", 0)
	dm.GuildID = ""
	dm.Member = nil
	dm.User = &discordgo.User{ID: "u1"}
	resp := &fakeResponder{}
	res := h.d.Dispatch(context.Background(), dm, resp)
	c.Assert(res.Reason, qt.Equals, ReasonDM)
	c.Assert(resp.last(), qt.Contains, "DM interactions")

	gone := chat("ping", "u1", 0)
	gone.GuildID = "gone"
	resp = &fakeResponder{}
	res = h.d.Dispatch(context.Background(), gone, resp)
	c.Assert(res.Reason, qt.Equals, ReasonUnavailable)
	c.Assert(resp.replies, qt.HasLen, 0)

	h.platform.unavailable = true
	res = h.d.Dispatch(context.Background(), chat("ping", "u1", 0), &fakeResponder{})
	c.Assert(res.Reason, qt.Equals, ReasonUnavailable)
	c.Assert(h.ran, qt.HasLen, 0)
}

func TestPingBypassesEverything(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)

	resp := &fakeResponder{}
	res := h.d.Dispatch(context.Background(), &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing}}, resp)
	c.Assert(res.Outcome, qt.Equals, Executed)
	c.Assert(res.Reason, qt.Equals, ReasonPing)
	c.Assert(resp.ponged, qt.IsTrue)
	testhelper.AssertStringSlicesEqual(t, []string{"ping/executed/ping"}, h.metrics.outcomes)
}

func TestAutocompleteBypassesGates(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{Kind: command.ChatInput, Name: "play", Disabled: true, Level: permission.TierBotOwner})
	h.add(c, command.Config{Kind: command.Autocomplete, Name: "query", Complete: func(_ *command.Context, o *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
		var out []*discordgo.ApplicationCommandOptionChoice
		for i := 0; i < 40; i++ {
			v := fmt.Sprintf("%s %d", o.StringValue(), i)
			out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
		}
		return out, nil
	}})

	ev := chat("play", "u1", 0)
	ev.Type = discordgo.InteractionApplicationCommandAutocomplete
	ev.Data = discordgo.ApplicationCommandInteractionData{Name: "play", Options: []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "query", Type: discordgo.ApplicationCommandOptionString, Value: "lofi", Focused: true},
	}}

	resp := &fakeResponder{}
	res := h.d.Dispatch(context.Background(), ev, resp)
	c.Assert(res.Outcome, qt.Equals, Executed)
	c.Assert(res.Reason, qt.Equals, ReasonAutocomplete)
	c.Assert(resp.choices, qt.HasLen, MaxChoices)
	c.Assert(resp.choices[0].Name, qt.Equals, "lofi 0")
	c.Assert(h.recorder.entries, qt.HasLen, 0)

	ev.Data = discordgo.ApplicationCommandInteractionData{Name: "play", Options: []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "other", Type: discordgo.ApplicationCommandOptionString, Value: "x", Focused: true},
	}}
	res = h.d.Dispatch(context.Background(), ev, &fakeResponder{})
	c.Assert(res.Outcome, qt.Equals, Ignored)
}

func TestMetricsSeeEveryOutcome(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)
	h.add(c, command.Config{Kind: command.ChatInput, Name: "ping"})

	h.d.Dispatch(context.Background(), chat("ping", "u1", 0), &fakeResponder{})
	h.d.Dispatch(context.Background(), chat("ghost", "u1", 0), &fakeResponder{})

	c.Assert(strings.Join(h.metrics.outcomes, ","), qt.Equals, "chat-input/executed/,chat-input/rejected/unknown")
}
