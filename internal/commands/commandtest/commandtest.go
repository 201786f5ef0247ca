// Package commandtest runs command sources through a real dispatcher with
// in-memory collaborators.
package commandtest

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"server-tempo/internal/command"
	"server-tempo/internal/dispatch"
	"server-tempo/internal/music"
	"server-tempo/internal/permission"
	"server-tempo/internal/storage"
	"server-tempo/internal/throttle"

	"github.com/bwmarrin/discordgo"
)

const (
	GuildID     = "guild"
	ChannelID   = "text"
	OwnerID     = "bot-owner"
	DeveloperID = "dev"
	GuildOwner  = "guild-owner"
)

// Sent is one message the responder was asked to deliver.
type Sent struct {
	Method   string
	Response *command.Response
}

// Responder records everything a handler sends.
type Responder struct {
	mu       sync.Mutex
	sent     []Sent
	deferred []bool
	choices  []*discordgo.ApplicationCommandOptionChoice
}

func (r *Responder) record(method string, resp *command.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{Method: method, Response: resp})
	return nil
}

func (r *Responder) Reply(resp *command.Response) error    { return r.record("reply", resp) }
func (r *Responder) Edit(resp *command.Response) error     { return r.record("edit", resp) }
func (r *Responder) Update(resp *command.Response) error   { return r.record("update", resp) }
func (r *Responder) Followup(resp *command.Response) error { return r.record("followup", resp) }
func (r *Responder) Pong() error                           { return nil }

func (r *Responder) Defer(ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferred = append(r.deferred, ephemeral)
	return nil
}

func (r *Responder) Autocomplete(choices []*discordgo.ApplicationCommandOptionChoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.choices = choices
	return nil
}

// Sent returns the recorded messages in order.
func (r *Responder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sent)
}

// Last returns the most recent message, or an empty one.
func (r *Responder) Last() *command.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return &command.Response{}
	}
	return r.sent[len(r.sent)-1].Response
}

// Deferred reports whether the handler deferred its reply.
func (r *Responder) Deferred() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deferred) > 0
}

// Choices returns the last autocomplete answer.
func (r *Responder) Choices() []*discordgo.ApplicationCommandOptionChoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.choices
}

// ChoiceNames lists the names of the last autocomplete answer.
func (r *Responder) ChoiceNames() []string {
	var out []string
	for _, c := range r.Choices() {
		out = append(out, c.Name)
	}
	return out
}

// Settings is an in-memory SettingsStore.
type Settings struct {
	mu      sync.Mutex
	byGuild map[string]*storage.Settings
	// Err is returned by every call when set.
	Err error
}

func (s *Settings) Settings(guildID string) (*storage.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if st, ok := s.byGuild[guildID]; ok {
		cp := *st
		cp.MusicChannelIDs = slices.Clone(st.MusicChannelIDs)
		cp.DJRoleIDs = slices.Clone(st.DJRoleIDs)
		cp.RecentQueries = slices.Clone(st.RecentQueries)
		return &cp, nil
	}
	return storage.DefaultSettings(guildID), nil
}

func (s *Settings) SaveSettings(st *storage.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	cp := *st
	if prev, ok := s.byGuild[st.GuildID]; ok {
		cp.RecentQueries = prev.RecentQueries
	}
	s.byGuild[st.GuildID] = &cp
	return nil
}

func (s *Settings) RememberQuery(guildID, query string) error {
	st, err := s.Settings(guildID)
	if err != nil {
		return err
	}
	queries := []string{query}
	for _, q := range st.RecentQueries {
		if q != query {
			queries = append(queries, q)
		}
	}
	st.RecentQueries = queries
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byGuild[guildID] = st
	return nil
}

func (s *Settings) RecentQueries(guildID string) ([]string, error) {
	st, err := s.Settings(guildID)
	if err != nil {
		return nil, err
	}
	return st.RecentQueries, nil
}

// Update applies fn to the stored settings of the test guild.
func (s *Settings) Update(fn func(st *storage.Settings)) {
	st, _ := s.Settings(GuildID)
	fn(st)
	_ = s.SaveSettings(st)
}

// Voice is an in-memory voice state table.
type Voice struct {
	mu        sync.Mutex
	channels  map[string]string
	listeners map[string]int
}

// Join puts userID in a voice channel of the test guild.
func (v *Voice) Join(userID, channelID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.channels[userID] = channelID
	v.listeners[channelID]++
}

// SetListeners overrides the listener count of a channel.
func (v *Voice) SetListeners(channelID string, n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners[channelID] = n
}

func (v *Voice) UserVoiceChannel(_, userID string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.channels[userID], nil
}

func (v *Voice) VoiceListeners(_, channelID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.listeners[channelID]
}

// Deployer records refresh requests.
type Deployer struct {
	mu      sync.Mutex
	Targets []string
}

func (d *Deployer) RefreshCommands(_, target string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Targets = append(d.Targets, target)
}

type platform struct{}

func (p *platform) Guild(id string) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: id, Name: "Test Guild", OwnerID: GuildOwner}, nil
}

func (p *platform) Channel(id string) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: id}, nil
}

// Member is the invoking user of a test interaction.
type Member struct {
	ID          string
	Roles       []string
	Permissions int64
}

var (
	User      = Member{ID: "user", Permissions: discordgo.PermissionSendMessages}
	Other     = Member{ID: "other", Permissions: discordgo.PermissionSendMessages}
	Admin     = Member{ID: "admin", Permissions: discordgo.PermissionAdministrator}
	Developer = Member{ID: DeveloperID}
)

// Harness wires a registry and dispatcher around in-memory collaborators.
type Harness struct {
	T          testing.TB
	Registry   *command.Registry
	Dispatcher *dispatch.Dispatcher
	Env        *command.Env
	Settings   *Settings
	Voice      *Voice
	Deployer   *Deployer
	Music      *music.Manager
	Throttle   *throttle.Store

	// AppPermissions are the bot's bits in the test channel.
	AppPermissions int64

	ids atomic.Int64
}

// New loads sources into a fresh registry. Callbacks run synchronously.
func New(t testing.TB, sources ...command.Source) *Harness {
	t.Helper()
	model, err := permission.New(permission.DefaultTiers(OwnerID, []string{DeveloperID})...)
	if err != nil {
		t.Fatal(err)
	}
	reg := command.NewRegistry(model)
	if errs := reg.LoadAll(sources); len(errs) > 0 {
		t.Fatal(errors.Join(errs...))
	}

	h := &Harness{
		T:              t,
		Registry:       reg,
		Settings:       &Settings{byGuild: make(map[string]*storage.Settings)},
		Voice:          &Voice{channels: make(map[string]string), listeners: make(map[string]int)},
		Deployer:       &Deployer{},
		Music:          music.NewManager(),
		Throttle:       throttle.New(),
		AppPermissions: discordgo.PermissionAll,
	}
	t.Cleanup(h.Throttle.Close)
	h.Env = &command.Env{
		Registry:      reg,
		Settings:      h.Settings,
		Music:         h.Music,
		Votes:         music.NewVoteSkip(),
		Voice:         h.Voice,
		Deployer:      h.Deployer,
		Cooldowns:     h.Throttle,
		ClientID:      "client",
		TestGuildID:   GuildID,
		SupportInvite: "https://discord.gg/support",
		EmbedColor:    0x2f7fd3,
	}
	d, err := dispatch.New(dispatch.Options{
		Registry:   reg,
		Platform:   &platform{},
		Env:        h.Env,
		Throttle:   h.Throttle,
		// throttling has its own tests
		BypassTier: permission.TierUser,
		Launch:     func(f func()) { f() },
	})
	if err != nil {
		t.Fatal(err)
	}
	h.Dispatcher = d
	return h
}

func (h *Harness) interaction(m Member, typ discordgo.InteractionType, data discordgo.InteractionData) *discordgo.InteractionCreate {
	id := strconv.FormatInt(1100000000000000000+h.ids.Add(1), 10)
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:             id,
		Type:           typ,
		Data:           data,
		GuildID:        GuildID,
		ChannelID:      ChannelID,
		AppPermissions: h.AppPermissions,
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: m.ID, Username: m.ID},
			Roles:       m.Roles,
			Permissions: m.Permissions,
		},
	}}
}

// Run dispatches ev and returns the outcome and what was sent.
func (h *Harness) Run(ev *discordgo.InteractionCreate) (dispatch.Result, *Responder) {
	resp := &Responder{}
	res := h.Dispatcher.Dispatch(context.Background(), ev, resp)
	return res, resp
}

// Slash invokes a chat input command.
func (h *Harness) Slash(m Member, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *Responder {
	_, resp := h.Run(h.SlashEvent(m, name, opts...))
	return resp
}

// SlashEvent builds a chat input interaction.
func (h *Harness) SlashEvent(m Member, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return h.interaction(m, discordgo.InteractionApplicationCommand, discordgo.ApplicationCommandInteractionData{
		Name:        name,
		CommandType: discordgo.ChatApplicationCommand,
		Options:     opts,
	})
}

// Action invokes a user or message context action.
func (h *Harness) Action(m Member, kind discordgo.ApplicationCommandType, name, targetID string, resolved *discordgo.ApplicationCommandInteractionDataResolved) *Responder {
	_, resp := h.Run(h.interaction(m, discordgo.InteractionApplicationCommand, discordgo.ApplicationCommandInteractionData{
		Name:        name,
		CommandType: kind,
		TargetID:    targetID,
		Resolved:    resolved,
	}))
	return resp
}

// Component clicks a button or picks select menu values on a message that
// was spawned by an interaction of spawnedBy.
func (h *Harness) Component(m Member, customID, spawnedBy string, values ...string) *Responder {
	typ := discordgo.ButtonComponent
	if len(values) > 0 {
		typ = discordgo.SelectMenuComponent
	}
	ev := h.interaction(m, discordgo.InteractionMessageComponent, discordgo.MessageComponentInteractionData{
		CustomID:      customID,
		ComponentType: typ,
		Values:        values,
	})
	ev.Message = &discordgo.Message{ID: "msg"}
	if spawnedBy != "" {
		ev.Message.Interaction = &discordgo.MessageInteraction{User: &discordgo.User{ID: spawnedBy}}
	}
	_, resp := h.Run(ev)
	return resp
}

// Complete sends an autocomplete query for the focused option of a command.
func (h *Harness) Complete(m Member, name string, focused *discordgo.ApplicationCommandInteractionDataOption) *Responder {
	focused.Focused = true
	_, resp := h.Run(h.interaction(m, discordgo.InteractionApplicationCommandAutocomplete, discordgo.ApplicationCommandInteractionData{
		Name:        name,
		CommandType: discordgo.ChatApplicationCommand,
		Options:     []*discordgo.ApplicationCommandInteractionDataOption{focused},
	}))
	return resp
}

// Str is a string option.
func Str(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

// Int is an integer option. Discord sends numbers as float64.
func Int(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(value)}
}

// Bool is a boolean option.
func Bool(name string, value bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionBoolean, Value: value}
}

// Role is a role option carrying the role id.
func Role(name, id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionRole, Value: id}
}

// Channel is a channel option carrying the channel id.
func Channel(name, id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionChannel, Value: id}
}

// Sub wraps options in a subcommand.
func Sub(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionSubCommand, Options: opts}
}
