// Package dispatch turns an inbound interaction into exactly one terminal
// outcome: executed, rejected or ignored.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"server-tempo/internal/audit"
	"server-tempo/internal/command"
	"server-tempo/internal/permission"
	"server-tempo/internal/throttle"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Outcome is the terminal state of one interaction.
type Outcome string

const (
	Executed Outcome = "executed"
	Rejected Outcome = "rejected"
	Ignored  Outcome = "ignored"
)

// Reasons attached to a Result.
const (
	ReasonNone              = ""
	ReasonPing              = "ping"
	ReasonAutocomplete      = "autocomplete"
	ReasonDM                = "dm"
	ReasonUnavailable       = "unavailable"
	ReasonUnknown           = "unknown"
	ReasonDisabled          = "disabled"
	ReasonMisconfigured     = "misconfigured"
	ReasonLevel             = "level"
	ReasonAgentPermissions  = "agent_permissions"
	ReasonCallerPermissions = "caller_permissions"
	ReasonNSFW              = "nsfw"
	ReasonNotInvoker        = "not_invoker"
	ReasonThrottled         = "throttled"
)

// Result describes how an interaction ended.
type Result struct {
	Outcome    Outcome
	Reason     string
	Identity   string
	Trace      string
	RetryAfter time.Duration
}

// Platform answers guild and channel questions the payload leaves open.
type Platform interface {
	Guild(guildID string) (*discordgo.Guild, error)
	Channel(channelID string) (*discordgo.Channel, error)
}

// Metrics is told about every terminal outcome.
type Metrics interface {
	Observe(kind, outcome, reason string, took time.Duration)
	CallbackFailed(command string)
}

// Recorder persists gated interactions.
type Recorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Options wires a Dispatcher.
type Options struct {
	Registry *command.Registry
	Throttle *throttle.Store
	Platform Platform
	Env      *command.Env

	// BypassTier is the lowest tier that skips throttling. Empty means the
	// top tier.
	BypassTier string

	Metrics  Metrics
	Recorder Recorder

	// Debug logs every interaction and callback timings.
	Debug bool

	// Launch runs a callback. It defaults to a new goroutine.
	Launch func(func())
}

// Dispatcher gates and runs interactions.
type Dispatcher struct {
	registry *command.Registry
	model    *permission.Model
	throttle *throttle.Store
	platform Platform
	env      *command.Env
	bypass   int
	metrics  Metrics
	recorder Recorder
	debug    bool
	launch   func(func())
}

func New(opts Options) (*Dispatcher, error) {
	if opts.Registry == nil {
		return nil, errors.New("dispatch: registry is required")
	}
	model := opts.Registry.Permissions()
	if model == nil {
		return nil, errors.New("dispatch: registry has no permission model")
	}

	bypass := model.Top().Level
	if opts.BypassTier != "" {
		lvl, ok := model.Level(opts.BypassTier)
		if !ok {
			return nil, &permission.ConfigurationError{Reason: fmt.Sprintf("unknown throttle bypass tier %q", opts.BypassTier)}
		}
		bypass = lvl
	}

	d := &Dispatcher{
		registry: opts.Registry,
		model:    model,
		throttle: opts.Throttle,
		platform: opts.Platform,
		env:      opts.Env,
		bypass:   bypass,
		metrics:  opts.Metrics,
		recorder: opts.Recorder,
		debug:    opts.Debug,
		launch:   opts.Launch,
	}
	if d.throttle == nil {
		d.throttle = throttle.New()
	}
	if d.env == nil {
		d.env = &command.Env{Registry: opts.Registry}
	}
	if d.launch == nil {
		d.launch = func(f func()) { go f() }
	}
	return d, nil
}

// interaction is the per-event working state.
type interaction struct {
	ev      *discordgo.InteractionCreate
	resp    command.Responder
	actor   *permission.Actor
	trace   string
	kind    string
	start   time.Time
	raw     string
	desc    *command.Descriptor
	payload []string
	logger  zerolog.Logger
}

// Dispatch drives ev to a terminal state. Gating happens before it returns;
// an admitted callback runs through Launch.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *discordgo.InteractionCreate, resp command.Responder) Result {
	in := &interaction{
		ev:    ev,
		resp:  resp,
		trace: uuid.NewString(),
		kind:  kindLabel(ev),
		start: time.Now(),
	}
	in.logger = log.With().Str("trace", in.trace).Str("kind", in.kind).Logger()

	if d.debug {
		in.logger.Debug().Str("guild", ev.GuildID).Str("channel", ev.ChannelID).Interface("type", ev.Type).Msg("New interaction")
	}

	// Pings carry no guild and never reach a handler.
	if ev.Type == discordgo.InteractionPing {
		if err := resp.Pong(); err != nil {
			in.logger.Warn().Err(err).Msg("Failed to answer ping")
		}
		return d.finish(in, Executed, ReasonPing)
	}

	if res, ok := d.checkAvailability(in); !ok {
		return res
	}

	in.actor.Level = d.model.DeriveLevel(in.actor)

	if ev.Type == discordgo.InteractionApplicationCommandAutocomplete {
		return d.autocomplete(ctx, in)
	}

	if res, ok := d.resolve(in); !ok {
		return res
	}

	if res, ok := d.checkCapabilities(in); !ok {
		return res
	}

	if res, ok := d.checkThrottle(in); !ok {
		return res
	}

	d.execute(ctx, in)
	return d.finish(in, Executed, ReasonNone)
}

// checkAvailability rejects DMs and unavailable guilds, and builds the actor.
func (d *Dispatcher) checkAvailability(in *interaction) (Result, bool) {
	ev := in.ev
	if ev.GuildID == "" || ev.Member == nil || ev.Member.User == nil {
		userID := ""
		if ev.User != nil {
			userID = ev.User.ID
		}
		d.deny(in, fmt.Sprintf("%s <@%s>, I don't currently support DM interactions. Please try again in a server.", emojiError, userID))
		return d.finish(in, Rejected, ReasonDM), false
	}

	actor := &permission.Actor{
		UserID:         ev.Member.User.ID,
		GuildID:        ev.GuildID,
		ChannelID:      ev.ChannelID,
		RoleIDs:        ev.Member.Roles,
		Permissions:    ev.Member.Permissions,
		AppPermissions: ev.AppPermissions,
	}

	if d.platform != nil {
		guild, err := d.platform.Guild(ev.GuildID)
		if err != nil || guild == nil || guild.Unavailable {
			in.logger.Debug().Err(err).Str("guild", ev.GuildID).Msg("Interaction returned, server unavailable")
			return d.finish(in, Rejected, ReasonUnavailable), false
		}
		actor.GuildOwnerID = guild.OwnerID

		if ch, err := d.platform.Channel(ev.ChannelID); err == nil && ch != nil {
			actor.ChannelNSFW = ch.NSFW
		}
	}

	in.actor = actor
	in.logger = in.logger.With().Str("guild", actor.GuildID).Str("user", actor.UserID).Logger()
	return Result{}, true
}

// resolve maps the interaction to a descriptor.
func (d *Dispatcher) resolve(in *interaction) (Result, bool) {
	raw, namespaces := identityOf(in.ev)
	in.raw = raw
	identity, payload := command.ParseComponentID(raw)
	dynamic := identity != raw

	desc, ok := d.registry.Resolve(identity, namespaces...)
	if !ok {
		if dynamic {
			// Dynamic ids without a registered handler belong to collectors
			// owned by a running command.
			in.logger.Debug().Str("identity", raw).Msg("Ignoring unhandled dynamic component")
			return d.finish(in, Ignored, ReasonUnknown), false
		}
		in.logger.Warn().Str("identity", raw).Msg("Missing interaction listener")
		d.deny(in, fmt.Sprintf("%s <@%s>, this command currently isn't available.", emojiError, in.actor.UserID))
		return d.finish(in, Rejected, ReasonUnknown), false
	}

	in.desc = desc
	in.payload = payload
	in.logger = in.logger.With().Str("command", desc.Effective()).Logger()
	return Result{}, true
}

func (d *Dispatcher) checkThrottle(in *interaction) (Result, bool) {
	if in.actor.Level >= d.bypass {
		return Result{}, true
	}
	res := d.throttle.CheckAndRecord(in.desc.Cooldown, in.desc.Effective(), throttle.Subject{
		UserID:    in.actor.UserID,
		ChannelID: in.actor.ChannelID,
		GuildID:   in.actor.GuildID,
	})
	if res.Allowed {
		return Result{}, true
	}
	d.deny(in, fmt.Sprintf("%s <@%s>, you can use **`/%s`** again in %s seconds",
		emojiError, in.actor.UserID, in.desc.Name, res.RetryAfterSeconds()))
	r := d.finish(in, Rejected, ReasonThrottled)
	r.RetryAfter = res.RetryAfter
	return r, false
}

// execute launches the callback. Failures are logged and counted, never
// propagated, and no fallback reply is sent.
func (d *Dispatcher) execute(ctx context.Context, in *interaction) {
	desc := in.desc
	cctx := &command.Context{
		Context:    context.WithoutCancel(ctx),
		Responder:  in.resp,
		Event:      in.ev,
		Actor:      in.actor,
		Descriptor: desc,
		Identity:   in.raw,
		Payload:    in.payload,
		Trace:      in.trace,
		Env:        d.env,
	}
	logger := in.logger

	d.launch(func() {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("identity", in.raw).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("Command callback panicked")
				d.callbackFailed(desc)
			}
		}()

		if err := desc.Run(cctx); err != nil {
			logger.Error().Err(err).Str("identity", in.raw).Msg("An error has occurred while executing the command")
			d.callbackFailed(desc)
		}
		if d.debug {
			logger.Debug().Dur("took", time.Since(start)).Msg("Command executed")
		}
	})

	event := logger.Info().Str("identity", in.raw).Str("channel", in.actor.ChannelID)
	if desc.IsAlias {
		event = event.Str("alias_for", desc.AliasTarget)
	}
	event.Msg("[CMD]")
}

func (d *Dispatcher) callbackFailed(desc *command.Descriptor) {
	if d.metrics != nil {
		d.metrics.CallbackFailed(desc.Effective())
	}
}

// deny replies ephemerally. Reply errors are logged and otherwise ignored.
func (d *Dispatcher) deny(in *interaction, content string) {
	if in.resp == nil {
		return
	}
	if err := in.resp.Reply(&command.Response{Content: content, Ephemeral: true}); err != nil {
		in.logger.Warn().Err(err).Msg("Failed to send denial")
	}
}

// finish builds the result and notifies observers.
func (d *Dispatcher) finish(in *interaction, outcome Outcome, reason string) Result {
	res := Result{Outcome: outcome, Reason: reason, Identity: in.raw, Trace: in.trace}

	if d.metrics != nil {
		d.metrics.Observe(in.kind, string(outcome), reason, time.Since(in.start))
	}

	if d.recorder != nil && in.desc != nil {
		entry := audit.Entry{
			Trace:     in.trace,
			GuildID:   in.actor.GuildID,
			ChannelID: in.actor.ChannelID,
			UserID:    in.actor.UserID,
			Command:   in.desc.Effective(),
			Outcome:   string(outcome),
			Reason:    reason,
			CreatedAt: in.start.UTC(),
		}
		if in.desc.IsAlias {
			entry.AliasOf = in.desc.Name
		}
		recorder, logger := d.recorder, in.logger
		d.launch(func() {
			if err := recorder.Record(context.Background(), entry); err != nil {
				logger.Warn().Err(err).Msg("Failed to record interaction")
			}
		})
	}

	if outcome == Rejected && d.debug {
		in.logger.Debug().Str("identity", in.raw).Str("reason", reason).Msg("Interaction rejected")
	}
	return res
}

// identityOf returns the raw identity and the namespaces it may live in.
func identityOf(ev *discordgo.InteractionCreate) (string, []command.Namespace) {
	switch ev.Type {
	case discordgo.InteractionApplicationCommand:
		data := ev.ApplicationCommandData()
		if data.CommandType == discordgo.UserApplicationCommand || data.CommandType == discordgo.MessageApplicationCommand {
			return data.Name, []command.Namespace{command.ContextActions}
		}
		return data.Name, []command.Namespace{command.Commands}
	case discordgo.InteractionMessageComponent:
		return ev.MessageComponentData().CustomID, []command.Namespace{command.Buttons, command.SelectMenus}
	case discordgo.InteractionModalSubmit:
		return ev.ModalSubmitData().CustomID, []command.Namespace{command.Modals}
	default:
		return "", nil
	}
}

func kindLabel(ev *discordgo.InteractionCreate) string {
	switch ev.Type {
	case discordgo.InteractionPing:
		return "ping"
	case discordgo.InteractionApplicationCommand:
		switch ev.ApplicationCommandData().CommandType {
		case discordgo.UserApplicationCommand:
			return command.UserContext.String()
		case discordgo.MessageApplicationCommand:
			return command.MessageContext.String()
		default:
			return command.ChatInput.String()
		}
	case discordgo.InteractionMessageComponent:
		if ev.MessageComponentData().ComponentType == discordgo.ButtonComponent {
			return command.Button.String()
		}
		return command.SelectMenu.String()
	case discordgo.InteractionModalSubmit:
		return command.Modal.String()
	case discordgo.InteractionApplicationCommandAutocomplete:
		return command.Autocomplete.String()
	default:
		return "unknown"
	}
}
