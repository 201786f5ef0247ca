package dispatch

import (
	"context"
	"runtime/debug"
	"time"

	"server-tempo/internal/command"

	"github.com/bwmarrin/discordgo"
)

// MaxChoices is the most autocomplete choices Discord accepts.
const MaxChoices = 25

// autocomplete answers a focused option query. Providers are keyed by option
// name and bypass every gate.
func (d *Dispatcher) autocomplete(ctx context.Context, in *interaction) Result {
	data := in.ev.ApplicationCommandData()
	in.raw = data.Name

	focused := focusedOption(data.Options)
	if focused == nil {
		in.logger.Warn().Str("command", data.Name).Msg("Autocomplete query without a focused option")
		return d.finish(in, Ignored, ReasonUnknown)
	}

	provider, ok := d.registry.Resolve(focused.Name, command.Autocompletes)
	if !ok || provider.Complete == nil {
		in.logger.Error().Str("option", focused.Name).Str("command", data.Name).Msg("Missing AutoComplete query handler")
		return d.finish(in, Ignored, ReasonUnknown)
	}

	start := time.Now()
	choices := d.complete(ctx, in, provider, focused)
	if len(choices) > MaxChoices {
		choices = choices[:MaxChoices]
	}
	if err := in.resp.Autocomplete(choices); err != nil {
		in.logger.Debug().Err(err).Str("command", data.Name).Msg("Failed to answer autocomplete query, the interaction probably expired")
	}
	if d.debug {
		in.logger.Debug().Str("command", data.Name).Str("option", focused.Name).Dur("took", time.Since(start)).Msg("Auto Complete")
	}
	return d.finish(in, Executed, ReasonAutocomplete)
}

// complete runs the provider, containing errors and panics.
func (d *Dispatcher) complete(ctx context.Context, in *interaction, provider *command.Descriptor, focused *discordgo.ApplicationCommandInteractionDataOption) (choices []*discordgo.ApplicationCommandOptionChoice) {
	defer func() {
		if r := recover(); r != nil {
			in.logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Str("option", focused.Name).Msg("Autocomplete provider panicked")
			choices = nil
		}
	}()

	cctx := &command.Context{
		Context:    ctx,
		Responder:  in.resp,
		Event:      in.ev,
		Actor:      in.actor,
		Descriptor: provider,
		Identity:   in.raw,
		Trace:      in.trace,
		Env:        d.env,
	}
	out, err := provider.Complete(cctx, focused)
	if err != nil {
		in.logger.Error().Err(err).Str("option", focused.Name).Msg("Autocomplete provider failed")
		return nil
	}
	return out
}

// focusedOption walks subcommands to the option being typed.
func focusedOption(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, o := range opts {
		if o.Focused {
			return o
		}
		if f := focusedOption(o.Options); f != nil {
			return f
		}
	}
	return nil
}
