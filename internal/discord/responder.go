package discord

import (
	"server-tempo/internal/command"

	"github.com/bwmarrin/discordgo"
)

// EmbedColor is the accent used by every embed the bot sends.
const EmbedColor = 0x2f7fd3

// interactionAPI is the part of *discordgo.Session a responder needs.
type interactionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// responder implements command.Responder for one interaction.
type responder struct {
	api interactionAPI
	i   *discordgo.Interaction
}

var _ command.Responder = (*responder)(nil)

func newResponder(api interactionAPI, i *discordgo.Interaction) *responder {
	return &responder{api: api, i: i}
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func responseData(r *command.Response) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content:    r.Content,
		Embeds:     r.Embeds,
		Components: r.Components,
		Flags:      flags(r.Ephemeral),
	}
}

// Reply sends the initial response.
func (r *responder) Reply(resp *command.Response) error {
	return r.api.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: responseData(resp),
	})
}

// Defer acknowledges the interaction. Components defer a message update,
// everything else a reply shown as "thinking".
func (r *responder) Defer(ephemeral bool) error {
	if r.i.Type == discordgo.InteractionMessageComponent {
		return r.api.InteractionRespond(r.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})
	}
	return r.api.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	})
}

// Edit replaces the original response.
func (r *responder) Edit(resp *command.Response) error {
	edit := &discordgo.WebhookEdit{Content: &resp.Content}
	if resp.Embeds != nil {
		edit.Embeds = &resp.Embeds
	}
	if resp.Components != nil {
		edit.Components = &resp.Components
	}
	_, err := r.api.InteractionResponseEdit(r.i, edit)
	return err
}

// Update edits the message a component is attached to.
func (r *responder) Update(resp *command.Response) error {
	return r.api.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: responseData(resp),
	})
}

// Followup sends an additional message after the initial response.
func (r *responder) Followup(resp *command.Response) error {
	_, err := r.api.FollowupMessageCreate(r.i, true, &discordgo.WebhookParams{
		Content:    resp.Content,
		Embeds:     resp.Embeds,
		Components: resp.Components,
		Flags:      flags(resp.Ephemeral),
	})
	return err
}

// Autocomplete answers an autocomplete query. No choices is a valid answer.
func (r *responder) Autocomplete(choices []*discordgo.ApplicationCommandOptionChoice) error {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	return r.api.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}

// Pong answers a ping.
func (r *responder) Pong() error {
	return r.api.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponsePong,
	})
}
