package discord

import (
	"testing"

	"server-tempo/internal/command"

	"github.com/bwmarrin/discordgo"
	qt "github.com/frankban/quicktest"
)

type fakeInteractionAPI struct {
	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
	followups []*discordgo.WebhookParams
	waits     []bool
}

func (f *fakeInteractionAPI) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeInteractionAPI) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, nil
}

func (f *fakeInteractionAPI) FollowupMessageCreate(_ *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.followups = append(f.followups, data)
	f.waits = append(f.waits, wait)
	return &discordgo.Message{}, nil
}

func TestResponderReply(t *testing.T) {
	c := qt.New(t)
	api := &fakeInteractionAPI{}
	r := newResponder(api, &discordgo.Interaction{Type: discordgo.InteractionApplicationCommand})

	c.Assert(r.Reply(&command.Response{Content: "hi", Ephemeral: true}), qt.IsNil)
	c.Assert(r.Update(&command.Response{Content: "updated"}), qt.IsNil)

	c.Assert(api.responses, qt.HasLen, 2)
	c.Assert(api.responses[0].Type, qt.Equals, discordgo.InteractionResponseChannelMessageWithSource)
	c.Assert(api.responses[0].Data.Content, qt.Equals, "hi")
	c.Assert(api.responses[0].Data.Flags, qt.Equals, discordgo.MessageFlagsEphemeral)
	c.Assert(api.responses[1].Type, qt.Equals, discordgo.InteractionResponseUpdateMessage)
	c.Assert(api.responses[1].Data.Flags, qt.Equals, discordgo.MessageFlags(0))
}

func TestResponderDefer(t *testing.T) {
	c := qt.New(t)

	c.Run("command", func(c *qt.C) {
		api := &fakeInteractionAPI{}
		r := newResponder(api, &discordgo.Interaction{Type: discordgo.InteractionApplicationCommand})
		c.Assert(r.Defer(true), qt.IsNil)
		c.Assert(api.responses[0].Type, qt.Equals, discordgo.InteractionResponseDeferredChannelMessageWithSource)
		c.Assert(api.responses[0].Data.Flags, qt.Equals, discordgo.MessageFlagsEphemeral)
	})

	c.Run("component", func(c *qt.C) {
		api := &fakeInteractionAPI{}
		r := newResponder(api, &discordgo.Interaction{Type: discordgo.InteractionMessageComponent})
		c.Assert(r.Defer(true), qt.IsNil)
		c.Assert(api.responses[0].Type, qt.Equals, discordgo.InteractionResponseDeferredMessageUpdate)
		c.Assert(api.responses[0].Data, qt.IsNil)
	})
}

func TestResponderEditAndFollowup(t *testing.T) {
	c := qt.New(t)
	api := &fakeInteractionAPI{}
	r := newResponder(api, &discordgo.Interaction{Type: discordgo.InteractionApplicationCommand})

	c.Assert(r.Edit(&command.Response{Content: "done"}), qt.IsNil)
	c.Assert(*api.edits[0].Content, qt.Equals, "done")
	c.Assert(api.edits[0].Embeds, qt.IsNil)
	c.Assert(api.edits[0].Components, qt.IsNil)

	embed := &discordgo.MessageEmbed{Title: "Queue"}
	c.Assert(r.Edit(&command.Response{Embeds: []*discordgo.MessageEmbed{embed}}), qt.IsNil)
	c.Assert(*api.edits[1].Embeds, qt.HasLen, 1)

	c.Assert(r.Followup(&command.Response{Content: "more", Ephemeral: true}), qt.IsNil)
	c.Assert(api.followups[0].Content, qt.Equals, "more")
	c.Assert(api.followups[0].Flags, qt.Equals, discordgo.MessageFlagsEphemeral)
	c.Assert(api.waits[0], qt.IsTrue)
}

func TestResponderAutocompleteAndPong(t *testing.T) {
	c := qt.New(t)
	api := &fakeInteractionAPI{}
	r := newResponder(api, &discordgo.Interaction{Type: discordgo.InteractionApplicationCommandAutocomplete})

	c.Assert(r.Autocomplete(nil), qt.IsNil)
	c.Assert(api.responses[0].Type, qt.Equals, discordgo.InteractionApplicationCommandAutocompleteResult)
	c.Assert(api.responses[0].Data.Choices, qt.IsNotNil)
	c.Assert(api.responses[0].Data.Choices, qt.HasLen, 0)

	c.Assert(r.Pong(), qt.IsNil)
	c.Assert(api.responses[1].Type, qt.Equals, discordgo.InteractionResponsePong)
}
