package discord

import (
	"errors"

	"server-tempo/internal/command"
	"server-tempo/internal/dispatch"

	"github.com/bwmarrin/discordgo"
)

// restLookup is the REST fallback for lookups the state cache misses.
type restLookup interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// platform answers guild, channel and voice questions from the gateway
// state, falling back to REST for guilds and channels.
type platform struct {
	state *discordgo.State
	rest  restLookup
}

var (
	_ dispatch.Platform = (*platform)(nil)
	_ command.Voice     = (*platform)(nil)
)

func (p *platform) Guild(guildID string) (*discordgo.Guild, error) {
	if g, err := p.state.Guild(guildID); err == nil {
		return g, nil
	}
	return p.rest.Guild(guildID)
}

func (p *platform) Channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := p.state.Channel(channelID); err == nil {
		return ch, nil
	}
	return p.rest.Channel(channelID)
}

// UserVoiceChannel returns the voice channel a user sits in, "" if none.
func (p *platform) UserVoiceChannel(guildID, userID string) (string, error) {
	vs, err := p.state.VoiceState(guildID, userID)
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return vs.ChannelID, nil
}

// VoiceListeners counts the humans in a voice channel, excluding the bot.
func (p *platform) VoiceListeners(guildID, channelID string) int {
	g, err := p.state.Guild(guildID)
	if err != nil || channelID == "" {
		return 0
	}

	p.state.RLock()
	selfID := ""
	if p.state.User != nil {
		selfID = p.state.User.ID
	}
	var present []*discordgo.VoiceState
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == channelID && vs.UserID != selfID {
			present = append(present, vs)
		}
	}
	p.state.RUnlock()

	n := 0
	for _, vs := range present {
		if !p.isBot(guildID, vs) {
			n++
		}
	}
	return n
}

func (p *platform) isBot(guildID string, vs *discordgo.VoiceState) bool {
	member := vs.Member
	if member == nil {
		member, _ = p.state.Member(guildID, vs.UserID)
	}
	return member != nil && member.User != nil && member.User.Bot
}
