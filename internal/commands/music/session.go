// Package music holds the playback commands: the public music commands,
// the DJ queue controls and the per-server music settings.
package music

import (
	"errors"
	"fmt"
	"slices"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	player "server-tempo/internal/music"
	"server-tempo/internal/permission"
	"server-tempo/internal/storage"
)

// need is the set of session checks a command asks for.
type need uint8

const (
	// needVoice requires the caller to be in a voice channel, and in the
	// player's channel when one is active.
	needVoice need = 1 << iota
	// needPlayer requires a track to be loaded.
	needPlayer
	// needDJ requires a DJ role, or Administrator when none are configured.
	needDJ
)

// session is what the checks resolved for a command.
type session struct {
	Settings *storage.Settings
	// Player is nil unless the server has one.
	Player *player.Player
	// Voice is the caller's voice channel.
	Voice string
}

// open runs the requested checks. A nil session means the caller was told
// why and the command must stop, returning the error.
func open(ctx *command.Context, n need) (*session, error) {
	env := ctx.Env
	if env.Music == nil || env.Settings == nil {
		return nil, commands.Fail(ctx, "music playback isn't available right now")
	}

	settings, err := env.Settings.Settings(ctx.Actor.GuildID)
	if err != nil {
		_ = commands.Fail(ctx, "couldn't load the settings of this server, please try again later")
		return nil, fmt.Errorf("load settings: %w", err)
	}
	s := &session{Settings: settings}

	if msg := channelRestriction(settings, ctx.Actor.ChannelID); msg != "" {
		return nil, commands.Fail(ctx, "%s", msg)
	}
	if n&needDJ != 0 {
		if msg := djRestriction(ctx, settings); msg != "" {
			return nil, commands.Fail(ctx, "%s", msg)
		}
	}

	if p, ok := env.Music.Lookup(ctx.Actor.GuildID); ok {
		s.Player = p
	}
	if n&needPlayer != 0 {
		if s.Player == nil {
			return nil, commands.Fail(ctx, "no music is currently being played - `/play` something first to initialize a session")
		}
		if _, err := s.Player.Current(); errors.Is(err, player.ErrNoTrackPlaying) {
			return nil, commands.Fail(ctx, "no music is currently being played - `/play` something first to initialize a session")
		}
	}

	if n&needVoice != 0 {
		if env.Voice != nil {
			s.Voice, err = env.Voice.UserVoiceChannel(ctx.Actor.GuildID, ctx.Actor.UserID)
			if err != nil {
				_ = commands.Fail(ctx, "couldn't look up your voice state, please try again later")
				return nil, fmt.Errorf("voice state: %w", err)
			}
		}
		if s.Voice == "" {
			return nil, commands.Fail(ctx, "please join a voice channel first, and try again.")
		}
		if s.Player != nil {
			if bound := s.Player.Snapshot().ChannelID; bound != "" && bound != s.Voice && s.Player.IsPlaying() {
				return nil, commands.Fail(ctx, "I'm already playing in <#%s>%s", bound, commands.Cancelled)
			}
		}
	}
	return s, nil
}

// channelRestriction explains where music commands belong, or returns ""
// when channelID is allowed.
func channelRestriction(s *storage.Settings, channelID string) string {
	if len(s.MusicChannelIDs) == 0 || slices.Contains(s.MusicChannelIDs, channelID) {
		return ""
	}
	if s.UseThreadSessions && s.ThreadSessionStrictCommandChannel {
		return "please use music commands in one of the music session channels: " + commands.Mentions("<#", s.MusicChannelIDs)
	}
	if len(s.MusicChannelIDs) == 1 {
		return fmt.Sprintf("please use music commands in the dedicated music channel <#%s>", s.MusicChannelIDs[0])
	}
	return "please use music commands in one of the dedicated channels: " + commands.Mentions("<#", s.MusicChannelIDs)
}

// djRestriction returns "" when the caller may use DJ commands.
func djRestriction(ctx *command.Context, s *storage.Settings) string {
	admin, _ := ctx.Env.Registry.Permissions().Level(permission.TierAdministrator)
	if ctx.Actor.Level >= admin {
		return ""
	}
	if len(s.DJRoleIDs) == 0 {
		return "you don't have the required permission level to use this command. It is reserved for Administrators and up until **`/dj-roles`** are configured" + commands.Cancelled
	}
	for _, id := range s.DJRoleIDs {
		if ctx.Actor.HasRole(id) {
			return ""
		}
	}
	return "you need one of the DJ roles to use this command: " + commands.Mentions("<@&", s.DJRoleIDs)
}

// positionFailure turns queue position errors into a reply.
func positionFailure(ctx *command.Context, err error) error {
	var pe *player.PositionError
	if errors.As(err, &pe) {
		if pe.Size == 0 {
			return commands.Fail(ctx, "there are no songs in the queue%s", commands.Cancelled)
		}
		return commands.Fail(ctx, "there's no song at position **`%d`**, the queue has **`%d`** songs%s", pe.Position, pe.Size, commands.Cancelled)
	}
	return commands.Fail(ctx, "something went wrong:\n\n%v", err)
}
