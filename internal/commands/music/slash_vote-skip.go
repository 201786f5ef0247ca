package music

import (
	"server-tempo/internal/command"
	"server-tempo/internal/commands"
)

func init() {
	commands.Register(command.Source{Origin: "music/vote-skip", Build: func() command.Config {
		return command.Config{
			Kind:        command.ChatInput,
			Description: "Vote to skip the current song, skips once more than half of the listeners voted",
			Global:      true,
			Run:         runVoteSkip,
		}
	}})
}

func runVoteSkip(ctx *command.Context) error {
	s, err := open(ctx, needVoice|needPlayer)
	if s == nil {
		return err
	}
	if ctx.Env.Votes == nil {
		return commands.Fail(ctx, "vote skipping isn't available right now")
	}
	current, err := s.Player.Current()
	if err != nil {
		return commands.Fail(ctx, "no music is currently being played - `/play` something first to initialize a session")
	}

	key := current.URL
	if key == "" {
		key = current.Title
	}
	listeners := 1
	if ctx.Env.Voice != nil {
		listeners = ctx.Env.Voice.VoiceListeners(ctx.Actor.GuildID, s.Voice)
	}

	tally := ctx.Env.Votes.Vote(ctx.Actor.GuildID, key, ctx.Actor.UserID, listeners)
	if tally.Duplicate {
		return commands.Fail(ctx, "you have already voted%s", commands.Cancelled)
	}
	if !tally.Passed() {
		return commands.Succeed(ctx, "registered your vote - current votes: %d / %d", tally.Votes, tally.Required)
	}

	skipped, err := s.Player.Skip()
	if err != nil {
		return commands.Fail(ctx, "something went wrong:\n\n%v", err)
	}
	return commands.Succeed(ctx, "skipped **`%s`**, vote threshold was reached", skipped.Title)
}

// resetVotes drops the skip poll after a track was skipped some other way.
func resetVotes(ctx *command.Context) {
	if ctx.Env.Votes != nil {
		ctx.Env.Votes.Reset(ctx.Actor.GuildID)
	}
}
