package music

import "sync"

// VoteSkip tracks skip votes per guild. Votes belong to one track and are
// discarded when another track comes up.
type VoteSkip struct {
	mu    sync.Mutex
	polls map[string]*poll
}

type poll struct {
	track  string
	voters map[string]struct{}
}

// Tally is the state of a poll after a vote.
type Tally struct {
	Votes     int
	Required  int
	Duplicate bool
}

// Passed reports whether enough listeners voted.
func (t Tally) Passed() bool { return t.Votes >= t.Required }

func NewVoteSkip() *VoteSkip {
	return &VoteSkip{polls: make(map[string]*poll)}
}

// Threshold is how many of listeners must vote: a simple majority, capped
// at the number of listeners.
func Threshold(listeners int) int {
	if listeners <= 0 {
		return 1
	}
	return min(listeners, (listeners+1)/2+1)
}

// Vote records userID's vote against track (the track URL or title) in a
// guild with the given number of listeners.
func (v *VoteSkip) Vote(guildID, track, userID string, listeners int) Tally {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, ok := v.polls[guildID]
	if !ok || p.track != track {
		p = &poll{track: track, voters: make(map[string]struct{})}
		v.polls[guildID] = p
	}

	_, dup := p.voters[userID]
	p.voters[userID] = struct{}{}

	t := Tally{Votes: len(p.voters), Required: Threshold(listeners), Duplicate: dup}
	if t.Passed() {
		delete(v.polls, guildID)
	}
	return t
}

// Reset drops the poll of a guild.
func (v *VoteSkip) Reset(guildID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.polls, guildID)
}

// Votes is the current number of votes in a guild.
func (v *VoteSkip) Votes(guildID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.polls[guildID]; ok {
		return len(p.voters)
	}
	return 0
}
