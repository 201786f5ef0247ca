package music

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// RepeatMode mirrors the stored repeat_mode setting.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatTrack
	RepeatQueue
	RepeatAutoplay
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatTrack:
		return "Track"
	case RepeatQueue:
		return "Queue"
	case RepeatAutoplay:
		return "Autoplay"
	default:
		return "Off"
	}
}

type PlayerStatus string

const (
	StatusPlaying PlayerStatus = "Playing"
	StatusAdded   PlayerStatus = "Track(s) Added"
	StatusStopped PlayerStatus = "Playback Stopped"
	StatusPaused  PlayerStatus = "Playback Paused"
	StatusResumed PlayerStatus = "Playback Resumed"
	StatusError   PlayerStatus = "Error"
)

func (status PlayerStatus) StringEmoji() string {
	m := map[PlayerStatus]string{
		StatusPlaying: "▶️",
		StatusAdded:   "🎶",
		StatusStopped: "⏹",
		StatusPaused:  "⏸",
		StatusResumed: "▶️",
		StatusError:   "❌",
	}
	return m[status]
}

var (
	ErrNoTrackPlaying  = errors.New("no track is currently playing")
	ErrNoTracksInQueue = errors.New("no tracks in queue")
	ErrNoHistory       = errors.New("no previous track")
	ErrAlreadyPaused   = errors.New("playback is already paused")
	ErrNotPaused       = errors.New("playback is not paused")
)

// PositionError reports a 1-based queue position outside the queue.
type PositionError struct {
	Position int
	Size     int
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("position %d is out of range (queue has %d tracks)", e.Position, e.Size)
}

const (
	MinVolume   = 0
	MaxVolume   = 100
	historySize = 50
)

// Output is the audio sink a player drives. Decoding and streaming live
// behind it.
type Output interface {
	Play(guildID, channelID string, t Track, volume int) error
	Stop(guildID string) error
}

// NopOutput accepts everything and plays nothing.
type NopOutput struct{}

func (NopOutput) Play(string, string, Track, int) error { return nil }
func (NopOutput) Stop(string) error                     { return nil }

// Snapshot is a copy of a player's state.
type Snapshot struct {
	GuildID   string
	ChannelID string
	Current   *Track
	Upcoming  []Track
	History   []Track
	Volume    int
	Repeat    RepeatMode
	Paused    bool
}

// Player holds the queue of one guild.
type Player struct {
	mu        sync.Mutex
	guildID   string
	channelID string
	current   *Track
	queue     []Track
	history   []Track
	volume    int
	repeat    RepeatMode
	paused    bool

	output   Output
	onStatus func(guildID string, status PlayerStatus)
}

func newPlayer(guildID string, out Output, volume int, repeat RepeatMode, onStatus func(string, PlayerStatus)) *Player {
	return &Player{
		guildID:  guildID,
		output:   out,
		volume:   volume,
		repeat:   repeat,
		onStatus: onStatus,
	}
}

func (p *Player) emitStatus(status PlayerStatus) {
	if p.onStatus != nil {
		p.onStatus(p.guildID, status)
	}
}

// Enqueue appends tracks and starts playback in channelID when idle. It
// reports whether playback started.
func (p *Player) Enqueue(channelID string, tracks ...Track) (bool, error) {
	if len(tracks) == 0 {
		return false, ErrNoTracksInQueue
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = append(p.queue, tracks...)
	log.Debug().Str("guild", p.guildID).Int("added", len(tracks)).Int("queue", len(p.queue)).Msg("Tracks enqueued")

	if p.current != nil {
		p.emitStatus(StatusAdded)
		return false, nil
	}
	p.channelID = channelID
	return true, p.startNextLocked()
}

// PlayNext puts tracks at the front of the queue.
func (p *Player) PlayNext(channelID string, tracks ...Track) (bool, error) {
	if len(tracks) == 0 {
		return false, ErrNoTracksInQueue
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = append(slices.Clone(tracks), p.queue...)
	if p.current != nil {
		p.emitStatus(StatusAdded)
		return false, nil
	}
	p.channelID = channelID
	return true, p.startNextLocked()
}

// startNextLocked pops the queue head into current. Tracks the output
// refuses are dropped and the next one is tried.
func (p *Player) startNextLocked() error {
	for len(p.queue) > 0 {
		track := p.queue[0]
		p.queue = p.queue[1:]
		if err := p.output.Play(p.guildID, p.channelID, track, p.volume); err != nil {
			log.Warn().Err(err).Str("guild", p.guildID).Str("track", track.Title).Msg("Skipping track the output refused")
			p.emitStatus(StatusError)
			continue
		}
		p.current = &track
		p.paused = false
		p.emitStatus(StatusPlaying)
		return nil
	}
	p.current = nil
	return ErrNoTracksInQueue
}

// retireLocked moves current into history, and back into the queue when
// the whole queue repeats.
func (p *Player) retireLocked() {
	if p.current == nil {
		return
	}
	p.history = append(p.history, *p.current)
	if len(p.history) > historySize {
		p.history = p.history[len(p.history)-historySize:]
	}
	if p.repeat == RepeatQueue {
		p.queue = append(p.queue, *p.current)
	}
	p.current = nil
}

// Skip ends the current track and starts the next one. The returned track
// is the one that was skipped. An empty queue stops playback.
func (p *Player) Skip() (Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Track{}, ErrNoTrackPlaying
	}
	skipped := *p.current
	p.retireLocked()
	if len(p.queue) == 0 {
		p.stopOutputLocked()
		return skipped, nil
	}
	if err := p.startNextLocked(); err != nil {
		p.stopOutputLocked()
	}
	return skipped, nil
}

// Finished is called by the output when a track ends on its own.
func (p *Player) Finished() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return
	}
	if p.repeat == RepeatTrack {
		if err := p.output.Play(p.guildID, p.channelID, *p.current, p.volume); err == nil {
			return
		}
	}
	p.retireLocked()
	if err := p.startNextLocked(); err != nil {
		p.stopOutputLocked()
	}
}

// SkipTo drops every track before the 1-based position and plays it.
func (p *Player) SkipTo(position int) (Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkPosition(position); err != nil {
		return Track{}, err
	}
	p.queue = p.queue[position-1:]
	p.retireLocked()
	target := p.queue[0]
	return target, p.startNextLocked()
}

// JumpTo plays the track at the 1-based position next, keeping the rest of
// the queue in order.
func (p *Player) JumpTo(position int) (Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkPosition(position); err != nil {
		return Track{}, err
	}
	target := p.queue[position-1]
	p.queue = slices.Delete(p.queue, position-1, position)
	p.queue = slices.Insert(p.queue, 0, target)
	p.retireLocked()
	return target, p.startNextLocked()
}

// Previous replays the last track from history, pushing current back to
// the front of the queue.
func (p *Player) Previous() (Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) == 0 {
		return Track{}, ErrNoHistory
	}
	prev := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	if p.current != nil {
		p.queue = slices.Insert(p.queue, 0, *p.current)
		p.current = nil
	}
	p.queue = slices.Insert(p.queue, 0, prev)
	return prev, p.startNextLocked()
}

// Pause pauses playback.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ErrNoTrackPlaying
	}
	if p.paused {
		return ErrAlreadyPaused
	}
	p.paused = true
	p.emitStatus(StatusPaused)
	return nil
}

// Resume resumes paused playback.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ErrNoTrackPlaying
	}
	if !p.paused {
		return ErrNotPaused
	}
	p.paused = false
	p.emitStatus(StatusResumed)
	return nil
}

// Stop ends playback and empties the queue.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil && len(p.queue) == 0 {
		return ErrNoTrackPlaying
	}
	p.queue = nil
	p.current = nil
	p.paused = false
	p.stopOutputLocked()
	return nil
}

func (p *Player) stopOutputLocked() {
	if err := p.output.Stop(p.guildID); err != nil {
		log.Warn().Err(err).Str("guild", p.guildID).Msg("Output failed to stop")
	}
	p.emitStatus(StatusStopped)
}

// Clear empties the upcoming queue and returns how many tracks it held.
func (p *Player) Clear() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.queue)
	p.queue = nil
	return n
}

// Shuffle randomizes the upcoming queue.
func (p *Player) Shuffle() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) < 2 {
		return ErrNoTracksInQueue
	}
	rand.Shuffle(len(p.queue), func(i, j int) {
		p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
	})
	return nil
}

// Remove deletes the track at the 1-based position.
func (p *Player) Remove(position int) (Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkPosition(position); err != nil {
		return Track{}, err
	}
	t := p.queue[position-1]
	p.queue = slices.Delete(p.queue, position-1, position)
	return t, nil
}

// Move relocates the track at from to to, both 1-based.
func (p *Player) Move(from, to int) (Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkPosition(from); err != nil {
		return Track{}, err
	}
	if err := p.checkPosition(to); err != nil {
		return Track{}, err
	}
	t := p.queue[from-1]
	p.queue = slices.Delete(p.queue, from-1, from)
	p.queue = slices.Insert(p.queue, to-1, t)
	return t, nil
}

// Swap exchanges two 1-based positions.
func (p *Player) Swap(a, b int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkPosition(a); err != nil {
		return err
	}
	if err := p.checkPosition(b); err != nil {
		return err
	}
	p.queue[a-1], p.queue[b-1] = p.queue[b-1], p.queue[a-1]
	return nil
}

// SetVolume changes the volume handed to the output on the next Play.
func (p *Player) SetVolume(v int) error {
	if v < MinVolume || v > MaxVolume {
		return fmt.Errorf("volume must be between %d and %d", MinVolume, MaxVolume)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
	return nil
}

// SetRepeat changes the repeat mode.
func (p *Player) SetRepeat(mode RepeatMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = mode
}

// Current returns the playing track.
func (p *Player) Current() (Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Track{}, ErrNoTrackPlaying
	}
	return *p.current, nil
}

// IsPlaying reports whether a track is loaded and not paused.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && !p.paused
}

// Snapshot copies the player state.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		GuildID:   p.guildID,
		ChannelID: p.channelID,
		Upcoming:  slices.Clone(p.queue),
		History:   slices.Clone(p.history),
		Volume:    p.volume,
		Repeat:    p.repeat,
		Paused:    p.paused,
	}
	if p.current != nil {
		cur := *p.current
		s.Current = &cur
	}
	return s
}

func (p *Player) checkPosition(position int) error {
	if position < 1 || position > len(p.queue) {
		return &PositionError{Position: position, Size: len(p.queue)}
	}
	return nil
}
