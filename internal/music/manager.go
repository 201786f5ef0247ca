package music

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Engine is what command bodies use to reach guild players.
type Engine interface {
	Player(guildID string) *Player
	Lookup(guildID string) (*Player, bool)
	Destroy(guildID string)
}

// Defaults supplies the starting volume and repeat mode of a new player.
type Defaults func(guildID string) (volume int, repeat RepeatMode)

// Manager owns one Player per guild.
type Manager struct {
	mu       sync.Mutex
	players  map[string]*Player
	output   Output
	defaults Defaults
	onStatus func(guildID string, status PlayerStatus)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithOutput sets the audio sink shared by all players.
func WithOutput(out Output) ManagerOption {
	return func(m *Manager) { m.output = out }
}

// WithDefaults sets how new players are seeded.
func WithDefaults(d Defaults) ManagerOption {
	return func(m *Manager) { m.defaults = d }
}

// WithStatusListener is told about every player status change. It runs with
// the player locked and must not call back into it.
func WithStatusListener(fn func(guildID string, status PlayerStatus)) ManagerOption {
	return func(m *Manager) { m.onStatus = fn }
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		players: make(map[string]*Player),
		output:  NopOutput{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Player gets or creates the player of a guild.
func (m *Manager) Player(guildID string) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.players[guildID]; ok {
		return p
	}

	volume, repeat := 5, RepeatOff
	if m.defaults != nil {
		volume, repeat = m.defaults(guildID)
	}
	p := newPlayer(guildID, m.output, volume, repeat, m.onStatus)
	m.players[guildID] = p
	log.Debug().Str("guild", guildID).Int("volume", volume).Stringer("repeat", repeat).Msg("Player created")
	return p
}

// Lookup returns the player of a guild without creating one.
func (m *Manager) Lookup(guildID string) (*Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[guildID]
	return p, ok
}

// Destroy stops and forgets the player of a guild.
func (m *Manager) Destroy(guildID string) {
	m.mu.Lock()
	p, ok := m.players[guildID]
	delete(m.players, guildID)
	m.mu.Unlock()
	if ok {
		_ = p.Stop()
	}
}

// Len is the number of live players.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// Close stops every player.
func (m *Manager) Close() {
	m.mu.Lock()
	players := m.players
	m.players = make(map[string]*Player)
	m.mu.Unlock()
	for _, p := range players {
		_ = p.Stop()
	}
}
