package discord

import "github.com/rs/zerolog/log"

type SystemEventType string

const (
	SystemEventRefreshCommands SystemEventType = "refresh_commands"
)

type SystemEvent struct {
	Type    SystemEventType
	GuildID string
	Target  string
}

// eventBus hands system events from command handlers to the bot loop.
type eventBus struct {
	ch chan SystemEvent
}

func newEventBus(size int) *eventBus {
	return &eventBus{ch: make(chan SystemEvent, size)}
}

// Publish never blocks; events are dropped while the bus is full.
func (b *eventBus) Publish(evt SystemEvent) bool {
	select {
	case b.ch <- evt:
		return true
	default:
		log.Warn().Str("type", string(evt.Type)).Str("guild", evt.GuildID).Msg("System event bus full, event dropped")
		return false
	}
}

func (b *eventBus) Events() <-chan SystemEvent {
	return b.ch
}
