package storage

import (
	"fmt"
	"sync"
	"time"

	"server-tempo/datastore"
)

const recentQueriesLimit = 25

// Repeat modes stored in Settings.RepeatMode.
const (
	RepeatOff = iota
	RepeatTrack
	RepeatQueue
	RepeatAutoplay
)

// Settings is the per-guild configuration document.
type Settings struct {
	GuildID                           string    `json:"guild_id"`
	Volume                            int       `json:"volume"`
	RepeatMode                        int       `json:"repeat_mode"`
	MusicChannelIDs                   []string  `json:"music_channel_ids"`
	UseThreadSessions                 bool      `json:"use_thread_sessions"`
	ThreadSessionStrictCommandChannel bool      `json:"thread_session_strict_command_channel"`
	LeaveOnEndCooldown                int       `json:"leave_on_end_cooldown"`
	LeaveOnEmpty                      bool      `json:"leave_on_empty"`
	LeaveOnEmptyCooldown              int       `json:"leave_on_empty_cooldown"`
	DJRoleIDs                         []string  `json:"dj_role_ids"`
	Equalizer                         string    `json:"equalizer"`
	RecentQueries                     []string  `json:"recent_queries"`
	UpdatedAt                         time.Time `json:"updated_at"`
}

// DefaultSettings is what a guild starts with.
func DefaultSettings(guildID string) *Settings {
	return &Settings{
		GuildID:                           guildID,
		Volume:                            5,
		RepeatMode:                        RepeatOff,
		MusicChannelIDs:                   []string{},
		UseThreadSessions:                 true,
		ThreadSessionStrictCommandChannel: true,
		LeaveOnEndCooldown:                120,
		LeaveOnEmpty:                      true,
		LeaveOnEmptyCooldown:              120,
		DJRoleIDs:                         []string{},
		Equalizer:                         "null",
	}
}

type Storage struct {
	ds *datastore.DataStore
	mu sync.Mutex
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

// NewWithDatastore wraps an already opened datastore.
func NewWithDatastore(ds *datastore.DataStore) *Storage {
	return &Storage{ds: ds}
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Flush writes pending changes to disk.
func (s *Storage) Flush() error {
	return s.ds.SaveToFile()
}

func settingsKey(guildID string) string {
	return "guild:" + guildID
}

// Settings returns the settings for a guild, creating defaults on first use.
func (s *Storage) Settings(guildID string) (*Settings, error) {
	if guildID == "" {
		return nil, fmt.Errorf("guild id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(guildID)
}

func (s *Storage) getOrCreate(guildID string) (*Settings, error) {
	settings := DefaultSettings(guildID)
	ok, err := s.ds.Get(settingsKey(guildID), settings)
	if err != nil {
		return nil, fmt.Errorf("error reading settings for guild %s: %w", guildID, err)
	}
	if !ok {
		if err := s.ds.Put(settingsKey(guildID), settings); err != nil {
			return nil, err
		}
		return settings, nil
	}

	if settings.MusicChannelIDs == nil {
		settings.MusicChannelIDs = []string{}
	}
	if settings.DJRoleIDs == nil {
		settings.DJRoleIDs = []string{}
	}
	return settings, nil
}

// SaveSettings replaces the stored document. The query history is owned by
// RememberQuery and always kept as stored.
func (s *Storage) SaveSettings(settings *Settings) error {
	if settings == nil || settings.GuildID == "" {
		return fmt.Errorf("settings without guild id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, err := s.getOrCreate(settings.GuildID)
	if err != nil {
		return err
	}
	settings.RecentQueries = stored.RecentQueries
	settings.UpdatedAt = time.Now().UTC()
	return s.ds.Put(settingsKey(settings.GuildID), settings)
}

// DeleteSettings forgets a guild, e.g. after the bot was removed from it.
func (s *Storage) DeleteSettings(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds.Delete(settingsKey(guildID))
}

// RememberQuery keeps the most recent distinct play queries of a guild.
func (s *Storage) RememberQuery(guildID, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.getOrCreate(guildID)
	if err != nil {
		return err
	}

	queries := []string{query}
	for _, q := range settings.RecentQueries {
		if q != query {
			queries = append(queries, q)
		}
	}
	if len(queries) > recentQueriesLimit {
		queries = queries[:recentQueriesLimit]
	}
	settings.RecentQueries = queries
	return s.ds.Put(settingsKey(guildID), settings)
}

// RecentQueries returns the newest queries first.
func (s *Storage) RecentQueries(guildID string) ([]string, error) {
	settings, err := s.Settings(guildID)
	if err != nil {
		return nil, err
	}
	return settings.RecentQueries, nil
}
